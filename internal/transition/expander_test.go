package transition

import (
	"testing"

	"github.com/OCAP2/animconv/internal/easing"
	"github.com/OCAP2/animconv/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(frame int64, tempo, x float64, transition string) core.TimelineKey {
	return core.TimelineKey{
		Frame:      frame,
		Time:       float64(frame) / tempo,
		Value:      core.V3(x, 0, 0),
		Transition: transition,
	}
}

func channel(keys ...core.TimelineKey) core.ChannelTimeline {
	return core.ChannelTimeline{Bone: "root", Channel: core.ChannelPosition, Keys: keys}
}

func entryKeys(c core.ChannelKeys) []string {
	out := make([]string, 0, len(c))
	for _, e := range c {
		out = append(out, e.Key)
	}
	return out
}

func TestNew_Defaults(t *testing.T) {
	x := New(nil, 0)
	assert.Same(t, easing.Default(), x.Library)
	assert.Equal(t, DefaultSteps, x.Steps)
}

func TestExpandChannel_Empty(t *testing.T) {
	out, n := New(nil, 0).ExpandChannel(channel())
	assert.Empty(t, out)
	assert.Zero(t, n)
}

func TestExpandChannel_SingleKey(t *testing.T) {
	out, n := New(nil, 0).ExpandChannel(channel(key(4, 20, 7, "easeinquad")))
	require.Len(t, out, 1)
	assert.Zero(t, n)
	assert.Equal(t, "0.2", out[0].Key)
	assert.Equal(t, core.EntryValue, out[0].Entry.Kind)
	assert.Equal(t, core.V3(7, 0, 0), out[0].Entry.Value())
}

func TestExpandChannel_LinearPassthrough(t *testing.T) {
	for _, tag := range []string{"", "wobble"} {
		t.Run("tag="+tag, func(t *testing.T) {
			out, n := New(nil, 0).ExpandChannel(channel(
				key(0, 20, 0, tag),
				key(10, 20, 10, tag),
				key(20, 20, 20, ""),
			))
			assert.Zero(t, n)
			assert.Equal(t, []string{"0", "0.5", "1"}, entryKeys(out))
			for _, e := range out {
				assert.Equal(t, core.EntryValue, e.Entry.Kind)
			}
		})
	}
}

func TestExpandChannel_Instant(t *testing.T) {
	out, n := New(nil, 0).ExpandChannel(channel(
		key(0, 10, 1, TagInstant),
		key(10, 10, 5, ""),
	))
	assert.Zero(t, n)
	require.Len(t, out, 2)

	assert.Equal(t, "0", out[0].Key)
	assert.Equal(t, core.EntryStep, out[0].Entry.Kind)
	assert.Equal(t, core.V3(5, 0, 0), out[0].Entry.Post)

	assert.Equal(t, "1", out[1].Key)
	assert.Equal(t, core.EntryValue, out[1].Entry.Kind)
	assert.Equal(t, core.V3(5, 0, 0), out[1].Entry.Value())
}

func TestExpandChannel_WorkedExample(t *testing.T) {
	out, n := New(nil, 0).ExpandChannel(channel(
		key(0, 20, 0, ""),
		key(10, 20, 10, "easeinquad"),
		key(20, 20, 20, ""),
	))
	assert.Equal(t, 9, n)
	require.Len(t, out, 12)

	assert.Equal(t, "0", out[0].Key)
	assert.Equal(t, core.V3(0, 0, 0), out[0].Entry.Value())
	assert.Equal(t, "0.5", out[1].Key)
	assert.Equal(t, core.V3(10, 0, 0), out[1].Entry.Value())
	assert.Equal(t, "1", out[11].Key)
	assert.Equal(t, core.V3(20, 0, 0), out[11].Entry.Value())

	prev := core.V3(10, 0, 0)
	for j, e := range out[2:11] {
		assert.Equal(t, core.EntryLerp, e.Entry.Kind, "sample %d", j)
		assert.Greater(t, e.Time, 0.5)
		assert.Less(t, e.Time, 1.0)
		assert.Equal(t, prev, e.Entry.Pre, "pre chains from the previous sample")

		frac := float64(j+1) / 10
		assert.InDelta(t, 10+10*frac*frac, e.Entry.Post.X, 1e-9)
		prev = e.Entry.Post
	}

	for i := 1; i < len(out); i++ {
		assert.Less(t, out[i-1].Time, out[i].Time)
	}
}

func TestExpandChannel_CustomSteps(t *testing.T) {
	out, n := New(nil, 4).ExpandChannel(channel(
		key(0, 1, 0, "easeoutsine"),
		key(1, 1, 1, ""),
	))
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"0", "0.25", "0.5", "0.75", "1"}, entryKeys(out))
}

func TestExpandChannel_DropsUnrepresentableSamples(t *testing.T) {
	const base = int64(1) << 52
	out, n := New(nil, 0).ExpandChannel(channel(
		key(base, 1, 0, "easeinquad"),
		key(base+1, 1, 10, ""),
	))

	assert.Zero(t, n)
	assert.Equal(t, []string{"4503599627370496", "4503599627370497"}, entryKeys(out))
	assert.Equal(t, core.EntryValue, out[0].Entry.Kind)
	assert.Equal(t, core.EntryValue, out[1].Entry.Kind)
}

func TestExpandChannel_StrictlyInsideInterval(t *testing.T) {
	const base = int64(1) << 49
	out, n := New(nil, 0).ExpandChannel(channel(
		key(base, 1, 0, "easeinoutsine"),
		key(base+1, 1, 10, ""),
	))

	require.Len(t, out, n+2)
	seen := map[string]bool{}
	for i, e := range out {
		assert.False(t, seen[e.Key], "duplicate key %s", e.Key)
		seen[e.Key] = true
		if i > 0 {
			assert.Greater(t, e.Time, out[i-1].Time)
		}
	}
}

func TestExpand(t *testing.T) {
	bones := []core.BoneTimelines{
		{Bone: "empty"},
		{
			Bone: "arm",
			Channels: core.ChannelSet[core.ChannelTimeline]{
				Position: channel(key(0, 20, 0, "easeinquad"), key(20, 20, 1, "")),
				Rotation: channel(key(0, 20, 0, ""), key(20, 20, 1, "")),
				Scale:    channel(key(0, 20, 1, ""), key(20, 20, 1, "")),
			},
		},
	}

	out, stats := New(nil, 0).Expand(bones)
	require.Len(t, out, 1)
	assert.Equal(t, "arm", out[0].Name)
	assert.Len(t, out[0].Channels.Position, 11)
	assert.Len(t, out[0].Channels.Rotation, 2)
	assert.Len(t, out[0].Channels.Scale, 2)

	assert.Equal(t, 1, stats.Bones)
	assert.Equal(t, 2, stats.Keyframes)
	assert.Equal(t, 9, stats.SynthesizedFrames)
}
