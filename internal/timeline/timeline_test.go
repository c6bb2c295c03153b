package timeline

import (
	"testing"

	"github.com/OCAP2/animconv/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(bone string, frame int64, x float64, transition string) core.KeyframeEvent {
	return core.KeyframeEvent{
		Bone:  bone,
		Frame: frame,
		Values: core.ChannelSet[core.Vec3]{
			Position: core.V3(x, 0, 0),
			Rotation: core.V3(0, x, 0),
			Scale:    core.V3(1, 1, x),
		},
		Transition: transition,
	}
}

func TestBuild_Empty(t *testing.T) {
	assert.Empty(t, Build(core.Source{Tempo: 20, Length: 10}))
}

func TestBuild_GroupsAndSorts(t *testing.T) {
	src := core.Source{
		Tempo:  20,
		Length: 40,
		Events: []core.KeyframeEvent{
			event("leg", 20, 3, ""),
			event("arm", 10, 1, "easeinquad"),
			event("leg", 0, 2, ""),
			event("arm", 0, 0, ""),
		},
	}

	bones := Build(src)
	require.Len(t, bones, 2)
	assert.Equal(t, "leg", bones[0].Bone, "bones keep first-seen order")
	assert.Equal(t, "arm", bones[1].Bone)

	arm := bones[1]
	for _, c := range core.Channels {
		tl := arm.Channels.Get(c)
		assert.Equal(t, "arm", tl.Bone)
		assert.Equal(t, c, tl.Channel)
		require.Len(t, tl.Keys, 2)
		assert.Equal(t, int64(0), tl.Keys[0].Frame)
		assert.Equal(t, int64(10), tl.Keys[1].Frame)
		assert.InDelta(t, 0.5, tl.Keys[1].Time, 1e-12)
		assert.Equal(t, "easeinquad", tl.Keys[1].Transition)
	}
	assert.Equal(t, core.V3(1, 0, 0), arm.Channels.Position.Keys[1].Value)
	assert.Equal(t, core.V3(0, 1, 0), arm.Channels.Rotation.Keys[1].Value)
	assert.Equal(t, core.V3(1, 1, 1), arm.Channels.Scale.Keys[1].Value)
}

func TestBuild_MonotonicTime(t *testing.T) {
	src := core.Source{Tempo: 24, Length: 100}
	for _, f := range []int64{50, 3, 99, 0, 12, 7} {
		src.Events = append(src.Events, event("b", f, float64(f), ""))
	}

	bones := Build(src)
	require.Len(t, bones, 1)
	keys := bones[0].Channels.Position.Keys
	for i := 1; i < len(keys); i++ {
		assert.Less(t, keys[i-1].Time, keys[i].Time)
	}
}

func TestBuild_DuplicateFrameLastWins(t *testing.T) {
	src := core.Source{
		Tempo:  20,
		Length: 40,
		Events: []core.KeyframeEvent{
			event("arm", 10, 1, "easeinquad"),
			event("arm", 10, 5, "instant"),
		},
	}

	bones := Build(src)
	require.Len(t, bones, 1)
	keys := bones[0].Channels.Position.Keys
	require.Len(t, keys, 1)
	assert.Equal(t, core.V3(5, 0, 0), keys[0].Value)
	assert.Equal(t, "instant", keys[0].Transition)
}

func TestBuild_DoesNotMutateSource(t *testing.T) {
	events := []core.KeyframeEvent{event("a", 5, 1, ""), event("a", 1, 2, "")}
	src := core.Source{Tempo: 10, Length: 10, Events: events}

	Build(src)
	assert.Equal(t, int64(5), src.Events[0].Frame)
	assert.Equal(t, int64(1), src.Events[1].Frame)
}
