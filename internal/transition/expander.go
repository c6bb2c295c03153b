// Package transition expands tagged keyframe transitions into explicit samples.
package transition

import (
	"github.com/OCAP2/animconv/internal/easing"
	"github.com/OCAP2/animconv/internal/util"
	"github.com/OCAP2/animconv/pkg/core"
)

// DefaultSteps is the number of segments a curved transition is split into.
const DefaultSteps = 10

// TagInstant makes a key hold its value and cut to the next one.
const TagInstant = "instant"

// Expander rewrites channel timelines into output keyframe maps.
type Expander struct {
	Library *easing.Library
	Steps   int
}

// New creates an expander. A nil library uses easing.Default and a
// non-positive step count uses DefaultSteps.
func New(lib *easing.Library, steps int) *Expander {
	if lib == nil {
		lib = easing.Default()
	}
	if steps <= 0 {
		steps = DefaultSteps
	}
	return &Expander{Library: lib, Steps: steps}
}

func keyed(time float64, e core.OutputEntry) core.KeyedEntry {
	return core.KeyedEntry{Time: time, Key: util.FormatDecimal(time), Entry: e}
}

// ExpandChannel converts one timeline into its ordered output entries and
// returns the number of synthesized samples.
func (x *Expander) ExpandChannel(tl core.ChannelTimeline) (core.ChannelKeys, int) {
	keys := tl.Keys
	switch len(keys) {
	case 0:
		return nil, 0
	case 1:
		return core.ChannelKeys{keyed(keys[0].Time, core.ValueEntry(keys[0].Value))}, 0
	}

	out := make(core.ChannelKeys, 0, len(keys)*x.Steps)
	synthesized := 0

	for i := 0; i < len(keys)-1; i++ {
		cur, next := keys[i], keys[i+1]

		if cur.Transition == TagInstant {
			out = append(out, keyed(cur.Time, core.StepEntry(next.Value)))
			continue
		}
		out = append(out, keyed(cur.Time, core.ValueEntry(cur.Value)))

		if cur.Transition == "" {
			continue
		}
		sampler, ok := x.Library.Lookup(cur.Transition)
		if !ok {
			continue
		}

		prev, prevTime := cur.Value, cur.Time
		for _, s := range sampler(cur.Value.R3(), next.Value.R3(), cur.Time, next.Time, x.Steps) {
			// Far from zero the sample times round onto their neighbours.
			if s.Time <= prevTime || s.Time >= next.Time {
				continue
			}
			prevTime = s.Time
			v := core.Vec3(s.Value)
			out = append(out, keyed(s.Time, core.LerpEntry(prev, v)))
			prev = v
			synthesized++
		}
	}

	last := keys[len(keys)-1]
	out = append(out, keyed(last.Time, core.ValueEntry(last.Value)))

	return out, synthesized
}

// Expand converts every channel of every bone. Bones whose channels are all
// empty are dropped.
func (x *Expander) Expand(bones []core.BoneTimelines) ([]core.OutputBone, core.ConversionStats) {
	var stats core.ConversionStats
	out := make([]core.OutputBone, 0, len(bones))

	for _, b := range bones {
		ob := core.OutputBone{Name: b.Bone}
		for _, c := range core.Channels {
			entries, n := x.ExpandChannel(b.Channels.Get(c))
			ob.Channels.Set(c, entries)
			stats.SynthesizedFrames += n
		}
		if ob.Empty() {
			continue
		}
		stats.Keyframes += len(b.Channels.Position.Keys)
		out = append(out, ob)
	}
	stats.Bones = len(out)

	return out, stats
}
