// pkg/core/output.go
package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// LoopHoldOnLastFrame is the only loop mode the converter emits.
const LoopHoldOnLastFrame = "hold_on_last_frame"

// LerpModeBezier marks synthesized pre/post samples.
const LerpModeBezier = "bezier"

// EntryKind discriminates the shapes an output keyframe can take.
type EntryKind uint8

const (
	// EntryValue is a bare [x, y, z] keyframe.
	EntryValue EntryKind = iota
	// EntryLerp is a synthesized {pre, post, lerp_mode} sample.
	EntryLerp
	// EntryStep is a {post} hold-then-cut keyframe.
	EntryStep
)

// OutputEntry is one keyframe in the target schema.
type OutputEntry struct {
	Kind EntryKind
	Pre  Vec3 // EntryValue stores its value here
	Post Vec3
}

// ValueEntry builds a bare keyframe.
func ValueEntry(v Vec3) OutputEntry {
	return OutputEntry{Kind: EntryValue, Pre: v, Post: v}
}

// LerpEntry builds a synthesized pre/post sample.
func LerpEntry(pre, post Vec3) OutputEntry {
	return OutputEntry{Kind: EntryLerp, Pre: pre, Post: post}
}

// StepEntry builds a hold-then-cut keyframe that jumps to post.
func StepEntry(post Vec3) OutputEntry {
	return OutputEntry{Kind: EntryStep, Post: post}
}

// Value returns the authored value of a bare entry.
func (e OutputEntry) Value() Vec3 {
	return e.Pre
}

type lerpJSON struct {
	Pre      Vec3   `json:"pre"`
	Post     Vec3   `json:"post"`
	LerpMode string `json:"lerp_mode"`
}

type stepJSON struct {
	Post Vec3 `json:"post"`
}

// MarshalJSON emits the shape matching the entry kind.
func (e OutputEntry) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case EntryValue:
		return json.Marshal(e.Pre)
	case EntryLerp:
		return json.Marshal(lerpJSON{Pre: e.Pre, Post: e.Post, LerpMode: LerpModeBezier})
	case EntryStep:
		return json.Marshal(stepJSON{Post: e.Post})
	default:
		return nil, fmt.Errorf("unknown output entry kind %d", e.Kind)
	}
}

// KeyedEntry is an output entry with its time and canonical time key.
type KeyedEntry struct {
	Time  float64
	Key   string
	Entry OutputEntry
}

// ChannelKeys is an ordered channel map; it serializes as a JSON object in slice order.
type ChannelKeys []KeyedEntry

// MarshalJSON writes the entries as an object keyed by their time keys.
func (c ChannelKeys) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, e.Key, e.Entry); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// OutputBone holds the expanded channel maps of one bone.
type OutputBone struct {
	Name     string
	Channels ChannelSet[ChannelKeys]
}

// Empty reports whether the bone has no entries on any channel.
func (b OutputBone) Empty() bool {
	for _, c := range Channels {
		if len(b.Channels.Get(c)) > 0 {
			return false
		}
	}
	return true
}

// MarshalJSON writes {"position": ..., "rotation": ..., "scale": ...}, omitting empty channels.
func (b OutputBone) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, c := range Channels {
		keys := b.Channels.Get(c)
		if len(keys) == 0 {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := writeMember(&buf, c.String(), keys); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// OutputBones serializes as an object keyed by bone name, in slice order.
type OutputBones []OutputBone

// MarshalJSON writes the bones as an ordered object.
func (bs OutputBones) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, b := range bs {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, b.Name, b); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// OutputAnimation is one animation in the target schema.
type OutputAnimation struct {
	Loop          string      `json:"loop"`
	LengthSeconds float64     `json:"animation_length"`
	Bones         OutputBones `json:"bones"`
}

// ConversionStats summarizes one conversion.
type ConversionStats struct {
	Bones             int `json:"bones"`
	Keyframes         int `json:"keyframes"`
	SkippedKeyframes  int `json:"skippedKeyframes"`
	SynthesizedFrames int `json:"synthesizedFrames"`
}

func writeMember(buf *bytes.Buffer, key string, v any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(val)
	return nil
}
