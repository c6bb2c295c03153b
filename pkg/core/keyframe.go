// pkg/core/keyframe.go
package core

// Channel identifies one of the three transform channels of a bone.
type Channel uint8

const (
	ChannelPosition Channel = iota
	ChannelRotation
	ChannelScale
)

// Channels lists every channel in output order.
var Channels = [...]Channel{ChannelPosition, ChannelRotation, ChannelScale}

func (c Channel) String() string {
	switch c {
	case ChannelPosition:
		return "position"
	case ChannelRotation:
		return "rotation"
	case ChannelScale:
		return "scale"
	default:
		return "unknown"
	}
}

// ChannelSet holds one value per channel.
type ChannelSet[T any] struct {
	Position T
	Rotation T
	Scale    T
}

// Get returns the value stored for the channel.
func (s ChannelSet[T]) Get(c Channel) T {
	switch c {
	case ChannelRotation:
		return s.Rotation
	case ChannelScale:
		return s.Scale
	default:
		return s.Position
	}
}

// Set stores the value for the channel.
func (s *ChannelSet[T]) Set(c Channel, v T) {
	switch c {
	case ChannelRotation:
		s.Rotation = v
	case ChannelScale:
		s.Scale = v
	default:
		s.Position = v
	}
}

// KeyframeEvent is one authored keyframe record after axis remapping.
type KeyframeEvent struct {
	Bone       string
	Frame      int64
	Values     ChannelSet[Vec3]
	Transition string // lower-cased, empty when absent
}

// Source is the extracted content of one input file.
type Source struct {
	Tempo  float64 // frames per second, > 0
	Length float64 // total frame count
	Events []KeyframeEvent
}

// Seconds converts a frame index to seconds at the source tempo.
func (s Source) Seconds(frame int64) float64 {
	return float64(frame) / s.Tempo
}

// TimelineKey is one authored value on a channel timeline.
// The transition tag of the source event travels with the value.
type TimelineKey struct {
	Frame      int64
	Time       float64
	Value      Vec3
	Transition string
}

// ChannelTimeline is the sorted, deduplicated key list for one (bone, channel).
type ChannelTimeline struct {
	Bone    string
	Channel Channel
	Keys    []TimelineKey
}

// BoneTimelines groups the three channel timelines of a bone.
type BoneTimelines struct {
	Bone     string
	Channels ChannelSet[ChannelTimeline]
}
