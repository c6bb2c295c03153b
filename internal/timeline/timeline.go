// Package timeline merges sparse keyframe events into per-channel timelines.
package timeline

import (
	"sort"

	"github.com/OCAP2/animconv/pkg/core"
)

// Build groups the source events by bone and channel.
// Bones keep the order in which they first appear in the source. Each event
// contributes one key to every channel of its bone. When several events share
// a frame on the same bone, the last one in source order wins, including its
// transition tag.
func Build(src core.Source) []core.BoneTimelines {
	order := make([]string, 0)
	byBone := make(map[string]map[int64]core.KeyframeEvent)

	for _, ev := range src.Events {
		frames, ok := byBone[ev.Bone]
		if !ok {
			frames = make(map[int64]core.KeyframeEvent)
			byBone[ev.Bone] = frames
			order = append(order, ev.Bone)
		}
		frames[ev.Frame] = ev
	}

	bones := make([]core.BoneTimelines, 0, len(order))
	for _, bone := range order {
		frames := byBone[bone]

		sorted := make([]int64, 0, len(frames))
		for f := range frames {
			sorted = append(sorted, f)
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		bt := core.BoneTimelines{Bone: bone}
		for _, c := range core.Channels {
			tl := core.ChannelTimeline{
				Bone:    bone,
				Channel: c,
				Keys:    make([]core.TimelineKey, 0, len(sorted)),
			}
			for _, f := range sorted {
				ev := frames[f]
				tl.Keys = append(tl.Keys, core.TimelineKey{
					Frame:      f,
					Time:       src.Seconds(f),
					Value:      ev.Values.Get(c),
					Transition: ev.Transition,
				})
			}
			bt.Channels.Set(c, tl)
		}
		bones = append(bones, bt)
	}

	return bones
}
