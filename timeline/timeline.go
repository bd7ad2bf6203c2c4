// Package timeline maps recording time onto pose frame indices and back.
// Plain recordings map linearly through the native frame rate; recordings
// that drifted or were trimmed carry keyframes that pin times to frames, with
// piecewise linear interpolation between the pins.
package timeline

import "sort"

// Keyframe pins a moment of recording time to a pose frame. Correction
// nudges the pinned frame without retiming, so the frame used for mapping is
// Frame + Correction.
type Keyframe struct {
	Time       float64 `json:"time"`
	Frame      int     `json:"frame"`
	Correction int     `json:"correction"`
}

// EffectiveFrame is the frame index this keyframe actually pins.
func (kf Keyframe) EffectiveFrame() int {
	return kf.Frame + kf.Correction
}

// Timeline is a list of keyframes held in time order. The zero value is a
// timeline with no keyframes. Editing happens before a reconstruction pass;
// a Timeline is not safe for concurrent mutation.
type Timeline struct {
	keyframes []Keyframe
}

// New returns an empty timeline.
func New() *Timeline {
	return &Timeline{}
}

// NewFromKeyframes returns a timeline of the given keyframes, sorting them by
// time. Ties keep their given order.
func NewFromKeyframes(kfs []Keyframe) *Timeline {
	tl := &Timeline{keyframes: append([]Keyframe(nil), kfs...)}
	sort.SliceStable(tl.keyframes, func(i, j int) bool {
		return tl.keyframes[i].Time < tl.keyframes[j].Time
	})
	return tl
}

// Len returns the number of keyframes.
func (tl *Timeline) Len() int {
	return len(tl.keyframes)
}

// Keyframes returns a copy of the keyframes in time order.
func (tl *Timeline) Keyframes() []Keyframe {
	return append([]Keyframe(nil), tl.keyframes...)
}

// Insert adds the keyframe at its position in time order. A keyframe already
// pinned to exactly the same time is replaced instead.
func (tl *Timeline) Insert(kf Keyframe) {
	i := sort.Search(len(tl.keyframes), func(i int) bool {
		return tl.keyframes[i].Time >= kf.Time
	})
	if i < len(tl.keyframes) && tl.keyframes[i].Time == kf.Time {
		tl.keyframes[i] = kf
		return
	}
	tl.keyframes = append(tl.keyframes, Keyframe{})
	copy(tl.keyframes[i+1:], tl.keyframes[i:])
	tl.keyframes[i] = kf
}

// Remove deletes the keyframe pinned at exactly the given time, reporting
// whether one existed.
func (tl *Timeline) Remove(time float64) bool {
	i := sort.Search(len(tl.keyframes), func(i int) bool {
		return tl.keyframes[i].Time >= time
	})
	if i >= len(tl.keyframes) || tl.keyframes[i].Time != time {
		return false
	}
	tl.keyframes = append(tl.keyframes[:i], tl.keyframes[i+1:]...)
	return true
}
