package timeline

import (
	"math"
	"sort"
)

// A frame occupies a half open time interval, so a time computed to land
// exactly on a frame boundary sits on the floor edge where one ulp of
// rounding error flips the result. Nudging before flooring keeps
// FrameForTime(TimeForFrame(f)) == f.
const boundaryEpsilon = 1e-9

func floorFrame(x float64) int {
	return int(math.Floor(x + boundaryEpsilon))
}

// MapTimeToFrame converts a time in seconds into a frame index at the native
// frame rate, truncating toward negative infinity. Clamping to the valid
// frame range is the caller's job.
func MapTimeToFrame(t, framesPerSecond float64) int {
	return floorFrame(t * framesPerSecond)
}

// MapFrameToTime converts a frame index back into the time in seconds at
// which that frame begins.
func MapFrameToTime(frame int, framesPerSecond float64) float64 {
	return float64(frame) / framesPerSecond
}

// FrameForTime converts a time in seconds into a frame index, honoring the
// timeline's keyframes. Between two keyframes the frame advances linearly
// from one pin to the next. Before the first keyframe the mapping
// interpolates from a virtual pin of frame 0 at time 0. Past the last
// keyframe frames advance at the native rate. With no keyframes the mapping
// is MapTimeToFrame. The result is truncated toward negative infinity and is
// not clamped.
func (tl *Timeline) FrameForTime(t, framesPerSecond float64) int {
	if len(tl.keyframes) == 0 {
		return MapTimeToFrame(t, framesPerSecond)
	}
	i := sort.Search(len(tl.keyframes), func(i int) bool {
		return tl.keyframes[i].Time > t
	})
	if i == len(tl.keyframes) {
		last := tl.keyframes[i-1]
		return last.EffectiveFrame() + floorFrame((t-last.Time)*framesPerSecond)
	}
	prevTime, prevFrame := 0.0, 0
	if i > 0 {
		prevTime = tl.keyframes[i-1].Time
		prevFrame = tl.keyframes[i-1].EffectiveFrame()
	}
	next := tl.keyframes[i]
	span := next.Time - prevTime
	if span <= 0 {
		return next.EffectiveFrame()
	}
	frac := (t - prevTime) / span
	return floorFrame(float64(prevFrame) + frac*float64(next.EffectiveFrame()-prevFrame))
}

// TimeForFrame is the inverse of FrameForTime: it converts a frame index
// into the time in seconds at which that frame begins. Keyframes must pin
// frames in nondecreasing order for the inverse to be well defined. A
// segment that pins the same frame at two times maps that frame to the
// earlier time.
func (tl *Timeline) TimeForFrame(frame int, framesPerSecond float64) float64 {
	if len(tl.keyframes) == 0 {
		return MapFrameToTime(frame, framesPerSecond)
	}
	i := sort.Search(len(tl.keyframes), func(i int) bool {
		return tl.keyframes[i].EffectiveFrame() > frame
	})
	if i == len(tl.keyframes) {
		last := tl.keyframes[i-1]
		return last.Time + float64(frame-last.EffectiveFrame())/framesPerSecond
	}
	prevTime, prevFrame := 0.0, 0
	if i > 0 {
		prevTime = tl.keyframes[i-1].Time
		prevFrame = tl.keyframes[i-1].EffectiveFrame()
	}
	next := tl.keyframes[i]
	span := next.EffectiveFrame() - prevFrame
	if span <= 0 {
		return prevTime
	}
	frac := float64(frame-prevFrame) / float64(span)
	return prevTime + frac*(next.Time-prevTime)
}
