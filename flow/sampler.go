package flow

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// SegmentSample is one interpolated position along a bone in the current
// frame, with the motion that position made since the previous frame.
type SegmentSample struct {
	Position r3.Vector
	Motion   r3.Vector
}

// SampleBoneSegments places samplesPerBone evenly spaced samples along every
// bone of the current pose and pairs each with its motion, current minus
// previous, so the vectors point in the direction of travel. Sample 0 sits
// exactly on the parent joint and the last sample exactly on the child joint;
// a single sample per bone sits on the parent.
func SampleBoneSegments(current, previous []BonePose, samplesPerBone int) ([]SegmentSample, error) {
	if err := CheckPosePair(current, previous); err != nil {
		return nil, err
	}
	if samplesPerBone < 1 {
		return nil, errors.Errorf("samples per bone must be at least 1, got %d", samplesPerBone)
	}
	samples := make([]SegmentSample, 0, len(current)*samplesPerBone)
	for i := range current {
		for s := 0; s < samplesPerBone; s++ {
			t := 0.0
			if samplesPerBone > 1 {
				t = float64(s) / float64(samplesPerBone-1)
			}
			pos := lerp(current[i].Parent, current[i].Child, t)
			prev := lerp(previous[i].Parent, previous[i].Child, t)
			samples = append(samples, SegmentSample{Position: pos, Motion: pos.Sub(prev)})
		}
	}
	return samples, nil
}

// lerp mixes a and b so that t=0 returns exactly a and t=1 exactly b.
func lerp(a, b r3.Vector, t float64) r3.Vector {
	return a.Mul(1 - t).Add(b.Mul(t))
}
