// Package flow derives per point scene flow for reconstructed clouds from
// pairs of skeleton poses: bones are sampled into moving segment points, every
// cloud point blends the motion of its nearest samples, and magnitudes can be
// normalized for consumers that want direction plus relative speed.
package flow

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// BonePose is one bone of a skeleton at one frame, given as the world
// positions of its two joints.
type BonePose struct {
	Parent r3.Vector
	Child  r3.Vector
}

// CheckPosePair validates that two pose frames describe the same skeleton. A
// skeleton's bone list is fixed, so a length change between consecutive
// frames means the caller paired poses from different skeletons.
func CheckPosePair(current, previous []BonePose) error {
	if len(current) != len(previous) {
		return errors.Errorf("bone count changed between frames %d != %d", len(current), len(previous))
	}
	return nil
}
