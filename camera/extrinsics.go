package camera

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Extrinsics is the rigid body transform between two sensor frames, typically
// from the depth sensor to the color sensor of one device. The rotation is a
// row major 3x3 matrix and the translation is in the same units as metric depth.
type Extrinsics struct {
	RotationMatrix    []float64 `json:"rotation"`
	TranslationVector []float64 `json:"translation"`
}

// NewIdentityExtrinsics returns extrinsics that map a point to itself, for
// devices whose sensors share one frame.
func NewIdentityExtrinsics() *Extrinsics {
	return &Extrinsics{
		RotationMatrix:    []float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		TranslationVector: []float64{0, 0, 0},
	}
}

// CheckValid checks if the fields for Extrinsics have valid inputs.
func (e *Extrinsics) CheckValid() error {
	if e == nil {
		return errors.New("extrinsic parameters are not available")
	}
	if len(e.RotationMatrix) != 9 {
		return errors.Errorf("rotation matrix must have 9 elements, got %d", len(e.RotationMatrix))
	}
	if len(e.TranslationVector) != 3 {
		return errors.Errorf("translation vector must have 3 elements, got %d", len(e.TranslationVector))
	}
	return nil
}

// TransformPointToPoint applies a rigid body transform specified as the
// rotation and translation of the extrinsics to a 3D point.
func (e *Extrinsics) TransformPointToPoint(x, y, z float64) r3.Vector {
	rot := e.RotationMatrix
	return r3.Vector{
		X: rot[0]*x + rot[1]*y + rot[2]*z + e.TranslationVector[0],
		Y: rot[3]*x + rot[4]*y + rot[5]*z + e.TranslationVector[1],
		Z: rot[6]*x + rot[7]*y + rot[8]*z + e.TranslationVector[2],
	}
}
