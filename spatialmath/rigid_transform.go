// Package spatialmath defines the rigid transforms used to relate camera,
// bounding volume, and world frames of reference.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

const orthoTolerance = 1e-8

// RigidTransform is a rotation followed by a translation. The rotation is a
// 3x3 matrix in row major order, so mat[3*r+c] is the element in the r'th row
// and c'th column.
type RigidTransform struct {
	rot   [9]float64
	trans r3.Vector
}

// NewRigidTransform builds a transform from a row major 3x3 rotation matrix
// and a translation. The rotation must be orthonormal with determinant +1.
func NewRigidTransform(rotation []float64, translation r3.Vector) (*RigidTransform, error) {
	if len(rotation) != 9 {
		return nil, errors.Errorf("rotation matrix must have 9 elements, got %d", len(rotation))
	}
	rt := &RigidTransform{trans: translation}
	copy(rt.rot[:], rotation)
	if err := rt.checkRotation(); err != nil {
		return nil, err
	}
	return rt, nil
}

// NewRigidTransformFromQuaternion builds a transform from a rotation
// quaternion and a translation. The quaternion is normalized first.
func NewRigidTransformFromQuaternion(q quat.Number, translation r3.Vector) (*RigidTransform, error) {
	norm := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if norm < 1e-12 {
		return nil, errors.New("cannot make a rotation from a zero quaternion")
	}
	w, x, y, z := q.Real/norm, q.Imag/norm, q.Jmag/norm, q.Kmag/norm
	rt := &RigidTransform{trans: translation}
	rt.rot = [9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}
	return rt, nil
}

// NewZeroRigidTransform returns the identity transform.
func NewZeroRigidTransform() *RigidTransform {
	return &RigidTransform{rot: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

func (rt *RigidTransform) checkRotation() error {
	r := mat.NewDense(3, 3, rt.rot[:])
	var prod mat.Dense
	prod.Mul(r, r.T())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if math.Abs(prod.At(i, j)-want) > orthoTolerance {
				return errors.New("rotation matrix is not orthonormal")
			}
		}
	}
	if det := mat.Det(r); math.Abs(det-1) > orthoTolerance {
		return errors.Errorf("rotation matrix determinant is %f, not +1", det)
	}
	return nil
}

// Transform applies the rotation and then the translation to the given point.
func (rt *RigidTransform) Transform(p r3.Vector) r3.Vector {
	m := &rt.rot
	return r3.Vector{
		X: m[0]*p.X + m[1]*p.Y + m[2]*p.Z + rt.trans.X,
		Y: m[3]*p.X + m[4]*p.Y + m[5]*p.Z + rt.trans.Y,
		Z: m[6]*p.X + m[7]*p.Y + m[8]*p.Z + rt.trans.Z,
	}
}

// RotateOnly applies just the rotation, for direction vectors.
func (rt *RigidTransform) RotateOnly(v r3.Vector) r3.Vector {
	m := &rt.rot
	return r3.Vector{
		X: m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		Y: m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		Z: m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

// Invert returns the transform mapping back from the destination frame, so
// that rt.Invert().Transform(rt.Transform(p)) == p.
func (rt *RigidTransform) Invert() *RigidTransform {
	m := &rt.rot
	inv := &RigidTransform{
		rot: [9]float64{
			m[0], m[3], m[6],
			m[1], m[4], m[7],
			m[2], m[5], m[8],
		},
	}
	inv.trans = inv.RotateOnly(rt.trans).Mul(-1)
	return inv
}

// Compose returns the transform equivalent to applying other first and then rt.
func (rt *RigidTransform) Compose(other *RigidTransform) *RigidTransform {
	a, b := &rt.rot, &other.rot
	out := &RigidTransform{}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.rot[3*i+j] = a[3*i]*b[j] + a[3*i+1]*b[3+j] + a[3*i+2]*b[6+j]
		}
	}
	out.trans = rt.Transform(other.trans)
	return out
}

// Rotation returns a copy of the rotation as a gonum matrix.
func (rt *RigidTransform) Rotation() *mat.Dense {
	rot := make([]float64, 9)
	copy(rot, rt.rot[:])
	return mat.NewDense(3, 3, rot)
}

// Translation returns the translation component.
func (rt *RigidTransform) Translation() r3.Vector {
	return rt.trans
}

// AlmostEqual returns whether the two transforms agree within epsilon on
// every rotation element and translation coordinate.
func (rt *RigidTransform) AlmostEqual(other *RigidTransform, epsilon float64) bool {
	for i := 0; i < 9; i++ {
		if math.Abs(rt.rot[i]-other.rot[i]) > epsilon {
			return false
		}
	}
	diff := rt.trans.Sub(other.trans)
	return math.Abs(diff.X) <= epsilon && math.Abs(diff.Y) <= epsilon && math.Abs(diff.Z) <= epsilon
}
