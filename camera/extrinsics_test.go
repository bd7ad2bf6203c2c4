package camera

import (
	"testing"

	"go.viam.com/test"
)

func TestExtrinsicsCheckValid(t *testing.T) {
	var missing *Extrinsics
	test.That(t, missing.CheckValid(), test.ShouldNotBeNil)

	short := &Extrinsics{RotationMatrix: []float64{1, 0, 0}, TranslationVector: []float64{0, 0, 0}}
	err := short.CheckValid()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "9 elements")

	badTrans := &Extrinsics{RotationMatrix: []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, TranslationVector: []float64{0}}
	err = badTrans.CheckValid()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "3 elements")

	test.That(t, NewIdentityExtrinsics().CheckValid(), test.ShouldBeNil)
}

func TestTransformPointToPoint(t *testing.T) {
	x1, y1, z1 := 0., 0., 1.
	rot1 := []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}

	// identity rotation with a translation along z
	extrinsics1 := &Extrinsics{RotationMatrix: rot1, TranslationVector: []float64{0, 0, 1}}
	vt1 := extrinsics1.TransformPointToPoint(x1, y1, z1)
	test.That(t, vt1.X, test.ShouldEqual, 0.)
	test.That(t, vt1.Y, test.ShouldEqual, 0.)
	test.That(t, vt1.Z, test.ShouldEqual, 2.)

	extrinsics2 := &Extrinsics{RotationMatrix: rot1, TranslationVector: []float64{0, 2, 0}}
	vt2 := extrinsics2.TransformPointToPoint(x1, y1, z1)
	test.That(t, vt2.X, test.ShouldEqual, 0.)
	test.That(t, vt2.Y, test.ShouldEqual, 2.)
	test.That(t, vt2.Z, test.ShouldEqual, 1.)

	// 90 degree rotation about x
	rot2 := []float64{1, 0, 0, 0, 0, -1, 0, 1, 0}
	extrinsics3 := &Extrinsics{RotationMatrix: rot2, TranslationVector: []float64{0, 0, 0}}
	vt3 := extrinsics3.TransformPointToPoint(x1, y1, z1)
	test.That(t, vt3.X, test.ShouldEqual, 0.)
	test.That(t, vt3.Y, test.ShouldEqual, -1.)
	test.That(t, vt3.Z, test.ShouldEqual, 0.)
}
