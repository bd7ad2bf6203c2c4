package camera

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestProjectPointToPixel(t *testing.T) {
	model := &PinholeCameraModel{PinholeCameraIntrinsics: sensorIntrinsics}

	// without distortion the projection is the plain pinhole one
	pt := r3.Vector{X: 0.2, Y: -0.35, Z: 1.8}
	pixel, err := model.ProjectPointToPixel(pt)
	test.That(t, err, test.ShouldBeNil)
	wantU, wantV := sensorIntrinsics.PointToPixel(pt.X, pt.Y, pt.Z)
	test.That(t, pixel.X, test.ShouldAlmostEqual, wantU)
	test.That(t, pixel.Y, test.ShouldAlmostEqual, wantV)

	// points at or behind the camera plane have no projection
	_, err = model.ProjectPointToPixel(r3.Vector{X: 0.1, Y: 0.1, Z: 0})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = model.ProjectPointToPixel(r3.Vector{X: 0.1, Y: 0.1, Z: -2})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "behind the camera")
}

func TestDistortionMap(t *testing.T) {
	bc, err := NewBrownConrady(rationalCoeffs)
	test.That(t, err, test.ShouldBeNil)
	model := &PinholeCameraModel{PinholeCameraIntrinsics: lutIntrinsics, Distortion: bc}

	distortionMap := model.DistortionMap()
	// the principal point does not move under distortion
	u, v := distortionMap(lutIntrinsics.Ppx, lutIntrinsics.Ppy)
	test.That(t, u, test.ShouldAlmostEqual, lutIntrinsics.Ppx)
	test.That(t, v, test.ShouldAlmostEqual, lutIntrinsics.Ppy)

	// distorting a projected point matches projecting with distortion
	pt := r3.Vector{X: 0.31, Y: 0.17, Z: 1.1}
	plain := &PinholeCameraModel{PinholeCameraIntrinsics: lutIntrinsics}
	pixelPlain, err := plain.ProjectPointToPixel(pt)
	test.That(t, err, test.ShouldBeNil)
	u, v = distortionMap(pixelPlain.X, pixelPlain.Y)
	pixelDistorted, err := model.ProjectPointToPixel(pt)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, u, test.ShouldAlmostEqual, pixelDistorted.X, 1e-9)
	test.That(t, v, test.ShouldAlmostEqual, pixelDistorted.Y, 1e-9)

	test.That(t, model.CheckValid(), test.ShouldBeNil)
	var missing *PinholeCameraModel
	test.That(t, missing.CheckValid(), test.ShouldNotBeNil)
}
