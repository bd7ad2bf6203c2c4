package camera

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

var sensorIntrinsics = &PinholeCameraIntrinsics{
	Width:  1024,
	Height: 768,
	Fx:     734.938,
	Fy:     735.516,
	Ppx:    542.078,
	Ppy:    398.016,
}

func TestIntrinsicsCheckValid(t *testing.T) {
	test.That(t, sensorIntrinsics.CheckValid(), test.ShouldBeNil)

	var missing *PinholeCameraIntrinsics
	err := missing.CheckValid()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrNoIntrinsics), test.ShouldBeTrue)

	badSize := &PinholeCameraIntrinsics{Width: 0, Height: 768, Fx: 1, Fy: 1}
	test.That(t, badSize.CheckValid(), test.ShouldNotBeNil)

	badFocal := &PinholeCameraIntrinsics{Width: 10, Height: 10, Fx: 0, Fy: 1}
	err = badFocal.CheckValid()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "Fx")
}

func TestPixelToPointRoundTrip(t *testing.T) {
	z := 1.35
	px, py, pz := sensorIntrinsics.PixelToPoint(100., 613., z)
	test.That(t, pz, test.ShouldEqual, z)
	u, v := sensorIntrinsics.PointToPixel(px, py, pz)
	test.That(t, u, test.ShouldAlmostEqual, 100., 1e-9)
	test.That(t, v, test.ShouldAlmostEqual, 613., 1e-9)

	// zero depth cannot be projected and lands outside any image
	u, v = sensorIntrinsics.PointToPixel(px, py, 0.)
	test.That(t, u, test.ShouldEqual, -1.)
	test.That(t, v, test.ShouldEqual, -1.)
}

func TestGetCameraMatrix(t *testing.T) {
	m := sensorIntrinsics.GetCameraMatrix()
	test.That(t, m.At(0, 0), test.ShouldEqual, sensorIntrinsics.Fx)
	test.That(t, m.At(1, 1), test.ShouldEqual, sensorIntrinsics.Fy)
	test.That(t, m.At(0, 2), test.ShouldEqual, sensorIntrinsics.Ppx)
	test.That(t, m.At(1, 2), test.ShouldEqual, sensorIntrinsics.Ppy)
	test.That(t, m.At(2, 2), test.ShouldEqual, 1.)
	test.That(t, m.At(1, 0), test.ShouldEqual, 0.)
}

func TestIntrinsicsFromJSONFile(t *testing.T) {
	jsonPath := filepath.Join(t.TempDir(), "depth_intrinsics.json")
	contents := `{"width_px": 1024, "height_px": 768, "fx": 734.938, "fy": 735.516, "ppx": 542.078, "ppy": 398.016}`
	test.That(t, os.WriteFile(jsonPath, []byte(contents), 0o640), test.ShouldBeNil)

	intrinsics, err := NewPinholeCameraIntrinsicsFromJSONFile(jsonPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, intrinsics, test.ShouldResemble, sensorIntrinsics)

	_, err = NewPinholeCameraIntrinsicsFromJSONFile(filepath.Join(t.TempDir(), "nope.json"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDepthConversion(t *testing.T) {
	conv := &DepthConversion{DepthScale: 0.25, DepthBias: 0}
	test.That(t, conv.CheckValid(), test.ShouldBeNil)
	// 4000 raw units at a quarter millimeter each is one meter
	test.That(t, conv.RawToMeters(4000), test.ShouldAlmostEqual, 1.0)
	test.That(t, conv.RawToMeters(0), test.ShouldEqual, 0.)

	biased := &DepthConversion{DepthScale: 1, DepthBias: -10}
	test.That(t, biased.RawToMeters(1510), test.ShouldAlmostEqual, 1.5)
	test.That(t, biased.RawToMeters(5), test.ShouldBeLessThan, 0.)

	var missing *DepthConversion
	test.That(t, missing.CheckValid(), test.ShouldNotBeNil)
	zeroScale := &DepthConversion{DepthScale: 0}
	test.That(t, zeroScale.CheckValid(), test.ShouldNotBeNil)
}
