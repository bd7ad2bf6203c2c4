package camera

import (
	"testing"

	"go.viam.com/test"
)

var lutIntrinsics = &PinholeCameraIntrinsics{
	Width:  160,
	Height: 120,
	Fx:     150.1,
	Fy:     150.9,
	Ppx:    79.5,
	Ppy:    59.6,
}

func TestUndistortionMapPinhole(t *testing.T) {
	um, err := NewUndistortionMap(lutIntrinsics, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, um.Width(), test.ShouldEqual, 160)
	test.That(t, um.Height(), test.ShouldEqual, 120)

	// without distortion the table is exactly the pinhole unprojection
	z := 2.4
	for _, px := range []int{0, 1, 79, 159} {
		for _, py := range []int{0, 60, 119} {
			pt := um.Unproject(px, py, z)
			wantX, wantY, wantZ := lutIntrinsics.PixelToPoint(float64(px), float64(py), z)
			test.That(t, pt.X, test.ShouldEqual, wantX)
			test.That(t, pt.Y, test.ShouldEqual, wantY)
			test.That(t, pt.Z, test.ShouldEqual, wantZ)
		}
	}
}

func TestUndistortionMapRoundTrip(t *testing.T) {
	bc, err := NewBrownConrady(rationalCoeffs)
	test.That(t, err, test.ShouldBeNil)
	um, err := NewUndistortionMap(lutIntrinsics, bc)
	test.That(t, err, test.ShouldBeNil)
	model := &PinholeCameraModel{PinholeCameraIntrinsics: lutIntrinsics, Distortion: bc}

	// unprojecting a pixel and projecting the point back through the forward
	// model recovers the pixel to far better than a thousandth of a pixel,
	// from the near plane out to far range
	for _, z := range []float64{0.1, 0.75, 1.5, 5.0} {
		for py := 0; py < um.Height(); py += 7 {
			for px := 0; px < um.Width(); px += 11 {
				pt := um.Unproject(px, py, z)
				pixel, err := model.ProjectPointToPixel(pt)
				test.That(t, err, test.ShouldBeNil)
				test.That(t, pixel.X, test.ShouldAlmostEqual, float64(px), 1e-3)
				test.That(t, pixel.Y, test.ShouldAlmostEqual, float64(py), 1e-3)
			}
		}
	}
}

func TestUndistortionMapInvalid(t *testing.T) {
	_, err := NewUndistortionMap(&PinholeCameraIntrinsics{Width: 10, Height: 10}, nil)
	test.That(t, err, test.ShouldNotBeNil)

	var noDistorter *BrownConrady
	_, err = NewUndistortionMap(lutIntrinsics, noDistorter)
	test.That(t, err, test.ShouldNotBeNil)
}
