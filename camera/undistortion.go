package camera

import (
	"image"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/volcap/sceneflow/utils"
)

// UndistortionMap caches, for every depth pixel, the undistorted normalized
// ray such that multiplying the ray by metric depth yields the point in the
// camera frame. Building the table front-loads the iterative undistortion so
// per-frame unprojection is two multiplies per pixel.
type UndistortionMap struct {
	width, height int
	rays          []r2.Point
}

// NewUndistortionMap builds the lookup table for the given depth sensor. A
// nil distorter produces the ideal pinhole table.
func NewUndistortionMap(intrinsics *PinholeCameraIntrinsics, distorter Distorter) (*UndistortionMap, error) {
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	if distorter != nil {
		if err := distorter.CheckValid(); err != nil {
			return nil, err
		}
	}
	um := &UndistortionMap{
		width:  intrinsics.Width,
		height: intrinsics.Height,
		rays:   make([]r2.Point, intrinsics.Width*intrinsics.Height),
	}
	utils.ParallelForEachPixel(image.Point{X: intrinsics.Width, Y: intrinsics.Height}, func(x, y int) {
		xn := (float64(x) - intrinsics.Ppx) / intrinsics.Fx
		yn := (float64(y) - intrinsics.Ppy) / intrinsics.Fy
		if distorter != nil {
			xn, yn = distorter.Undistort(xn, yn)
		}
		um.rays[y*intrinsics.Width+x] = r2.Point{X: xn, Y: yn}
	})
	return um, nil
}

// Width returns the pixel width of the table.
func (um *UndistortionMap) Width() int {
	return um.width
}

// Height returns the pixel height of the table.
func (um *UndistortionMap) Height() int {
	return um.height
}

// RayAt returns the cached normalized ray for the given pixel.
func (um *UndistortionMap) RayAt(x, y int) r2.Point {
	return um.rays[y*um.width+x]
}

// Unproject turns a pixel with metric depth into a point in the camera frame.
func (um *UndistortionMap) Unproject(x, y int, z float64) r3.Vector {
	ray := um.rays[y*um.width+x]
	return r3.Vector{X: ray.X * z, Y: ray.Y * z, Z: z}
}
