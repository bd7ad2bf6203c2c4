package camera

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// PinholeCameraModel is the model of a pinhole camera: intrinsics plus an
// optional lens distortion. A nil Distortion means an ideal pinhole.
type PinholeCameraModel struct {
	*PinholeCameraIntrinsics `json:"intrinsic_parameters"`
	Distortion               Distorter `json:"distortion"`
}

// CheckValid checks that the intrinsics exist and any distortion model is usable.
func (model *PinholeCameraModel) CheckValid() error {
	if model == nil {
		return NewNoIntrinsicsError("camera model does not exist")
	}
	if err := model.PinholeCameraIntrinsics.CheckValid(); err != nil {
		return err
	}
	if model.Distortion != nil {
		return model.Distortion.CheckValid()
	}
	return nil
}

// DistortionMap is a function that transforms the undistorted input points (u,v) to the distorted points (x,y)
// according to the model in PinholeCameraModel.Distortion.
func (model *PinholeCameraModel) DistortionMap() func(u, v float64) (float64, float64) {
	return func(u, v float64) (float64, float64) {
		if model.Distortion == nil {
			return u, v
		}
		x := (u - model.Ppx) / model.Fx
		y := (v - model.Ppy) / model.Fy
		x, y = model.Distortion.Transform(x, y)
		x = x*model.Fx + model.Ppx
		y = y*model.Fy + model.Ppy
		return x, y
	}
}

// ProjectPointToPixel projects a 3D point in the camera frame through the
// forward distortion model onto the image plane. The returned pixel is not
// rounded and may land outside the image bounds; points at or behind the
// camera plane (z <= 0) cannot be projected.
func (model *PinholeCameraModel) ProjectPointToPixel(pt r3.Vector) (r2.Point, error) {
	if pt.Z <= 0 {
		return r2.Point{}, errors.Errorf("point (%v, %v, %v) is behind the camera plane", pt.X, pt.Y, pt.Z)
	}
	xn := pt.X / pt.Z
	yn := pt.Y / pt.Z
	if model.Distortion != nil {
		xn, yn = model.Distortion.Transform(xn, yn)
	}
	return r2.Point{
		X: xn*model.Fx + model.Ppx,
		Y: yn*model.Fy + model.Ppy,
	}, nil
}
