package camera

import "github.com/pkg/errors"

// DistortionType is the name of the distortion model.
type DistortionType string

// BrownConradyDistortionType is for simple lenses of narrow field easily modeled as a pinhole camera.
const BrownConradyDistortionType = DistortionType("brown_conrady")

// Distorter defines the forward and inverse maps of a lens distortion model
// over normalized image coordinates. Transform distorts an undistorted point,
// Undistort recovers the undistorted point from a distorted one.
type Distorter interface {
	ModelType() DistortionType
	CheckValid() error
	Parameters() []float64
	Transform(x, y float64) (float64, float64)
	Undistort(x, y float64) (float64, float64)
}

// InvalidDistortionError is used when the distortion_parameters are invalid.
func InvalidDistortionError(msg string) error {
	return errors.Wrap(errors.New("invalid distortion_parameters"), msg)
}

// NewDistorter returns a Distorter given a valid DistortionType and its parameters.
func NewDistorter(distortionType DistortionType, parameters []float64) (Distorter, error) {
	switch distortionType {
	case BrownConradyDistortionType:
		return NewBrownConrady(parameters)
	default:
		return nil, errors.Errorf("do not know how to parse %q distortion model", distortionType)
	}
}

// BrownConrady is the rational Brown-Conrady lens model with six radial and
// two tangential coefficients, the model most RGB-D device calibrations ship.
type BrownConrady struct {
	RadialK1     float64 `json:"rk1"`
	RadialK2     float64 `json:"rk2"`
	RadialK3     float64 `json:"rk3"`
	RadialK4     float64 `json:"rk4"`
	RadialK5     float64 `json:"rk5"`
	RadialK6     float64 `json:"rk6"`
	TangentialP1 float64 `json:"tp1"`
	TangentialP2 float64 `json:"tp2"`
}

// NewBrownConrady takes in a slice of floats that will be passed into the struct in the
// OpenCV parameter order (k1, k2, p1, p2, k3, k4, k5, k6). Missing values are filled with 0.
func NewBrownConrady(inp []float64) (*BrownConrady, error) {
	if len(inp) > 8 {
		return nil, errors.Errorf("list of parameters too long, expected max 8, got %d", len(inp))
	}
	for i := len(inp); i < 8; i++ {
		inp = append(inp, 0.0)
	}
	return &BrownConrady{
		RadialK1:     inp[0],
		RadialK2:     inp[1],
		TangentialP1: inp[2],
		TangentialP2: inp[3],
		RadialK3:     inp[4],
		RadialK4:     inp[5],
		RadialK5:     inp[6],
		RadialK6:     inp[7],
	}, nil
}

// CheckValid checks if the fields for BrownConrady have valid inputs.
func (bc *BrownConrady) CheckValid() error {
	if bc == nil {
		return InvalidDistortionError("BrownConrady shaped distortion_parameters not provided")
	}
	return nil
}

// ModelType returns the type of distortion model.
func (bc *BrownConrady) ModelType() DistortionType {
	return BrownConradyDistortionType
}

// Parameters returns the parameters of the distortion model as a list of floats
// in the OpenCV parameter order.
func (bc *BrownConrady) Parameters() []float64 {
	if bc == nil {
		return []float64{}
	}
	return []float64{
		bc.RadialK1, bc.RadialK2,
		bc.TangentialP1, bc.TangentialP2,
		bc.RadialK3, bc.RadialK4, bc.RadialK5, bc.RadialK6,
	}
}

// Transform distorts the undistorted normalized point (xu, yu).
//
// The rational Brown-Conrady model is:
//
//	radial = (1 + k1*r² + k2*r⁴ + k3*r⁶) / (1 + k4*r² + k5*r⁴ + k6*r⁶)
//	x_d = x_u*radial + 2*p1*x_u*y_u + p2*(r² + 2*x_u²)
//	y_d = y_u*radial + p1*(r² + 2*y_u²) + 2*p2*x_u*y_u
func (bc *BrownConrady) Transform(xu, yu float64) (float64, float64) {
	if bc == nil {
		return xu, yu
	}
	r2 := xu*xu + yu*yu
	r4 := r2 * r2
	r6 := r4 * r2
	radial := (1.0 + bc.RadialK1*r2 + bc.RadialK2*r4 + bc.RadialK3*r6) /
		(1.0 + bc.RadialK4*r2 + bc.RadialK5*r4 + bc.RadialK6*r6)
	xd := xu*radial + 2.0*bc.TangentialP1*xu*yu + bc.TangentialP2*(r2+2.0*xu*xu)
	yd := yu*radial + bc.TangentialP1*(r2+2.0*yu*yu) + 2.0*bc.TangentialP2*xu*yu
	return xd, yd
}

// Undistort recovers the undistorted normalized point that Transform would map
// to (xd, yd). It iterates the fixed point of the inverted radial ratio,
// re-checking against the forward model until convergence.
func (bc *BrownConrady) Undistort(xd, yd float64) (float64, float64) {
	if bc == nil {
		return xd, yd
	}

	const maxIterations = 25
	const tolerance = 1e-10

	xu, yu := xd, yd
	for i := 0; i < maxIterations; i++ {
		r2 := xu*xu + yu*yu
		r4 := r2 * r2
		r6 := r4 * r2
		kInv := (1.0 + bc.RadialK4*r2 + bc.RadialK5*r4 + bc.RadialK6*r6) /
			(1.0 + bc.RadialK1*r2 + bc.RadialK2*r4 + bc.RadialK3*r6)
		deltaX := 2.0*bc.TangentialP1*xu*yu + bc.TangentialP2*(r2+2.0*xu*xu)
		deltaY := bc.TangentialP1*(r2+2.0*yu*yu) + 2.0*bc.TangentialP2*xu*yu
		xu = (xd - deltaX) * kInv
		yu = (yd - deltaY) * kInv

		xdEst, ydEst := bc.Transform(xu, yu)
		errX := xdEst - xd
		errY := ydEst - yd
		if errX*errX+errY*errY < tolerance*tolerance {
			break
		}
	}
	return xu, yu
}
