package reconstruct

import (
	"image/color"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/volcap/sceneflow/spatialmath"
)

// ColorValidFunc decides whether a sampled color carries real data. Capture
// rigs that cannot flag invalid samples out of band tend to emit a sentinel
// color instead, and which color that is belongs to the rig, not the
// pipeline.
type ColorValidFunc func(c color.NRGBA) bool

// RejectBlack is the validity predicate of the rigs this pipeline was built
// for: an exactly black sample means the depth pixel had no color coverage.
// A scene with truly black surfaces needs a different predicate.
func RejectBlack(c color.NRGBA) bool {
	return c.R != 0 || c.G != 0 || c.B != 0
}

// AcceptAllColors keeps every sampled color.
func AcceptAllColors(color.NRGBA) bool {
	return true
}

// BoundingVolume is an oriented box the capture happens inside. The pose
// places a unit cube in the world, scaled per axis by size. Points are kept
// only while strictly inside the box.
type BoundingVolume struct {
	pose    *spatialmath.RigidTransform
	invPose *spatialmath.RigidTransform
	size    r3.Vector
}

// NewBoundingVolume builds the volume and caches the world to volume
// transform. Every size axis must be positive.
func NewBoundingVolume(pose *spatialmath.RigidTransform, size r3.Vector) (*BoundingVolume, error) {
	if pose == nil {
		return nil, errors.New("bounding volume needs a pose")
	}
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return nil, errors.Errorf("bounding volume size must be positive on every axis, got (%v, %v, %v)",
			size.X, size.Y, size.Z)
	}
	return &BoundingVolume{pose: pose, invPose: pose.Invert(), size: size}, nil
}

// Contains reports whether the world space point is strictly inside the
// volume. A point exactly on a face is outside.
func (bv *BoundingVolume) Contains(pt r3.Vector) bool {
	local := bv.invPose.Transform(pt)
	return math.Abs(local.X/bv.size.X) < 0.5 &&
		math.Abs(local.Y/bv.size.Y) < 0.5 &&
		math.Abs(local.Z/bv.size.Z) < 0.5
}

// Config controls point filtering during assembly. Callers build one and
// pass it in explicitly; nothing reads configuration from anywhere else.
type Config struct {
	// ShowAllPoints disables bounding volume culling, for inspecting the
	// full sensor coverage.
	ShowAllPoints bool
	// ColorValid filters sampled colors. Nil means RejectBlack.
	ColorValid ColorValidFunc
	// Volume is the capture volume to cull against. Nil means no culling.
	Volume *BoundingVolume
}

// DefaultConfig is the configuration a capture rig normally runs with.
func DefaultConfig() Config {
	return Config{ColorValid: RejectBlack}
}

func (cfg *Config) colorValid() ColorValidFunc {
	if cfg.ColorValid == nil {
		return RejectBlack
	}
	return cfg.ColorValid
}
