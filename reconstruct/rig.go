package reconstruct

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/volcap/sceneflow/pointcloud"
	"github.com/volcap/sceneflow/utils"
)

// Rig reconstructs synchronized frames from every camera of a capture rig
// into one merged world space cloud. One camera failing keeps the others
// producing; the merged cloud then just misses that camera's coverage.
type Rig struct {
	assemblers []*Assembler
	logger     golog.Logger
}

// NewRig builds assemblers for every camera of the calibration, sharing one
// filtering configuration. A camera whose calibration does not validate
// fails rig construction: a silently absent camera would skew every export.
func NewRig(params *RigParameters, cfg Config, logger golog.Logger) (*Rig, error) {
	if params == nil || len(params.Cameras) == 0 {
		return nil, errors.New("rig has no cameras")
	}
	rig := &Rig{logger: logger}
	for i := range params.Cameras {
		setup, err := NewCameraSetup(&params.Cameras[i])
		if err != nil {
			return nil, errors.Wrapf(err, "rig camera %d", i)
		}
		asm, err := NewAssembler(setup, cfg, logger)
		if err != nil {
			return nil, errors.Wrapf(err, "rig camera %d", i)
		}
		rig.assemblers = append(rig.assemblers, asm)
	}
	return rig, nil
}

// NewRigFromAssemblers wraps already built assemblers, for callers that
// construct cameras individually.
func NewRigFromAssemblers(assemblers []*Assembler, logger golog.Logger) (*Rig, error) {
	if len(assemblers) == 0 {
		return nil, errors.New("rig has no cameras")
	}
	return &Rig{assemblers: assemblers, logger: logger}, nil
}

// NumCameras returns how many cameras the rig reconstructs from.
func (rig *Rig) NumCameras() int {
	return len(rig.assemblers)
}

// MergeFrames reconstructs one synchronized frame per camera, running the
// cameras in parallel, and merges the results in camera order. The returned
// offsets index each camera's first point in the merged cloud. A failing
// camera contributes no points and its error joins the returned error,
// alongside the merged cloud from the cameras that did produce.
func (rig *Rig) MergeFrames(ctx context.Context, frames []*RawFrame) (*pointcloud.PointCloud, []int, error) {
	if len(frames) != len(rig.assemblers) {
		return nil, nil, errors.Errorf("got %d frames for a rig of %d cameras", len(frames), len(rig.assemblers))
	}

	clouds := make([]*pointcloud.PointCloud, len(frames))
	cameraWork := make([]utils.SimpleFunc, len(frames))
	for i, asm := range rig.assemblers {
		i, asm := i, asm
		cameraWork[i] = func(ctx context.Context) error {
			cloud, err := asm.Assemble(ctx, frames[i])
			if err != nil {
				rig.logger.Warnw("camera failed to reconstruct, skipping it this frame",
					"camera", asm.setup.Name(), "error", err)
				clouds[i] = pointcloud.New()
				return errors.Wrapf(err, "camera %q", asm.setup.Name())
			}
			clouds[i] = cloud
			return nil
		}
	}
	// assembly never watches the context mid frame, so one camera's error
	// cannot starve its siblings of their run
	elapsed, allErrs := utils.RunInParallel(ctx, cameraWork)
	rig.logger.Debugw("assembled rig frame", "cameras", len(frames), "elapsed", elapsed)

	merged, offsets, err := pointcloud.MergePointClouds(clouds)
	if err != nil {
		return nil, nil, multierr.Combine(allErrs, err)
	}
	return merged, offsets, allErrs
}
