// Package export drives batch reconstruction: for a range of output frames
// it rebuilds the merged cloud, derives scene flow from the skeleton poses
// bracketing each frame, and streams one annotated PLY per frame to the
// caller. The loop is plain and synchronous; a caller that wants to stop
// early cancels the context between frames.
package export

import (
	"context"
	"io"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/volcap/sceneflow/flow"
	"github.com/volcap/sceneflow/pointcloud"
	"github.com/volcap/sceneflow/reconstruct"
	"github.com/volcap/sceneflow/timeline"
)

// FrameSource hands out the rig's synchronized raw frames, one RawFrame per
// camera in rig camera order. Implementations own all file and sensor I/O.
type FrameSource interface {
	FrameCount() int
	FrameRate() float64
	Frames(ctx context.Context, frameIndex int) ([]*reconstruct.RawFrame, error)
}

// PoseSource hands out the decoded skeleton animation as per frame bone
// poses in a stable bone order.
type PoseSource interface {
	FrameCount() int
	FrameRate() float64
	PoseAt(frameIndex int) ([]flow.BonePose, error)
}

// Options selects the frame range and the scene flow parameters of a batch.
type Options struct {
	// StartFrame and FrameCount select the sensor frames to export.
	StartFrame int
	FrameCount int
	// SamplesPerBone is how densely bones are sampled for flow.
	SamplesPerBone int
	// Motion configures the nearest sample blending.
	Motion flow.MotionFieldParams
	// NormalizeMagnitudes rescales flow magnitudes onto [0, 1] per frame.
	NormalizeMagnitudes bool
	// SkipMotion exports position and color only.
	SkipMotion bool
}

// DefaultOptions exports a whole capture with the default flow parameters.
func DefaultOptions(frames FrameSource) Options {
	return Options{
		FrameCount:     frames.FrameCount(),
		SamplesPerBone: 10,
		Motion:         flow.DefaultMotionFieldParams(),
	}
}

// FrameWriterFunc opens the destination for one output frame.
type FrameWriterFunc func(frameIndex int) (io.Writer, error)

// Exporter runs reconstruction plus scene flow over a frame range. The
// timeline aligns sensor time with the pose sequence; a nil timeline maps
// linearly through the pose frame rate.
type Exporter struct {
	rig    *reconstruct.Rig
	frames FrameSource
	poses  PoseSource
	tl     *timeline.Timeline
	logger golog.Logger
}

// NewExporter wires an exporter. Frames and poses must exist; the timeline
// is optional.
func NewExporter(
	rig *reconstruct.Rig,
	frames FrameSource,
	poses PoseSource,
	tl *timeline.Timeline,
	logger golog.Logger,
) (*Exporter, error) {
	if rig == nil {
		return nil, errors.New("exporter needs a rig")
	}
	if frames == nil {
		return nil, errors.New("exporter needs a frame source")
	}
	if poses == nil {
		return nil, errors.New("exporter needs a pose source")
	}
	if tl == nil {
		tl = timeline.New()
	}
	return &Exporter{rig: rig, frames: frames, poses: poses, tl: tl, logger: logger}, nil
}

// poseFrameFor maps a sensor frame index onto the pose sequence and clamps
// it into the sequence's range.
func (exp *Exporter) poseFrameFor(sensorFrame int) int {
	t := timeline.MapFrameToTime(sensorFrame, exp.frames.FrameRate())
	poseFrame := exp.tl.FrameForTime(t, exp.poses.FrameRate())
	if poseFrame < 0 {
		return 0
	}
	if last := exp.poses.FrameCount() - 1; poseFrame > last {
		return last
	}
	return poseFrame
}

// Export runs the batch. A frame that fails to load or reconstruct is
// logged and skipped; its error joins the returned error and the remaining
// frames still export. Only context cancellation stops the loop early.
func (exp *Exporter) Export(ctx context.Context, opts Options, writerFor FrameWriterFunc) error {
	var allErrs error
	for i := opts.StartFrame; i < opts.StartFrame+opts.FrameCount; i++ {
		if err := ctx.Err(); err != nil {
			return multierr.Combine(allErrs, err)
		}
		if err := exp.exportOne(ctx, opts, i, writerFor); err != nil {
			exp.logger.Warnw("skipping frame", "frame", i, "error", err)
			allErrs = multierr.Combine(allErrs, errors.Wrapf(err, "frame %d", i))
		}
	}
	return allErrs
}

func (exp *Exporter) exportOne(ctx context.Context, opts Options, frameIndex int, writerFor FrameWriterFunc) error {
	rawFrames, err := exp.frames.Frames(ctx, frameIndex)
	if err != nil {
		return errors.Wrap(err, "loading raw frames")
	}
	cloud, _, err := exp.rig.MergeFrames(ctx, rawFrames)
	if err != nil {
		// cameras that produced are still in the cloud; report and keep going
		exp.logger.Warnw("partial reconstruction", "frame", frameIndex, "error", err)
	}

	if !opts.SkipMotion {
		if err := exp.attachMotion(ctx, opts, frameIndex, cloud); err != nil {
			return err
		}
	}

	out, err := writerFor(frameIndex)
	if err != nil {
		return errors.Wrap(err, "opening frame destination")
	}
	return pointcloud.WritePLY(cloud, out)
}

func (exp *Exporter) attachMotion(ctx context.Context, opts Options, frameIndex int, cloud *pointcloud.PointCloud) error {
	poseFrame := exp.poseFrameFor(frameIndex)
	prevFrame := poseFrame - 1
	if prevFrame < 0 {
		// the first frame has nowhere to have moved from
		prevFrame = 0
	}
	current, err := exp.poses.PoseAt(poseFrame)
	if err != nil {
		return errors.Wrapf(err, "pose frame %d", poseFrame)
	}
	previous, err := exp.poses.PoseAt(prevFrame)
	if err != nil {
		return errors.Wrapf(err, "pose frame %d", prevFrame)
	}

	samples, err := flow.SampleBoneSegments(current, previous, opts.SamplesPerBone)
	if err != nil {
		return err
	}
	vectors, err := flow.AssignMotionVectors(ctx, cloud, samples, opts.Motion)
	if err != nil {
		return err
	}
	if opts.NormalizeMagnitudes {
		vectors = flow.NormalizeMagnitudes(vectors)
	}
	return cloud.SetFlows(vectors)
}
