package reconstruct

import (
	"context"
	"image/color"
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/volcap/sceneflow/pointcloud"
	"github.com/volcap/sceneflow/utils"
)

// Assembler reconstructs one camera's raw frames into world space point
// clouds. Each pixel is processed on its own against read only setup data,
// so frames can be walked serially or split across workers; an assembler
// picks one of those processors when built and uses it for every frame.
type Assembler struct {
	setup     *CameraSetup
	cfg       Config
	processor frameProcessor
}

// NewAssembler builds an assembler for one camera. Processor selection
// happens here, depends only on the machine, and is logged, never surfaced
// as an error: when the parallel processor cannot run the serial one always
// can.
func NewAssembler(setup *CameraSetup, cfg Config, logger golog.Logger) (*Assembler, error) {
	if setup == nil {
		return nil, errors.New("assembler needs a camera setup")
	}
	asm := &Assembler{setup: setup, cfg: cfg}
	for _, proc := range []frameProcessor{
		&parallelProcessor{asm: asm},
		&serialProcessor{asm: asm},
	} {
		if proc.IsSupported() {
			asm.processor = proc
			break
		}
	}
	logger.Debugf("camera %q assembling with the %s processor", setup.Name(), asm.processor.Name())
	return asm, nil
}

// ProcessorName reports which processor the assembler selected.
func (asm *Assembler) ProcessorName() string {
	return asm.processor.Name()
}

// Assemble reconstructs one frame into a world space point cloud. The output
// holds only the pixels that survived every filter, in pixel scan order; its
// size varies frame to frame with sensor noise and occlusion.
func (asm *Assembler) Assemble(ctx context.Context, frame *RawFrame) (*pointcloud.PointCloud, error) {
	if err := asm.setup.CheckFrame(frame); err != nil {
		return nil, err
	}
	return asm.processor.Process(ctx, frame)
}

// assemblePixel lifts one depth pixel into a colored world space point. The
// false return covers every expected skip: no depth, projection behind or
// outside the color frame, a color the validity predicate rejects, or a
// point outside the capture volume.
func (asm *Assembler) assemblePixel(frame *RawFrame, x, y int) (r3.Vector, color.NRGBA, bool) {
	setup := asm.setup

	z := setup.depthConversion.RawToMeters(frame.Depth.GetDepth(x, y))
	if z <= 0 {
		return r3.Vector{}, color.NRGBA{}, false
	}
	camPt := setup.undistortion.Unproject(x, y, z)

	colorPt := setup.extrinsics.TransformPointToPoint(camPt.X, camPt.Y, camPt.Z)
	pixel, err := setup.colorModel.ProjectPointToPixel(colorPt)
	if err != nil {
		return r3.Vector{}, color.NRGBA{}, false
	}
	u := int(math.Round(pixel.X))
	v := int(math.Round(pixel.Y))
	if u < 0 || u >= frame.Color.Width() || v < 0 || v >= frame.Color.Height() {
		return r3.Vector{}, color.NRGBA{}, false
	}
	c := frame.Color.GetColor(u, v)
	if !asm.cfg.colorValid()(c) {
		return r3.Vector{}, color.NRGBA{}, false
	}

	worldPt := setup.worldPose.Transform(camPt)
	if asm.cfg.Volume != nil && !asm.cfg.ShowAllPoints && !asm.cfg.Volume.Contains(worldPt) {
		return r3.Vector{}, color.NRGBA{}, false
	}
	return worldPt, c, true
}

// frameProcessor walks a frame's pixels through assemblePixel and compacts
// the survivors into a cloud. Implementations must produce identical clouds
// for identical frames.
type frameProcessor interface {
	Name() string
	IsSupported() bool
	Process(ctx context.Context, frame *RawFrame) (*pointcloud.PointCloud, error)
}

// serialProcessor is the single threaded reference walk, always available.
type serialProcessor struct {
	asm *Assembler
}

func (sp *serialProcessor) Name() string {
	return "serial"
}

func (sp *serialProcessor) IsSupported() bool {
	return true
}

func (sp *serialProcessor) Process(_ context.Context, frame *RawFrame) (*pointcloud.PointCloud, error) {
	width, height := frame.Depth.Width(), frame.Depth.Height()
	cloud := pointcloud.New()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if pos, c, ok := sp.asm.assemblePixel(frame, x, y); ok {
				cloud.Append(pos, c)
			}
		}
	}
	return cloud, nil
}

// parallelProcessor splits the pixel index space into contiguous ranges, one
// per worker, and concatenates the per range clouds back in range order.
// Ranges ascend with the group number, so the output point order is exactly
// the serial processor's.
type parallelProcessor struct {
	asm *Assembler
}

func (pp *parallelProcessor) Name() string {
	return "parallel"
}

func (pp *parallelProcessor) IsSupported() bool {
	return utils.ParallelFactor > 1
}

func (pp *parallelProcessor) Process(ctx context.Context, frame *RawFrame) (*pointcloud.PointCloud, error) {
	width := frame.Depth.Width()
	totalSize := width * frame.Depth.Height()

	var groupClouds []*pointcloud.PointCloud
	err := utils.GroupWorkParallel(
		ctx,
		totalSize,
		func(numGroups int) {
			groupClouds = make([]*pointcloud.PointCloud, numGroups)
		},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			cloud := pointcloud.New()
			groupClouds[groupNum] = cloud
			return func(memberNum, workNum int) {
				if pos, c, ok := pp.asm.assemblePixel(frame, workNum%width, workNum/width); ok {
					cloud.Append(pos, c)
				}
			}, nil
		},
	)
	if err != nil {
		return nil, err
	}
	if len(groupClouds) == 0 {
		return pointcloud.New(), nil
	}
	merged, _, err := pointcloud.MergePointClouds(groupClouds)
	return merged, err
}
