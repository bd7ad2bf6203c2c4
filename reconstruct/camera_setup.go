package reconstruct

import (
	"encoding/json"
	"io"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/volcap/sceneflow/camera"
	"github.com/volcap/sceneflow/spatialmath"
)

// CameraSetup is everything static about one camera of the rig: its depth
// and color sensor models, the transform between them, its placement in the
// world, and the undistortion table derived from the depth model. The table
// and the derived transforms are built once here and reused every frame.
type CameraSetup struct {
	name string

	depthIntrinsics *camera.PinholeCameraIntrinsics
	depthConversion *camera.DepthConversion
	colorModel      *camera.PinholeCameraModel
	extrinsics      *camera.Extrinsics
	worldPose       *spatialmath.RigidTransform

	undistortion *camera.UndistortionMap
}

// CameraParameters is the JSON calibration layout for one camera of a rig.
type CameraParameters struct {
	Name                  string                          `json:"name"`
	DepthIntrinsics       *camera.PinholeCameraIntrinsics `json:"depth_intrinsics"`
	DepthDistortionParams []float64                       `json:"depth_distortion_parameters"`
	DepthConversion       *camera.DepthConversion         `json:"depth_conversion"`
	ColorIntrinsics       *camera.PinholeCameraIntrinsics `json:"color_intrinsics"`
	ColorDistortionParams []float64                       `json:"color_distortion_parameters"`
	DepthToColor          *camera.Extrinsics              `json:"depth_to_color"`
	WorldRotation         []float64                       `json:"world_rotation"`
	WorldTranslation      []float64                       `json:"world_translation"`
}

// RigParameters is the JSON calibration layout for a whole rig.
type RigParameters struct {
	Cameras []CameraParameters `json:"cameras"`
}

// LoadRigParameters reads a rig calibration JSON file.
func LoadRigParameters(jsonPath string) (*RigParameters, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading JSON data")
	}
	rig := &RigParameters{}
	if err := json.Unmarshal(byteValue, rig); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	return rig, nil
}

// NewCameraSetup validates one camera's calibration and builds its derived
// data. A nil depth conversion uses an identity scale; nil world placement
// leaves the camera at the world origin.
func NewCameraSetup(params *CameraParameters) (*CameraSetup, error) {
	if params == nil {
		return nil, errors.New("camera parameters do not exist")
	}
	setup := &CameraSetup{name: params.Name}

	if err := params.DepthIntrinsics.CheckValid(); err != nil {
		return nil, errors.Wrapf(err, "camera %q depth intrinsics", params.Name)
	}
	setup.depthIntrinsics = params.DepthIntrinsics

	var depthDistortion camera.Distorter
	if len(params.DepthDistortionParams) != 0 {
		bc, err := camera.NewBrownConrady(params.DepthDistortionParams)
		if err != nil {
			return nil, errors.Wrapf(err, "camera %q depth distortion", params.Name)
		}
		depthDistortion = bc
	}

	setup.depthConversion = params.DepthConversion
	if setup.depthConversion == nil {
		setup.depthConversion = &camera.DepthConversion{DepthScale: 1.0}
	}
	if err := setup.depthConversion.CheckValid(); err != nil {
		return nil, errors.Wrapf(err, "camera %q depth conversion", params.Name)
	}

	if err := params.ColorIntrinsics.CheckValid(); err != nil {
		return nil, errors.Wrapf(err, "camera %q color intrinsics", params.Name)
	}
	setup.colorModel = &camera.PinholeCameraModel{PinholeCameraIntrinsics: params.ColorIntrinsics}
	if len(params.ColorDistortionParams) != 0 {
		bc, err := camera.NewBrownConrady(params.ColorDistortionParams)
		if err != nil {
			return nil, errors.Wrapf(err, "camera %q color distortion", params.Name)
		}
		setup.colorModel.Distortion = bc
	}

	setup.extrinsics = params.DepthToColor
	if setup.extrinsics == nil {
		setup.extrinsics = camera.NewIdentityExtrinsics()
	}
	if err := setup.extrinsics.CheckValid(); err != nil {
		return nil, errors.Wrapf(err, "camera %q depth to color extrinsics", params.Name)
	}

	if params.WorldRotation == nil && params.WorldTranslation == nil {
		setup.worldPose = spatialmath.NewZeroRigidTransform()
	} else {
		rotation := params.WorldRotation
		if rotation == nil {
			rotation = []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
		}
		translation := r3.Vector{}
		if params.WorldTranslation != nil {
			if len(params.WorldTranslation) != 3 {
				return nil, errors.Errorf("camera %q world translation must have 3 elements, got %d",
					params.Name, len(params.WorldTranslation))
			}
			translation = r3.Vector{
				X: params.WorldTranslation[0],
				Y: params.WorldTranslation[1],
				Z: params.WorldTranslation[2],
			}
		}
		pose, err := spatialmath.NewRigidTransform(rotation, translation)
		if err != nil {
			return nil, errors.Wrapf(err, "camera %q world placement", params.Name)
		}
		setup.worldPose = pose
	}

	undistortion, err := camera.NewUndistortionMap(setup.depthIntrinsics, depthDistortion)
	if err != nil {
		return nil, errors.Wrapf(err, "camera %q undistortion table", params.Name)
	}
	setup.undistortion = undistortion
	return setup, nil
}

// Name returns the camera's name from the calibration file.
func (setup *CameraSetup) Name() string {
	return setup.name
}

// WorldPose returns the camera to world transform.
func (setup *CameraSetup) WorldPose() *spatialmath.RigidTransform {
	return setup.worldPose
}

// Undistortion returns the camera's cached undistortion table.
func (setup *CameraSetup) Undistortion() *camera.UndistortionMap {
	return setup.undistortion
}

// CheckFrame validates a frame's buffers against the setup's sensor sizes.
// Reconstruction of a mismatched frame would read memory that means nothing,
// so this is fatal, never truncated.
func (setup *CameraSetup) CheckFrame(frame *RawFrame) error {
	if err := frame.CheckValid(); err != nil {
		return err
	}
	if frame.Depth.Width() != setup.depthIntrinsics.Width || frame.Depth.Height() != setup.depthIntrinsics.Height {
		return errors.Errorf("camera %q depth frame is (%d, %d), calibrated for (%d, %d)",
			setup.name, frame.Depth.Width(), frame.Depth.Height(),
			setup.depthIntrinsics.Width, setup.depthIntrinsics.Height)
	}
	if frame.Color.Width() != setup.colorModel.Width || frame.Color.Height() != setup.colorModel.Height {
		return errors.Errorf("camera %q color frame is (%d, %d), calibrated for (%d, %d)",
			setup.name, frame.Color.Width(), frame.Color.Height(),
			setup.colorModel.Width, setup.colorModel.Height)
	}
	return nil
}
