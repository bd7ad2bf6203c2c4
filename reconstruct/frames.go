// Package reconstruct turns one synchronized RGB-D frame per camera into a
// colored point cloud: every depth pixel is lifted into the camera frame,
// reprojected into the color sensor for its color, placed in the world, and
// filtered down to the points inside the capture volume. Multi camera rigs
// merge the per camera clouds into one with stable per camera offsets.
package reconstruct

import (
	"image/color"

	"github.com/pkg/errors"
)

// DepthMap is a row major raw depth frame. Values are in sensor units; zero
// means the sensor saw nothing at that pixel.
type DepthMap struct {
	width  int
	height int
	data   []uint16
}

// NewDepthMap wraps an existing row major depth buffer. The buffer length
// must match the dimensions exactly.
func NewDepthMap(width, height int, data []uint16) (*DepthMap, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid depth map size (%d, %d)", width, height)
	}
	if len(data) != width*height {
		return nil, errors.Errorf("depth buffer has %d values, expected %d x %d = %d",
			len(data), width, height, width*height)
	}
	return &DepthMap{width: width, height: height, data: data}, nil
}

// NewEmptyDepthMap returns an all zero depth map of the given size.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{width: width, height: height, data: make([]uint16, width*height)}
}

// Width returns the pixel width of the frame.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the pixel height of the frame.
func (dm *DepthMap) Height() int {
	return dm.height
}

// GetDepth returns the raw depth at the given pixel.
func (dm *DepthMap) GetDepth(x, y int) uint16 {
	return dm.data[y*dm.width+x]
}

// Set sets the raw depth at the given pixel.
func (dm *DepthMap) Set(x, y int, v uint16) {
	dm.data[y*dm.width+x] = v
}

// ColorImage is a row major RGB frame. Row 0 of the buffer is the bottom row
// of the image; GetColor accounts for the flip.
type ColorImage struct {
	width  int
	height int
	pixels []color.NRGBA
}

// NewColorImage wraps an existing row major pixel buffer. The buffer length
// must match the dimensions exactly.
func NewColorImage(width, height int, pixels []color.NRGBA) (*ColorImage, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid color image size (%d, %d)", width, height)
	}
	if len(pixels) != width*height {
		return nil, errors.Errorf("color buffer has %d pixels, expected %d x %d = %d",
			len(pixels), width, height, width*height)
	}
	return &ColorImage{width: width, height: height, pixels: pixels}, nil
}

// NewEmptyColorImage returns an all black color image of the given size.
func NewEmptyColorImage(width, height int) *ColorImage {
	return &ColorImage{width: width, height: height, pixels: make([]color.NRGBA, width*height)}
}

// Width returns the pixel width of the frame.
func (ci *ColorImage) Width() int {
	return ci.width
}

// Height returns the pixel height of the frame.
func (ci *ColorImage) Height() int {
	return ci.height
}

// GetColor returns the pixel at image coordinates where row 0 is the top of
// the image, flipping into the buffer's bottom up row order.
func (ci *ColorImage) GetColor(x, y int) color.NRGBA {
	return ci.pixels[(ci.height-1-y)*ci.width+x]
}

// SetColor sets the pixel at top down image coordinates.
func (ci *ColorImage) SetColor(x, y int, c color.NRGBA) {
	ci.pixels[(ci.height-1-y)*ci.width+x] = c
}

// RawFrame is one camera's synchronized depth and color capture at one
// timestamp. Frames are consumed by assembly and then discarded; nothing in
// the pipeline holds onto them.
type RawFrame struct {
	Depth *DepthMap
	Color *ColorImage
}

// CheckValid checks that both buffers exist.
func (rf *RawFrame) CheckValid() error {
	if rf == nil {
		return errors.New("raw frame does not exist")
	}
	if rf.Depth == nil {
		return errors.New("raw frame has no depth map")
	}
	if rf.Color == nil {
		return errors.New("raw frame has no color image")
	}
	return nil
}
