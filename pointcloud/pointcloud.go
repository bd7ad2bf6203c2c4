// Package pointcloud provides the flat, insertion ordered point containers
// produced by reconstruction, merging across cameras, and the PLY wire codec
// used to hand frames to downstream tools.
package pointcloud

import (
	"image/color"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

const (
	maxPreciseFloat64 = float64(9007199254740992)
	minPreciseFloat64 = float64(-9007199254740992)
)

// MetaData is data about the cloud that gets updated on every point append.
type MetaData struct {
	HasFlow bool

	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData creates a new MetaData.
func NewMetaData() MetaData {
	return MetaData{
		MinX: maxPreciseFloat64, MinY: maxPreciseFloat64, MinZ: maxPreciseFloat64,
		MaxX: minPreciseFloat64, MaxY: minPreciseFloat64, MaxZ: minPreciseFloat64,
	}
}

// Merge updates the meta data with the new point.
func (meta *MetaData) Merge(p r3.Vector) {
	if p.X > meta.MaxX {
		meta.MaxX = p.X
	}
	if p.Y > meta.MaxY {
		meta.MaxY = p.Y
	}
	if p.Z > meta.MaxZ {
		meta.MaxZ = p.Z
	}
	if p.X < meta.MinX {
		meta.MinX = p.X
	}
	if p.Y < meta.MinY {
		meta.MinY = p.Y
	}
	if p.Z < meta.MinZ {
		meta.MinZ = p.Z
	}
}

// PointCloud stores points in flat parallel arrays in insertion order. Colors
// always exist, one per point; motion vectors are attached after assignment
// and are either absent or exactly one per point.
type PointCloud struct {
	positions []r3.Vector
	colors    []color.NRGBA
	flows     []r3.Vector
	meta      MetaData
}

// New returns an empty PointCloud.
func New() *PointCloud {
	return NewWithPrealloc(0)
}

// NewWithPrealloc returns an empty PointCloud with capacity for size points.
func NewWithPrealloc(size int) *PointCloud {
	return &PointCloud{
		positions: make([]r3.Vector, 0, size),
		colors:    make([]color.NRGBA, 0, size),
		meta:      NewMetaData(),
	}
}

// Size returns the number of points in the cloud.
func (cloud *PointCloud) Size() int {
	return len(cloud.positions)
}

// MetaData returns the meta data.
func (cloud *PointCloud) MetaData() MetaData {
	return cloud.meta
}

// Append adds a point with its color to the end of the cloud. Appending to a
// cloud that already has motion vectors attached would desynchronize the
// channels, so any attached flows are dropped.
func (cloud *PointCloud) Append(pos r3.Vector, c color.NRGBA) {
	cloud.positions = append(cloud.positions, pos)
	cloud.colors = append(cloud.colors, c)
	cloud.flows = nil
	cloud.meta.HasFlow = false
	cloud.meta.Merge(pos)
}

// PositionAt returns the position of the i'th point.
func (cloud *PointCloud) PositionAt(i int) r3.Vector {
	return cloud.positions[i]
}

// ColorAt returns the color of the i'th point.
func (cloud *PointCloud) ColorAt(i int) color.NRGBA {
	return cloud.colors[i]
}

// FlowAt returns the motion vector of the i'th point, or the zero vector when
// no motion has been attached.
func (cloud *PointCloud) FlowAt(i int) r3.Vector {
	if cloud.flows == nil {
		return r3.Vector{}
	}
	return cloud.flows[i]
}

// HasFlow reports whether motion vectors are attached.
func (cloud *PointCloud) HasFlow() bool {
	return cloud.flows != nil
}

// SetFlows attaches one motion vector per point, taking ownership of the slice.
func (cloud *PointCloud) SetFlows(flows []r3.Vector) error {
	if len(flows) != cloud.Size() {
		return errors.Errorf("motion vector count and point count don't match %d != %d", len(flows), cloud.Size())
	}
	cloud.flows = flows
	cloud.meta.HasFlow = true
	return nil
}

// Iterate visits points in insertion order and calls the given function for
// each one. If the supplied function returns false, iteration stops after the
// function returns. numBatches lets you divide up the work; 0 means don't
// divide. myBatch is used iff numBatches > 0 and is which batch you want.
func (cloud *PointCloud) Iterate(numBatches, myBatch int, fn func(i int, pos r3.Vector, c color.NRGBA) bool) {
	lowerBound := 0
	upperBound := cloud.Size()
	if numBatches > 0 {
		batchSize := (cloud.Size() + numBatches - 1) / numBatches
		lowerBound = myBatch * batchSize
		upperBound = (myBatch + 1) * batchSize
	}
	if upperBound > cloud.Size() {
		upperBound = cloud.Size()
	}
	for i := lowerBound; i < upperBound; i++ {
		if !fn(i, cloud.positions[i], cloud.colors[i]) {
			return
		}
	}
}

// Clone returns a deep copy of the cloud.
func (cloud *PointCloud) Clone() *PointCloud {
	clone := &PointCloud{
		positions: append([]r3.Vector(nil), cloud.positions...),
		colors:    append([]color.NRGBA(nil), cloud.colors...),
		meta:      cloud.meta,
	}
	if cloud.flows != nil {
		clone.flows = append([]r3.Vector(nil), cloud.flows...)
	}
	return clone
}

// appendCloud copies every point of other onto the end of this cloud,
// keeping other's insertion order. Flow channels do not survive appends.
func (cloud *PointCloud) appendCloud(other *PointCloud) {
	cloud.positions = append(cloud.positions, other.positions...)
	cloud.colors = append(cloud.colors, other.colors...)
	cloud.flows = nil
	cloud.meta.HasFlow = false
	for i := range other.positions {
		cloud.meta.Merge(other.positions[i])
	}
}
