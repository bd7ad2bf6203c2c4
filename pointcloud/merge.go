package pointcloud

import "github.com/pkg/errors"

// MergePointClouds concatenates the given clouds into one, in input order,
// preserving each cloud's own insertion order. It returns the merged cloud
// along with each input's offset into it, so callers can keep addressing a
// camera's points inside the shared buffers. The inputs are never modified.
func MergePointClouds(clouds []*PointCloud) (*PointCloud, []int, error) {
	offsets := make([]int, len(clouds))
	totalSize := 0
	for i, cloud := range clouds {
		if cloud == nil {
			return nil, nil, errors.Errorf("cannot merge nil cloud at index %d", i)
		}
		offsets[i] = totalSize
		totalSize += cloud.Size()
	}
	merged := NewWithPrealloc(totalSize)
	for _, cloud := range clouds {
		merged.appendCloud(cloud)
	}
	return merged, offsets, nil
}
