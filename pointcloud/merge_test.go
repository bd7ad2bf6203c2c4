package pointcloud

import (
	"testing"

	"go.viam.com/test"
)

func TestMergePointClouds(t *testing.T) {
	clouds := []*PointCloud{makeTestCloud(100), makeTestCloud(250), makeTestCloud(0)}
	before := []*PointCloud{clouds[0].Clone(), clouds[1].Clone(), clouds[2].Clone()}

	merged, offsets, err := MergePointClouds(clouds)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, merged.Size(), test.ShouldEqual, 350)
	test.That(t, offsets, test.ShouldResemble, []int{0, 100, 350})

	// points appear in camera order with each camera's own order intact
	for i := 0; i < 100; i++ {
		test.That(t, merged.PositionAt(i), test.ShouldResemble, clouds[0].PositionAt(i))
		test.That(t, merged.ColorAt(i), test.ShouldResemble, clouds[0].ColorAt(i))
	}
	for i := 0; i < 250; i++ {
		test.That(t, merged.PositionAt(offsets[1]+i), test.ShouldResemble, clouds[1].PositionAt(i))
		test.That(t, merged.ColorAt(offsets[1]+i), test.ShouldResemble, clouds[1].ColorAt(i))
	}

	// inputs are untouched
	for ci, cloud := range clouds {
		test.That(t, cloud.Size(), test.ShouldEqual, before[ci].Size())
		for i := 0; i < cloud.Size(); i++ {
			test.That(t, cloud.PositionAt(i), test.ShouldResemble, before[ci].PositionAt(i))
			test.That(t, cloud.ColorAt(i), test.ShouldResemble, before[ci].ColorAt(i))
		}
	}

	merged, offsets, err = MergePointClouds(nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, merged.Size(), test.ShouldEqual, 0)
	test.That(t, offsets, test.ShouldResemble, []int{})

	_, _, err = MergePointClouds([]*PointCloud{makeTestCloud(3), nil})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "index 1")
}
