package utils

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"

	"go.viam.com/test"
)

func TestGroupWorkParallel(t *testing.T) {
	for _, totalSize := range []int{0, 1, 3, 100, 1000} {
		visited := make([]int32, totalSize)
		groups := 0
		err := GroupWorkParallel(
			context.Background(),
			totalSize,
			func(numGroups int) {
				groups = numGroups
			},
			func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc) {
				test.That(t, to-from, test.ShouldEqual, groupSize)
				return func(memberNum, workNum int) {
					test.That(t, workNum, test.ShouldEqual, from+memberNum)
					atomic.AddInt32(&visited[workNum], 1)
				}, nil
			},
		)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, groups, test.ShouldBeLessThanOrEqualTo, ParallelFactor)
		for i := 0; i < totalSize; i++ {
			test.That(t, visited[i], test.ShouldEqual, 1)
		}
	}
}

func TestParallelForEachPixel(t *testing.T) {
	size := image.Point{X: 31, Y: 17}
	visited := make([]int32, size.X*size.Y)
	ParallelForEachPixel(size, func(x, y int) {
		atomic.AddInt32(&visited[y*size.X+x], 1)
	})
	for i := range visited {
		test.That(t, visited[i], test.ShouldEqual, 1)
	}
}

func TestRunInParallel(t *testing.T) {
	var count int32
	inc := func(ctx context.Context) error {
		atomic.AddInt32(&count, 1)
		return nil
	}

	_, err := RunInParallel(context.Background(), []SimpleFunc{inc, inc, inc})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, count, test.ShouldEqual, 3)

	errFunc := func(ctx context.Context) error {
		return errors.New("bad")
	}

	_, err = RunInParallel(context.Background(), []SimpleFunc{inc, errFunc})
	test.That(t, err, test.ShouldNotBeNil)

	panicFunc := func(ctx context.Context) error {
		panic(1)
	}

	_, err = RunInParallel(context.Background(), []SimpleFunc{panicFunc})
	test.That(t, err, test.ShouldNotBeNil)
}
