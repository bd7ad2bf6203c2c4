package flow

import (
	"context"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/volcap/sceneflow/pointcloud"
	"github.com/volcap/sceneflow/utils"
)

// MotionFieldParams configures how segment motion is blended onto cloud points.
type MotionFieldParams struct {
	// Neighbors is how many nearest segment samples blend into each point.
	Neighbors int `json:"neighbors"`
	// NearestOnly skips blending and copies the single closest sample's motion.
	NearestOnly bool `json:"nearest_only"`
	// MatchEpsilon is the distance under which a point takes the nearest
	// sample's motion outright.
	MatchEpsilon float64 `json:"match_epsilon"`
}

// DefaultMotionFieldParams are reasonable starting parameters for human scale
// captures.
func DefaultMotionFieldParams() MotionFieldParams {
	return MotionFieldParams{Neighbors: 4, MatchEpsilon: 1e-6}
}

// CheckValid checks if the fields for MotionFieldParams have valid inputs.
func (params *MotionFieldParams) CheckValid() error {
	if params.Neighbors < 1 && !params.NearestOnly {
		return errors.Errorf("need at least 1 neighbor, got %d", params.Neighbors)
	}
	if params.MatchEpsilon < 0 {
		return errors.Errorf("match epsilon cannot be negative, got %f", params.MatchEpsilon)
	}
	return nil
}

type neighbor struct {
	distSq float64
	index  int
}

// AssignMotionVectors computes one motion vector per cloud point by distance
// weighted blending of the point's nearest segment samples. With no samples
// at all every point gets the zero vector. Points are processed in parallel;
// the result only depends on the cloud and sample order, never on scheduling.
func AssignMotionVectors(
	ctx context.Context,
	cloud *pointcloud.PointCloud,
	samples []SegmentSample,
	params MotionFieldParams,
) ([]r3.Vector, error) {
	if err := params.CheckValid(); err != nil {
		return nil, err
	}
	out := make([]r3.Vector, cloud.Size())
	if cloud.Size() == 0 || len(samples) == 0 {
		return out, nil
	}

	k := params.Neighbors
	if params.NearestOnly {
		k = 1
	}
	if k > len(samples) {
		k = len(samples)
	}
	epsSq := params.MatchEpsilon * params.MatchEpsilon

	err := utils.GroupWorkParallel(
		ctx,
		cloud.Size(),
		func(numGroups int) {},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			nearest := make([]neighbor, k)
			return func(memberNum, workNum int) {
				out[workNum] = blendMotion(cloud.PositionAt(workNum), samples, nearest, epsSq)
			}, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// blendMotion finds the len(nearest) closest samples to pos by scanning all
// of them, keeping a small sorted window, and blends their motions weighted
// by distance complement: of the chosen neighbors the closest contributes
// the most, the farthest the least.
func blendMotion(pos r3.Vector, samples []SegmentSample, nearest []neighbor, epsSq float64) r3.Vector {
	count := 0
	for i := range samples {
		d := pos.Sub(samples[i].Position).Norm2()
		count = insertNeighbor(nearest, count, neighbor{distSq: d, index: i})
	}

	// a near perfect hit takes the sample's motion as is
	if nearest[0].distSq < epsSq {
		return samples[nearest[0].index].Motion
	}
	if count == 1 {
		return samples[nearest[0].index].Motion
	}

	sumDist := 0.0
	for i := 0; i < count; i++ {
		sumDist += math.Sqrt(nearest[i].distSq)
	}
	if sumDist < 1e-12 {
		// every neighbor coincides with the point, blend them evenly
		blended := r3.Vector{}
		for i := 0; i < count; i++ {
			blended = blended.Add(samples[nearest[i].index].Motion)
		}
		return blended.Mul(1.0 / float64(count))
	}

	totalWeight := 0.0
	blended := r3.Vector{}
	for i := 0; i < count; i++ {
		w := (sumDist - math.Sqrt(nearest[i].distSq)) / sumDist
		totalWeight += w
		blended = blended.Add(samples[nearest[i].index].Motion.Mul(w))
	}
	return blended.Mul(1.0 / totalWeight)
}

// insertNeighbor adds n to the ascending window if it beats the current
// worst, returning the new valid count. Equal distances keep scan order, so
// the result does not depend on how the work was grouped.
func insertNeighbor(nearest []neighbor, count int, n neighbor) int {
	if count == len(nearest) {
		if n.distSq >= nearest[count-1].distSq {
			return count
		}
	} else {
		count++
	}
	i := count - 1
	for i > 0 && nearest[i-1].distSq > n.distSq {
		nearest[i] = nearest[i-1]
		i--
	}
	nearest[i] = n
	return count
}
