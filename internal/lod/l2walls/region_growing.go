package l2walls

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/footprint.report/internal/lod/l1clusters"
	"github.com/banshee-data/footprint.report/internal/lod/pointset"
)

const (
	// DefaultMaxNormalZ bounds the vertical component of an accepted wall
	// normal (about 17 degrees of tilt).
	DefaultMaxNormalZ = 0.3

	// maxPrunePasses caps the post-growth consistency loop.
	maxPrunePasses = 8
)

// ErrNormalsMismatch is returned when the normal slice does not cover the
// position slice.
var ErrNormalsMismatch = errors.New("normals and positions differ in length")

// Plane is a fitted supporting plane.
type Plane struct {
	Centroid r3.Vec
	Normal   r3.Vec // unit length, canonical orientation
}

// Distance returns the unsigned distance from p to the plane.
func (pl Plane) Distance(p r3.Vec) float64 {
	return math.Abs(r3.Dot(r3.Sub(p, pl.Centroid), pl.Normal))
}

// Segment is one accepted wall.
type Segment struct {
	ID        int
	ClusterID int
	Indices   []int // ascending global point indices
	Plane     Plane
}

// Params controls region growing.
type Params struct {
	Epsilon         float64 // neighbour radius and plane distance tolerance
	NormalThreshold float64 // minimum |cos| between point and segment normals
	MinPoints       int     // smallest accepted segment
	MaxNormalZ      float64 // 0 means DefaultMaxNormalZ
	Workers         int     // 0 means GOMAXPROCS
}

func (p Params) maxNormalZ() float64 {
	if p.MaxNormalZ <= 0 {
		return DefaultMaxNormalZ
	}
	return p.MaxNormalZ
}

func (p Params) workers() int {
	if p.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return p.Workers
}

// Result is the output of Grow.
type Result struct {
	Segments []Segment
	// Unsegmented counts clustered points that ended in no segment.
	Unsegmented int
	// Rejected counts seeds whose region failed the size or verticality
	// test.
	Rejected int
}

type clusterResult struct {
	segments    []Segment
	unsegmented int
	rejected    int
}

// Grow segments every cluster. Clusters run concurrently; the results are
// concatenated in cluster order and segment IDs are assigned afterwards.
func Grow(positions, normals []r3.Vec, clusters []l1clusters.Cluster, params Params) (Result, error) {
	var res Result
	if len(clusters) == 0 {
		return res, nil
	}
	if len(normals) != len(positions) {
		return res, fmt.Errorf("grow walls: %w (%d normals, %d positions)", ErrNormalsMismatch, len(normals), len(positions))
	}

	perCluster := make([]clusterResult, len(clusters))
	var g errgroup.Group
	g.SetLimit(params.workers())
	for i := range clusters {
		g.Go(func() error {
			perCluster[i] = growCluster(positions, normals, clusters[i], params)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	for _, cr := range perCluster {
		for _, s := range cr.segments {
			s.ID = len(res.Segments)
			res.Segments = append(res.Segments, s)
		}
		res.Unsegmented += cr.unsegmented
		res.Rejected += cr.rejected
	}
	return res, nil
}

// growCluster runs region growing over one cluster. It touches no shared
// mutable state.
func growCluster(positions, normals []r3.Vec, c l1clusters.Cluster, params Params) clusterResult {
	var out clusterResult
	ix := pointset.NewIndex(positions, c.Indices)
	assigned := make(map[int]bool, len(c.Indices))

	// Every unassigned point seeds once. Points of a rejected region stay
	// free: a seed with a different normal grows a different region.
	for _, seed := range c.Indices {
		if assigned[seed] || r3.Norm2(normals[seed]) == 0 {
			continue
		}
		grown := growRegion(positions, normals, ix, assigned, seed, params)
		members, plane, ok := prune(positions, normals, grown, params.NormalThreshold)
		if !ok || len(members) < params.MinPoints || math.Abs(plane.Normal.Z) > params.maxNormalZ() {
			out.rejected++
			continue
		}
		for _, m := range members {
			assigned[m] = true
		}
		out.segments = append(out.segments, Segment{
			ClusterID: c.ID,
			Indices:   members,
			Plane:     plane,
		})
	}

	for _, i := range c.Indices {
		if !assigned[i] {
			out.unsegmented++
		}
	}
	return out
}

// growRegion expands a region from seed over unassigned neighbours whose
// normal agrees with the running plane and that lie close to it.
func growRegion(positions, normals []r3.Vec, ix *pointset.Index, assigned map[int]bool,
	seed int, params Params) []int {

	var m pointset.Moments
	m.Add(positions[seed])
	plane := Plane{Centroid: positions[seed], Normal: r3.Unit(normals[seed])}
	fitted := false

	inRegion := map[int]bool{seed: true}
	queue := []int{seed}
	for j := 0; j < len(queue); j++ {
		for _, n := range ix.WithinRadius(positions[queue[j]], params.Epsilon) {
			if inRegion[n] || assigned[n] {
				continue
			}
			if pointset.CosineSimilarity(normals[n], plane.Normal) < params.NormalThreshold {
				continue
			}
			if fitted && plane.Distance(positions[n]) > params.Epsilon {
				continue
			}
			inRegion[n] = true
			queue = append(queue, n)
			m.Add(positions[n])
			if c, nrm, ok := m.FitPlane(); ok {
				plane = Plane{Centroid: c, Normal: nrm}
				fitted = true
			}
		}
	}
	sort.Ints(queue)
	return queue
}

// prune refits the plane on the final membership and drops points whose
// normal no longer agrees with it, until the membership is stable. When ok
// is true every returned member satisfies the threshold against the
// returned plane.
func prune(positions, normals []r3.Vec, members []int, threshold float64) ([]int, Plane, bool) {
	for pass := 0; ; pass++ {
		plane, ok := fitMembers(positions, members)
		if !ok {
			return members, plane, false
		}
		kept := members[:0:0]
		for _, i := range members {
			if pointset.CosineSimilarity(normals[i], plane.Normal) >= threshold {
				kept = append(kept, i)
			}
		}
		if len(kept) == len(members) {
			return members, plane, true
		}
		if pass == maxPrunePasses {
			return kept, plane, false
		}
		members = kept
	}
}

func fitMembers(positions []r3.Vec, members []int) (Plane, bool) {
	var m pointset.Moments
	for _, i := range members {
		m.Add(positions[i])
	}
	c, n, ok := m.FitPlane()
	return Plane{Centroid: c, Normal: n}, ok
}
