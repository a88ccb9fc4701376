package l1clusters

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// EstimatedPointsPerCell is used for the initial grid capacity estimate.
const EstimatedPointsPerCell = 4

// cellKey identifies one cube of the grid.
type cellKey struct{ x, y, z int64 }

// SpatialIndex provides neighbour queries using a regular 3D grid.
// Cell size should match the query radius.
type SpatialIndex struct {
	CellSize float64
	Grid     map[cellKey][]int // cell -> global point indices
}

// NewSpatialIndex creates a spatial index with the specified cell size.
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	return &SpatialIndex{
		CellSize: cellSize,
		Grid:     make(map[cellKey][]int),
	}
}

// Build populates the index with positions[i] for every i in subset.
func (si *SpatialIndex) Build(positions []r3.Vec, subset []int) {
	si.Grid = make(map[cellKey][]int, len(subset)/EstimatedPointsPerCell+1)
	for _, i := range subset {
		k := si.cellOf(positions[i])
		si.Grid[k] = append(si.Grid[k], i)
	}
}

func (si *SpatialIndex) cellOf(p r3.Vec) cellKey {
	return cellKey{
		x: int64(math.Floor(p.X / si.CellSize)),
		y: int64(math.Floor(p.Y / si.CellSize)),
		z: int64(math.Floor(p.Z / si.CellSize)),
	}
}

// RegionQuery returns indices of all indexed points within eps of
// positions[idx], idx included. eps must not exceed CellSize.
func (si *SpatialIndex) RegionQuery(positions []r3.Vec, idx int, eps float64) []int {
	p := positions[idx]
	base := si.cellOf(p)
	eps2 := eps * eps
	var neighbors []int

	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				k := cellKey{base.x + dx, base.y + dy, base.z + dz}
				for _, candidate := range si.Grid[k] {
					d := r3.Sub(positions[candidate], p)
					if r3.Dot(d, d) <= eps2 {
						neighbors = append(neighbors, candidate)
					}
				}
			}
		}
	}
	return neighbors
}

// Cluster is one connected group of wall points.
type Cluster struct {
	ID      int   // position in the returned slice
	Indices []int // ascending global point indices
}

// Params controls clustering.
type Params struct {
	Eps     float64 // cluster tolerance (cluster_epsilon)
	MinSize int     // clusters below this size are dropped
}

// Result is the output of Build: the kept clusters plus bookkeeping on
// what was discarded.
type Result struct {
	Clusters        []Cluster
	DroppedClusters int
	DroppedPoints   int
}

// Build partitions positions[subset] into epsilon-connected clusters.
//
// Clusters are numbered in order of their smallest member index and members
// are sorted, so the output depends only on the input, never on map
// iteration order. Empty input yields an empty result.
func Build(positions []r3.Vec, subset []int, params Params) Result {
	var res Result
	if len(subset) == 0 || params.Eps <= 0 {
		return res
	}

	si := NewSpatialIndex(params.Eps)
	si.Build(positions, subset)

	labels := make(map[int]int, len(subset)) // global index -> cluster+1
	order := make([]int, len(subset))
	copy(order, subset)
	sort.Ints(order)

	next := 0
	for _, seed := range order {
		if labels[seed] != 0 {
			continue
		}
		next++
		members := expandCluster(positions, si, labels, seed, next, params.Eps)
		sort.Ints(members)
		if len(members) < params.MinSize {
			res.DroppedClusters++
			res.DroppedPoints += len(members)
			continue
		}
		res.Clusters = append(res.Clusters, Cluster{
			ID:      len(res.Clusters),
			Indices: members,
		})
	}
	return res
}

// expandCluster floods the epsilon graph from seed with a queue, the same
// expansion DBSCAN uses with MinPts = 1.
func expandCluster(positions []r3.Vec, si *SpatialIndex, labels map[int]int,
	seed, clusterID int, eps float64) []int {

	labels[seed] = clusterID
	queue := []int{seed}
	for j := 0; j < len(queue); j++ {
		for _, n := range si.RegionQuery(positions, queue[j], eps) {
			if labels[n] != 0 {
				continue
			}
			labels[n] = clusterID
			queue = append(queue, n)
		}
	}
	return queue
}
