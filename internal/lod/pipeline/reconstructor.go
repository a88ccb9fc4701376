package pipeline

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/footprint.report/internal/lod/l1clusters"
	"github.com/banshee-data/footprint.report/internal/lod/l2walls"
	"github.com/banshee-data/footprint.report/internal/lod/l3partition"
	"github.com/banshee-data/footprint.report/internal/lod/l4labels"
	"github.com/banshee-data/footprint.report/internal/lod/l5footprints"
	"github.com/banshee-data/footprint.report/internal/lod/l6buildings"
	"github.com/banshee-data/footprint.report/internal/lod/pointset"
	"github.com/banshee-data/footprint.report/internal/timeutil"
)

var (
	// ErrLOD0NotBuilt is returned by operations that need a completed
	// BuildLOD0.
	ErrLOD0NotBuilt = errors.New("LOD0 has not been built")
	// ErrLOD1NotBuilt is returned by OutputLOD1ToFaceGraph before BuildLOD1.
	ErrLOD1NotBuilt = errors.New("LOD1 has not been built")
	// ErrNilPointTypes is returned when BuildLOD0 gets no classification.
	ErrNilPointTypes = errors.New("point type map is nil")
)

// normalNeighbours is the neighbourhood size for estimated wall normals.
const normalNeighbours = 12

// Lod1Method selects the roof height statistic.
type Lod1Method = l6buildings.Method

// Roof height statistics.
const (
	Minimum = l6buildings.Minimum
	Average = l6buildings.Average
	Median  = l6buildings.Median
	Maximum = l6buildings.Maximum

	DefaultLOD1Method = l6buildings.DefaultMethod
)

// ErrInvalidMethod is returned for a Lod1Method outside the enumeration.
var ErrInvalidMethod = l6buildings.ErrInvalidMethod

// ParseLod1Method parses MINIMUM, AVERAGE, MEDIAN or MAXIMUM, ignoring
// case.
func ParseLod1Method(s string) (Lod1Method, error) { return l6buildings.ParseMethod(s) }

// State is the furthest completed stage of a Reconstructor.
type State int

const (
	StateEmpty State = iota
	StateLOD0
	StateLOD1
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLOD0:
		return "lod0"
	case StateLOD1:
		return "lod1"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Option configures a Reconstructor.
type Option func(*options)

type options struct {
	clock          timeutil.Clock
	fallbackHeight float64
}

// WithClock sets the clock used for stage timings.
func WithClock(c timeutil.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithFallbackHeight sets the LOD1 height of footprints that contain no
// INSIDE point. The default is 0.
func WithFallbackHeight(h float64) Option {
	return func(o *options) { o.fallbackHeight = h }
}

// lod0Result holds everything BuildLOD0 produced. It is replaced as a
// whole and never modified afterwards.
type lod0Result struct {
	params      LOD0Params
	types       []pointset.PointType
	clusters    l1clusters.Result
	walls       l2walls.Result
	lines       []l3partition.Line
	arrangement *l3partition.Arrangement
	labels      []l4labels.Label
	footprints  l5footprints.Result
	roofHeights l6buildings.RoofHeights
}

// Reconstructor builds LOD0 footprints and LOD1 buildings from one point
// set. Points are addressed by caller keys of type K; positions and
// normals are read once, in key order, when the Reconstructor is created.
//
// A Reconstructor is not safe for concurrent use.
type Reconstructor[K any] struct {
	keys      []K
	positions []r3.Vec
	normals   []r3.Vec // nil: estimate for BOUNDARY points
	opts      options

	state     State
	lod0      *lod0Result
	buildings []l6buildings.Building
	method    Lod1Method
	stats     Stats
}

// New captures the points identified by keys. normals may be nil, in
// which case wall normals are estimated from the point neighbourhoods.
func New[K any](keys []K, points pointset.PointMap[K], normals pointset.NormalMap[K], opts ...Option) *Reconstructor[K] {
	o := options{clock: timeutil.RealClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	r := &Reconstructor[K]{
		keys: append([]K(nil), keys...),
		opts: o,
	}
	r.positions = pointset.Gather(keys, points)
	if normals != nil {
		r.normals = pointset.GatherNormals(keys, normals)
	}
	return r
}

// BuildLOD0With is BuildLOD0 with the required tolerances given directly
// and the rest at their defaults unless overridden by opts.
func (r *Reconstructor[K]) BuildLOD0With(types pointset.PointTypeMap[K], epsilon, clusterEpsilon float64, opts ...LOD0Option) error {
	p := DefaultLOD0Params(epsilon, clusterEpsilon)
	for _, opt := range opts {
		opt(&p)
	}
	return r.BuildLOD0(types, p)
}

// BuildLOD0 runs stages 1-5 and caches their results. Any previous LOD0
// and LOD1 results are replaced on success; on error the Reconstructor is
// left as it was.
func (r *Reconstructor[K]) BuildLOD0(types pointset.PointTypeMap[K], params LOD0Params) error {
	if types == nil {
		return fmt.Errorf("build LOD0: %w", ErrNilPointTypes)
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("build LOD0: %w", err)
	}
	p := params.resolved()
	tracef("LOD0 params: %+v", p)

	timer := newStageTimer(r.opts.clock)
	res := &lod0Result{params: p}
	stats := Stats{Points: len(r.positions)}

	res.types = pointset.GatherTypes(r.keys, types)
	counts := pointset.CountTypes(res.types)
	stats.BoundaryPoints = counts[pointset.Boundary]
	stats.InsidePoints = counts[pointset.Inside]
	stats.OutsidePoints = counts[pointset.Outside]
	stats.UnknownPoints = counts[pointset.Unknown]
	boundary := pointset.IndicesOf(res.types, pointset.Boundary)

	normals := r.normals
	if normals == nil {
		normals = pointset.EstimateNormals(r.positions, boundary, normalNeighbours)
		stats.EstimatedNormals = true
	}
	timer.mark("input")

	res.clusters = l1clusters.Build(r.positions, boundary, l1clusters.Params{
		Eps:     p.ClusterEpsilon,
		MinSize: p.MinNumberOfPoints,
	})
	timer.mark("clusters")

	walls, err := l2walls.Grow(r.positions, normals, res.clusters.Clusters, l2walls.Params{
		Epsilon:         p.Epsilon,
		NormalThreshold: p.NormalThreshold,
		MinPoints:       p.MinNumberOfPoints,
		Workers:         p.Workers,
	})
	if err != nil {
		opsf("LOD0 failed in region growing: %v", err)
		return fmt.Errorf("build LOD0: %w", err)
	}
	res.walls = walls
	timer.mark("walls")

	res.lines = l3partition.Regularize(
		l3partition.WallLinesFromSegments(r.positions, walls.Segments),
		l3partition.RegularizeParams{
			AngleTolerance:  p.AngleTolerance,
			OffsetTolerance: p.OffsetTolerance,
			ExtentPadding:   p.ExtentPadding,
		})
	timer.mark("lines")

	if len(r.positions) > 0 {
		a, err := l3partition.BuildArrangement(res.lines, planBound(r.positions).Pad(p.BoundaryMargin))
		if err != nil {
			opsf("LOD0 failed in arrangement: %v", err)
			return fmt.Errorf("build LOD0: %w", err)
		}
		res.arrangement = a
	}
	timer.mark("arrangement")

	if res.arrangement != nil {
		res.labels = make([]l4labels.Label, len(res.arrangement.Cells))
		// Without a single wall line there is nothing to separate a
		// building from its surroundings, so the lone cell stays outside.
		if len(res.lines) > 0 {
			ev := l4labels.CountEvidence(res.arrangement, r.positions, res.types)
			solved := l4labels.Solve(l4labels.BuildEnergy(res.arrangement, ev, p.energyParams()))
			res.labels = solved.Labels
			stats.Energy = solved.Energy
		}
	}
	timer.mark("labels")

	if res.arrangement != nil {
		fps, err := l5footprints.Assemble(res.arrangement, res.labels, l5footprints.Params{MinArea: p.MinFootprintArea})
		if err != nil {
			opsf("LOD0 failed in footprint assembly: %v", err)
			return fmt.Errorf("build LOD0: %w", err)
		}
		res.footprints = fps
	}
	res.roofHeights = l6buildings.CollectRoofHeights(res.footprints.Footprints, r.positions, res.types)
	timer.mark("footprints")

	stats.Clusters = len(res.clusters.Clusters)
	stats.DroppedClusters = res.clusters.DroppedClusters
	stats.Segments = len(walls.Segments)
	stats.UnsegmentedPoints = walls.Unsegmented
	stats.RejectedRegions = walls.Rejected
	stats.Lines = len(res.lines)
	if res.arrangement != nil {
		stats.Cells = len(res.arrangement.Cells)
	}
	for _, l := range res.labels {
		if l == l4labels.Inside {
			stats.InsideCells++
		}
	}
	stats.Footprints = len(res.footprints.Footprints)
	stats.RejectedFootprints = len(res.footprints.Rejections)
	stats.DiscardedFootprints = res.footprints.Discarded
	stats.LOD0Timings = timer.Laps()

	r.lod0 = res
	r.buildings = nil
	r.stats = stats
	r.state = StateLOD0
	diagf("LOD0: %d points, %d clusters, %d segments, %d lines, %d cells (%d inside), %d footprints in %v",
		stats.Points, stats.Clusters, stats.Segments, stats.Lines, stats.Cells, stats.InsideCells,
		stats.Footprints, timer.Total())
	return nil
}

// BuildLOD1 assigns every LOD0 footprint a roof height using method. It
// may be called repeatedly; the LOD0 results are not touched.
func (r *Reconstructor[K]) BuildLOD1(method Lod1Method) error {
	if r.state < StateLOD0 {
		return fmt.Errorf("build LOD1: %w", ErrLOD0NotBuilt)
	}
	timer := newStageTimer(r.opts.clock)
	buildings, err := l6buildings.Build(r.lod0.footprints.Footprints, r.lod0.roofHeights, l6buildings.Params{
		Method:         method,
		FallbackHeight: r.opts.fallbackHeight,
	})
	if err != nil {
		return fmt.Errorf("build LOD1: %w", err)
	}
	timer.mark("heights")

	fallback := 0
	for _, b := range buildings {
		if b.Source == l6buildings.HeightFallback {
			fallback++
			opsf("building %s has no roof points, using fallback height %.2f", b.Footprint.ID, b.Height)
		}
	}
	r.buildings = buildings
	r.method = method
	r.stats.Buildings = len(buildings)
	r.stats.FallbackBuildings = fallback
	r.stats.LOD1Timings = timer.Laps()
	r.state = StateLOD1
	diagf("LOD1 (%v): %d buildings, %d with fallback height", method, len(buildings), fallback)
	return nil
}

// planBound returns the ground-plane bound of positions.
func planBound(positions []r3.Vec) orb.Bound {
	b := orb.Bound{
		Min: orb.Point{positions[0].X, positions[0].Y},
		Max: orb.Point{positions[0].X, positions[0].Y},
	}
	for _, p := range positions[1:] {
		b = b.Extend(orb.Point{p.X, p.Y})
	}
	return b
}

// State returns the furthest completed stage.
func (r *Reconstructor[K]) State() State { return r.state }

// Keys returns the point keys in index order. Point indices reported by
// Segments refer to this slice.
func (r *Reconstructor[K]) Keys() []K { return r.keys }

// Params returns the resolved parameters of the last BuildLOD0, with every
// derived field filled in.
func (r *Reconstructor[K]) Params() (LOD0Params, bool) {
	if r.lod0 == nil {
		return LOD0Params{}, false
	}
	return r.lod0.params, true
}

// Segments returns the wall segments of the last BuildLOD0.
func (r *Reconstructor[K]) Segments() []l2walls.Segment {
	if r.lod0 == nil {
		return nil
	}
	return r.lod0.walls.Segments
}

// Lines returns the regularised partition lines of the last BuildLOD0.
func (r *Reconstructor[K]) Lines() []l3partition.Line {
	if r.lod0 == nil {
		return nil
	}
	return r.lod0.lines
}

// Arrangement returns the planar partition of the last BuildLOD0. It is
// nil before BuildLOD0 and for an empty point set.
func (r *Reconstructor[K]) Arrangement() *l3partition.Arrangement {
	if r.lod0 == nil {
		return nil
	}
	return r.lod0.arrangement
}

// Labels returns the cell labels, indexed like Arrangement().Cells.
func (r *Reconstructor[K]) Labels() []l4labels.Label {
	if r.lod0 == nil {
		return nil
	}
	return r.lod0.labels
}

// Footprints returns the LOD0 footprints.
func (r *Reconstructor[K]) Footprints() []l5footprints.Footprint {
	if r.lod0 == nil {
		return nil
	}
	return r.lod0.footprints.Footprints
}

// Rejections returns the footprints dropped by validation.
func (r *Reconstructor[K]) Rejections() []l5footprints.Rejection {
	if r.lod0 == nil {
		return nil
	}
	return r.lod0.footprints.Rejections
}

// Buildings returns the LOD1 buildings.
func (r *Reconstructor[K]) Buildings() []l6buildings.Building { return r.buildings }

// Method returns the height method of the last BuildLOD1.
func (r *Reconstructor[K]) Method() Lod1Method { return r.method }

// Stats returns the counters and timings of the most recent builds.
func (r *Reconstructor[K]) Stats() Stats { return r.stats }
