package pipeline

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/banshee-data/footprint.report/internal/config"
	"github.com/banshee-data/footprint.report/internal/lod/l4labels"
)

// ErrInvalidParams is returned, wrapped with the offending field, when
// LOD0Params fail validation. Parameters are never clamped.
var ErrInvalidParams = errors.New("invalid LOD0 parameters")

// Default LOD0 settings for the parameters that are not derived from the
// point spacing.
const (
	DefaultNormalThreshold   = 0.9
	DefaultMinNumberOfPoints = 10
	DefaultAngleTolerance    = 5 * math.Pi / 180

	// AutoNormalThreshold is the looser threshold used when parameters are
	// derived from the point spacing alone.
	AutoNormalThreshold = 0.7
	// AutoClusterFactor scales the average spacing into cluster_epsilon.
	AutoClusterFactor = 3.0
	// SpacingNeighbours is the neighbourhood size used to estimate the
	// average point spacing.
	SpacingNeighbours = 6
)

// LOD0Params configures BuildLOD0. Epsilon and ClusterEpsilon are required;
// a zero in any of the fields marked "derived" selects a value computed
// from them.
type LOD0Params struct {
	// Epsilon is the neighbour radius and plane distance tolerance of
	// region growing.
	Epsilon float64
	// ClusterEpsilon is the clustering radius. It also scales the
	// smoothness term and the derived tolerances.
	ClusterEpsilon float64
	// NormalThreshold is the minimum |cos| between a point normal and its
	// segment normal, in [0, 1].
	NormalThreshold float64
	// MinNumberOfPoints is the smallest kept cluster and wall segment.
	MinNumberOfPoints int

	GraphcutAlpha float64 // data term weight
	GraphcutBeta  float64 // smoothness across edges without wall evidence
	GraphcutGamma float64 // smoothness across edges on wall evidence

	// AngleTolerance groups wall orientations, in radians. Zero disables
	// orientation snapping.
	AngleTolerance float64
	// OffsetTolerance merges parallel lines; derived: ClusterEpsilon/2.
	OffsetTolerance float64
	// BoundaryMargin pads the arrangement box; derived: ClusterEpsilon.
	BoundaryMargin float64
	// MinFootprintArea drops smaller footprints; derived: ClusterEpsilon².
	MinFootprintArea float64
	// ExtentPadding widens measured wall extents; derived: Epsilon.
	ExtentPadding float64
	// Workers bounds per-cluster goroutines; derived: GOMAXPROCS.
	Workers int
}

// DefaultLOD0Params returns the documented defaults for the given required
// tolerances.
func DefaultLOD0Params(epsilon, clusterEpsilon float64) LOD0Params {
	return LOD0Params{
		Epsilon:           epsilon,
		ClusterEpsilon:    clusterEpsilon,
		NormalThreshold:   DefaultNormalThreshold,
		MinNumberOfPoints: DefaultMinNumberOfPoints,
		GraphcutAlpha:     l4labels.DefaultAlpha,
		GraphcutBeta:      l4labels.DefaultBeta,
		GraphcutGamma:     l4labels.DefaultGamma,
		AngleTolerance:    DefaultAngleTolerance,
	}
}

// AutoLOD0Params derives every tolerance from the average point spacing:
// epsilon is the spacing itself and cluster_epsilon three times it.
func AutoLOD0Params(spacing float64) LOD0Params {
	p := DefaultLOD0Params(spacing, AutoClusterFactor*spacing)
	p.NormalThreshold = AutoNormalThreshold
	return p
}

// LOD0ParamsFromTuning builds LOD0Params from a loaded TuningConfig.
// Tolerances the config leaves at zero are derived from spacing the same
// way AutoLOD0Params does.
func LOD0ParamsFromTuning(cfg *config.TuningConfig, spacing float64) LOD0Params {
	eps := cfg.GetEpsilon()
	if eps == 0 {
		eps = spacing
	}
	clusterEps := cfg.GetClusterEpsilon()
	if clusterEps == 0 {
		clusterEps = AutoClusterFactor * spacing
	}
	return LOD0Params{
		Epsilon:           eps,
		ClusterEpsilon:    clusterEps,
		NormalThreshold:   cfg.GetNormalThreshold(),
		MinNumberOfPoints: cfg.GetMinNumberOfPoints(),
		GraphcutAlpha:     cfg.GetGraphcutAlpha(),
		GraphcutBeta:      cfg.GetGraphcutBeta(),
		GraphcutGamma:     cfg.GetGraphcutGamma(),
		AngleTolerance:    cfg.GetAngleToleranceDeg() * math.Pi / 180,
		OffsetTolerance:   cfg.GetOffsetTolerance(),
		MinFootprintArea:  cfg.GetMinFootprintArea(),
		Workers:           cfg.GetWorkers(),
	}
}

// LOD0Option adjusts one parameter of BuildLOD0With.
type LOD0Option func(*LOD0Params)

// WithNormalThreshold sets the region growing normal threshold.
func WithNormalThreshold(v float64) LOD0Option {
	return func(p *LOD0Params) { p.NormalThreshold = v }
}

// WithMinNumberOfPoints sets the minimum cluster and segment size.
func WithMinNumberOfPoints(n int) LOD0Option {
	return func(p *LOD0Params) { p.MinNumberOfPoints = n }
}

// WithGraphcutWeights sets the three energy weights.
func WithGraphcutWeights(alpha, beta, gamma float64) LOD0Option {
	return func(p *LOD0Params) {
		p.GraphcutAlpha, p.GraphcutBeta, p.GraphcutGamma = alpha, beta, gamma
	}
}

// WithAngleTolerance sets the orientation grouping tolerance in radians.
func WithAngleTolerance(rad float64) LOD0Option {
	return func(p *LOD0Params) { p.AngleTolerance = rad }
}

// WithOffsetTolerance sets the parallel line merge distance.
func WithOffsetTolerance(d float64) LOD0Option {
	return func(p *LOD0Params) { p.OffsetTolerance = d }
}

// WithMinFootprintArea sets the smallest kept footprint area.
func WithMinFootprintArea(a float64) LOD0Option {
	return func(p *LOD0Params) { p.MinFootprintArea = a }
}

// WithWorkers bounds the per-cluster goroutines.
func WithWorkers(n int) LOD0Option {
	return func(p *LOD0Params) { p.Workers = n }
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Validate checks every field. The returned error wraps ErrInvalidParams
// and names the first offending field.
func (p LOD0Params) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"epsilon", p.Epsilon},
		{"cluster_epsilon", p.ClusterEpsilon},
	}
	for _, f := range positive {
		if !finite(f.v) || f.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidParams, f.name, f.v)
		}
	}
	if err := p.energyParams().Validate(); err != nil {
		return fmt.Errorf("%w: graph-cut %w", ErrInvalidParams, err)
	}
	nonNegative := []struct {
		name string
		v    float64
	}{
		{"offset_tolerance", p.OffsetTolerance},
		{"boundary_margin", p.BoundaryMargin},
		{"min_footprint_area", p.MinFootprintArea},
		{"extent_padding", p.ExtentPadding},
	}
	for _, f := range nonNegative {
		if !finite(f.v) || f.v < 0 {
			return fmt.Errorf("%w: %s must be non-negative, got %v", ErrInvalidParams, f.name, f.v)
		}
	}
	if !finite(p.NormalThreshold) || p.NormalThreshold < 0 || p.NormalThreshold > 1 {
		return fmt.Errorf("%w: normal_threshold must be in [0, 1], got %v", ErrInvalidParams, p.NormalThreshold)
	}
	if p.MinNumberOfPoints < 1 {
		return fmt.Errorf("%w: min_number_of_points must be at least 1, got %d", ErrInvalidParams, p.MinNumberOfPoints)
	}
	if !finite(p.AngleTolerance) || p.AngleTolerance < 0 || p.AngleTolerance >= math.Pi/4 {
		return fmt.Errorf("%w: angle_tolerance must be in [0, pi/4), got %v", ErrInvalidParams, p.AngleTolerance)
	}
	if p.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", ErrInvalidParams, p.Workers)
	}
	return nil
}

// resolved fills in the derived fields.
// energyParams maps the graph-cut settings onto the labelling energy.
func (p LOD0Params) energyParams() l4labels.Params {
	return l4labels.Params{
		Alpha: p.GraphcutAlpha,
		Beta:  p.GraphcutBeta,
		Gamma: p.GraphcutGamma,
		Tau:   p.ClusterEpsilon,
	}
}

func (p LOD0Params) resolved() LOD0Params {
	if p.OffsetTolerance == 0 {
		p.OffsetTolerance = p.ClusterEpsilon / 2
	}
	if p.BoundaryMargin == 0 {
		p.BoundaryMargin = p.ClusterEpsilon
	}
	if p.MinFootprintArea == 0 {
		p.MinFootprintArea = p.ClusterEpsilon * p.ClusterEpsilon
	}
	if p.ExtentPadding == 0 {
		p.ExtentPadding = p.Epsilon
	}
	if p.Workers == 0 {
		p.Workers = runtime.GOMAXPROCS(0)
	}
	return p
}
