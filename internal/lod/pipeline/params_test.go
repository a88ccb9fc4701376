package pipeline

import (
	"errors"
	"math"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/footprint.report/internal/config"
)

func TestDefaultLOD0Params(t *testing.T) {
	p := DefaultLOD0Params(0.5, 1.5)
	if err := p.Validate(); err != nil {
		t.Fatalf("default params should validate: %v", err)
	}
	if p.NormalThreshold != 0.9 {
		t.Errorf("NormalThreshold = %v, want 0.9", p.NormalThreshold)
	}
	if p.MinNumberOfPoints != 10 {
		t.Errorf("MinNumberOfPoints = %d, want 10", p.MinNumberOfPoints)
	}
	if p.GraphcutAlpha != 1 || p.GraphcutBeta != 100000 || p.GraphcutGamma != 10000 {
		t.Errorf("graph-cut weights = %v/%v/%v, want 1/100000/10000",
			p.GraphcutAlpha, p.GraphcutBeta, p.GraphcutGamma)
	}
}

func TestLOD0Params_Resolved(t *testing.T) {
	p := DefaultLOD0Params(0.5, 2).resolved()
	assert.Equal(t, 1.0, p.OffsetTolerance)
	assert.Equal(t, 2.0, p.BoundaryMargin)
	assert.Equal(t, 4.0, p.MinFootprintArea)
	assert.Equal(t, 0.5, p.ExtentPadding)
	assert.Equal(t, runtime.GOMAXPROCS(0), p.Workers)

	// Explicit values survive.
	q := DefaultLOD0Params(0.5, 2)
	q.OffsetTolerance = 0.3
	q.Workers = 2
	q = q.resolved()
	assert.Equal(t, 0.3, q.OffsetTolerance)
	assert.Equal(t, 2, q.Workers)
}

func TestLOD0Params_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*LOD0Params)
		field  string
	}{
		{"zero epsilon", func(p *LOD0Params) { p.Epsilon = 0 }, "epsilon"},
		{"nan epsilon", func(p *LOD0Params) { p.Epsilon = math.NaN() }, "epsilon"},
		{"negative cluster epsilon", func(p *LOD0Params) { p.ClusterEpsilon = -1 }, "cluster_epsilon"},
		{"threshold above one", func(p *LOD0Params) { p.NormalThreshold = 1.1 }, "normal_threshold"},
		{"zero min points", func(p *LOD0Params) { p.MinNumberOfPoints = 0 }, "min_number_of_points"},
		{"negative alpha", func(p *LOD0Params) { p.GraphcutAlpha = -1 }, "graph-cut alpha"},
		{"infinite beta", func(p *LOD0Params) { p.GraphcutBeta = math.Inf(1) }, "graph-cut beta"},
		{"negative gamma", func(p *LOD0Params) { p.GraphcutGamma = -0.5 }, "graph-cut gamma"},
		{"angle too wide", func(p *LOD0Params) { p.AngleTolerance = math.Pi / 4 }, "angle_tolerance"},
		{"negative offset", func(p *LOD0Params) { p.OffsetTolerance = -0.1 }, "offset_tolerance"},
		{"negative margin", func(p *LOD0Params) { p.BoundaryMargin = -1 }, "boundary_margin"},
		{"negative area", func(p *LOD0Params) { p.MinFootprintArea = -1 }, "min_footprint_area"},
		{"negative workers", func(p *LOD0Params) { p.Workers = -1 }, "workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultLOD0Params(0.5, 1.5)
			tt.modify(&p)
			err := p.Validate()
			if !errors.Is(err, ErrInvalidParams) {
				t.Fatalf("Validate() = %v, want ErrInvalidParams", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name %s", err, tt.field)
			}
		})
	}
}

func TestAutoLOD0Params(t *testing.T) {
	p := AutoLOD0Params(0.4)
	assert.Equal(t, 0.4, p.Epsilon)
	assert.InDelta(t, 1.2, p.ClusterEpsilon, 1e-12)
	assert.Equal(t, 0.7, p.NormalThreshold)
	assert.NoError(t, p.Validate())

	// A zero spacing cannot produce usable tolerances.
	assert.ErrorIs(t, AutoLOD0Params(0).Validate(), ErrInvalidParams)
}

func TestLOD0ParamsFromTuning_Defaults(t *testing.T) {
	cfg := config.MustLoadDefaultConfig()
	p := LOD0ParamsFromTuning(cfg, 0.5)
	want := DefaultLOD0Params(0.5, 1.5)
	assert.Equal(t, want.Epsilon, p.Epsilon)
	assert.Equal(t, want.ClusterEpsilon, p.ClusterEpsilon)
	assert.Equal(t, want.NormalThreshold, p.NormalThreshold)
	assert.Equal(t, want.MinNumberOfPoints, p.MinNumberOfPoints)
	assert.Equal(t, want.GraphcutBeta, p.GraphcutBeta)
	assert.InDelta(t, want.AngleTolerance, p.AngleTolerance, 1e-12)
	assert.NoError(t, p.Validate())
}

func TestLOD0ParamsFromTuning_Overrides(t *testing.T) {
	cfg, err := config.ParseTuningConfig([]byte(`{
		"epsilon": 0.3,
		"cluster_epsilon": 1.0,
		"normal_threshold": 0.8,
		"angle_tolerance_deg": 10,
		"workers": 2
	}`))
	require.NoError(t, err)

	p := LOD0ParamsFromTuning(cfg, 99)
	assert.Equal(t, 0.3, p.Epsilon)
	assert.Equal(t, 1.0, p.ClusterEpsilon)
	assert.Equal(t, 0.8, p.NormalThreshold)
	assert.InDelta(t, 10*math.Pi/180, p.AngleTolerance, 1e-12)
	assert.Equal(t, 2, p.Workers)
}

func TestLOD0Options(t *testing.T) {
	p := DefaultLOD0Params(0.5, 1.5)
	for _, opt := range []LOD0Option{
		WithNormalThreshold(0.8),
		WithMinNumberOfPoints(20),
		WithGraphcutWeights(2, 3, 4),
		WithAngleTolerance(0.1),
		WithOffsetTolerance(0.2),
		WithMinFootprintArea(5),
		WithWorkers(3),
	} {
		opt(&p)
	}
	assert.Equal(t, LOD0Params{
		Epsilon:           0.5,
		ClusterEpsilon:    1.5,
		NormalThreshold:   0.8,
		MinNumberOfPoints: 20,
		GraphcutAlpha:     2,
		GraphcutBeta:      3,
		GraphcutGamma:     4,
		AngleTolerance:    0.1,
		OffsetTolerance:   0.2,
		MinFootprintArea:  5,
		Workers:           3,
	}, p)
}
