package l6buildings

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/footprint.report/internal/lod/l5footprints"
	"github.com/banshee-data/footprint.report/internal/lod/mesh"
	"github.com/banshee-data/footprint.report/internal/lod/pointset"
)

func rect(x0, y0, x1, y1 float64) orb.Ring {
	return orb.Ring{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in   string
		want Method
	}{
		{"MINIMUM", Minimum},
		{"average", Average},
		{" Median ", Median},
		{"maximum", Maximum},
	}
	for _, tt := range tests {
		got, err := ParseMethod(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.want, mustParse(t, got.String()))
	}

	_, err := ParseMethod("mode")
	assert.ErrorIs(t, err, ErrInvalidMethod)
	assert.Equal(t, "Method(7)", Method(7).String())
	assert.ErrorIs(t, Params{Method: Method(-1)}.Validate(), ErrInvalidMethod)
}

func mustParse(t *testing.T, s string) Method {
	t.Helper()
	m, err := ParseMethod(s)
	require.NoError(t, err)
	return m
}

func TestHeight(t *testing.T) {
	sorted := []float64{1, 2, 4, 9}
	tests := []struct {
		m    Method
		want float64
	}{
		{Minimum, 1},
		{Average, 4},
		{Median, 3},
		{Maximum, 9},
	}
	for _, tt := range tests {
		got, ok := Height(sorted, tt.m)
		require.True(t, ok)
		assert.InDelta(t, tt.want, got, 1e-12, tt.m.String())
	}

	got, ok := Height([]float64{1, 5, 6}, Median)
	require.True(t, ok)
	assert.Equal(t, 5.0, got)

	_, ok = Height(nil, Average)
	assert.False(t, ok)
}

func TestHeight_Ordering(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 100; trial++ {
		zs := make([]float64, 1+rng.Intn(40))
		for i := range zs {
			zs[i] = rng.NormFloat64()*3 + 10
		}
		sort.Float64s(zs)
		lo, _ := Height(zs, Minimum)
		avg, _ := Height(zs, Average)
		med, _ := Height(zs, Median)
		hi, _ := Height(zs, Maximum)
		if lo > avg || lo > med || avg > hi || med > hi {
			t.Fatalf("trial %d: min %v avg %v median %v max %v", trial, lo, avg, med, hi)
		}
	}
}

// =============================================================================
// Roof points and buildings
// =============================================================================

func courtyardFootprints() []l5footprints.Footprint {
	return []l5footprints.Footprint{
		{Polygon: orb.Polygon{rect(0, 0, 10, 10), rect(4, 4, 6, 6)}, Area: 96},
		{Polygon: orb.Polygon{rect(20, 0, 25, 5)}, Area: 25},
	}
}

func TestCollectRoofHeights(t *testing.T) {
	positions := []r3.Vec{
		{X: 1, Y: 1, Z: 6},
		{X: 9, Y: 9, Z: 4},
		{X: 5, Y: 5, Z: 100}, // courtyard
		{X: 2, Y: 8, Z: 5},
		{X: 1, Y: 2, Z: 50}, // OUTSIDE type
		{X: 30, Y: 30, Z: 7},
	}
	types := []pointset.PointType{
		pointset.Inside, pointset.Inside, pointset.Inside, pointset.Inside,
		pointset.Outside, pointset.Inside,
	}
	heights := CollectRoofHeights(courtyardFootprints(), positions, types)
	require.Len(t, heights, 2)
	assert.Equal(t, []float64{4, 5, 6}, heights[0])
	assert.Empty(t, heights[1])
}

func TestBuild_FallbackAndMethods(t *testing.T) {
	fps := courtyardFootprints()
	heights := RoofHeights{{4, 5, 6, 9}, nil}

	buildings, err := Build(fps, heights, Params{Method: Median, FallbackHeight: 3})
	require.NoError(t, err)
	require.Len(t, buildings, 2)
	assert.Equal(t, 5.5, buildings[0].Height)
	assert.Equal(t, HeightFromRoof, buildings[0].Source)
	assert.Equal(t, 4, buildings[0].RoofPoints)
	assert.Equal(t, 3.0, buildings[1].Height)
	assert.Equal(t, HeightFallback, buildings[1].Source)

	buildings, err = Build(fps, heights, Params{Method: Maximum})
	require.NoError(t, err)
	assert.Equal(t, 9.0, buildings[0].Height)
	assert.Zero(t, buildings[1].Height, "default fallback is 0")

	_, err = Build(fps, heights[:1], Params{Method: Average})
	assert.Error(t, err)
}

func TestBuilding_Extrude(t *testing.T) {
	b := Building{
		Footprint: l5footprints.Footprint{Polygon: orb.Polygon{rect(0, 0, 10, 10)}},
		Height:    4,
	}
	m := mesh.NewHalfedgeMesh()
	require.NoError(t, b.Extrude(m))
	assert.Equal(t, 5, m.NumFaces())
	assert.Equal(t, 4, m.BorderEdges())
}
