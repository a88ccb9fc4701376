package l6buildings

import (
	"fmt"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/footprint.report/internal/lod/l5footprints"
	"github.com/banshee-data/footprint.report/internal/lod/mesh"
	"github.com/banshee-data/footprint.report/internal/lod/pointset"
)

// HeightSource tells where a building's height came from.
type HeightSource int

const (
	HeightFromRoof HeightSource = iota
	HeightFallback
)

// String returns "roof" or "fallback".
func (s HeightSource) String() string {
	if s == HeightFallback {
		return "fallback"
	}
	return "roof"
}

// Params configures LOD1 construction.
type Params struct {
	Method Method
	// FallbackHeight is the height of a footprint containing no INSIDE
	// point. The default is 0, which leaves such footprints flat.
	FallbackHeight float64
}

// Validate rejects an unknown method.
func (p Params) Validate() error {
	if !p.Method.Valid() {
		return fmt.Errorf("lod1 params: %w: %v", ErrInvalidMethod, p.Method)
	}
	return nil
}

// Building is a footprint with a single flat roof height.
type Building struct {
	Footprint  l5footprints.Footprint
	Height     float64
	Source     HeightSource
	RoofPoints int
}

// Extrude adds the building's walls and roof to g.
func (b Building) Extrude(g mesh.FaceGraph) error {
	if err := mesh.AddPrism(g, b.Footprint.Polygon, b.Height); err != nil {
		return fmt.Errorf("extrude building %s: %w", b.Footprint.ID, err)
	}
	return nil
}

// RoofHeights holds the sorted Z values of the INSIDE points inside each
// footprint, indexed like the footprint slice.
type RoofHeights [][]float64

type footprintBounds struct {
	idx  int
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (f *footprintBounds) Bounds() rtreego.Rect { return f.rect }

// CollectRoofHeights assigns every INSIDE point to each footprint whose
// polygon contains its ground-plane projection. Points inside a hole do
// not count.
func CollectRoofHeights(footprints []l5footprints.Footprint, positions []r3.Vec, types []pointset.PointType) RoofHeights {
	heights := make(RoofHeights, len(footprints))
	if len(footprints) == 0 {
		return heights
	}
	objs := make([]rtreego.Spatial, 0, len(footprints))
	for i, fp := range footprints {
		b := fp.Polygon.Bound()
		rect, err := rtreego.NewRect(
			rtreego.Point{b.Min[0], b.Min[1]},
			[]float64{b.Max[0] - b.Min[0] + 1e-9, b.Max[1] - b.Min[1] + 1e-9},
		)
		if err != nil {
			continue
		}
		objs = append(objs, &footprintBounds{idx: i, rect: rect})
	}
	tree := rtreego.NewTree(2, 25, 50, objs...)

	for i, t := range types {
		if t != pointset.Inside {
			continue
		}
		p := orb.Point{positions[i].X, positions[i].Y}
		for _, hit := range tree.SearchIntersect(rtreego.Point{p[0], p[1]}.ToRect(1e-9)) {
			f := hit.(*footprintBounds).idx
			if planar.PolygonContains(footprints[f].Polygon, p) {
				heights[f] = append(heights[f], positions[i].Z)
			}
		}
	}
	for _, h := range heights {
		sort.Float64s(h)
	}
	return heights
}

// Height reduces sorted heights with m. The second result is false for an
// empty slice.
func Height(sorted []float64, m Method) (float64, bool) {
	n := len(sorted)
	if n == 0 {
		return 0, false
	}
	switch m {
	case Minimum:
		return floats.Min(sorted), true
	case Maximum:
		return floats.Max(sorted), true
	case Median:
		if n%2 == 1 {
			return sorted[n/2], true
		}
		return (sorted[n/2-1] + sorted[n/2]) / 2, true
	default:
		return stat.Mean(sorted, nil), true
	}
}

// Build gives every footprint its roof height. heights must come from
// CollectRoofHeights over the same footprints.
func Build(footprints []l5footprints.Footprint, heights RoofHeights, p Params) ([]Building, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(heights) != len(footprints) {
		return nil, fmt.Errorf("build lod1: %d height sets for %d footprints", len(heights), len(footprints))
	}
	buildings := make([]Building, len(footprints))
	for i, fp := range footprints {
		b := Building{Footprint: fp, RoofPoints: len(heights[i])}
		if h, ok := Height(heights[i], p.Method); ok {
			b.Height = h
		} else {
			b.Height = p.FallbackHeight
			b.Source = HeightFallback
		}
		buildings[i] = b
	}
	return buildings, nil
}
