package synthetic

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/banshee-data/footprint.report/internal/lod/pointset"
)

func TestScene_Counts(t *testing.T) {
	s := NewGenerator(1).Scene(Rect(0, 0, 10, 10, 3, 5))

	// 4 walls x 20 columns x 7 levels (z = 0, 0.5, ..., 3).
	if got := s.Count(pointset.Boundary); got != 560 {
		t.Errorf("boundary points = %d, want 560", got)
	}
	if got := s.Count(pointset.Inside); got != 100 {
		t.Errorf("roof points = %d, want 100", got)
	}
	// 20x20 ground grid over the padded bound minus the 10x10 covered cells.
	if got := s.Count(pointset.Outside); got != 300 {
		t.Errorf("ground points = %d, want 300", got)
	}
	if got := s.Count(pointset.Unknown); got != 0 {
		t.Errorf("unknown points = %d, want 0", got)
	}
	if len(s.Keys()) != len(s.Points) {
		t.Errorf("Keys() has %d entries, want %d", len(s.Keys()), len(s.Points))
	}
}

func TestScene_Empty(t *testing.T) {
	s := NewGenerator(1).Scene()
	if len(s.Points) != 0 {
		t.Errorf("expected no points, got %d", len(s.Points))
	}
}

func TestScene_Deterministic(t *testing.T) {
	build := func() *Scene {
		g := NewGenerator(42)
		g.WallNoise = 0.02
		g.UnknownPoints = 10
		return g.Scene(Rect(0, 0, 10, 10, 3, 5), Rect(25, 0, 35, 8, 6, 7))
	}
	if diff := cmp.Diff(build(), build()); diff != "" {
		t.Errorf("scene differs between runs (-first +second):\n%s", diff)
	}
}

func TestScene_RoofMedian(t *testing.T) {
	s := NewGenerator(7).Scene(Rect(0, 0, 10, 10, 3, 5))

	var zs []float64
	for _, p := range s.Points {
		if p.Type == pointset.Inside {
			zs = append(zs, p.Position.Z)
		}
	}
	sort.Float64s(zs)
	median := (zs[49] + zs[50]) / 2
	if median < 3.98 || median > 4.02 {
		t.Errorf("roof median = %.4f, want within [3.98, 4.02]", median)
	}
	if zs[0] < 3 || zs[len(zs)-1] > 5 {
		t.Errorf("roof heights span [%.3f, %.3f], want within [3, 5]", zs[0], zs[len(zs)-1])
	}
}

func TestScene_CourtyardHasNoRoof(t *testing.T) {
	b := Building{
		Footprint: orb.Polygon{
			{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
			{{4, 4}, {4, 6}, {6, 6}, {6, 4}, {4, 4}},
		},
		RoofMin: 3,
		RoofMax: 4,
	}
	s := NewGenerator(3).Scene(b)
	courtyard := orb.Ring{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}}

	roofs, ground := 0, 0
	for _, p := range s.Points {
		in := planar.RingContains(courtyard, orb.Point{p.Position.X, p.Position.Y})
		switch {
		case in && p.Type == pointset.Inside:
			roofs++
		case in && p.Type == pointset.Outside:
			ground++
		}
	}
	if roofs != 0 {
		t.Errorf("found %d roof points in the courtyard", roofs)
	}
	if ground != 4 {
		t.Errorf("courtyard ground points = %d, want 4", ground)
	}
}

func TestScene_WallNormalsPointOutward(t *testing.T) {
	s := NewGenerator(1).Scene(Rect(0, 0, 10, 10, 3, 3))
	for k, p := range s.Points {
		if p.Type != pointset.Boundary {
			continue
		}
		dx, dy := p.Position.X-5, p.Position.Y-5
		if dx*p.Normal.X+dy*p.Normal.Y <= 0 {
			t.Fatalf("point %d at %v has inward normal %v", k, p.Position, p.Normal)
		}
	}
}
