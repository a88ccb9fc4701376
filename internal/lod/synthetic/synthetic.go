// Package synthetic generates deterministic classified point clouds of
// flat-roofed buildings for tests and demos.
package synthetic

import (
	"math"
	"math/rand"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/footprint.report/internal/lod/pointset"
)

// Building describes one flat-roofed building. Roof heights are sampled
// uniformly from [RoofMin, RoofMax]; walls rise from 0 to RoofMin.
type Building struct {
	Footprint orb.Polygon
	RoofMin   float64
	RoofMax   float64
}

// Rect returns a rectangular building.
func Rect(x0, y0, x1, y1, roofMin, roofMax float64) Building {
	return Building{
		Footprint: orb.Polygon{{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}},
		RoofMin:   roofMin,
		RoofMax:   roofMax,
	}
}

// Point is one classified sample.
type Point struct {
	Position r3.Vec
	Normal   r3.Vec
	Type     pointset.PointType
}

// Scene is a generated point cloud keyed by slice index. It satisfies the
// point, normal and classification maps of the reconstruction input.
type Scene struct {
	Points []Point
}

// Keys returns 0..len(Points)-1.
func (s *Scene) Keys() []int {
	keys := make([]int, len(s.Points))
	for i := range keys {
		keys[i] = i
	}
	return keys
}

// Point returns the position of point k.
func (s *Scene) Point(k int) r3.Vec { return s.Points[k].Position }

// Normal returns the normal of point k.
func (s *Scene) Normal(k int) r3.Vec { return s.Points[k].Normal }

// PointType returns the classification of point k.
func (s *Scene) PointType(k int) pointset.PointType { return s.Points[k].Type }

// Count returns the number of points of type t.
func (s *Scene) Count(t pointset.PointType) int {
	n := 0
	for _, p := range s.Points {
		if p.Type == t {
			n++
		}
	}
	return n
}

// Generator produces scenes. The same seed and settings always produce the
// same scene.
type Generator struct {
	WallSpacing   float64 // metres between wall samples, horizontally and vertically
	RoofSpacing   float64 // metres between roof samples
	GroundSpacing float64 // metres between ground samples
	GroundMargin  float64 // ground extends this far past the buildings
	WallNoise     float64 // std dev of the jitter across each wall, metres
	UnknownPoints int     // unclassified points scattered over the scene

	rng *rand.Rand
}

// NewGenerator returns a generator with half-metre walls and one-metre
// roof and ground grids.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		WallSpacing:   0.5,
		RoofSpacing:   1.0,
		GroundSpacing: 1.0,
		GroundMargin:  5.0,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

// Scene samples walls, roofs and ground for the given buildings.
func (g *Generator) Scene(buildings ...Building) *Scene {
	s := &Scene{}
	if len(buildings) == 0 {
		return s
	}
	bound := buildings[0].Footprint.Bound()
	for _, b := range buildings {
		bound = bound.Union(b.Footprint.Bound())
		g.walls(s, b)
		g.roof(s, b)
	}
	bound = bound.Pad(g.GroundMargin)
	g.ground(s, bound, buildings)
	for i := 0; i < g.UnknownPoints; i++ {
		s.Points = append(s.Points, Point{
			Position: r3.Vec{
				X: bound.Min[0] + g.rng.Float64()*(bound.Max[0]-bound.Min[0]),
				Y: bound.Min[1] + g.rng.Float64()*(bound.Max[1]-bound.Min[1]),
				Z: g.rng.Float64() * 10,
			},
			Type: pointset.Unknown,
		})
	}
	return s
}

func (g *Generator) walls(s *Scene, b Building) {
	levels := int(math.Floor(b.RoofMin/g.WallSpacing + 1e-9))
	for _, ring := range b.Footprint {
		for i := 0; i+1 < len(ring); i++ {
			a, c := ring[i], ring[i+1]
			dx, dy := c[0]-a[0], c[1]-a[1]
			length := math.Hypot(dx, dy)
			if length == 0 {
				continue
			}
			normal := r3.Vec{X: dy / length, Y: -dx / length}
			cols := int(math.Max(1, math.Round(length/g.WallSpacing)))
			for col := 0; col < cols; col++ {
				t := float64(col) / float64(cols)
				for lvl := 0; lvl <= levels; lvl++ {
					off := 0.0
					if g.WallNoise > 0 {
						off = g.rng.NormFloat64() * g.WallNoise
					}
					s.Points = append(s.Points, Point{
						Position: r3.Vec{
							X: a[0] + t*dx + off*normal.X,
							Y: a[1] + t*dy + off*normal.Y,
							Z: float64(lvl) * g.WallSpacing,
						},
						Normal: normal,
						Type:   pointset.Boundary,
					})
				}
			}
		}
	}
}

// roof samples a grid inside the footprint. Heights are stratified so the
// sample covers [RoofMin, RoofMax] evenly in a shuffled order.
func (g *Generator) roof(s *Scene, b Building) {
	var xy []orb.Point
	bound := b.Footprint.Bound()
	for x := bound.Min[0] + g.RoofSpacing/2; x < bound.Max[0]; x += g.RoofSpacing {
		for y := bound.Min[1] + g.RoofSpacing/2; y < bound.Max[1]; y += g.RoofSpacing {
			if planar.PolygonContains(b.Footprint, orb.Point{x, y}) {
				xy = append(xy, orb.Point{x, y})
			}
		}
	}
	n := len(xy)
	perm := g.rng.Perm(n)
	for i, p := range xy {
		z := b.RoofMin + (b.RoofMax-b.RoofMin)*(float64(perm[i])+g.rng.Float64())/float64(n)
		s.Points = append(s.Points, Point{
			Position: r3.Vec{X: p[0], Y: p[1], Z: z},
			Normal:   r3.Vec{Z: 1},
			Type:     pointset.Inside,
		})
	}
}

func (g *Generator) ground(s *Scene, bound orb.Bound, buildings []Building) {
	for x := bound.Min[0] + g.GroundSpacing/2; x < bound.Max[0]; x += g.GroundSpacing {
		for y := bound.Min[1] + g.GroundSpacing/2; y < bound.Max[1]; y += g.GroundSpacing {
			p := orb.Point{x, y}
			covered := false
			for _, b := range buildings {
				if planar.PolygonContains(b.Footprint, p) {
					covered = true
					break
				}
			}
			if covered {
				continue
			}
			s.Points = append(s.Points, Point{
				Position: r3.Vec{X: x, Y: y},
				Normal:   r3.Vec{Z: 1},
				Type:     pointset.Outside,
			})
		}
	}
}
