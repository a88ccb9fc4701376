// Package footprint reconstructs building footprints (LOD0) and flat-roofed
// block models (LOD1) from a classified point cloud.
//
// The caller supplies points through three capability maps keyed by any
// type: positions, optional normals and a classification into INSIDE
// (roof), OUTSIDE (ground), BOUNDARY (wall) and UNKNOWN. A Reconstructor
// segments the wall points into vertical planes, partitions the ground
// plane along the regularised wall lines, labels the partition with an
// exact graph cut and merges the inside cells into footprint polygons.
// LOD1 then extrudes each footprint to a height derived from its roof
// points. Results are written into any FaceGraph.
//
//	r := footprint.New(keys, points, nil)
//	if err := r.BuildLOD0(types, footprint.DefaultLOD0Params(0.5, 1.5)); err != nil {
//		return err
//	}
//	if err := r.BuildLOD1(footprint.Median); err != nil {
//		return err
//	}
//	var soup footprint.PolygonSoup
//	err := r.OutputLOD1ToFaceGraph(&soup)
package footprint

import (
	"io"

	"github.com/banshee-data/footprint.report/internal/lod"
	"github.com/banshee-data/footprint.report/internal/lod/l5footprints"
	"github.com/banshee-data/footprint.report/internal/lod/l6buildings"
	"github.com/banshee-data/footprint.report/internal/lod/mesh"
	"github.com/banshee-data/footprint.report/internal/lod/pipeline"
	"github.com/banshee-data/footprint.report/internal/lod/pointset"
)

// Point classification.
type PointType = pointset.PointType

const (
	Unknown  = pointset.Unknown
	Inside   = pointset.Inside
	Outside  = pointset.Outside
	Boundary = pointset.Boundary
)

// Input capability maps and their function adapters.
type (
	PointMap[K any]         = pointset.PointMap[K]
	NormalMap[K any]        = pointset.NormalMap[K]
	PointTypeMap[K any]     = pointset.PointTypeMap[K]
	PointMapFunc[K any]     = pointset.PointMapFunc[K]
	NormalMapFunc[K any]    = pointset.NormalMapFunc[K]
	PointTypeMapFunc[K any] = pointset.PointTypeMapFunc[K]
)

// Reconstruction.
type (
	Reconstructor[K any] = pipeline.Reconstructor[K]
	Option               = pipeline.Option
	State                = pipeline.State
	Stats                = pipeline.Stats
	LOD0Params           = pipeline.LOD0Params
	LOD0Option           = pipeline.LOD0Option
	Lod1Method           = pipeline.Lod1Method
	Footprint            = l5footprints.Footprint
	Rejection            = l5footprints.Rejection
	Building             = l6buildings.Building
)

const (
	StateEmpty = pipeline.StateEmpty
	StateLOD0  = pipeline.StateLOD0
	StateLOD1  = pipeline.StateLOD1

	Minimum           = pipeline.Minimum
	Average           = pipeline.Average
	Median            = pipeline.Median
	Maximum           = pipeline.Maximum
	DefaultLOD1Method = pipeline.DefaultLOD1Method
)

// Output containers.
type (
	FaceGraph    = mesh.FaceGraph
	PolygonSoup  = mesh.PolygonSoup
	HalfedgeMesh = mesh.HalfedgeMesh
)

// Errors.
var (
	ErrInvalidParams  = pipeline.ErrInvalidParams
	ErrInvalidMethod  = pipeline.ErrInvalidMethod
	ErrLOD0NotBuilt   = pipeline.ErrLOD0NotBuilt
	ErrLOD1NotBuilt   = pipeline.ErrLOD1NotBuilt
	ErrNonManifold    = mesh.ErrNonManifold
	ErrNonSimpleShape = l5footprints.ErrNonSimpleFootprint
)

// New captures the points identified by keys. normals may be nil.
func New[K any](keys []K, points PointMap[K], normals NormalMap[K], opts ...Option) *Reconstructor[K] {
	return pipeline.New(keys, points, normals, opts...)
}

// NewHalfedgeMesh returns an empty halfedge mesh.
func NewHalfedgeMesh() *HalfedgeMesh { return mesh.NewHalfedgeMesh() }

// DefaultLOD0Params returns the defaults for the two required tolerances.
func DefaultLOD0Params(epsilon, clusterEpsilon float64) LOD0Params {
	return pipeline.DefaultLOD0Params(epsilon, clusterEpsilon)
}

// AutoLOD0Params derives all tolerances from the average point spacing.
func AutoLOD0Params(spacing float64) LOD0Params { return pipeline.AutoLOD0Params(spacing) }

// ParseLod1Method parses a height method name, ignoring case.
func ParseLod1Method(s string) (Lod1Method, error) { return pipeline.ParseLod1Method(s) }

// WithFallbackHeight sets the LOD1 height of footprints without roof points.
func WithFallbackHeight(h float64) Option { return pipeline.WithFallbackHeight(h) }

// EstimateAverageSpacing returns the mean distance from each point to its
// six nearest neighbours.
func EstimateAverageSpacing[K any](keys []K, points PointMap[K]) float64 {
	return pointset.EstimateAverageSpacing(pointset.Gather(keys, points), pipeline.SpacingNeighbours)
}

// SetLogWriters configures the ops, diag and trace log streams of the
// reconstruction. Pass nil for any writer to disable that stream.
func SetLogWriters(ops, diag, trace io.Writer) {
	lod.SetLogWriters(lod.LogWriters{Ops: ops, Diag: diag, Trace: trace})
}
