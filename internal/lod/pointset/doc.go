// Package pointset owns the input side of the reconstruction pipeline.
//
// Responsibilities: the point classification enum, the capability
// interfaces through which the caller exposes positions, normals and
// classifications over an opaque key, and the neighbourhood helpers
// (R-tree index, average spacing, normal estimation) shared by the
// clustering and segmentation layers.
// Key types: PointType, PointMap, NormalMap, PointTypeMap, Index.
//
// Dependency rule: pointset depends on no other lod package.
package pointset
