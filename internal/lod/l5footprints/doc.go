// Package l5footprints owns stage 5 of the reconstruction: merging the
// inside cells of a labelled arrangement into footprint polygons.
//
// Edges shared by two inside cells are dissolved; every other edge of an
// inside cell becomes a directed boundary edge with the inside on its left.
// Rings are traced with a leftmost-turn rule and split wherever they touch
// themselves, so counter-clockwise rings are shells and clockwise rings are
// holes. A hole may touch its shell at a single vertex.
// Key types: Footprint, Rejection, Params.
//
// Dependency rule: l5footprints may depend on l3partition and l4labels.
package l5footprints
