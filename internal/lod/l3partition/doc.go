// Package l3partition owns stage 3 of the reconstruction: reducing wall
// segments to 2D lines, regularising them, and building the planar
// arrangement they induce inside the scene bounding box.
//
// Lines are stored in normal form (angle in [0, pi) and signed offset) so
// two lines with the same orientation and position compare equal no
// matter which segment they came from. The arrangement is built by
// successive convex splitting; vertices created on an edge are keyed by the
// edge and the splitting line, so both cells on either side of an edge see
// the very same vertex and the subdivision stays combinatorially exact.
// Key types: WallLine, Line, Arrangement, Cell, Adjacency, Locator.
//
// Dependency rule: l3partition may depend on pointset, l1clusters and l2walls.
package l3partition
