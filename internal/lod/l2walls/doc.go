// Package l2walls owns stage 2 of the reconstruction: growing planar,
// near-vertical wall segments inside each wall cluster.
//
// Growth is seeded in ascending point index order and clusters are
// processed independently, so clusters can run on separate goroutines
// while the merged output stays identical to a sequential run.
// Key types: Segment, Plane, Params.
//
// Dependency rule: l2walls may depend on pointset and l1clusters.
package l2walls
