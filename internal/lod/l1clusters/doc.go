// Package l1clusters owns stage 1 of the reconstruction: grouping wall
// (BOUNDARY) points into spatially coherent clusters.
//
// Two points closer than the cluster tolerance always end up in the same
// cluster, i.e. clusters are the connected components of the epsilon-ball
// graph. Neighbour queries go through a uniform grid whose cell size equals
// the tolerance, so only the 27 surrounding cells are visited.
// Key types: SpatialIndex, Cluster, Params.
//
// Dependency rule: l1clusters may depend on pointset only.
package l1clusters
