// Package l4labels owns stage 4 of the reconstruction: labelling every
// arrangement cell inside or outside a building.
//
// The labelling minimises a submodular two-label energy
//
//	E(x) = sum_c D_c(x_c) + sum_(c,d) w_cd [x_c != x_d]
//
// exactly, as an s-t minimum cut solved with Dinic's max-flow. The source
// side is "inside"; the returned cut is the set of nodes reachable from the
// source in the final residual graph, which is the unique minimal minimum
// cut, so the labels do not depend on how the cells were enumerated.
//
// Data term, for a cell of area A holding n_in INSIDE and n_out OUTSIDE
// points (p_in = n_in/(n_in+n_out), 0 for an empty cell):
//
//	D(inside)  = alpha * A * (1 - p_in)
//	D(outside) = alpha * A * p_in
//
// Smoothness term, for a shared edge of length L whose fraction c lies on
// measured wall extents:
//
//	w = L * tau * (c*gamma + (1-c)*beta) / DefaultBeta
//
// where tau is the cluster tolerance. With the default weights a spurious
// edge costs tau per metre and a fully supported wall edge a tenth of that.
// Key types: Label, Params, Energy, Result.
//
// Dependency rule: l4labels may depend on pointset and l3partition.
package l4labels
