// Package pipeline orchestrates LOD0 and LOD1 reconstruction.
//
// It is the composition root of the reconstruction layers: it imports
// pointset, l1clusters through l6buildings and mesh, but none of those
// packages import pipeline/.
//
// A Reconstructor holds the caller's points and the results of each
// completed stage. BuildLOD0 runs stages 1-5 (clustering, wall
// segmentation, line regularisation and arrangement, graph-cut labelling,
// footprint assembly) and caches everything LOD1 needs. BuildLOD1 only
// reduces the cached roof heights with the requested method, so it can be
// repeated with different methods without touching the LOD0 results.
package pipeline
