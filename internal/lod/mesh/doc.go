// Package mesh holds the polygon-mesh output side of the reconstruction:
// the FaceGraph capability callers implement, two ready containers and the
// helpers that emit flat footprints and extruded prisms into them.
package mesh
