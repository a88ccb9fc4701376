// Package l6buildings owns stage 6 of the reconstruction: one flat roof
// height per footprint and the extrusion of footprints into LOD1 prisms.
//
// Roof heights are gathered once per LOD0 result (CollectRoofHeights) and
// reduced with the requested statistic on every LOD1 build, so switching
// method never revisits the point set.
// Key types: Method, Building, RoofHeights.
//
// Dependency rule: l6buildings may depend on pointset, l5footprints and mesh.
package l6buildings
