package pipeline

import (
	"fmt"

	"github.com/banshee-data/footprint.report/internal/lod/mesh"
)

// OutputLOD0ToFaceGraph adds every footprint to g as a flat face at z = 0.
// Footprints with holes are added as triangles.
func (r *Reconstructor[K]) OutputLOD0ToFaceGraph(g mesh.FaceGraph) error {
	if r.state < StateLOD0 {
		return fmt.Errorf("output LOD0: %w", ErrLOD0NotBuilt)
	}
	for _, fp := range r.lod0.footprints.Footprints {
		if err := mesh.AddFlat(g, fp.Polygon, 0); err != nil {
			return fmt.Errorf("output LOD0 footprint %s: %w", fp.ID, err)
		}
	}
	return nil
}

// OutputLOD1ToFaceGraph adds the walls and roof of every building to g.
func (r *Reconstructor[K]) OutputLOD1ToFaceGraph(g mesh.FaceGraph) error {
	switch r.state {
	case StateEmpty:
		return fmt.Errorf("output LOD1: %w", ErrLOD0NotBuilt)
	case StateLOD0:
		return fmt.Errorf("output LOD1: %w", ErrLOD1NotBuilt)
	}
	for _, b := range r.buildings {
		if err := b.Extrude(g); err != nil {
			return fmt.Errorf("output LOD1: %w", err)
		}
	}
	return nil
}
