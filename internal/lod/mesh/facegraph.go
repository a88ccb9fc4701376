package mesh

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrBadFace is returned for a face with fewer than three vertices,
	// an unknown vertex or a repeated vertex.
	ErrBadFace = errors.New("bad face")
	// ErrNonManifold is returned when a face would reuse a directed edge.
	ErrNonManifold = errors.New("non-manifold face")
)

// FaceGraph is the mesh container a caller supplies. Faces list vertex
// indices counter-clockwise seen from outside.
type FaceGraph interface {
	AddVertex(p r3.Vec) int
	AddFace(vertices []int) error
}

// PolygonSoup is a plain vertex and face list.
type PolygonSoup struct {
	Vertices []r3.Vec
	Faces    [][]int
}

// AddVertex appends p and returns its index.
func (s *PolygonSoup) AddVertex(p r3.Vec) int {
	s.Vertices = append(s.Vertices, p)
	return len(s.Vertices) - 1
}

// AddFace appends a copy of vertices.
func (s *PolygonSoup) AddFace(vertices []int) error {
	if err := checkFace(vertices, len(s.Vertices)); err != nil {
		return err
	}
	s.Faces = append(s.Faces, append([]int(nil), vertices...))
	return nil
}

func checkFace(vertices []int, n int) error {
	if len(vertices) < 3 {
		return fmt.Errorf("%w: %d vertices", ErrBadFace, len(vertices))
	}
	seen := make(map[int]bool, len(vertices))
	for _, v := range vertices {
		if v < 0 || v >= n {
			return fmt.Errorf("%w: vertex %d out of range [0,%d)", ErrBadFace, v, n)
		}
		if seen[v] {
			return fmt.Errorf("%w: vertex %d repeated", ErrBadFace, v)
		}
		seen[v] = true
	}
	return nil
}

// HalfedgeMesh is an oriented face graph that refuses to use a directed
// edge twice, so every edge borders at most two consistently oriented
// faces.
type HalfedgeMesh struct {
	vertices []r3.Vec
	faces    [][]int
	// halfedges maps a directed edge to the face it belongs to.
	halfedges map[[2]int]int
}

// NewHalfedgeMesh returns an empty mesh.
func NewHalfedgeMesh() *HalfedgeMesh {
	return &HalfedgeMesh{halfedges: make(map[[2]int]int)}
}

// AddVertex appends p and returns its index.
func (m *HalfedgeMesh) AddVertex(p r3.Vec) int {
	m.vertices = append(m.vertices, p)
	return len(m.vertices) - 1
}

// AddFace links a new face. The mesh is unchanged on error.
func (m *HalfedgeMesh) AddFace(vertices []int) error {
	if err := checkFace(vertices, len(m.vertices)); err != nil {
		return err
	}
	if m.halfedges == nil {
		m.halfedges = make(map[[2]int]int)
	}
	n := len(vertices)
	for i := 0; i < n; i++ {
		e := [2]int{vertices[i], vertices[(i+1)%n]}
		if f, ok := m.halfedges[e]; ok {
			return fmt.Errorf("%w: edge %d->%d already used by face %d", ErrNonManifold, e[0], e[1], f)
		}
	}
	id := len(m.faces)
	for i := 0; i < n; i++ {
		m.halfedges[[2]int{vertices[i], vertices[(i+1)%n]}] = id
	}
	m.faces = append(m.faces, append([]int(nil), vertices...))
	return nil
}

// NumVertices returns the vertex count.
func (m *HalfedgeMesh) NumVertices() int { return len(m.vertices) }

// NumFaces returns the face count.
func (m *HalfedgeMesh) NumFaces() int { return len(m.faces) }

// Vertex returns vertex i.
func (m *HalfedgeMesh) Vertex(i int) r3.Vec { return m.vertices[i] }

// Face returns the vertex loop of face f.
func (m *HalfedgeMesh) Face(f int) []int { return m.faces[f] }

// Opposite returns the face on the other side of the directed edge u->v,
// or -1 when the edge is on the border.
func (m *HalfedgeMesh) Opposite(u, v int) int {
	if f, ok := m.halfedges[[2]int{v, u}]; ok {
		return f
	}
	return -1
}

// BorderEdges counts directed edges without an opposite.
func (m *HalfedgeMesh) BorderEdges() int {
	n := 0
	for e := range m.halfedges {
		if _, ok := m.halfedges[[2]int{e[1], e[0]}]; !ok {
			n++
		}
	}
	return n
}
