package pointset

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// PointType is the role of a point as seen by the reconstruction. How the
// caller obtained it (classifier, manual selection) is irrelevant here.
type PointType int

const (
	Unknown  PointType = iota - 1
	Inside             // roof
	Outside            // ground
	Boundary           // wall
)

// String returns the upper-case name used in logs and config files.
func (t PointType) String() string {
	switch t {
	case Unknown:
		return "UNKNOWN"
	case Inside:
		return "INSIDE"
	case Outside:
		return "OUTSIDE"
	case Boundary:
		return "BOUNDARY"
	}
	return fmt.Sprintf("PointType(%d)", int(t))
}

// Valid reports whether t is one of the four enumerated values.
func (t PointType) Valid() bool {
	return t >= Unknown && t <= Boundary
}

// PointMap gives the position of the point identified by key.
type PointMap[K any] interface {
	Point(key K) r3.Vec
}

// NormalMap gives the normal of the point identified by key. Normals do not
// need to be unit length or consistently oriented.
type NormalMap[K any] interface {
	Normal(key K) r3.Vec
}

// PointTypeMap classifies the point identified by key.
type PointTypeMap[K any] interface {
	PointType(key K) PointType
}

// PointMapFunc adapts a plain function to PointMap.
type PointMapFunc[K any] func(key K) r3.Vec

// Point calls f(key).
func (f PointMapFunc[K]) Point(key K) r3.Vec { return f(key) }

// NormalMapFunc adapts a plain function to NormalMap.
type NormalMapFunc[K any] func(key K) r3.Vec

// Normal calls f(key).
func (f NormalMapFunc[K]) Normal(key K) r3.Vec { return f(key) }

// PointTypeMapFunc adapts a plain function to PointTypeMap.
type PointTypeMapFunc[K any] func(key K) PointType

// PointType calls f(key).
func (f PointTypeMapFunc[K]) PointType(key K) PointType { return f(key) }

// Gather evaluates the position map once per key. The returned slice is
// owned by the caller.
func Gather[K any](keys []K, points PointMap[K]) []r3.Vec {
	if len(keys) == 0 {
		return nil
	}
	out := make([]r3.Vec, len(keys))
	for i, k := range keys {
		out[i] = points.Point(k)
	}
	return out
}

// GatherNormals evaluates the normal map once per key.
func GatherNormals[K any](keys []K, normals NormalMap[K]) []r3.Vec {
	if len(keys) == 0 || normals == nil {
		return nil
	}
	out := make([]r3.Vec, len(keys))
	for i, k := range keys {
		out[i] = normals.Normal(k)
	}
	return out
}

// GatherTypes evaluates the classification map once per key. Values outside
// the enumeration are reported as Unknown.
func GatherTypes[K any](keys []K, types PointTypeMap[K]) []PointType {
	if len(keys) == 0 {
		return nil
	}
	out := make([]PointType, len(keys))
	for i, k := range keys {
		t := types.PointType(k)
		if !t.Valid() {
			t = Unknown
		}
		out[i] = t
	}
	return out
}

// IndicesOf returns the ascending indices whose type equals want.
func IndicesOf(types []PointType, want PointType) []int {
	var out []int
	for i, t := range types {
		if t == want {
			out = append(out, i)
		}
	}
	return out
}

// CountTypes returns the number of points per type.
func CountTypes(types []PointType) map[PointType]int {
	counts := make(map[PointType]int, 4)
	for _, t := range types {
		counts[t]++
	}
	return counts
}
