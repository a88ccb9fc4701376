// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertErrorIs fails the test unless err wraps target.
func AssertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want one wrapping %v", err, target)
	}
}

// FaceNormal returns the Newell normal of a planar face: its direction is
// the face orientation and its length twice the face area.
func FaceNormal(vertices []r3.Vec, face []int) r3.Vec {
	var n r3.Vec
	for i := range face {
		a, b := vertices[face[i]], vertices[face[(i+1)%len(face)]]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}

// IsVertical reports whether a face normal lies in the ground plane.
func IsVertical(n r3.Vec) bool {
	l := r3.Norm(n)
	return l > 0 && abs(n.Z)/l < 1e-9
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
