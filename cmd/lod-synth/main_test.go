package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/banshee-data/footprint.report/internal/fsutil"
	"github.com/banshee-data/footprint.report/internal/lod/mesh"
)

func TestWriteOBJ(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	var soup mesh.PolygonSoup
	if err := mesh.AddFlat(&soup, orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}, 0); err != nil {
		t.Fatalf("AddFlat: %v", err)
	}

	path := filepath.Join("out", "lod0.obj")
	if err := writeOBJ(fsys, path, &soup); err != nil {
		t.Fatalf("writeOBJ: %v", err)
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.HasSuffix(string(data), "f 1 2 3 4\n") {
		t.Errorf("unexpected OBJ:\n%s", data)
	}
	if info, err := fsys.Stat("out"); err != nil || !info.IsDir() {
		t.Errorf("output directory was not created: %v", err)
	}
}

func TestWriteOBJ_RejectsExtension(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	if err := writeOBJ(fsys, "lod0.txt", &mesh.PolygonSoup{}); err == nil {
		t.Fatal("expected an error for a non-.obj path")
	}
	if len(fsys.Files()) != 0 {
		t.Errorf("nothing should be written, got %v", fsys.Files())
	}
}

func TestScenes(t *testing.T) {
	if got := sceneNames(); got != "courtyard, lshape, pair, square" {
		t.Errorf("sceneNames() = %q", got)
	}
	for name, buildings := range scenes {
		for i, b := range buildings {
			if b.RoofMin <= 0 || b.RoofMax < b.RoofMin {
				t.Errorf("%s[%d]: bad roof range [%v, %v]", name, i, b.RoofMin, b.RoofMax)
			}
			if planar.Area(b.Footprint) <= 0 {
				t.Errorf("%s[%d]: footprint has no area", name, i)
			}
			if b.Footprint[0].Orientation() != orb.CCW {
				t.Errorf("%s[%d]: outer ring must be counter-clockwise", name, i)
			}
		}
	}
}
