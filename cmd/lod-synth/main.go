// Command lod-synth reconstructs a synthetic scene and reports the result.
//
// It generates a classified point cloud for one of a few preset layouts,
// runs LOD0 and LOD1 reconstruction and logs a per-building summary.
// Optionally the LOD0 and LOD1 meshes are written as Wavefront OBJ files.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paulmach/orb"

	"github.com/banshee-data/footprint.report/internal/config"
	"github.com/banshee-data/footprint.report/internal/fsutil"
	"github.com/banshee-data/footprint.report/internal/lod"
	"github.com/banshee-data/footprint.report/internal/lod/mesh"
	"github.com/banshee-data/footprint.report/internal/lod/pipeline"
	"github.com/banshee-data/footprint.report/internal/lod/pointset"
	"github.com/banshee-data/footprint.report/internal/lod/synthetic"
	"github.com/banshee-data/footprint.report/internal/version"
)

// scenes are the preset building layouts.
var scenes = map[string][]synthetic.Building{
	"square": {
		synthetic.Rect(0, 0, 10, 10, 3, 5),
	},
	"pair": {
		synthetic.Rect(0, 0, 10, 10, 3, 5),
		synthetic.Rect(25, 0, 35, 8, 6, 7),
	},
	"courtyard": {{
		Footprint: orb.Polygon{
			{{0, 0}, {20, 0}, {20, 20}, {0, 20}, {0, 0}},
			{{8, 8}, {8, 12}, {12, 12}, {12, 8}, {8, 8}},
		},
		RoofMin: 9,
		RoofMax: 10,
	}},
	"lshape": {{
		Footprint: orb.Polygon{{{0, 0}, {16, 0}, {16, 6}, {6, 6}, {6, 14}, {0, 14}, {0, 0}}},
		RoofMin:   4,
		RoofMax:   4.5,
	}},
}

func sceneNames() string {
	names := make([]string, 0, len(scenes))
	for name := range scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func main() {
	sceneName := flag.String("scene", "pair", "preset layout: "+sceneNames())
	seed := flag.Int64("seed", 1, "random seed for the point sampler")
	noise := flag.Float64("noise", 0.02, "std dev of wall sample jitter in metres")
	unknown := flag.Int("unknown", 0, "number of unclassified points to scatter")
	configPath := flag.String("config", "", "tuning config JSON (defaults when empty)")
	method := flag.String("method", "", "LOD1 height method; overrides the config")
	estimate := flag.Bool("estimate-normals", false, "ignore the sampled normals and estimate them")
	lod0Out := flag.String("lod0-obj", "", "write the LOD0 footprints to this OBJ file")
	lod1Out := flag.String("lod1-obj", "", "write the LOD1 buildings to this OBJ file")
	verbose := flag.Bool("v", false, "log stage summaries")
	trace := flag.Bool("trace", false, "log stage timings and derived parameters")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("lod-synth", version.String())
		return
	}

	buildings, ok := scenes[*sceneName]
	if !ok {
		log.Fatalf("unknown scene %q (want one of %s)", *sceneName, sceneNames())
	}

	var diagW, traceW io.Writer
	if *verbose || *trace {
		diagW = os.Stderr
	}
	if *trace {
		traceW = os.Stderr
	}
	lod.SetLogWriters(lod.LogWriters{Ops: os.Stderr, Diag: diagW, Trace: traceW})

	fsys := fsutil.OSFileSystem{}
	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadTuningConfigFS(fsys, *configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	methodName := cfg.GetLod1Method()
	if *method != "" {
		methodName = *method
	}
	lod1Method, err := pipeline.ParseLod1Method(methodName)
	if err != nil {
		log.Fatalf("invalid -method: %v", err)
	}

	gen := synthetic.NewGenerator(*seed)
	gen.WallNoise = *noise
	gen.UnknownPoints = *unknown
	scene := gen.Scene(buildings...)
	log.Printf("scene %q: %d points (%d wall, %d roof, %d ground, %d unknown)",
		*sceneName, len(scene.Points),
		scene.Count(pointset.Boundary), scene.Count(pointset.Inside),
		scene.Count(pointset.Outside), scene.Count(pointset.Unknown))

	spacing := pointset.EstimateAverageSpacing(pointset.Gather(scene.Keys(), scene), pipeline.SpacingNeighbours)
	params := pipeline.LOD0ParamsFromTuning(cfg, spacing)
	log.Printf("average spacing %.3f m: epsilon %.3f, cluster_epsilon %.3f",
		spacing, params.Epsilon, params.ClusterEpsilon)

	var normals pointset.NormalMap[int] = scene
	if *estimate {
		normals = nil
	}
	r := pipeline.New[int](scene.Keys(), scene, normals,
		pipeline.WithFallbackHeight(cfg.GetFallbackHeight()))
	if err := r.BuildLOD0(scene, params); err != nil {
		log.Fatalf("LOD0 failed: %v", err)
	}
	if err := r.BuildLOD1(lod1Method); err != nil {
		log.Fatalf("LOD1 failed: %v", err)
	}

	st := r.Stats()
	log.Printf("%d clusters, %d wall segments, %d lines, %d cells (%d inside)",
		st.Clusters, st.Segments, st.Lines, st.Cells, st.InsideCells)
	for _, b := range r.Buildings() {
		holes := len(b.Footprint.Polygon) - 1
		log.Printf("building %s: area %.1f m², %d holes, %s height %.2f m from %d roof points (%s)",
			b.Footprint.ID, b.Footprint.Area, holes, lod1Method, b.Height, b.RoofPoints, b.Source)
	}
	for _, rej := range r.Rejections() {
		log.Printf("rejected footprint over cells %v: %v", rej.Cells, rej.Reason)
	}

	if *lod0Out != "" {
		var soup mesh.PolygonSoup
		if err := r.OutputLOD0ToFaceGraph(&soup); err != nil {
			log.Fatalf("LOD0 output failed: %v", err)
		}
		if err := writeOBJ(fsys, *lod0Out, &soup); err != nil {
			log.Fatalf("failed to write %s: %v", *lod0Out, err)
		}
		log.Printf("✓ Created: %s", *lod0Out)
	}
	if *lod1Out != "" {
		var soup mesh.PolygonSoup
		if err := r.OutputLOD1ToFaceGraph(&soup); err != nil {
			log.Fatalf("LOD1 output failed: %v", err)
		}
		if err := writeOBJ(fsys, *lod1Out, &soup); err != nil {
			log.Fatalf("failed to write %s: %v", *lod1Out, err)
		}
		log.Printf("✓ Created: %s", *lod1Out)
	}
}

// writeOBJ streams soup to path, creating parent directories.
func writeOBJ(fsys fsutil.FileSystem, path string, soup *mesh.PolygonSoup) error {
	if filepath.Ext(path) != ".obj" {
		return fmt.Errorf("output file must have .obj extension, got %q", filepath.Ext(path))
	}
	return fsutil.Export(fsys, path, func(w io.Writer) error {
		return mesh.WriteOBJ(w, soup)
	})
}
