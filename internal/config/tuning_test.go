package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/footprint.report/internal/fsutil"
)

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	if cfg.NormalThreshold == nil || *cfg.NormalThreshold != 0.9 {
		t.Errorf("Expected NormalThreshold 0.9, got %v", cfg.NormalThreshold)
	}
	if cfg.MinNumberOfPoints == nil || *cfg.MinNumberOfPoints != 10 {
		t.Errorf("Expected MinNumberOfPoints 10, got %v", cfg.MinNumberOfPoints)
	}
	if cfg.Lod1Method == nil || *cfg.Lod1Method != "AVERAGE" {
		t.Errorf("Expected Lod1Method AVERAGE, got %v", cfg.Lod1Method)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultTuningConfig() should validate, got %v", err)
	}
	if cfg.GetGraphcutBeta() != 100000.0 {
		t.Errorf("GetGraphcutBeta() = %f, want 100000", cfg.GetGraphcutBeta())
	}
	if cfg.GetGraphcutGamma() != 10000.0 {
		t.Errorf("GetGraphcutGamma() = %f, want 10000", cfg.GetGraphcutGamma())
	}
}

// getters lists every Get* accessor by its JSON name.
var getters = []struct {
	name string
	get  func(*TuningConfig) any
}{
	{"epsilon", func(c *TuningConfig) any { return c.GetEpsilon() }},
	{"cluster_epsilon", func(c *TuningConfig) any { return c.GetClusterEpsilon() }},
	{"normal_threshold", func(c *TuningConfig) any { return c.GetNormalThreshold() }},
	{"min_number_of_points", func(c *TuningConfig) any { return c.GetMinNumberOfPoints() }},
	{"graphcut_alpha", func(c *TuningConfig) any { return c.GetGraphcutAlpha() }},
	{"graphcut_beta", func(c *TuningConfig) any { return c.GetGraphcutBeta() }},
	{"graphcut_gamma", func(c *TuningConfig) any { return c.GetGraphcutGamma() }},
	{"angle_tolerance_deg", func(c *TuningConfig) any { return c.GetAngleToleranceDeg() }},
	{"offset_tolerance", func(c *TuningConfig) any { return c.GetOffsetTolerance() }},
	{"min_footprint_area", func(c *TuningConfig) any { return c.GetMinFootprintArea() }},
	{"lod1_method", func(c *TuningConfig) any { return c.GetLod1Method() }},
	{"fallback_height", func(c *TuningConfig) any { return c.GetFallbackHeight() }},
	{"workers", func(c *TuningConfig) any { return c.GetWorkers() }},
}

func TestGetterDefaults(t *testing.T) {
	empty, def := EmptyTuningConfig(), DefaultTuningConfig()
	for _, g := range getters {
		if got, want := g.get(empty), g.get(def); got != want {
			t.Errorf("%s: empty config gives %v, defaults give %v", g.name, got, want)
		}
	}
}

// memConfig writes data to name in a fresh in-memory filesystem.
func memConfig(t *testing.T, name string, data []byte) *fsutil.MemoryFileSystem {
	t.Helper()
	fsys := fsutil.NewMemoryFileSystem()
	if err := fsutil.WriteFile(fsys, name, data); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return fsys
}

func TestLoadTuningConfigFS(t *testing.T) {
	fsys := memConfig(t, "site/tuning.json", []byte(`{
  "epsilon": 0.4,
  "cluster_epsilon": 1.2,
  "normal_threshold": 0.7,
  "min_number_of_points": 25,
  "lod1_method": "median",
  "fallback_height": 3.5,
  "workers": 2
}`))

	cfg, err := LoadTuningConfigFS(fsys, "./site/../site/tuning.json")
	if err != nil {
		t.Fatalf("LoadTuningConfigFS: %v", err)
	}

	want := map[string]any{
		"epsilon":              0.4,
		"cluster_epsilon":      1.2,
		"normal_threshold":     0.7,
		"min_number_of_points": 25,
		"lod1_method":          "MEDIAN",
		"fallback_height":      3.5,
		"workers":              2,
		// Omitted fields keep their defaults.
		"graphcut_beta":       100000.0,
		"angle_tolerance_deg": 5.0,
	}
	for _, g := range getters {
		w, ok := want[g.name]
		if !ok {
			continue
		}
		if got := g.get(cfg); got != w {
			t.Errorf("%s = %v, want %v", g.name, got, w)
		}
	}
}

func TestLoadTuningConfigFSErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		path string
	}{
		{name: "missing file", file: "tuning.json", data: []byte(`{}`), path: "other.json"},
		{name: "malformed JSON", file: "bad.json", data: []byte(`{"epsilon": "invalid"`), path: "bad.json"},
		{name: "invalid value", file: "neg.json", data: []byte(`{"workers": -1}`), path: "neg.json"},
		{name: "wrong extension", file: "tuning.yaml", data: []byte(`{}`), path: "tuning.yaml"},
		{name: "oversized file", file: "big.json", data: make([]byte, 2*1024*1024), path: "big.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := memConfig(t, tt.file, tt.data)
			if _, err := LoadTuningConfigFS(fsys, tt.path); err == nil {
				t.Errorf("LoadTuningConfigFS(%q) succeeded, want error", tt.path)
			}
		})
	}
}

func TestLoadTuningConfigFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.json")
	if err := os.WriteFile(path, []byte(`{"graphcut_alpha": 2}`), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig: %v", err)
	}
	if got := cfg.GetGraphcutAlpha(); got != 2 {
		t.Errorf("graphcut_alpha = %v, want 2", got)
	}
	if _, err := LoadTuningConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("loading an absent file succeeded")
	}
}

func TestParseTuningConfigRejectsUnknownField(t *testing.T) {
	_, err := ParseTuningConfig([]byte(`{"epsilom": 0.5}`))
	if err == nil {
		t.Fatal("Expected error for unknown field, got nil")
	}
	if !strings.Contains(err.Error(), "epsilom") {
		t.Errorf("error should name the field, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TuningConfig
		wantErr bool
	}{
		{name: "valid config", cfg: DefaultTuningConfig()},
		{name: "empty config is valid", cfg: EmptyTuningConfig()},
		{name: "negative epsilon", cfg: &TuningConfig{Epsilon: ptrFloat64(-0.1)}, wantErr: true},
		{name: "negative cluster epsilon", cfg: &TuningConfig{ClusterEpsilon: ptrFloat64(-1)}, wantErr: true},
		{name: "normal threshold above 1", cfg: &TuningConfig{NormalThreshold: ptrFloat64(1.5)}, wantErr: true},
		{name: "normal threshold below 0", cfg: &TuningConfig{NormalThreshold: ptrFloat64(-0.5)}, wantErr: true},
		{name: "normal threshold at bounds", cfg: &TuningConfig{NormalThreshold: ptrFloat64(1)}},
		{name: "zero min points", cfg: &TuningConfig{MinNumberOfPoints: ptrInt(0)}, wantErr: true},
		{name: "negative beta", cfg: &TuningConfig{GraphcutBeta: ptrFloat64(-1)}, wantErr: true},
		{name: "zero weights", cfg: &TuningConfig{GraphcutAlpha: ptrFloat64(0), GraphcutGamma: ptrFloat64(0)}},
		{name: "angle tolerance too wide", cfg: &TuningConfig{AngleToleranceDeg: ptrFloat64(45)}, wantErr: true},
		{name: "unknown lod1 method", cfg: &TuningConfig{Lod1Method: ptrString("MODE")}, wantErr: true},
		{name: "lower-case lod1 method", cfg: &TuningConfig{Lod1Method: ptrString("maximum")}},
		{name: "negative workers", cfg: &TuningConfig{Workers: ptrInt(-2)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDefaultConfigFile(t *testing.T) {
	cfg, err := LoadTuningConfig("../../config/tuning.defaults.json")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}
	def := DefaultTuningConfig()
	if cfg.GetNormalThreshold() != def.GetNormalThreshold() {
		t.Errorf("Expected %f, got %f", def.GetNormalThreshold(), cfg.GetNormalThreshold())
	}
	if cfg.GetLod1Method() != "AVERAGE" {
		t.Errorf("Expected AVERAGE, got %q", cfg.GetLod1Method())
	}
}

func TestLoadExampleConfigFile(t *testing.T) {
	cfg, err := LoadTuningConfig("../../config/tuning.example.json")
	if err != nil {
		t.Fatalf("Failed to load example: %v", err)
	}
	if cfg.GetNormalThreshold() != 0.7 {
		t.Errorf("Expected 0.7, got %f", cfg.GetNormalThreshold())
	}
	if cfg.GetLod1Method() != "MEDIAN" {
		t.Errorf("Expected MEDIAN, got %q", cfg.GetLod1Method())
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if cfg.GetMinNumberOfPoints() != 10 {
		t.Errorf("Expected 10, got %d", cfg.GetMinNumberOfPoints())
	}
}
