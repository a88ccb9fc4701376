package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/banshee-data/footprint.report/internal/fsutil"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig holds the reconstruction tuning parameters. Every field is
// optional; the Get* methods return the documented default for a field
// left out of the JSON.
type TuningConfig struct {
	// Region growing and clustering. Zero or absent tolerances are derived
	// from the average point spacing.
	Epsilon           *float64 `json:"epsilon,omitempty"`
	ClusterEpsilon    *float64 `json:"cluster_epsilon,omitempty"`
	NormalThreshold   *float64 `json:"normal_threshold,omitempty"`
	MinNumberOfPoints *int     `json:"min_number_of_points,omitempty"`

	// Graph-cut energy weights
	GraphcutAlpha *float64 `json:"graphcut_alpha,omitempty"`
	GraphcutBeta  *float64 `json:"graphcut_beta,omitempty"`
	GraphcutGamma *float64 `json:"graphcut_gamma,omitempty"`

	// Line regularisation
	AngleToleranceDeg *float64 `json:"angle_tolerance_deg,omitempty"`
	OffsetTolerance   *float64 `json:"offset_tolerance,omitempty"`

	// Footprints and LOD1
	MinFootprintArea *float64 `json:"min_footprint_area,omitempty"`
	Lod1Method       *string  `json:"lod1_method,omitempty"` // MINIMUM, AVERAGE, MEDIAN or MAXIMUM
	FallbackHeight   *float64 `json:"fallback_height,omitempty"`

	// Workers bounds the per-cluster goroutines; 0 means GOMAXPROCS.
	Workers *int `json:"workers,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field set to its
// default.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		Epsilon:           ptrFloat64(0),
		ClusterEpsilon:    ptrFloat64(0),
		NormalThreshold:   ptrFloat64(0.9),
		MinNumberOfPoints: ptrInt(10),
		GraphcutAlpha:     ptrFloat64(1.0),
		GraphcutBeta:      ptrFloat64(100000.0),
		GraphcutGamma:     ptrFloat64(10000.0),
		AngleToleranceDeg: ptrFloat64(5),
		OffsetTolerance:   ptrFloat64(0),
		MinFootprintArea:  ptrFloat64(0),
		Lod1Method:        ptrString("AVERAGE"),
		FallbackHeight:    ptrFloat64(0),
		Workers:           ptrInt(0),
	}
}

// ParseTuningConfig decodes and validates JSON tuning data. Unknown fields
// are rejected so that typos do not silently fall back to defaults.
func ParseTuningConfig(data []byte) (*TuningConfig, error) {
	cfg := EmptyTuningConfig()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadTuningConfig loads a TuningConfig from a JSON file on disk.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	return LoadTuningConfigFS(fsutil.OSFileSystem{}, path)
}

// LoadTuningConfigFS loads a TuningConfig from a JSON file in fsys.
// The file must have a .json extension and be under 1MB.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfigFS(fsys fsutil.FileSystem, path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseTuningConfig(data)
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches the current directory and its parents up to the repository
// root. Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/lod/pipeline/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Validate checks that the configuration values are valid. Nothing is
// clamped: an out-of-range value is an error.
func (c *TuningConfig) Validate() error {
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"epsilon", c.Epsilon},
		{"cluster_epsilon", c.ClusterEpsilon},
		{"graphcut_alpha", c.GraphcutAlpha},
		{"graphcut_beta", c.GraphcutBeta},
		{"graphcut_gamma", c.GraphcutGamma},
		{"angle_tolerance_deg", c.AngleToleranceDeg},
		{"offset_tolerance", c.OffsetTolerance},
		{"min_footprint_area", c.MinFootprintArea},
	} {
		if f.v != nil && (!finite(*f.v) || *f.v < 0) {
			return fmt.Errorf("%s must be a non-negative number, got %v", f.name, *f.v)
		}
	}

	if c.NormalThreshold != nil {
		if v := *c.NormalThreshold; !(v >= 0 && v <= 1) {
			return fmt.Errorf("normal_threshold must be between 0 and 1, got %v", v)
		}
	}

	if c.MinNumberOfPoints != nil && *c.MinNumberOfPoints < 1 {
		return fmt.Errorf("min_number_of_points must be at least 1, got %d", *c.MinNumberOfPoints)
	}

	if c.AngleToleranceDeg != nil && *c.AngleToleranceDeg >= 45 {
		return fmt.Errorf("angle_tolerance_deg must be below 45, got %v", *c.AngleToleranceDeg)
	}

	if c.Lod1Method != nil {
		switch strings.ToUpper(strings.TrimSpace(*c.Lod1Method)) {
		case "MINIMUM", "AVERAGE", "MEDIAN", "MAXIMUM":
		default:
			return fmt.Errorf("invalid lod1_method %q", *c.Lod1Method)
		}
	}

	if c.FallbackHeight != nil && !finite(*c.FallbackHeight) {
		return fmt.Errorf("fallback_height must be finite, got %v", *c.FallbackHeight)
	}

	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}

	return nil
}

// GetEpsilon returns the epsilon value or the default (0, derive from spacing).
func (c *TuningConfig) GetEpsilon() float64 {
	if c.Epsilon == nil {
		return 0
	}
	return *c.Epsilon
}

// GetClusterEpsilon returns the cluster_epsilon value or the default (0, derive from spacing).
func (c *TuningConfig) GetClusterEpsilon() float64 {
	if c.ClusterEpsilon == nil {
		return 0
	}
	return *c.ClusterEpsilon
}

// GetNormalThreshold returns the normal_threshold value or the default.
func (c *TuningConfig) GetNormalThreshold() float64 {
	if c.NormalThreshold == nil {
		return 0.9
	}
	return *c.NormalThreshold
}

// GetMinNumberOfPoints returns the min_number_of_points value or the default.
func (c *TuningConfig) GetMinNumberOfPoints() int {
	if c.MinNumberOfPoints == nil {
		return 10
	}
	return *c.MinNumberOfPoints
}

// GetGraphcutAlpha returns the graphcut_alpha value or the default.
func (c *TuningConfig) GetGraphcutAlpha() float64 {
	if c.GraphcutAlpha == nil {
		return 1.0
	}
	return *c.GraphcutAlpha
}

// GetGraphcutBeta returns the graphcut_beta value or the default.
func (c *TuningConfig) GetGraphcutBeta() float64 {
	if c.GraphcutBeta == nil {
		return 100000.0
	}
	return *c.GraphcutBeta
}

// GetGraphcutGamma returns the graphcut_gamma value or the default.
func (c *TuningConfig) GetGraphcutGamma() float64 {
	if c.GraphcutGamma == nil {
		return 10000.0
	}
	return *c.GraphcutGamma
}

// GetAngleToleranceDeg returns the angle_tolerance_deg value or the default.
func (c *TuningConfig) GetAngleToleranceDeg() float64 {
	if c.AngleToleranceDeg == nil {
		return 5
	}
	return *c.AngleToleranceDeg
}

// GetOffsetTolerance returns the offset_tolerance value or the default (0, derived).
func (c *TuningConfig) GetOffsetTolerance() float64 {
	if c.OffsetTolerance == nil {
		return 0
	}
	return *c.OffsetTolerance
}

// GetMinFootprintArea returns the min_footprint_area value or the default (0, derived).
func (c *TuningConfig) GetMinFootprintArea() float64 {
	if c.MinFootprintArea == nil {
		return 0
	}
	return *c.MinFootprintArea
}

// GetLod1Method returns the upper-case lod1_method value or the default.
func (c *TuningConfig) GetLod1Method() string {
	if c.Lod1Method == nil || *c.Lod1Method == "" {
		return "AVERAGE"
	}
	return strings.ToUpper(strings.TrimSpace(*c.Lod1Method))
}

// GetFallbackHeight returns the fallback_height value or the default.
func (c *TuningConfig) GetFallbackHeight() float64 {
	if c.FallbackHeight == nil {
		return 0
	}
	return *c.FallbackHeight
}

// GetWorkers returns the workers value or the default (0, GOMAXPROCS).
func (c *TuningConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}
