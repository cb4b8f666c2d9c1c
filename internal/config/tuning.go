package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/units"
)

// TuningConfig represents the root configuration for engine tuning parameters.
// The schema matches the /api/config endpoint so the same JSON can be used for
// both startup configuration and runtime inspection. Fields omitted from the
// JSON retain their defaults, so partial configs are safe.
type TuningConfig struct {
	// Belt params
	BeltSpeed      *float64 `json:"belt_speed,omitempty"`
	BeltSpeedUnits *string  `json:"belt_speed_units,omitempty"` // mps, kmph, kph or mph

	// Detection params
	VisibilityThreshold    *float64 `json:"visibility_threshold,omitempty"`
	MinStrikeIntervalMs    *float64 `json:"min_strike_interval_ms,omitempty"`
	SmoothingWindow        *int     `json:"smoothing_window,omitempty"`
	GroundTolerancePx      *float64 `json:"ground_tolerance_px,omitempty"`
	RequireSignChange      *bool    `json:"require_sign_change,omitempty"`
	RequireGroundProximity *bool    `json:"require_ground_proximity,omitempty"`

	// Session params
	WarmupDuration    *string `json:"warmup_duration,omitempty"`    // duration string like "10s"
	CountdownDuration *string `json:"countdown_duration,omitempty"` // duration string like "5s"
	StepQuota         *int    `json:"step_quota,omitempty"`
}

// Hard limits for detection parameters. Values outside these ranges are
// clamped rather than rejected.
const (
	MinStrikeIntervalFloorMs = 120.0
	SmoothingWindowMin       = 1
	SmoothingWindowMax       = 15
	GroundToleranceMinPx     = 5.0
	GroundToleranceMaxPx     = 80.0
)

// EmptyTuningConfig returns a TuningConfig with all fields set to nil. Every
// Get* accessor falls back to a compiled-in default, so an empty config is a
// fully usable default configuration.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file is
// validated to ensure it has a .json extension and is under the max file size.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are parseable. Numeric
// out-of-range values are not errors; the Get* accessors clamp them.
func (c *TuningConfig) Validate() error {
	if c.BeltSpeedUnits != nil && *c.BeltSpeedUnits != "" {
		if !units.IsValid(*c.BeltSpeedUnits) {
			return fmt.Errorf("belt_speed_units must be one of %s, got %q", units.GetValidUnitsString(), *c.BeltSpeedUnits)
		}
	}

	if c.WarmupDuration != nil && *c.WarmupDuration != "" {
		if _, err := time.ParseDuration(*c.WarmupDuration); err != nil {
			return fmt.Errorf("invalid warmup_duration '%s': %w", *c.WarmupDuration, err)
		}
	}

	if c.CountdownDuration != nil && *c.CountdownDuration != "" {
		if _, err := time.ParseDuration(*c.CountdownDuration); err != nil {
			return fmt.Errorf("invalid countdown_duration '%s': %w", *c.CountdownDuration, err)
		}
	}

	return nil
}

// GetBeltSpeedMPS returns the configured belt speed normalized to m/s.
// Zero, negative or non-finite speeds collapse to 0, which downstream code
// treats as "belt speed unknown" (length metrics withheld).
func (c *TuningConfig) GetBeltSpeedMPS() float64 {
	if c.BeltSpeed == nil {
		return 0
	}
	speed := *c.BeltSpeed
	if math.IsNaN(speed) || math.IsInf(speed, 0) || speed <= 0 {
		return 0
	}
	return units.ConvertToMPS(speed, c.GetBeltSpeedUnits())
}

// GetBeltSpeedUnits returns the belt_speed_units value or the default.
func (c *TuningConfig) GetBeltSpeedUnits() string {
	if c.BeltSpeedUnits == nil || *c.BeltSpeedUnits == "" {
		return units.KMPH // treadmill consoles report km/h
	}
	return *c.BeltSpeedUnits
}

// GetVisibilityThreshold returns the visibility_threshold value clamped to
// [0,1], or the default.
func (c *TuningConfig) GetVisibilityThreshold() float64 {
	if c.VisibilityThreshold == nil {
		return 0.55
	}
	return clampFloat(*c.VisibilityThreshold, 0, 1)
}

// GetMinStrikeIntervalMs returns the min_strike_interval_ms value or the
// default. Values below the floor are raised to it.
func (c *TuningConfig) GetMinStrikeIntervalMs() float64 {
	if c.MinStrikeIntervalMs == nil {
		return 300
	}
	if *c.MinStrikeIntervalMs < MinStrikeIntervalFloorMs {
		return MinStrikeIntervalFloorMs
	}
	return *c.MinStrikeIntervalMs
}

// GetSmoothingWindow returns the smoothing_window value clamped to its valid
// range, or the default.
func (c *TuningConfig) GetSmoothingWindow() int {
	if c.SmoothingWindow == nil {
		return 5
	}
	return clampInt(*c.SmoothingWindow, SmoothingWindowMin, SmoothingWindowMax)
}

// GetGroundTolerancePx returns the ground_tolerance_px value clamped to its
// valid range, or the default.
func (c *TuningConfig) GetGroundTolerancePx() float64 {
	if c.GroundTolerancePx == nil {
		return 18
	}
	return clampFloat(*c.GroundTolerancePx, GroundToleranceMinPx, GroundToleranceMaxPx)
}

// GetRequireSignChange returns the require_sign_change value or the default.
func (c *TuningConfig) GetRequireSignChange() bool {
	if c.RequireSignChange == nil {
		return true
	}
	return *c.RequireSignChange
}

// GetRequireGroundProximity returns the require_ground_proximity value or the
// default. The proximity gate only applies once a ground estimate exists.
func (c *TuningConfig) GetRequireGroundProximity() bool {
	if c.RequireGroundProximity == nil {
		return true
	}
	return *c.RequireGroundProximity
}

// GetWarmupDuration parses and returns the WarmupDuration as a time.Duration.
func (c *TuningConfig) GetWarmupDuration() time.Duration {
	if c.WarmupDuration == nil || *c.WarmupDuration == "" {
		return 10 * time.Second // default
	}
	d, err := time.ParseDuration(*c.WarmupDuration)
	if err != nil || d < 0 {
		return 10 * time.Second // default on parse error
	}
	return d
}

// GetCountdownDuration parses and returns the CountdownDuration as a time.Duration.
func (c *TuningConfig) GetCountdownDuration() time.Duration {
	if c.CountdownDuration == nil || *c.CountdownDuration == "" {
		return 5 * time.Second // default
	}
	d, err := time.ParseDuration(*c.CountdownDuration)
	if err != nil || d < 0 {
		return 5 * time.Second // default on parse error
	}
	return d
}

// GetStepQuota returns the step_quota value or the default.
func (c *TuningConfig) GetStepQuota() int {
	if c.StepQuota == nil || *c.StepQuota < 1 {
		return 10
	}
	return *c.StepQuota
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
