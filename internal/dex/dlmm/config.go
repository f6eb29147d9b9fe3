// =============================
// File: internal/dex/dlmm/config.go
// =============================
package dlmm

import (
	"fmt"
	"time"
)

// maxBaseFactor is the program's u16 ceiling on the base fee factor; the
// maximum base fee in basis points is maxBaseFactor*binStep/10000.
const maxBaseFactor = 65535

// PriceRange is an explicit seeding range. Its presence switches the
// strategy into curvature-weighted ("LFG") mode when the range is narrow
// enough for a single weighted instruction.
type PriceRange struct {
	Min float64
	Max float64
}

// Activation schedules when the pool starts trading. Zero value means
// immediate activation at pool-creation time. At most one field may be set.
type Activation struct {
	Slot      uint64
	Timestamp int64
	Date      string // RFC3339, converted to epoch seconds
}

// Resolve maps the schedule onto the program's activation type and point.
func (a *Activation) Resolve() (activationType uint8, point *uint64, err error) {
	if a == nil {
		return ActivationBySlot, nil, nil
	}
	set := 0
	if a.Slot != 0 {
		set++
	}
	if a.Timestamp != 0 {
		set++
	}
	if a.Date != "" {
		set++
	}
	if set > 1 {
		return 0, nil, fmt.Errorf("activation accepts only one of slot, timestamp or date")
	}

	switch {
	case a.Slot != 0:
		v := a.Slot
		return ActivationBySlot, &v, nil
	case a.Timestamp != 0:
		if a.Timestamp < 0 {
			return 0, nil, fmt.Errorf("activation timestamp must be positive, got %d", a.Timestamp)
		}
		v := uint64(a.Timestamp)
		return ActivationByTimestamp, &v, nil
	case a.Date != "":
		t, err := time.Parse(time.RFC3339, a.Date)
		if err != nil {
			return 0, nil, fmt.Errorf("invalid activation date %q: %w", a.Date, err)
		}
		v := uint64(t.Unix())
		return ActivationByTimestamp, &v, nil
	}
	return ActivationBySlot, nil, nil
}

// Config is the per-launch DLMM configuration. Zero fields fall back to the
// named preset, then to built-in defaults.
type Config struct {
	BinStep       uint16
	FeeBps        uint16
	PositionWidth int32

	// Range switches on LFG seeding; overrides the symmetric width default.
	Range     *PriceRange
	Curvature float64

	// Shape is the fallback seeding strategy for wide ranges.
	Shape uint8

	// DevBuySol, when positive, appends the dev-buy group (lamports).
	DevBuySol uint64

	Activation *Activation

	Preset string
}

// Built-in presets. Per-call config beats the preset, the preset beats the
// default.
var presets = map[string]Config{
	"default": {BinStep: 25, FeeBps: 25, PositionWidth: 69, Shape: StrategySpot},
	"wide":    {BinStep: 100, FeeBps: 100, PositionWidth: 69, Shape: StrategyCurve},
	"tight":   {BinStep: 10, FeeBps: 10, PositionWidth: 21, Shape: StrategySpot},
}

// ResolveConfig applies the preset and built-in fallbacks to a raw config.
func ResolveConfig(cfg Config) (Config, error) {
	base := presets["default"]
	if cfg.Preset != "" {
		p, ok := presets[cfg.Preset]
		if !ok {
			return Config{}, fmt.Errorf("unknown preset %q", cfg.Preset)
		}
		base = p
	}
	if cfg.BinStep == 0 {
		cfg.BinStep = base.BinStep
	}
	if cfg.FeeBps == 0 {
		cfg.FeeBps = base.FeeBps
	}
	if cfg.PositionWidth == 0 {
		cfg.PositionWidth = base.PositionWidth
	}
	if cfg.Shape == 0 {
		cfg.Shape = base.Shape
	}
	return cfg, nil
}

// MaxFeeBps returns the largest base fee the program accepts for a step size.
func MaxFeeBps(binStep uint16) float64 {
	return float64(maxBaseFactor) * float64(binStep) / BasisPointMax
}

// baseFactorFor converts a base fee in basis points into the program's base
// factor, rejecting fees beyond the step-dependent maximum.
func baseFactorFor(feeBps, binStep uint16) (uint16, error) {
	if binStep == 0 {
		return 0, fmt.Errorf("bin step must be positive")
	}
	maxFee := MaxFeeBps(binStep)
	if float64(feeBps) > maxFee {
		return 0, fmt.Errorf("fee %d bps exceeds maximum %.2f bps for bin step %d", feeBps, maxFee, binStep)
	}
	factor := uint64(feeBps) * BasisPointMax / uint64(binStep)
	if factor > maxBaseFactor {
		return 0, fmt.Errorf("fee %d bps exceeds maximum %.2f bps for bin step %d", feeBps, maxFee, binStep)
	}
	return uint16(factor), nil
}
