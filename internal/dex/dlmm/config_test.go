// =============================
// File: internal/dex/dlmm/config_test.go
// =============================
package dlmm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivationResolve(t *testing.T) {
	t.Run("nil means immediate", func(t *testing.T) {
		var a *Activation
		kind, point, err := a.Resolve()
		require.NoError(t, err)
		assert.Equal(t, uint8(ActivationBySlot), kind)
		assert.Nil(t, point)
	})

	t.Run("zero value means immediate", func(t *testing.T) {
		kind, point, err := (&Activation{}).Resolve()
		require.NoError(t, err)
		assert.Equal(t, uint8(ActivationBySlot), kind)
		assert.Nil(t, point)
	})

	t.Run("slot", func(t *testing.T) {
		kind, point, err := (&Activation{Slot: 12345}).Resolve()
		require.NoError(t, err)
		assert.Equal(t, uint8(ActivationBySlot), kind)
		require.NotNil(t, point)
		assert.Equal(t, uint64(12345), *point)
	})

	t.Run("timestamp", func(t *testing.T) {
		kind, point, err := (&Activation{Timestamp: 1735689600}).Resolve()
		require.NoError(t, err)
		assert.Equal(t, uint8(ActivationByTimestamp), kind)
		require.NotNil(t, point)
		assert.Equal(t, uint64(1735689600), *point)
	})

	t.Run("rfc3339 date", func(t *testing.T) {
		kind, point, err := (&Activation{Date: "2025-01-01T00:00:00Z"}).Resolve()
		require.NoError(t, err)
		assert.Equal(t, uint8(ActivationByTimestamp), kind)
		require.NotNil(t, point)
		assert.Equal(t, uint64(1735689600), *point)
	})

	t.Run("multiple fields rejected", func(t *testing.T) {
		_, _, err := (&Activation{Slot: 1, Timestamp: 2}).Resolve()
		require.Error(t, err)
	})

	t.Run("garbage date rejected", func(t *testing.T) {
		_, _, err := (&Activation{Date: "tomorrow"}).Resolve()
		require.Error(t, err)
	})
}

func TestResolveConfigPresets(t *testing.T) {
	cfg, err := ResolveConfig(Config{})
	require.NoError(t, err)
	assert.Equal(t, uint16(25), cfg.BinStep)
	assert.Equal(t, uint16(25), cfg.FeeBps)
	assert.Equal(t, int32(69), cfg.PositionWidth)

	cfg, err = ResolveConfig(Config{Preset: "tight"})
	require.NoError(t, err)
	assert.Equal(t, uint16(10), cfg.BinStep)
	assert.Equal(t, int32(21), cfg.PositionWidth)

	// Per-call values beat the preset.
	cfg, err = ResolveConfig(Config{Preset: "wide", BinStep: 50})
	require.NoError(t, err)
	assert.Equal(t, uint16(50), cfg.BinStep)
	assert.Equal(t, uint16(100), cfg.FeeBps)

	_, err = ResolveConfig(Config{Preset: "nope"})
	require.Error(t, err)
}

func TestBaseFactorFor(t *testing.T) {
	// 25 bps fee at 25 bps step is factor 10000.
	factor, err := baseFactorFor(25, 25)
	require.NoError(t, err)
	assert.Equal(t, uint16(10000), factor)

	// Maximum fee for step 10 is 65.535 bps.
	_, err = baseFactorFor(66, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")

	factor, err = baseFactorFor(65, 10)
	require.NoError(t, err)
	assert.Equal(t, uint16(65000), factor)

	_, err = baseFactorFor(25, 0)
	require.Error(t, err)
}
