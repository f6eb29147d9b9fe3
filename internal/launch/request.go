// =============================
// File: internal/launch/request.go
// =============================
package launch

import (
	"fmt"
	"strconv"

	"github.com/rmuradev/solana-launchpad/internal/dex/cpmm"
	"github.com/rmuradev/solana-launchpad/internal/dex/dlmm"
	"github.com/rmuradev/solana-launchpad/internal/dex/legacyamm"
)

// TipAuto requests a live quote from the tip feed instead of a fixed amount.
const TipAuto = "auto"

// Market creation modes for the legacy order-book strategy.
const (
	MarketModeLowCost  = "low-cost"
	MarketModeStandard = "standard"
)

// Request describes one token launch. It is immutable once handed to the
// launcher.
type Request struct {
	// Token metadata.
	Name     string
	Symbol   string
	URI      string
	Decimals uint8
	// Supply is the initial supply in whole tokens.
	Supply uint64

	// Dex selects the backend in "protocol:variant" form ("meteora:dlmm").
	Dex string
	// Strategy is the legacy alias field; Dex wins when both are set.
	Strategy string

	// SolAmount is the native liquidity seed in lamports.
	SolAmount uint64
	// TokenAmount is the token liquidity seed in raw units.
	TokenAmount uint64

	// Tip is the block-engine tip policy: empty for none, "auto" for a live
	// quote, or a fixed amount in SOL ("0.002").
	Tip string
	// Network names the target cluster; bundles only make sense on mainnet.
	Network string
	// MarketMode picks the order-book creation tier for the legacy strategy.
	MarketMode string

	DLMM      dlmm.Config
	CPMM      cpmm.Config
	LegacyAMM legacyamm.Config
}

// Validate rejects malformed requests before any chain interaction.
func (r *Request) Validate() error {
	if r.Name == "" || r.Symbol == "" {
		return fmt.Errorf("token name and symbol are required")
	}
	if r.Supply == 0 {
		return fmt.Errorf("token supply must be positive")
	}
	if r.Decimals > 9 {
		return fmt.Errorf("token decimals %d exceeds maximum 9", r.Decimals)
	}
	// Every supported strategy seeds liquidity, so both amounts are required.
	if r.SolAmount == 0 || r.TokenAmount == 0 {
		return fmt.Errorf("liquidity seeding requires positive sol and token amounts")
	}
	if _, err := r.resolveTip(); err != nil {
		return err
	}
	switch r.MarketMode {
	case "", MarketModeLowCost, MarketModeStandard:
	default:
		return fmt.Errorf("unknown market mode %q", r.MarketMode)
	}
	return nil
}

// resolveTip parses the tip policy. The zero tipPolicy means no tip.
func (r *Request) resolveTip() (tipPolicy, error) {
	switch r.Tip {
	case "":
		return tipPolicy{}, nil
	case TipAuto:
		return tipPolicy{Present: true, Auto: true}, nil
	}
	v, err := strconv.ParseFloat(r.Tip, 64)
	if err != nil {
		return tipPolicy{}, fmt.Errorf("invalid tip %q: expected %q or an amount in SOL", r.Tip, TipAuto)
	}
	if v <= 0 {
		return tipPolicy{}, fmt.Errorf("tip must be positive, got %s", r.Tip)
	}
	return tipPolicy{Present: true, SOL: v}, nil
}

type tipPolicy struct {
	Present bool
	Auto    bool
	SOL     float64
}
