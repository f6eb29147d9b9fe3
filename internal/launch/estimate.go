// =============================
// File: internal/launch/estimate.go
// =============================
package launch

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rmuradev/solana-launchpad/internal/dex"
	"github.com/rmuradev/solana-launchpad/internal/dex/dlmm"
)

// Per-strategy base fees in SOL: pool-creation rent and protocol fees,
// observed on mainnet and rounded up.
var (
	baseFeeDLMM           = decimal.RequireFromString("0.025")
	baseFeeCPMM           = decimal.RequireFromString("0.15")
	baseFeeLegacyLowCost  = decimal.RequireFromString("0.6")
	baseFeeLegacyStandard = decimal.RequireFromString("3.2")

	defaultTipSOL = decimal.RequireFromString("0.01")
	safetyBuffer  = decimal.RequireFromString("0.005")

	// binArrayRent is the rent for one bin-array account.
	binArrayRent = decimal.RequireFromString("0.07143744")
)

// defaultArraySpan is how many bin arrays the default symmetric position
// width touches; only arrays beyond it add rent to the estimate.
const defaultArraySpan = 2

// EstimateRequest are the inputs to the cost estimate. SolAmount and the tip
// are in SOL, not lamports.
type EstimateRequest struct {
	Protocol  dex.Protocol
	SolAmount float64
	// Tip follows the request tip policy: "", "auto", or SOL amount.
	Tip string
	// MarketMode applies to the legacy strategy only; empty means low-cost.
	MarketMode string
	// DLMM supplies the explicit price range, when present, so extra
	// bin-array rent can be counted.
	DLMM *dlmm.Config
}

// EstimateLaunchCost returns the expected total cost of a launch in SOL. It
// is pure: no network access, fully deterministic.
func EstimateLaunchCost(req EstimateRequest) (float64, error) {
	var base decimal.Decimal
	switch req.Protocol {
	case dex.ProtocolDLMM:
		base = baseFeeDLMM
	case dex.ProtocolCPMM:
		base = baseFeeCPMM
	case dex.ProtocolLegacyAMM:
		if req.MarketMode == MarketModeStandard {
			base = baseFeeLegacyStandard
		} else {
			base = baseFeeLegacyLowCost
		}
	default:
		return 0, fmt.Errorf("unknown protocol %q", req.Protocol)
	}

	tip := defaultTipSOL
	switch req.Tip {
	case "", TipAuto:
	default:
		parsed, err := decimal.NewFromString(req.Tip)
		if err != nil {
			return 0, fmt.Errorf("invalid tip %q: %w", req.Tip, err)
		}
		tip = parsed
	}

	total := base.
		Add(decimal.NewFromFloat(req.SolAmount)).
		Add(tip).
		Add(safetyBuffer)

	if req.Protocol == dex.ProtocolDLMM && req.DLMM != nil && req.DLMM.Range != nil {
		extra, err := extraBinArrays(*req.DLMM)
		if err != nil {
			return 0, err
		}
		if extra > 0 {
			total = total.Add(binArrayRent.Mul(decimal.NewFromInt(int64(extra))))
		}
	}

	out, _ := total.Float64()
	return out, nil
}

// extraBinArrays counts the bin arrays an explicit price range spans beyond
// the default width, using the same bin math as plan building.
func extraBinArrays(cfg dlmm.Config) (int, error) {
	resolved, err := dlmm.ResolveConfig(cfg)
	if err != nil {
		return 0, err
	}
	lower, err := dlmm.PriceToBin(resolved.Range.Min, resolved.BinStep)
	if err != nil {
		return 0, fmt.Errorf("invalid range minimum: %w", err)
	}
	upper, err := dlmm.PriceToBin(resolved.Range.Max, resolved.BinStep)
	if err != nil {
		return 0, fmt.Errorf("invalid range maximum: %w", err)
	}
	if lower > upper {
		lower, upper = upper, lower
	}

	span := int(dlmm.BinIDToArrayIndex(upper)-dlmm.BinIDToArrayIndex(lower)) + 1
	if span <= defaultArraySpan {
		return 0, nil
	}
	return span - defaultArraySpan, nil
}
