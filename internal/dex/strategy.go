// =============================
// File: internal/dex/strategy.go
// =============================
package dex

import (
	"context"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Protocol identifies one of the supported liquidity backends.
type Protocol string

const (
	ProtocolDLMM      Protocol = "dlmm"
	ProtocolCPMM      Protocol = "cpmm"
	ProtocolLegacyAMM Protocol = "legacy-amm"
)

// Strategy builds the instruction plan that bootstraps liquidity for a newly
// minted token on one DEX backend.
type Strategy interface {
	// Name returns the strategy label used in launch results and logs.
	Name() string
	// BuildPlan produces the full instruction plan for the given launch
	// parameters. Input validation errors are returned before any chain read.
	BuildPlan(ctx context.Context, params *LaunchParams) (*Plan, error)
}

// LaunchParams are the strategy-independent inputs to plan building.
type LaunchParams struct {
	Payer     solana.PublicKey
	TokenMint solana.PublicKey

	// SolAmount is the native seed amount in lamports.
	SolAmount uint64
	// TokenAmount is the token seed amount in raw units.
	TokenAmount uint64

	// AtomicBundle marks that the plan will be submitted as an all-or-nothing
	// bundle. A brand-new pool cannot have pre-existing bin arrays, so
	// strategies may skip on-chain existence reads and create idempotently.
	AtomicBundle bool
}

// ResolveProtocol maps the overlapping request fields onto exactly one
// protocol. The dex field uses "protocol:variant" form ("meteora:dlmm"),
// the strategy field is a legacy alias. Resolution is total: anything
// unrecognized falls back to the concentrated-liquidity default.
func ResolveProtocol(dexField, strategyAlias string) Protocol {
	if p, ok := parseSelector(dexField); ok {
		return p
	}
	if p, ok := parseSelector(strategyAlias); ok {
		return p
	}
	return ProtocolDLMM
}

func parseSelector(s string) (Protocol, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[i+1:]
	}
	switch s {
	case "dlmm", "concentrated", "meteora":
		return ProtocolDLMM, true
	case "cpmm", "damm", "constant-product":
		return ProtocolCPMM, true
	case "legacy-amm", "amm", "openbook", "raydium-amm":
		return ProtocolLegacyAMM, true
	}
	return "", false
}
