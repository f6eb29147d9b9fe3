// =============================
// File: internal/dex/plan.go
// =============================
package dex

import (
	"github.com/gagliardetto/solana-go"
)

// InstructionGroup is an ordered slice of instructions that must be submitted
// together in one transaction. Instructions inside a group are order-dependent
// (create before initialize, wrap before transfer, add-liquidity before close)
// and must never be reordered or split.
type InstructionGroup struct {
	// Label names the group in logs ("pool-create", "seed-liquidity", "dev-buy").
	Label string

	Instructions []solana.Instruction

	// RequiredSigners lists every non-payer public key that must sign the
	// transaction built from this group. Precomputed here so the submitter
	// never has to re-derive signer sets from compiled account lists.
	RequiredSigners []solana.PublicKey
}

// RequiresSigner reports whether the group references the given signer.
func (g *InstructionGroup) RequiresSigner(key solana.PublicKey) bool {
	for _, s := range g.RequiredSigners {
		if s.Equals(key) {
			return true
		}
	}
	return false
}

// Plan is the output of a strategy: a predicted pool address plus the ordered
// instruction groups that create and seed it.
type Plan struct {
	// Pool is the deterministically derived pool address. The same token pair
	// and config always yield the same address, so it is known before submission.
	Pool solana.PublicKey

	// Market is set only by the legacy order-book strategy.
	Market solana.PublicKey

	Groups []InstructionGroup

	// ExtraSigners holds freshly generated keypairs (e.g. the position account)
	// that must sign alongside the payer. Scoped per group via RequiredSigners.
	ExtraSigners []solana.PrivateKey
}

// Instructions returns the flattened instruction list across all groups.
func (p *Plan) Instructions() []solana.Instruction {
	var out []solana.Instruction
	for _, g := range p.Groups {
		out = append(out, g.Instructions...)
	}
	return out
}

// Empty reports whether the plan carries no instructions at all. A degraded
// legacy plan is empty; callers must treat it as "nothing to submit", never as
// successful liquidity seeding.
func (p *Plan) Empty() bool {
	return len(p.Instructions()) == 0
}
