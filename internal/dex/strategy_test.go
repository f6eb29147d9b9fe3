// =============================
// File: internal/dex/strategy_test.go
// =============================
package dex

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
)

func TestResolveProtocol(t *testing.T) {
	tests := []struct {
		name     string
		dex      string
		strategy string
		want     Protocol
	}{
		{"dex protocol:variant form", "meteora:dlmm", "", ProtocolDLMM},
		{"dex plain", "cpmm", "", ProtocolCPMM},
		{"dex with variant prefix", "raydium:cpmm", "", ProtocolCPMM},
		{"legacy alias", "", "openbook", ProtocolLegacyAMM},
		{"legacy raydium-amm alias", "", "raydium-amm", ProtocolLegacyAMM},
		{"damm alias", "meteora:damm", "", ProtocolCPMM},
		{"dex wins over strategy", "meteora:dlmm", "cpmm", ProtocolDLMM},
		{"unrecognized dex falls through to strategy", "unknown:thing", "amm", ProtocolLegacyAMM},
		{"case and whitespace insensitive", "  Meteora:DLMM ", "", ProtocolDLMM},
		{"both empty defaults to dlmm", "", "", ProtocolDLMM},
		{"both unrecognized defaults to dlmm", "bogus", "nonsense", ProtocolDLMM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveProtocol(tt.dex, tt.strategy))
		})
	}
}

func TestInstructionGroupRequiresSigner(t *testing.T) {
	position := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()

	group := InstructionGroup{RequiredSigners: []solana.PublicKey{position}}
	assert.True(t, group.RequiresSigner(position))
	assert.False(t, group.RequiresSigner(other))

	empty := InstructionGroup{}
	assert.False(t, empty.RequiresSigner(position))
}

func TestPlanInstructionsFlattensGroups(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	ixA := NewCreateATAIdempotentInstruction(payer, payer, solana.WrappedSol)
	ixB := NewCloseAccountInstruction(payer, payer)

	plan := &Plan{Groups: []InstructionGroup{
		{Label: "a", Instructions: []solana.Instruction{ixA}},
		{Label: "b", Instructions: []solana.Instruction{ixB}},
	}}

	flat := plan.Instructions()
	assert.Len(t, flat, 2)
	assert.False(t, plan.Empty())
	assert.True(t, (&Plan{}).Empty())
}
