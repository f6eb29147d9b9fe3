// =============================
// File: internal/dex/ata.go
// =============================
package dex

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
)

var associatedTokenProgramID = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

// FindATA returns the associated token account for an owner and mint.
func FindATA(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	return ata, err
}

// NewCreateATAIdempotentInstruction creates an associated token account,
// succeeding silently when it already exists.
func NewCreateATAIdempotentInstruction(payer, owner, mint solana.PublicKey) solana.Instruction {
	ata, _, _ := solana.FindAssociatedTokenAddress(owner, mint)

	return solana.NewInstruction(
		associatedTokenProgramID,
		[]*solana.AccountMeta{
			{PublicKey: payer, IsWritable: true, IsSigner: true},
			{PublicKey: ata, IsWritable: true, IsSigner: false},
			{PublicKey: owner, IsWritable: false, IsSigner: false},
			{PublicKey: mint, IsWritable: false, IsSigner: false},
			{PublicKey: solana.SystemProgramID, IsWritable: false, IsSigner: false},
			{PublicKey: solana.TokenProgramID, IsWritable: false, IsSigner: false},
			{PublicKey: solana.SysVarRentPubkey, IsWritable: false, IsSigner: false},
		},
		[]byte{1}, // CreateIdempotent
	)
}

// WrapSOLInstructions tops up a wrapped-SOL token account: a native transfer
// into the account followed by the balance sync. Standard wrap pattern; the
// transfer must precede the sync.
func WrapSOLInstructions(owner, wsolAccount solana.PublicKey, lamports uint64) []solana.Instruction {
	transfer := system.NewTransferInstruction(lamports, owner, wsolAccount).Build()
	sync := token.NewSyncNativeInstruction(wsolAccount).Build()
	return []solana.Instruction{transfer, sync}
}

// NewCloseAccountInstruction closes a scratch token account, returning its
// lamports to the owner. Emitted in the last group that touches wrapped SOL.
func NewCloseAccountInstruction(account, owner solana.PublicKey) solana.Instruction {
	return token.NewCloseAccountInstruction(account, owner, owner, nil).Build()
}
