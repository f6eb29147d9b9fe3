// =============================
// File: internal/launch/recover.go
// =============================
package launch

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"go.uber.org/zap"
)

// feeReserveLamports is held back from a sweep to pay the transfer fee.
const feeReserveLamports = 5000

// ErrNoFunds is returned when the payer balance cannot cover the fee reserve.
var ErrNoFunds = errors.New("No funds available to recover")

// SweepAmount computes how many lamports a recovery sweep would move.
func SweepAmount(balance uint64) (uint64, error) {
	if balance <= feeReserveLamports {
		return 0, ErrNoFunds
	}
	return balance - feeReserveLamports, nil
}

// RecoverFunds sweeps the payer's remaining balance to destination, minus the
// fee reserve. Intended for cleaning up after a launch that stranded funds in
// a partially completed state.
func (l *Launcher) RecoverFunds(ctx context.Context, destination solana.PublicKey) (solana.Signature, error) {
	owner := l.payer.PublicKey()

	balance, err := l.client.GetBalance(ctx, owner)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to fetch balance: %w", err)
	}
	amount, err := SweepAmount(balance)
	if err != nil {
		return solana.Signature{}, err
	}

	blockhash, err := l.client.GetRecentBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to fetch blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(amount, owner, destination).Build(),
		},
		blockhash,
		solana.TransactionPayer(owner),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to build recovery transaction: %w", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(owner) {
			return &l.payer
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign recovery transaction: %w", err)
	}

	sig, err := l.client.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("recovery transfer failed: %w", err)
	}
	if err := l.client.ConfirmTransaction(ctx, sig, l.confirmTimeout); err != nil {
		return solana.Signature{}, fmt.Errorf("recovery transfer failed: %w", err)
	}

	l.logger.Info("Recovered funds",
		zap.String("destination", destination.String()),
		zap.Uint64("lamports", amount),
		zap.String("signature", sig.String()))
	return sig, nil
}
