// ==================================
// File: internal/wallet/wallet_test.go
// ==================================
package wallet

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWallet(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	w, err := NewWallet(key.String())
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), w.PublicKey)
	assert.Equal(t, key.PublicKey().String(), w.String())
}

func TestNewWalletRejectsBadKeys(t *testing.T) {
	_, err := NewWallet("not-base58!!!")
	require.Error(t, err)

	// Valid base58, wrong length.
	_, err = NewWallet("3yZe7d")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "length")
}

func TestGetATACached(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w, err := NewWallet(key.String())
	require.NoError(t, err)

	mint := solana.NewWallet().PublicKey()
	first, err := w.GetATA(mint)
	require.NoError(t, err)

	expected, _, err := solana.FindAssociatedTokenAddress(w.PublicKey, mint)
	require.NoError(t, err)
	assert.Equal(t, expected, first)

	second, err := w.GetATA(mint)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSignTransaction(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w, err := NewWallet(key.String())
	require.NoError(t, err)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			solana.NewInstruction(
				solana.SystemProgramID,
				[]*solana.AccountMeta{{PublicKey: w.PublicKey, IsWritable: true, IsSigner: true}},
				[]byte{0},
			),
		},
		solana.Hash{1},
		solana.TransactionPayer(w.PublicKey),
	)
	require.NoError(t, err)

	require.NoError(t, w.SignTransaction(tx))
	require.NoError(t, tx.VerifySignatures())
}
