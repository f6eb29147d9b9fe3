// =============================
// File: internal/launch/recover_test.go
// =============================
package launch

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepAmount(t *testing.T) {
	amount, err := SweepAmount(100000)
	require.NoError(t, err)
	assert.Equal(t, uint64(95000), amount)

	_, err = SweepAmount(5000)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoFunds)
	assert.Equal(t, "No funds available to recover", err.Error())

	_, err = SweepAmount(0)
	assert.ErrorIs(t, err, ErrNoFunds)
}

func TestRecoverFundsBuildsExactTransfer(t *testing.T) {
	chain := &fakeChain{balance: 100000}
	l := newTestLauncher(chain, &fakeMinter{}, &fakeSubmitter{})

	sig, err := l.RecoverFunds(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.NotEqual(t, solana.Signature{}, sig)

	require.Len(t, chain.sent, 1)
	msg := chain.sent[0].Message
	require.Len(t, msg.Instructions, 1)

	// System transfer layout: u32 instruction index, then u64 lamports.
	data := msg.Instructions[0].Data
	require.Len(t, []byte(data), 12)
	assert.Equal(t, uint64(95000), binary.LittleEndian.Uint64(data[4:]))
}

func TestRecoverFundsFailsWhenNothingLeft(t *testing.T) {
	chain := &fakeChain{balance: 5000}
	l := newTestLauncher(chain, &fakeMinter{}, &fakeSubmitter{})

	_, err := l.RecoverFunds(context.Background(), solana.NewWallet().PublicKey())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoFunds)
	assert.Empty(t, chain.sent)
}
