// =============================
// File: internal/token/minter_test.go
// =============================
package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChain struct {
	sent     []*solana.Transaction
	sendErrs []error
}

func (f *fakeChain) GetRecentBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{1}, nil
}

func (f *fakeChain) SendTransaction(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if len(f.sendErrs) > 0 {
		err := f.sendErrs[0]
		f.sendErrs = f.sendErrs[1:]
		if err != nil {
			return solana.Signature{}, err
		}
	}
	f.sent = append(f.sent, tx)
	return solana.Signature{byte(len(f.sent))}, nil
}

func (f *fakeChain) ConfirmTransaction(context.Context, solana.Signature, time.Duration) error {
	return nil
}

func (f *fakeChain) GetMinimumBalanceForRentExemption(context.Context, uint64) (uint64, error) {
	return 1_461_600, nil
}

func newTestMinter(t *testing.T, chain ChainClient) *Minter {
	t.Helper()
	payer, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return NewMinter(chain, payer, zap.NewNop())
}

func TestCreateTokenSingleTransaction(t *testing.T) {
	chain := &fakeChain{}
	m := newTestMinter(t, chain)

	mint, sig, err := m.CreateToken(context.Background(), Params{
		Name:     "Example",
		Symbol:   "EXM",
		URI:      "https://example.com/meta.json",
		Decimals: 9,
		Supply:   1_000_000,
	})
	require.NoError(t, err)
	assert.False(t, mint.IsZero())
	assert.NotEqual(t, solana.Signature{}, sig)

	// Everything lands in one transaction: create, init, metadata, ata, mint.
	require.Len(t, chain.sent, 1)
	tx := chain.sent[0]
	assert.Len(t, tx.Message.Instructions, 5)

	// Both the payer and the fresh mint keypair must have signed.
	assert.Len(t, tx.Signatures, 2)
	require.NoError(t, tx.VerifySignatures())
}

func TestCreateTokenRejectsBadParams(t *testing.T) {
	m := newTestMinter(t, &fakeChain{})

	_, _, err := m.CreateToken(context.Background(), Params{Symbol: "EXM", Supply: 0})
	require.Error(t, err)

	_, _, err = m.CreateToken(context.Background(), Params{Symbol: "EXM", Supply: 1, Decimals: 10})
	require.Error(t, err)
}

func TestRevokeAuthoritiesSequential(t *testing.T) {
	chain := &fakeChain{}
	m := newTestMinter(t, chain)

	err := m.RevokeAuthorities(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)

	// One transaction per authority, in order: mint, then freeze.
	require.Len(t, chain.sent, 2)
	for _, tx := range chain.sent {
		assert.Len(t, tx.Message.Instructions, 1)
	}
}

func TestRevokeAuthoritiesFailFast(t *testing.T) {
	chain := &fakeChain{sendErrs: []error{errors.New("authority already revoked")}}
	m := newTestMinter(t, chain)

	err := m.RevokeAuthorities(context.Background(), solana.NewWallet().PublicKey())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mint authority")
	assert.Empty(t, chain.sent, "the freeze revocation must not run after a failed mint revocation")
}
