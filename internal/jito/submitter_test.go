// =============================
// File: internal/jito/submitter_test.go
// =============================
package jito

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/rmuradev/solana-launchpad/internal/dex"
)

type fakeChainClient struct {
	sent     []*solana.Transaction
	sendErrs []error
	confirm  []error
}

func (f *fakeChainClient) GetRecentBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{1}, nil
}

func (f *fakeChainClient) SendTransaction(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
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

func (f *fakeChainClient) ConfirmTransaction(context.Context, solana.Signature, time.Duration) error {
	if len(f.confirm) > 0 {
		err := f.confirm[0]
		f.confirm = f.confirm[1:]
		return err
	}
	return nil
}

// testPlan builds a two-group plan where only the first group references the
// position signer.
func testPlan(t *testing.T, payer solana.PrivateKey) (*dex.Plan, solana.PrivateKey) {
	t.Helper()

	position, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	program := solana.NewWallet().PublicKey()

	withPosition := solana.NewInstruction(program, []*solana.AccountMeta{
		solana.NewAccountMeta(payer.PublicKey(), true, true),
		solana.NewAccountMeta(position.PublicKey(), true, true),
	}, []byte{1})

	payerOnly := system.NewTransferInstruction(
		1000, payer.PublicKey(), solana.NewWallet().PublicKey(),
	).Build()

	return &dex.Plan{
		Pool: solana.NewWallet().PublicKey(),
		Groups: []dex.InstructionGroup{
			{
				Label:           "pool-create",
				Instructions:    []solana.Instruction{withPosition},
				RequiredSigners: []solana.PublicKey{position.PublicKey()},
			},
			{
				Label:        "seed-liquidity",
				Instructions: []solana.Instruction{payerOnly},
			},
		},
		ExtraSigners: []solana.PrivateKey{position},
	}, position
}

func newTestSubmitter(client ChainClient, bundles *BundleClient) *Submitter {
	return NewSubmitter(client, bundles, nil, zap.NewNop(), Config{
		MaxRetries:    3,
		RetryInterval: time.Millisecond,
	})
}

func TestSignerScoping(t *testing.T) {
	payer, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	plan, position := testPlan(t, payer)

	client := &fakeChainClient{}
	s := newTestSubmitter(client, nil)

	_, err = s.Submit(context.Background(), plan, payer, Options{Mode: ModeSequential})
	require.NoError(t, err)
	require.Len(t, client.sent, 2)

	// The first group references the position and carries both signatures.
	first := client.sent[0]
	assert.Len(t, first.Signatures, 2)
	require.NoError(t, first.VerifySignatures())

	// The second group never references the position: it must be fully valid
	// with the payer's signature alone.
	second := client.sent[1]
	assert.Len(t, second.Signatures, 1)
	require.NoError(t, second.VerifySignatures())
	assert.NotContains(t, second.Message.AccountKeys, position.PublicKey())
}

func TestSequentialPartialFailureSurfacesConfirmed(t *testing.T) {
	payer, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	plan, _ := testPlan(t, payer)

	client := &fakeChainClient{
		sendErrs: []error{nil, errors.New("custom program error: 0x1")},
	}
	s := newTestSubmitter(client, nil)

	_, err = s.Submit(context.Background(), plan, payer, Options{Mode: ModeSequential})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed-liquidity")
	assert.Contains(t, err.Error(), "already confirmed")
}

func TestSequentialRetriesTransientSendFailure(t *testing.T) {
	payer, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	plan, _ := testPlan(t, payer)

	client := &fakeChainClient{
		sendErrs: []error{errors.New("blockhash not found"), nil, nil},
	}
	s := newTestSubmitter(client, nil)

	result, err := s.Submit(context.Background(), plan, payer, Options{Mode: ModeSequential})
	require.NoError(t, err)
	assert.Len(t, result.Signatures, 2)
}

func TestSingleModeMergesGroups(t *testing.T) {
	payer, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	plan, _ := testPlan(t, payer)

	client := &fakeChainClient{}
	s := newTestSubmitter(client, nil)

	result, err := s.Submit(context.Background(), plan, payer, Options{Mode: ModeSingle})
	require.NoError(t, err)
	assert.Len(t, result.Signatures, 1)
	require.Len(t, client.sent, 1)
	assert.Len(t, client.sent[0].Message.Instructions, 2)
	require.NoError(t, client.sent[0].VerifySignatures())
}

func TestBundleModeAppendsTipToLastGroupOnly(t *testing.T) {
	payer, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	plan, _ := testPlan(t, payer)

	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"jsonrpc":"2.0","result":"bundle-123","id":1}`))
	}))
	defer srv.Close()

	bundles := &BundleClient{endpoint: srv.URL, http: srv.Client(), logger: zap.NewNop()}
	s := newTestSubmitter(&fakeChainClient{}, bundles)

	result, err := s.Submit(context.Background(), plan, payer, Options{Mode: ModeBundle, TipSOL: 0.001})
	require.NoError(t, err)
	assert.Equal(t, "bundle-123", result.BundleID)

	encoded := gjson.GetBytes(body, "params.0").Array()
	require.Len(t, encoded, 2)

	first := decodeTx(t, encoded[0].String())
	last := decodeTx(t, encoded[1].String())

	// One original instruction in each group; only the last gains the tip.
	assert.Len(t, first.Message.Instructions, 1)
	require.Len(t, last.Message.Instructions, 2)

	tip := last.Message.Instructions[1]
	program, err := last.Message.Program(tip.ProgramIDIndex)
	require.NoError(t, err)
	assert.Equal(t, solana.SystemProgramID, program)
	require.NoError(t, first.VerifySignatures())
	require.NoError(t, last.VerifySignatures())
}

func TestBundleModeRejectsOversizedPlans(t *testing.T) {
	c := &BundleClient{endpoint: "http://127.0.0.1:0", http: http.DefaultClient, logger: zap.NewNop()}
	_, err := c.SendBundle(context.Background(), make([]*solana.Transaction, 6))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "5-transaction limit")
}

func TestEmptyPlanRejected(t *testing.T) {
	payer, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	s := newTestSubmitter(&fakeChainClient{}, nil)
	_, err = s.Submit(context.Background(), &dex.Plan{}, payer, Options{Mode: ModeSequential})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to submit")
}

func decodeTx(t *testing.T, b64 string) *solana.Transaction {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	require.NoError(t, err)
	return tx
}
