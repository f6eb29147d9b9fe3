// =============================
// File: internal/dex/dlmm/strategy_test.go
// =============================
package dlmm

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rmuradev/solana-launchpad/internal/dex"
)

type fakeAccountReader struct {
	called int
	exists []bool
	err    error
}

func (f *fakeAccountReader) AccountsExist(_ context.Context, keys []solana.PublicKey) ([]bool, error) {
	f.called++
	if f.err != nil {
		return nil, f.err
	}
	if f.exists != nil {
		return f.exists, nil
	}
	return make([]bool, len(keys)), nil
}

func testParams() *dex.LaunchParams {
	return &dex.LaunchParams{
		Payer:       solana.NewWallet().PublicKey(),
		TokenMint:   solana.NewWallet().PublicKey(),
		SolAmount:   1_000_000_000,
		TokenAmount: 100_000_000_000,
	}
}

func TestBuildPlanGroupOrdering(t *testing.T) {
	reader := &fakeAccountReader{}
	s := New(reader, zap.NewNop(), Config{})

	plan, err := s.BuildPlan(context.Background(), testParams())
	require.NoError(t, err)

	require.Len(t, plan.Groups, 2)
	assert.Equal(t, "pool-create", plan.Groups[0].Label)
	assert.Equal(t, "seed-liquidity", plan.Groups[1].Label)
	require.Len(t, plan.ExtraSigners, 1)

	// The native wrap opens the seed group, the scratch close ends it.
	seed := plan.Groups[1]
	require.GreaterOrEqual(t, len(seed.Instructions), 3)
	assert.Equal(t, solana.SystemProgramID, seed.Instructions[0].ProgramID())
	assert.Equal(t, solana.TokenProgramID, seed.Instructions[len(seed.Instructions)-1].ProgramID())
}

func TestBuildPlanDevBuyGroup(t *testing.T) {
	reader := &fakeAccountReader{}
	s := New(reader, zap.NewNop(), Config{DevBuySol: 50_000_000})

	plan, err := s.BuildPlan(context.Background(), testParams())
	require.NoError(t, err)

	require.Len(t, plan.Groups, 3)
	assert.Equal(t, "dev-buy", plan.Groups[2].Label)

	// With a dev-buy, the scratch close moves to the last group.
	devBuy := plan.Groups[2]
	assert.Equal(t, solana.TokenProgramID, devBuy.Instructions[len(devBuy.Instructions)-1].ProgramID())
	assert.Empty(t, devBuy.RequiredSigners)
}

func TestBuildPlanSignerScoping(t *testing.T) {
	reader := &fakeAccountReader{}
	s := New(reader, zap.NewNop(), Config{DevBuySol: 50_000_000})

	plan, err := s.BuildPlan(context.Background(), testParams())
	require.NoError(t, err)
	require.Len(t, plan.ExtraSigners, 1)

	position := plan.ExtraSigners[0].PublicKey()
	assert.True(t, plan.Groups[0].RequiresSigner(position))
	assert.True(t, plan.Groups[1].RequiresSigner(position))
	assert.False(t, plan.Groups[2].RequiresSigner(position))
}

func TestBuildPlanDeterministicPool(t *testing.T) {
	params := testParams()

	first, err := New(&fakeAccountReader{}, zap.NewNop(), Config{}).BuildPlan(context.Background(), params)
	require.NoError(t, err)
	second, err := New(&fakeAccountReader{}, zap.NewNop(), Config{}).BuildPlan(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, first.Pool, second.Pool)
}

func TestBuildPlanFeeOverMaxFailsBeforeNetwork(t *testing.T) {
	reader := &fakeAccountReader{}
	// Step 10 caps the base fee at 65.535 bps.
	s := New(reader, zap.NewNop(), Config{BinStep: 10, FeeBps: 100})

	_, err := s.BuildPlan(context.Background(), testParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")
	assert.Zero(t, reader.called, "validation failure must not reach the chain")
}

func TestBuildPlanOverWidthRangeFails(t *testing.T) {
	reader := &fakeAccountReader{}
	// At step 25, [0.001, 1000] spans thousands of bins.
	s := New(reader, zap.NewNop(), Config{
		Range: &PriceRange{Min: 0.001, Max: 1000},
	})

	_, err := s.BuildPlan(context.Background(), testParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bins")
	assert.Zero(t, reader.called)
}

func TestBuildPlanZeroAmountsRejected(t *testing.T) {
	s := New(&fakeAccountReader{}, zap.NewNop(), Config{})
	params := testParams()
	params.SolAmount = 0

	_, err := s.BuildPlan(context.Background(), params)
	require.Error(t, err)
}

func TestBuildPlanAtomicSkipsExistenceRead(t *testing.T) {
	reader := &fakeAccountReader{}
	s := New(reader, zap.NewNop(), Config{})

	params := testParams()
	params.AtomicBundle = true
	_, err := s.BuildPlan(context.Background(), params)
	require.NoError(t, err)
	assert.Zero(t, reader.called)

	params.AtomicBundle = false
	_, err = s.BuildPlan(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 1, reader.called)
}

func TestBuildPlanExistingArraysSkipped(t *testing.T) {
	// Default width spans two arrays; report the first as existing.
	reader := &fakeAccountReader{exists: []bool{true, false}}
	s := New(reader, zap.NewNop(), Config{})

	plan, err := s.BuildPlan(context.Background(), testParams())
	require.NoError(t, err)

	all := &fakeAccountReader{}
	basePlan, err := New(all, zap.NewNop(), Config{}).BuildPlan(context.Background(), testParams())
	require.NoError(t, err)

	assert.Equal(t, len(basePlan.Groups[0].Instructions)-1, len(plan.Groups[0].Instructions))
}

func TestBuildPlanUnknownPresetFails(t *testing.T) {
	s := New(&fakeAccountReader{}, zap.NewNop(), Config{Preset: "aggressive"})
	_, err := s.BuildPlan(context.Background(), testParams())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown preset")
}
