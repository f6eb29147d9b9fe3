// =============================
// File: internal/dex/legacyamm/strategy.go
// =============================
package legacyamm

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rmuradev/solana-launchpad/internal/dex"
)

// ProgramID is the mainnet legacy AMM program.
var ProgramID = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")

// PlaceholderPool is the sentinel pool id carried by a degraded plan. Callers
// branch on ErrDegraded, not on this value; it exists so logs stay readable.
var PlaceholderPool = solana.PublicKey{}

// ErrDegraded marks a plan-build failure inside the wrapped pool SDK. The
// returned plan is empty and must be treated as "nothing to submit".
var ErrDegraded = errors.New("legacy amm plan degraded")

// MarketCreator produces the order-book market the AMM pool settles against.
// Market creation is the expensive prerequisite that makes this strategy
// strictly slower than the others.
type MarketCreator interface {
	CreateLowCostMarket(ctx context.Context, baseMint, quoteMint solana.PublicKey, baseDecimals, quoteDecimals uint8) (solana.PublicKey, error)
}

// PoolSDK wraps the external AMM pool-creation call. The SDK returns a fully
// formed transaction envelope; this strategy only extracts its instructions.
type PoolSDK interface {
	BuildCreatePoolTransaction(ctx context.Context, market, baseMint, quoteMint, payer solana.PublicKey, baseAmount, quoteAmount uint64) (solana.PublicKey, *solana.Transaction, error)
}

// Config is the per-launch legacy AMM configuration.
type Config struct {
	// TokenDecimals is the decimal precision of the freshly minted token.
	TokenDecimals uint8
}

// Strategy builds order-book-backed AMM launch plans through an external SDK.
type Strategy struct {
	markets MarketCreator
	sdk     PoolSDK
	logger  *zap.Logger
	cfg     Config

	// market is recorded during BuildPlan for the launch result.
	market solana.PublicKey
}

// New creates the legacy AMM strategy.
func New(markets MarketCreator, sdk PoolSDK, logger *zap.Logger, cfg Config) *Strategy {
	return &Strategy{
		markets: markets,
		sdk:     sdk,
		logger:  logger.Named("legacy-amm"),
		cfg:     cfg,
	}
}

// Name implements dex.Strategy.
func (s *Strategy) Name() string {
	return "Raydium AMM"
}

// BuildPlan creates the order-book market, then wraps the external pool
// creation. Any SDK failure degrades to an empty plan with ErrDegraded
// instead of propagating, so the orchestrator can still report "nothing to
// submit" with full context.
func (s *Strategy) BuildPlan(ctx context.Context, params *dex.LaunchParams) (*dex.Plan, error) {
	if params.SolAmount == 0 || params.TokenAmount == 0 {
		return nil, fmt.Errorf("liquidity seeding requires positive sol and token amounts")
	}

	const wsolDecimals = 9
	market, err := s.markets.CreateLowCostMarket(ctx, params.TokenMint, solana.WrappedSol, s.cfg.TokenDecimals, wsolDecimals)
	if err != nil {
		// Market creation is a collaborator failure, not an SDK build
		// failure: propagate, do not degrade.
		return nil, fmt.Errorf("failed to create order book market: %w", err)
	}
	s.market = market

	pool, tx, err := s.sdk.BuildCreatePoolTransaction(ctx, market, params.TokenMint, solana.WrappedSol, params.Payer, params.TokenAmount, params.SolAmount)
	if err != nil {
		s.logger.Warn("Pool SDK failed, degrading to empty plan",
			zap.String("market", market.String()),
			zap.Error(err))
		return &dex.Plan{
			Pool:   PlaceholderPool,
			Market: market,
		}, fmt.Errorf("%w: %v", ErrDegraded, err)
	}

	instructions, err := extractInstructions(tx)
	if err != nil {
		s.logger.Warn("Could not extract instructions from SDK transaction",
			zap.String("market", market.String()),
			zap.Error(err))
		return &dex.Plan{
			Pool:   PlaceholderPool,
			Market: market,
		}, fmt.Errorf("%w: %v", ErrDegraded, err)
	}

	s.logger.Info("Built legacy AMM launch plan",
		zap.String("pool", pool.String()),
		zap.String("market", market.String()),
		zap.Int("instructions", len(instructions)))

	return &dex.Plan{
		Pool:   pool,
		Market: market,
		Groups: []dex.InstructionGroup{{
			Label:        "pool-create",
			Instructions: instructions,
		}},
	}, nil
}

// Market returns the order-book market created by the last BuildPlan call.
func (s *Strategy) Market() solana.PublicKey {
	return s.market
}

// extractInstructions unpacks the compiled message back into generic
// instructions. The SDK envelope is unsigned, so account flags can be
// recovered from the message header.
func extractInstructions(tx *solana.Transaction) ([]solana.Instruction, error) {
	if tx == nil {
		return nil, fmt.Errorf("sdk returned no transaction")
	}

	msg := &tx.Message
	out := make([]solana.Instruction, 0, len(msg.Instructions))
	for _, compiled := range msg.Instructions {
		programID, err := msg.Program(compiled.ProgramIDIndex)
		if err != nil {
			return nil, fmt.Errorf("invalid program index %d: %w", compiled.ProgramIDIndex, err)
		}
		metas := make([]*solana.AccountMeta, len(compiled.Accounts))
		for i, accountIndex := range compiled.Accounts {
			key, err := msg.Account(accountIndex)
			if err != nil {
				return nil, fmt.Errorf("invalid account index %d: %w", accountIndex, err)
			}
			writable, err := msg.IsWritable(key)
			if err != nil {
				return nil, fmt.Errorf("invalid account index %d: %w", accountIndex, err)
			}
			metas[i] = &solana.AccountMeta{
				PublicKey:  key,
				IsSigner:   msg.IsSigner(key),
				IsWritable: writable,
			}
		}
		out = append(out, solana.NewInstruction(programID, metas, compiled.Data))
	}
	return out, nil
}
