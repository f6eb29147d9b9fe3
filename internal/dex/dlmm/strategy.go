// =============================
// File: internal/dex/dlmm/strategy.go
// =============================
package dlmm

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rmuradev/solana-launchpad/internal/dex"
)

// AccountReader is the read surface the strategy needs from the chain:
// a batched existence check for bin-array accounts.
type AccountReader interface {
	AccountsExist(ctx context.Context, keys []solana.PublicKey) ([]bool, error)
}

// Strategy builds concentrated-liquidity launch plans.
type Strategy struct {
	client AccountReader
	logger *zap.Logger
	cfg    Config
}

// New creates the concentrated-liquidity strategy.
func New(client AccountReader, logger *zap.Logger, cfg Config) *Strategy {
	return &Strategy{
		client: client,
		logger: logger.Named("dlmm"),
		cfg:    cfg,
	}
}

// Name implements dex.Strategy.
func (s *Strategy) Name() string {
	return "Meteora DLMM"
}

// BuildPlan produces the 2-3 group instruction plan: pool creation, liquidity
// seeding, and an optional dev-buy. All input validation happens before any
// chain read.
func (s *Strategy) BuildPlan(ctx context.Context, params *dex.LaunchParams) (*dex.Plan, error) {
	if params.SolAmount == 0 || params.TokenAmount == 0 {
		return nil, fmt.Errorf("liquidity seeding requires positive sol and token amounts")
	}

	cfg, err := ResolveConfig(s.cfg)
	if err != nil {
		return nil, err
	}
	baseFactor, err := baseFactorFor(cfg.FeeBps, cfg.BinStep)
	if err != nil {
		return nil, err
	}
	activationType, activationPoint, err := cfg.Activation.Resolve()
	if err != nil {
		return nil, err
	}

	wsol := solana.WrappedSol
	tokenX, tokenY := SortTokenMints(wsol, params.TokenMint)
	solIsX := tokenX.Equals(wsol)

	// Seed price is Y per X. The request expresses it as SOL per token, so it
	// inverts when wrapped SOL byte-sorts as token X.
	price := float64(params.SolAmount) / float64(params.TokenAmount)
	if solIsX {
		price = 1 / price
	}
	activeBin, err := PriceToBin(price, cfg.BinStep)
	if err != nil {
		return nil, err
	}

	lowerBin, upperBin, err := s.resolveBinRange(cfg, activeBin, solIsX)
	if err != nil {
		return nil, err
	}
	binCount := upperBin - lowerBin + 1

	pool, err := DerivePoolAddress(tokenX, tokenY, cfg.BinStep, baseFactor)
	if err != nil {
		return nil, fmt.Errorf("failed to derive pool address: %w", err)
	}
	accounts, err := s.deriveAccounts(pool, tokenX, tokenY, params.Payer, params.TokenMint, wsol)
	if err != nil {
		return nil, err
	}

	position, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate position keypair: %w", err)
	}

	createGroup, err := s.buildCreateGroup(ctx, cfg, params, accounts, position.PublicKey(), activeBin, lowerBin, upperBin, activationType, activationPoint, baseFactor)
	if err != nil {
		return nil, err
	}

	devBuy := cfg.DevBuySol > 0
	seedGroup, err := s.buildSeedGroup(cfg, params, accounts, position.PublicKey(), activeBin, lowerBin, upperBin, binCount, solIsX, !devBuy)
	if err != nil {
		return nil, err
	}

	groups := []dex.InstructionGroup{createGroup, seedGroup}
	if devBuy {
		buyGroup, err := s.buildDevBuyGroup(cfg, accounts, activeBin)
		if err != nil {
			return nil, err
		}
		groups = append(groups, buyGroup)
	}

	s.logger.Info("Built DLMM launch plan",
		zap.String("pool", pool.String()),
		zap.Int32("active_bin", activeBin),
		zap.Int32("lower_bin", lowerBin),
		zap.Int32("upper_bin", upperBin),
		zap.Int("groups", len(groups)))

	return &dex.Plan{
		Pool:         pool,
		Groups:       groups,
		ExtraSigners: []solana.PrivateKey{position},
	}, nil
}

// resolveBinRange converts the explicit price range into bins, or defaults to
// a symmetric window around the active bin. Fails fast on over-width ranges.
func (s *Strategy) resolveBinRange(cfg Config, activeBin int32, solIsX bool) (int32, int32, error) {
	if cfg.Range != nil {
		minPrice, maxPrice := cfg.Range.Min, cfg.Range.Max
		if solIsX {
			minPrice, maxPrice = 1/cfg.Range.Max, 1/cfg.Range.Min
		}
		lower, err := PriceToBin(minPrice, cfg.BinStep)
		if err != nil {
			return 0, 0, err
		}
		upper, err := PriceToBin(maxPrice, cfg.BinStep)
		if err != nil {
			return 0, 0, err
		}
		if lower > upper {
			lower, upper = upper, lower
		}
		if count := upper - lower + 1; count > MaxBinPerPosition {
			return 0, 0, fmt.Errorf("price range spans %d bins, a single position covers at most %d; widen the bin step or narrow the range", count, MaxBinPerPosition)
		}
		return lower, upper, nil
	}

	width := cfg.PositionWidth
	if width > MaxBinPerPosition {
		return 0, 0, fmt.Errorf("position width %d exceeds the %d-bin position limit", width, MaxBinPerPosition)
	}
	if width < 1 {
		return 0, 0, fmt.Errorf("position width must be at least 1 bin, got %d", width)
	}
	lower := activeBin - (width-1)/2
	return lower, lower + width - 1, nil
}

type poolAccounts struct {
	payer           solana.PublicKey
	pool            solana.PublicKey
	bitmapExtension solana.PublicKey
	oracle          solana.PublicKey
	tokenX          solana.PublicKey
	tokenY          solana.PublicKey
	reserveX        solana.PublicKey
	reserveY        solana.PublicKey
	payerTokenX     solana.PublicKey
	payerTokenY     solana.PublicKey
	payerWSOL       solana.PublicKey
	payerToken      solana.PublicKey
}

func (s *Strategy) deriveAccounts(pool, tokenX, tokenY, payer, tokenMint, wsol solana.PublicKey) (*poolAccounts, error) {
	reserveX, err := DeriveReserve(pool, tokenX)
	if err != nil {
		return nil, fmt.Errorf("failed to derive reserve X: %w", err)
	}
	reserveY, err := DeriveReserve(pool, tokenY)
	if err != nil {
		return nil, fmt.Errorf("failed to derive reserve Y: %w", err)
	}
	oracle, err := DeriveOracle(pool)
	if err != nil {
		return nil, fmt.Errorf("failed to derive oracle: %w", err)
	}
	bitmap, err := DeriveBitmapExtension(pool)
	if err != nil {
		return nil, fmt.Errorf("failed to derive bitmap extension: %w", err)
	}
	payerTokenX, err := dex.FindATA(payer, tokenX)
	if err != nil {
		return nil, err
	}
	payerTokenY, err := dex.FindATA(payer, tokenY)
	if err != nil {
		return nil, err
	}
	payerWSOL, err := dex.FindATA(payer, wsol)
	if err != nil {
		return nil, err
	}
	payerToken, err := dex.FindATA(payer, tokenMint)
	if err != nil {
		return nil, err
	}
	return &poolAccounts{
		payer:           payer,
		pool:            pool,
		bitmapExtension: bitmap,
		oracle:          oracle,
		tokenX:          tokenX,
		tokenY:          tokenY,
		reserveX:        reserveX,
		reserveY:        reserveY,
		payerTokenX:     payerTokenX,
		payerTokenY:     payerTokenY,
		payerWSOL:       payerWSOL,
		payerToken:      payerToken,
	}, nil
}

// buildCreateGroup emits the pool-initialize, the bin-array coverage, the
// position account and the idempotent ATAs.
func (s *Strategy) buildCreateGroup(
	ctx context.Context,
	cfg Config,
	params *dex.LaunchParams,
	acc *poolAccounts,
	position solana.PublicKey,
	activeBin, lowerBin, upperBin int32,
	activationType uint8,
	activationPoint *uint64,
	baseFactor uint16,
) (dex.InstructionGroup, error) {
	var instructions []solana.Instruction

	initPair, err := NewInitializePairInstruction(InitializePairParams{
		ActiveID:        activeBin,
		BinStep:         cfg.BinStep,
		BaseFactor:      baseFactor,
		ActivationType:  activationType,
		ActivationPoint: activationPoint,
	}, InitializePairAccounts{
		Pool:            acc.pool,
		BitmapExtension: acc.bitmapExtension,
		TokenMintX:      acc.tokenX,
		TokenMintY:      acc.tokenY,
		ReserveX:        acc.reserveX,
		ReserveY:        acc.reserveY,
		Oracle:          acc.oracle,
		UserTokenX:      acc.payerTokenX,
		UserTokenY:      acc.payerTokenY,
		Funder:          params.Payer,
	})
	if err != nil {
		return dex.InstructionGroup{}, err
	}
	instructions = append(instructions, initPair)

	arrayInstructions, err := s.binArrayCoverage(ctx, params, acc.pool, lowerBin, upperBin)
	if err != nil {
		return dex.InstructionGroup{}, err
	}
	instructions = append(instructions, arrayInstructions...)

	initPosition, err := NewInitializePositionInstruction(
		params.Payer, position, acc.pool, params.Payer,
		lowerBin, upperBin-lowerBin+1,
	)
	if err != nil {
		return dex.InstructionGroup{}, err
	}
	instructions = append(instructions,
		initPosition,
		dex.NewCreateATAIdempotentInstruction(params.Payer, params.Payer, acc.tokenX),
		dex.NewCreateATAIdempotentInstruction(params.Payer, params.Payer, acc.tokenY),
	)

	return dex.InstructionGroup{
		Label:           "pool-create",
		Instructions:    instructions,
		RequiredSigners: []solana.PublicKey{position},
	}, nil
}

// binArrayCoverage emits an initialize instruction for every spanned array
// that does not already exist. Existence is read in one batched call; when
// the plan targets an atomic bundle a brand-new pool cannot have pre-existing
// arrays, so the read is skipped and creation relies on the fresh state.
func (s *Strategy) binArrayCoverage(ctx context.Context, params *dex.LaunchParams, pool solana.PublicKey, lowerBin, upperBin int32) ([]solana.Instruction, error) {
	indexes := ArrayIndexRange(lowerBin, upperBin)
	addresses := make([]solana.PublicKey, len(indexes))
	for i, idx := range indexes {
		addr, err := DeriveBinArray(pool, idx)
		if err != nil {
			return nil, fmt.Errorf("failed to derive bin array %d: %w", idx, err)
		}
		addresses[i] = addr
	}

	exists := make([]bool, len(indexes))
	if !params.AtomicBundle {
		var err error
		exists, err = s.client.AccountsExist(ctx, addresses)
		if err != nil {
			return nil, fmt.Errorf("failed to check bin array existence: %w", err)
		}
	}

	var instructions []solana.Instruction
	for i, idx := range indexes {
		if exists[i] {
			continue
		}
		ix, err := NewInitializeBinArrayInstruction(pool, addresses[i], params.Payer, idx)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, ix)
	}
	return instructions, nil
}

// buildSeedGroup wraps the native side and adds the liquidity. closeWSOL is
// false when a dev-buy group follows, which then owns the scratch-account
// close.
func (s *Strategy) buildSeedGroup(
	cfg Config,
	params *dex.LaunchParams,
	acc *poolAccounts,
	position solana.PublicKey,
	activeBin, lowerBin, upperBin, binCount int32,
	solIsX bool,
	closeWSOL bool,
) (dex.InstructionGroup, error) {
	instructions := dex.WrapSOLInstructions(params.Payer, acc.payerWSOL, params.SolAmount)

	amountX, amountY := params.TokenAmount, params.SolAmount
	if solIsX {
		amountX, amountY = params.SolAmount, params.TokenAmount
	}

	lowerArray, err := DeriveBinArray(acc.pool, BinIDToArrayIndex(lowerBin))
	if err != nil {
		return dex.InstructionGroup{}, err
	}
	upperArray, err := DeriveBinArray(acc.pool, BinIDToArrayIndex(upperBin))
	if err != nil {
		return dex.InstructionGroup{}, err
	}
	liqAccounts := LiquidityAccounts{
		Position:        position,
		Pool:            acc.pool,
		BitmapExtension: acc.bitmapExtension,
		UserTokenX:      acc.payerTokenX,
		UserTokenY:      acc.payerTokenY,
		ReserveX:        acc.reserveX,
		ReserveY:        acc.reserveY,
		TokenMintX:      acc.tokenX,
		TokenMintY:      acc.tokenY,
		BinArrayLower:   lowerArray,
		BinArrayUpper:   upperArray,
		Sender:          params.Payer,
	}

	var addLiquidity solana.Instruction
	if cfg.Range != nil && binCount <= MaxBinPerWeightInstruction {
		weights, err := DistributeLiquidity(activeBin, lowerBin, upperBin, cfg.Curvature)
		if err != nil {
			return dex.InstructionGroup{}, err
		}
		addLiquidity, err = NewAddLiquidityByWeightInstruction(liqAccounts, amountX, amountY, activeBin, weights)
		if err != nil {
			return dex.InstructionGroup{}, err
		}
	} else {
		if cfg.Range != nil {
			s.logger.Debug("Range too wide for weighted seeding, falling back to shape",
				zap.Int32("bin_count", binCount),
				zap.Int("limit", MaxBinPerWeightInstruction))
		}
		addLiquidity, err = NewAddLiquidityByStrategyInstruction(liqAccounts, amountX, amountY, activeBin, lowerBin, upperBin, cfg.Shape)
		if err != nil {
			return dex.InstructionGroup{}, err
		}
	}
	instructions = append(instructions, addLiquidity)

	if closeWSOL {
		instructions = append(instructions, dex.NewCloseAccountInstruction(acc.payerWSOL, params.Payer))
	}

	return dex.InstructionGroup{
		Label:           "seed-liquidity",
		Instructions:    instructions,
		RequiredSigners: []solana.PublicKey{position},
	}, nil
}

// buildDevBuyGroup tops the scratch account back up, swaps it for the new
// token and closes the scratch account.
func (s *Strategy) buildDevBuyGroup(cfg Config, acc *poolAccounts, activeBin int32) (dex.InstructionGroup, error) {
	activeArray, err := DeriveBinArray(acc.pool, BinIDToArrayIndex(activeBin))
	if err != nil {
		return dex.InstructionGroup{}, err
	}

	swapAccounts := SwapAccounts{
		Pool:            acc.pool,
		BitmapExtension: acc.bitmapExtension,
		ReserveX:        acc.reserveX,
		ReserveY:        acc.reserveY,
		UserTokenIn:     acc.payerWSOL,
		UserTokenOut:    acc.payerToken,
		TokenMintX:      acc.tokenX,
		TokenMintY:      acc.tokenY,
		Oracle:          acc.oracle,
		BinArray:        activeArray,
		User:            acc.payer,
	}

	instructions := dex.WrapSOLInstructions(acc.payer, acc.payerWSOL, cfg.DevBuySol)
	swap, err := NewSwapInstruction(swapAccounts, cfg.DevBuySol, 0)
	if err != nil {
		return dex.InstructionGroup{}, err
	}
	instructions = append(instructions,
		swap,
		dex.NewCloseAccountInstruction(acc.payerWSOL, acc.payer),
	)

	return dex.InstructionGroup{
		Label:        "dev-buy",
		Instructions: instructions,
	}, nil
}
