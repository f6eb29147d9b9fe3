// =============================
// File: internal/dex/cpmm/strategy.go
// =============================
package cpmm

import (
	"bytes"
	"context"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rmuradev/solana-launchpad/internal/dex"
)

// initialize discriminator extracted from the IDL
var initializeDiscriminator = []byte{175, 175, 109, 31, 13, 152, 155, 237}

// Config is the per-launch constant-product configuration.
type Config struct {
	// FeeTierIndex selects the protocol fee-tier config account.
	FeeTierIndex uint16
	// OpenTime delays trading start (unix seconds); zero opens immediately.
	OpenTime uint64
}

// Strategy builds constant-product launch plans. Unlike the concentrated
// variant there is no bin math and the whole launch fits one group.
type Strategy struct {
	logger *zap.Logger
	cfg    Config
}

// New creates the constant-product strategy.
func New(logger *zap.Logger, cfg Config) *Strategy {
	return &Strategy{
		logger: logger.Named("cpmm"),
		cfg:    cfg,
	}
}

// Name implements dex.Strategy.
func (s *Strategy) Name() string {
	return "Raydium CPMM"
}

type initializeArgs struct {
	InitAmount0 uint64
	InitAmount1 uint64
	OpenTime    uint64
}

// BuildPlan produces a single-group plan: scratch ATAs, the native wrap, the
// pool initialize carrying both seed amounts, and the scratch close.
func (s *Strategy) BuildPlan(_ context.Context, params *dex.LaunchParams) (*dex.Plan, error) {
	if params.SolAmount == 0 || params.TokenAmount == 0 {
		return nil, fmt.Errorf("liquidity seeding requires positive sol and token amounts")
	}

	wsol := solana.WrappedSol
	token0, token1 := params.TokenMint, wsol
	if bytes.Compare(wsol.Bytes(), params.TokenMint.Bytes()) < 0 {
		token0, token1 = wsol, params.TokenMint
	}
	amount0, amount1 := params.TokenAmount, params.SolAmount
	if token0.Equals(wsol) {
		amount0, amount1 = params.SolAmount, params.TokenAmount
	}

	ammConfig, err := DeriveAmmConfig(s.cfg.FeeTierIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to derive amm config: %w", err)
	}
	authority, err := DeriveAuthority()
	if err != nil {
		return nil, fmt.Errorf("failed to derive authority: %w", err)
	}
	pool, err := DerivePoolAddress(ammConfig, token0, token1)
	if err != nil {
		return nil, fmt.Errorf("failed to derive pool address: %w", err)
	}
	lpMint, err := DeriveLpMint(pool)
	if err != nil {
		return nil, err
	}
	vault0, err := DeriveVault(pool, token0)
	if err != nil {
		return nil, err
	}
	vault1, err := DeriveVault(pool, token1)
	if err != nil {
		return nil, err
	}
	observation, err := DeriveObservation(pool)
	if err != nil {
		return nil, err
	}

	creatorToken0, err := dex.FindATA(params.Payer, token0)
	if err != nil {
		return nil, err
	}
	creatorToken1, err := dex.FindATA(params.Payer, token1)
	if err != nil {
		return nil, err
	}
	creatorLp, err := dex.FindATA(params.Payer, lpMint)
	if err != nil {
		return nil, err
	}
	payerWSOL, err := dex.FindATA(params.Payer, wsol)
	if err != nil {
		return nil, err
	}

	instructions := []solana.Instruction{
		dex.NewCreateATAIdempotentInstruction(params.Payer, params.Payer, token0),
		dex.NewCreateATAIdempotentInstruction(params.Payer, params.Payer, token1),
	}
	instructions = append(instructions, dex.WrapSOLInstructions(params.Payer, payerWSOL, params.SolAmount)...)

	initialize, err := s.buildInitialize(initializeArgs{
		InitAmount0: amount0,
		InitAmount1: amount1,
		OpenTime:    s.cfg.OpenTime,
	}, initializeAccounts{
		Creator:       params.Payer,
		AmmConfig:     ammConfig,
		Authority:     authority,
		Pool:          pool,
		Token0Mint:    token0,
		Token1Mint:    token1,
		LpMint:        lpMint,
		CreatorToken0: creatorToken0,
		CreatorToken1: creatorToken1,
		CreatorLp:     creatorLp,
		Vault0:        vault0,
		Vault1:        vault1,
		Observation:   observation,
	})
	if err != nil {
		return nil, err
	}
	instructions = append(instructions,
		initialize,
		dex.NewCloseAccountInstruction(payerWSOL, params.Payer),
	)

	s.logger.Info("Built CPMM launch plan",
		zap.String("pool", pool.String()),
		zap.Uint64("amount0", amount0),
		zap.Uint64("amount1", amount1))

	return &dex.Plan{
		Pool: pool,
		Groups: []dex.InstructionGroup{{
			Label:        "pool-create",
			Instructions: instructions,
		}},
	}, nil
}

type initializeAccounts struct {
	Creator       solana.PublicKey
	AmmConfig     solana.PublicKey
	Authority     solana.PublicKey
	Pool          solana.PublicKey
	Token0Mint    solana.PublicKey
	Token1Mint    solana.PublicKey
	LpMint        solana.PublicKey
	CreatorToken0 solana.PublicKey
	CreatorToken1 solana.PublicKey
	CreatorLp     solana.PublicKey
	Vault0        solana.PublicKey
	Vault1        solana.PublicKey
	Observation   solana.PublicKey
}

func (s *Strategy) buildInitialize(args initializeArgs, acc initializeAccounts) (solana.Instruction, error) {
	buf := new(bytes.Buffer)
	buf.Write(initializeDiscriminator)
	if err := bin.NewBorshEncoder(buf).Encode(args); err != nil {
		return nil, fmt.Errorf("failed to encode initialize args: %w", err)
	}

	metas := []*solana.AccountMeta{
		solana.NewAccountMeta(acc.Creator, true, true),
		solana.NewAccountMeta(acc.AmmConfig, false, false),
		solana.NewAccountMeta(acc.Authority, false, false),
		solana.NewAccountMeta(acc.Pool, true, false),
		solana.NewAccountMeta(acc.Token0Mint, false, false),
		solana.NewAccountMeta(acc.Token1Mint, false, false),
		solana.NewAccountMeta(acc.LpMint, true, false),
		solana.NewAccountMeta(acc.CreatorToken0, true, false),
		solana.NewAccountMeta(acc.CreatorToken1, true, false),
		solana.NewAccountMeta(acc.CreatorLp, true, false),
		solana.NewAccountMeta(acc.Vault0, true, false),
		solana.NewAccountMeta(acc.Vault1, true, false),
		solana.NewAccountMeta(CreatePoolFeeReceiver, true, false),
		solana.NewAccountMeta(acc.Observation, true, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(solana.SPLAssociatedTokenAccountProgramID, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(solana.SysVarRentPubkey, false, false),
	}
	return solana.NewInstruction(ProgramID, metas, buf.Bytes()), nil
}
