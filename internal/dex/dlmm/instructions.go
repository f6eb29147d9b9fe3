// =============================
// File: internal/dex/dlmm/instructions.go
// =============================
package dlmm

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Instruction discriminators extracted from the IDL
var (
	initializePairDiscriminator     = []byte{46, 39, 41, 135, 111, 183, 200, 64}
	initializeBinArrayDiscriminator = []byte{35, 86, 19, 185, 78, 212, 75, 211}
	initializePositionDiscriminator = []byte{219, 192, 234, 71, 190, 191, 102, 80}
	addLiquidityByWeightDisc        = []byte{28, 140, 238, 99, 231, 162, 21, 149}
	addLiquidityByStrategyDisc      = []byte{7, 3, 150, 127, 148, 40, 61, 200}
	swapDiscriminator               = []byte{248, 198, 158, 145, 225, 117, 135, 200}
)

// Activation types understood by the program.
const (
	ActivationBySlot      uint8 = 0
	ActivationByTimestamp uint8 = 1
)

// Shape-based seeding strategies used when the range is too wide for
// per-bin weights.
const (
	StrategySpot   uint8 = 0
	StrategyCurve  uint8 = 1
	StrategyBidAsk uint8 = 2
)

func encodeArgs(discriminator []byte, args interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(discriminator)
	if args != nil {
		if err := bin.NewBorshEncoder(buf).Encode(args); err != nil {
			return nil, fmt.Errorf("failed to encode instruction args: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// InitializePairParams are the pool-initialize arguments. ActivationPoint nil
// means the pool trades immediately at creation.
type InitializePairParams struct {
	ActiveID        int32
	BinStep         uint16
	BaseFactor      uint16
	ActivationType  uint8
	ActivationPoint *uint64 `bin:"optional"`
}

// InitializePairAccounts lists every account the pool-initialize touches.
type InitializePairAccounts struct {
	Pool            solana.PublicKey
	BitmapExtension solana.PublicKey
	TokenMintX      solana.PublicKey
	TokenMintY      solana.PublicKey
	ReserveX        solana.PublicKey
	ReserveY        solana.PublicKey
	Oracle          solana.PublicKey
	UserTokenX      solana.PublicKey
	UserTokenY      solana.PublicKey
	Funder          solana.PublicKey
}

// NewInitializePairInstruction builds the customizable pool-initialize
// instruction carrying the activation schedule.
func NewInitializePairInstruction(params InitializePairParams, acc InitializePairAccounts) (solana.Instruction, error) {
	data, err := encodeArgs(initializePairDiscriminator, params)
	if err != nil {
		return nil, err
	}

	metas := []*solana.AccountMeta{
		solana.NewAccountMeta(acc.Pool, true, false),
		solana.NewAccountMeta(acc.BitmapExtension, true, false),
		solana.NewAccountMeta(acc.TokenMintX, false, false),
		solana.NewAccountMeta(acc.TokenMintY, false, false),
		solana.NewAccountMeta(acc.ReserveX, true, false),
		solana.NewAccountMeta(acc.ReserveY, true, false),
		solana.NewAccountMeta(acc.Oracle, true, false),
		solana.NewAccountMeta(acc.UserTokenX, false, false),
		solana.NewAccountMeta(acc.Funder, true, true),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(acc.UserTokenY, false, false),
		solana.NewAccountMeta(DeriveEventAuthority(), false, false),
		solana.NewAccountMeta(ProgramID, false, false),
	}
	return solana.NewInstruction(ProgramID, metas, data), nil
}

type initializeBinArrayArgs struct {
	Index int64
}

// NewInitializeBinArrayInstruction creates the bin-array account for one
// array index. Creating an already-existing array fails on-chain, so callers
// either pre-check existence or only emit this for brand-new pools.
func NewInitializeBinArrayInstruction(pool, binArray, funder solana.PublicKey, index int64) (solana.Instruction, error) {
	data, err := encodeArgs(initializeBinArrayDiscriminator, initializeBinArrayArgs{Index: index})
	if err != nil {
		return nil, err
	}

	metas := []*solana.AccountMeta{
		solana.NewAccountMeta(pool, false, false),
		solana.NewAccountMeta(binArray, true, false),
		solana.NewAccountMeta(funder, true, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}
	return solana.NewInstruction(ProgramID, metas, data), nil
}

type initializePositionArgs struct {
	LowerBinID int32
	Width      int32
}

// NewInitializePositionInstruction binds a freshly generated position keypair
// to the pool and bin range. The position key must co-sign the transaction.
func NewInitializePositionInstruction(payer, position, pool, owner solana.PublicKey, lowerBinID, width int32) (solana.Instruction, error) {
	data, err := encodeArgs(initializePositionDiscriminator, initializePositionArgs{
		LowerBinID: lowerBinID,
		Width:      width,
	})
	if err != nil {
		return nil, err
	}

	metas := []*solana.AccountMeta{
		solana.NewAccountMeta(payer, true, true),
		solana.NewAccountMeta(position, true, true),
		solana.NewAccountMeta(pool, false, false),
		solana.NewAccountMeta(owner, false, true),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(solana.SysVarRentPubkey, false, false),
		solana.NewAccountMeta(DeriveEventAuthority(), false, false),
		solana.NewAccountMeta(ProgramID, false, false),
	}
	return solana.NewInstruction(ProgramID, metas, data), nil
}

// binDistribution mirrors the program's BinLiquidityDistributionByWeight.
type binDistribution struct {
	BinID  int32
	Weight uint16
}

type addLiquidityByWeightArgs struct {
	AmountX              uint64
	AmountY              uint64
	ActiveID             int32
	MaxActiveBinSlippage int32
	Distribution         []binDistribution
}

type strategyParameters struct {
	MinBinID     int32
	MaxBinID     int32
	StrategyType uint8
	Padding      [64]uint8
}

type addLiquidityByStrategyArgs struct {
	AmountX              uint64
	AmountY              uint64
	ActiveID             int32
	MaxActiveBinSlippage int32
	Strategy             strategyParameters
}

// LiquidityAccounts lists the shared account set of both add-liquidity forms.
type LiquidityAccounts struct {
	Position        solana.PublicKey
	Pool            solana.PublicKey
	BitmapExtension solana.PublicKey
	UserTokenX      solana.PublicKey
	UserTokenY      solana.PublicKey
	ReserveX        solana.PublicKey
	ReserveY        solana.PublicKey
	TokenMintX      solana.PublicKey
	TokenMintY      solana.PublicKey
	BinArrayLower   solana.PublicKey
	BinArrayUpper   solana.PublicKey
	Sender          solana.PublicKey
}

func liquidityMetas(acc LiquidityAccounts) []*solana.AccountMeta {
	return []*solana.AccountMeta{
		solana.NewAccountMeta(acc.Position, true, false),
		solana.NewAccountMeta(acc.Pool, true, false),
		solana.NewAccountMeta(acc.BitmapExtension, true, false),
		solana.NewAccountMeta(acc.UserTokenX, true, false),
		solana.NewAccountMeta(acc.UserTokenY, true, false),
		solana.NewAccountMeta(acc.ReserveX, true, false),
		solana.NewAccountMeta(acc.ReserveY, true, false),
		solana.NewAccountMeta(acc.TokenMintX, false, false),
		solana.NewAccountMeta(acc.TokenMintY, false, false),
		solana.NewAccountMeta(acc.BinArrayLower, true, false),
		solana.NewAccountMeta(acc.BinArrayUpper, true, false),
		solana.NewAccountMeta(acc.Sender, true, true),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(DeriveEventAuthority(), false, false),
		solana.NewAccountMeta(ProgramID, false, false),
	}
}

// NewAddLiquidityByWeightInstruction seeds the position with explicit per-bin
// weights. Only valid for ranges of up to MaxBinPerWeightInstruction bins.
func NewAddLiquidityByWeightInstruction(acc LiquidityAccounts, amountX, amountY uint64, activeID int32, weights []BinWeight) (solana.Instruction, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("weighted liquidity requires at least one bin")
	}
	if len(weights) > MaxBinPerWeightInstruction {
		return nil, fmt.Errorf("weighted liquidity limited to %d bins, got %d", MaxBinPerWeightInstruction, len(weights))
	}

	dist := make([]binDistribution, len(weights))
	for i, w := range weights {
		dist[i] = binDistribution{BinID: w.BinID, Weight: w.Weight}
	}
	data, err := encodeArgs(addLiquidityByWeightDisc, addLiquidityByWeightArgs{
		AmountX:              amountX,
		AmountY:              amountY,
		ActiveID:             activeID,
		MaxActiveBinSlippage: 3,
		Distribution:         dist,
	})
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(ProgramID, liquidityMetas(acc), data), nil
}

// NewAddLiquidityByStrategyInstruction seeds the position with one of the
// built-in distribution shapes.
func NewAddLiquidityByStrategyInstruction(acc LiquidityAccounts, amountX, amountY uint64, activeID, minBinID, maxBinID int32, shape uint8) (solana.Instruction, error) {
	data, err := encodeArgs(addLiquidityByStrategyDisc, addLiquidityByStrategyArgs{
		AmountX:              amountX,
		AmountY:              amountY,
		ActiveID:             activeID,
		MaxActiveBinSlippage: 3,
		Strategy: strategyParameters{
			MinBinID:     minBinID,
			MaxBinID:     maxBinID,
			StrategyType: shape,
		},
	})
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(ProgramID, liquidityMetas(acc), data), nil
}

type swapArgs struct {
	AmountIn     uint64
	MinAmountOut uint64
}

// SwapAccounts lists the account set of the swap instruction.
type SwapAccounts struct {
	Pool            solana.PublicKey
	BitmapExtension solana.PublicKey
	ReserveX        solana.PublicKey
	ReserveY        solana.PublicKey
	UserTokenIn     solana.PublicKey
	UserTokenOut    solana.PublicKey
	TokenMintX      solana.PublicKey
	TokenMintY      solana.PublicKey
	Oracle          solana.PublicKey
	BinArray        solana.PublicKey
	User            solana.PublicKey
}

// NewSwapInstruction swaps against the fresh pool; used by the dev-buy group.
func NewSwapInstruction(acc SwapAccounts, amountIn, minAmountOut uint64) (solana.Instruction, error) {
	data, err := encodeArgs(swapDiscriminator, swapArgs{
		AmountIn:     amountIn,
		MinAmountOut: minAmountOut,
	})
	if err != nil {
		return nil, err
	}

	metas := []*solana.AccountMeta{
		solana.NewAccountMeta(acc.Pool, true, false),
		solana.NewAccountMeta(acc.BitmapExtension, false, false),
		solana.NewAccountMeta(acc.ReserveX, true, false),
		solana.NewAccountMeta(acc.ReserveY, true, false),
		solana.NewAccountMeta(acc.UserTokenIn, true, false),
		solana.NewAccountMeta(acc.UserTokenOut, true, false),
		solana.NewAccountMeta(acc.TokenMintX, false, false),
		solana.NewAccountMeta(acc.TokenMintY, false, false),
		solana.NewAccountMeta(acc.Oracle, true, false),
		solana.NewAccountMeta(ProgramID, false, false), // host fee: unused
		solana.NewAccountMeta(acc.User, true, true),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(solana.TokenProgramID, false, false),
		solana.NewAccountMeta(acc.BinArray, true, false),
		solana.NewAccountMeta(DeriveEventAuthority(), false, false),
		solana.NewAccountMeta(ProgramID, false, false),
	}
	return solana.NewInstruction(ProgramID, metas, data), nil
}
