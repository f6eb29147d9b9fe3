// =============================
// File: internal/launch/launcher.go
// =============================
package launch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rmuradev/solana-launchpad/internal/dex"
	"github.com/rmuradev/solana-launchpad/internal/dex/cpmm"
	"github.com/rmuradev/solana-launchpad/internal/dex/dlmm"
	"github.com/rmuradev/solana-launchpad/internal/dex/legacyamm"
	"github.com/rmuradev/solana-launchpad/internal/jito"
	"github.com/rmuradev/solana-launchpad/internal/token"
)

// State tracks a launch through its stages. Transitions are strictly
// sequential; a failure at any stage moves directly to StateFailed.
type State string

const (
	StateInit               State = "init"
	StateTokenMinted        State = "token-minted"
	StateAuthoritiesRevoked State = "authorities-revoked"
	StateLiquidityPlanBuilt State = "liquidity-plan-built"
	StateSubmitted          State = "submitted"
	StateConfirmed          State = "confirmed"
	StateFailed             State = "failed"
)

// MarketNotRequired fills the market field for strategies that do not create
// an order-book market.
const MarketNotRequired = "Not Required"

// TokenMinter is the token-creation collaborator.
type TokenMinter interface {
	CreateToken(ctx context.Context, params token.Params) (solana.PublicKey, solana.Signature, error)
	RevokeAuthorities(ctx context.Context, mint solana.PublicKey) error
}

// PlanSubmitter lands a built plan on chain.
type PlanSubmitter interface {
	Submit(ctx context.Context, plan *dex.Plan, payer solana.PrivateKey, opts jito.Options) (*jito.Result, error)
}

// ChainClient is the RPC surface the launcher and its strategies need.
type ChainClient interface {
	GetRecentBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	ConfirmTransaction(ctx context.Context, sig solana.Signature, timeout time.Duration) error
	AccountsExist(ctx context.Context, keys []solana.PublicKey) ([]bool, error)
	GetBalance(ctx context.Context, key solana.PublicKey) (uint64, error)
}

// Result is the terminal record of one launch.
type Result struct {
	State    State
	Token    solana.PublicKey
	Pool     solana.PublicKey
	Market   string
	Strategy string
	// Signature holds the transaction signature or bundle id that carried
	// the liquidity seeding.
	Signature string
}

// Launcher drives a token launch end to end: mint, revoke, plan, submit.
type Launcher struct {
	client    ChainClient
	minter    TokenMinter
	submitter PlanSubmitter

	// Legacy order-book collaborators; nil unless that strategy is used.
	markets legacyamm.MarketCreator
	poolSDK legacyamm.PoolSDK

	payer          solana.PrivateKey
	logger         *zap.Logger
	confirmTimeout time.Duration
}

// New creates a launcher. markets and poolSDK may be nil when the legacy
// order-book strategy is never selected.
func New(client ChainClient, minter TokenMinter, submitter PlanSubmitter, markets legacyamm.MarketCreator, poolSDK legacyamm.PoolSDK, payer solana.PrivateKey, logger *zap.Logger) *Launcher {
	return &Launcher{
		client:         client,
		minter:         minter,
		submitter:      submitter,
		markets:        markets,
		poolSDK:        poolSDK,
		payer:          payer,
		logger:         logger.Named("launch"),
		confirmTimeout: 60 * time.Second,
	}
}

// Launch executes the full state machine. On failure the returned result
// carries the last reached state and whatever identities already exist on
// chain, so callers can recover.
func (l *Launcher) Launch(ctx context.Context, req *Request) (*Result, error) {
	result := &Result{State: StateInit, Market: MarketNotRequired}

	if err := req.Validate(); err != nil {
		result.State = StateFailed
		return result, err
	}

	protocol := dex.ResolveProtocol(req.Dex, req.Strategy)
	tip, err := req.resolveTip()
	if err != nil {
		result.State = StateFailed
		return result, err
	}
	atomic := tip.Present && isPrimaryNetwork(req.Network)

	l.logger.Info("Starting launch",
		zap.String("symbol", req.Symbol),
		zap.String("protocol", string(protocol)),
		zap.Bool("atomic", atomic))

	mint, _, err := l.minter.CreateToken(ctx, token.Params{
		Name:     req.Name,
		Symbol:   req.Symbol,
		URI:      req.URI,
		Decimals: req.Decimals,
		Supply:   req.Supply,
	})
	if err != nil {
		result.State = StateFailed
		return result, fmt.Errorf("token creation failed: %w", err)
	}
	result.State = StateTokenMinted
	result.Token = mint

	// A token with live authorities must never be reported as launched.
	if err := l.minter.RevokeAuthorities(ctx, mint); err != nil {
		result.State = StateFailed
		return result, fmt.Errorf("authority revocation failed: %w", err)
	}
	result.State = StateAuthoritiesRevoked

	strategy, err := l.buildStrategy(protocol, req)
	if err != nil {
		result.State = StateFailed
		return result, err
	}
	result.Strategy = strategy.Name()

	plan, err := strategy.BuildPlan(ctx, &dex.LaunchParams{
		Payer:        l.payer.PublicKey(),
		TokenMint:    mint,
		SolAmount:    req.SolAmount,
		TokenAmount:  req.TokenAmount,
		AtomicBundle: atomic,
	})
	if err != nil {
		result.State = StateFailed
		if plan != nil {
			result.Pool = plan.Pool
			if !plan.Market.IsZero() {
				result.Market = plan.Market.String()
			}
		}
		if errors.Is(err, legacyamm.ErrDegraded) {
			return result, fmt.Errorf("liquidity plan degraded, nothing to submit: %w", err)
		}
		return result, fmt.Errorf("liquidity plan build failed: %w", err)
	}
	result.State = StateLiquidityPlanBuilt
	result.Pool = plan.Pool
	if !plan.Market.IsZero() {
		result.Market = plan.Market.String()
	}

	opts := jito.Options{Mode: submissionMode(plan, atomic), TipSOL: tip.SOL}
	result.State = StateSubmitted
	outcome, err := l.submitter.Submit(ctx, plan, l.payer, opts)
	if err != nil {
		result.State = StateFailed
		return result, fmt.Errorf("submission failed: %w", err)
	}

	result.State = StateConfirmed
	if outcome.BundleID != "" {
		result.Signature = outcome.BundleID
	} else if len(outcome.Signatures) > 0 {
		result.Signature = outcome.Signatures[len(outcome.Signatures)-1].String()
	}

	l.logger.Info("Launch confirmed",
		zap.String("token", result.Token.String()),
		zap.String("pool", result.Pool.String()),
		zap.String("strategy", result.Strategy),
		zap.String("signature", result.Signature))
	return result, nil
}

func (l *Launcher) buildStrategy(protocol dex.Protocol, req *Request) (dex.Strategy, error) {
	switch protocol {
	case dex.ProtocolDLMM:
		return dlmm.New(l.client, l.logger, req.DLMM), nil
	case dex.ProtocolCPMM:
		return cpmm.New(l.logger, req.CPMM), nil
	case dex.ProtocolLegacyAMM:
		if l.markets == nil || l.poolSDK == nil {
			return nil, fmt.Errorf("legacy amm strategy requires market and pool collaborators")
		}
		return legacyamm.New(l.markets, l.poolSDK, l.logger, req.LegacyAMM), nil
	}
	return nil, fmt.Errorf("unknown protocol %q", protocol)
}

// submissionMode picks how the plan reaches the chain: bundles when a tip is
// in play on the primary network, a single transaction when everything fits
// one group, otherwise group-by-group.
func submissionMode(plan *dex.Plan, atomic bool) jito.Mode {
	if atomic {
		return jito.ModeBundle
	}
	if len(plan.Groups) == 1 {
		return jito.ModeSingle
	}
	return jito.ModeSequential
}

func isPrimaryNetwork(network string) bool {
	switch network {
	case "", "mainnet", "mainnet-beta":
		return true
	}
	return false
}
