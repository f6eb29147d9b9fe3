// =============================
// File: internal/jito/submitter.go
// =============================
package jito

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"go.uber.org/zap"

	"github.com/rmuradev/solana-launchpad/internal/chain"
	"github.com/rmuradev/solana-launchpad/internal/dex"
)

const lamportsPerSOL = 1e9

// Mode selects how a plan's instruction groups reach the chain.
type Mode string

const (
	// ModeSequential lands one transaction per group, confirming each before
	// the next. A mid-plan failure leaves earlier groups on chain.
	ModeSequential Mode = "sequential"
	// ModeSingle flattens every group into one transaction.
	ModeSingle Mode = "single"
	// ModeBundle lands one transaction per group as an atomic bundle with a
	// tip on the last transaction.
	ModeBundle Mode = "bundle"
)

// ChainClient is the RPC surface the submitter needs.
type ChainClient interface {
	GetRecentBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	ConfirmTransaction(ctx context.Context, sig solana.Signature, timeout time.Duration) error
}

// Config tunes retry and confirmation behavior.
type Config struct {
	MaxRetries     uint
	RetryInterval  time.Duration
	ConfirmTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryInterval == 0 {
		c.RetryInterval = 500 * time.Millisecond
	}
	if c.ConfirmTimeout == 0 {
		c.ConfirmTimeout = 60 * time.Second
	}
	return c
}

// Options select the submission mode and tip source for one plan.
type Options struct {
	Mode Mode
	// TipSOL is a caller-fixed tip. Zero means quote the tip feed (with the
	// quoter's fallback). Only ModeBundle pays a tip.
	TipSOL float64
}

// Result reports what landed.
type Result struct {
	Signatures []solana.Signature
	BundleID   string
}

// Submitter turns launch plans into on-chain transactions.
type Submitter struct {
	client  ChainClient
	bundles *BundleClient
	tips    *TipQuoter
	logger  *zap.Logger
	cfg     Config
}

// NewSubmitter creates a submitter. bundles and tips are only used by
// ModeBundle and may be nil otherwise.
func NewSubmitter(client ChainClient, bundles *BundleClient, tips *TipQuoter, logger *zap.Logger, cfg Config) *Submitter {
	return &Submitter{
		client:  client,
		bundles: bundles,
		tips:    tips,
		logger:  logger.Named("submit"),
		cfg:     cfg.withDefaults(),
	}
}

// Submit lands the plan using the requested mode.
func (s *Submitter) Submit(ctx context.Context, plan *dex.Plan, payer solana.PrivateKey, opts Options) (*Result, error) {
	if plan.Empty() {
		return nil, fmt.Errorf("nothing to submit: plan has no instructions")
	}

	switch opts.Mode {
	case ModeBundle:
		return s.submitBundle(ctx, plan, payer, opts.TipSOL)
	case ModeSingle:
		return s.submitSingle(ctx, plan, payer)
	case ModeSequential, "":
		return s.submitSequential(ctx, plan, payer)
	default:
		return nil, fmt.Errorf("unknown submission mode %q", opts.Mode)
	}
}

// submitSequential lands one transaction per group in order. Each must
// confirm before the next is sent; the first failure aborts and the error
// names the signatures that already landed, since those groups cannot be
// unwound.
func (s *Submitter) submitSequential(ctx context.Context, plan *dex.Plan, payer solana.PrivateKey) (*Result, error) {
	confirmed := make([]solana.Signature, 0, len(plan.Groups))

	for _, group := range plan.Groups {
		tx, err := s.buildGroupTx(ctx, group.Instructions, payer)
		if err != nil {
			return nil, s.wrapPartial(fmt.Errorf("failed to build %s transaction: %w", group.Label, err), confirmed)
		}

		sig, err := s.sendConfirmWithRetry(ctx, tx, payer, group, plan.ExtraSigners)
		if err != nil {
			return nil, s.wrapPartial(fmt.Errorf("group %s failed: %w", group.Label, err), confirmed)
		}
		confirmed = append(confirmed, sig)
		s.logger.Info("Group confirmed",
			zap.String("group", group.Label),
			zap.String("signature", sig.String()))
	}

	return &Result{Signatures: confirmed}, nil
}

// submitSingle flattens all groups into one transaction.
func (s *Submitter) submitSingle(ctx context.Context, plan *dex.Plan, payer solana.PrivateKey) (*Result, error) {
	merged := dex.InstructionGroup{
		Label:        "launch",
		Instructions: plan.Instructions(),
	}
	for _, group := range plan.Groups {
		merged.RequiredSigners = append(merged.RequiredSigners, group.RequiredSigners...)
	}

	tx, err := s.buildGroupTx(ctx, merged.Instructions, payer)
	if err != nil {
		return nil, fmt.Errorf("failed to build launch transaction: %w", err)
	}
	sig, err := s.sendConfirmWithRetry(ctx, tx, payer, merged, plan.ExtraSigners)
	if err != nil {
		return nil, err
	}
	return &Result{Signatures: []solana.Signature{sig}}, nil
}

// submitBundle lands one transaction per group as an atomic bundle. The tip
// transfer is appended to the LAST group only: if the bundle fails the tip is
// not paid, and a tip on an earlier transaction would let the block engine
// keep a prefix of the bundle.
func (s *Submitter) submitBundle(ctx context.Context, plan *dex.Plan, payer solana.PrivateKey, tipSOL float64) (*Result, error) {
	if s.bundles == nil {
		return nil, fmt.Errorf("bundle submission requested but no block engine client configured")
	}

	if tipSOL <= 0 && s.tips != nil {
		tipSOL = s.tips.FetchTipSOL(ctx)
	}
	tipLamports := uint64(tipSOL * lamportsPerSOL)

	blockhash, err := s.client.GetRecentBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blockhash: %w", err)
	}

	txs := make([]*solana.Transaction, 0, len(plan.Groups))
	for i, group := range plan.Groups {
		instructions := group.Instructions
		if i == len(plan.Groups)-1 && tipLamports > 0 {
			instructions = append(instructions[:len(instructions):len(instructions)],
				system.NewTransferInstruction(tipLamports, payer.PublicKey(), RandomTipAccount()).Build())
		}

		tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(payer.PublicKey()))
		if err != nil {
			return nil, fmt.Errorf("failed to build %s transaction: %w", group.Label, err)
		}
		if err := signTx(tx, payer, group, plan.ExtraSigners); err != nil {
			return nil, fmt.Errorf("failed to sign %s transaction: %w", group.Label, err)
		}
		txs = append(txs, tx)
	}

	bundleID, err := backoff.Retry(ctx, func() (string, error) {
		id, err := s.bundles.SendBundle(ctx, txs)
		if err != nil && !chain.IsRetryable(err) {
			return "", backoff.Permanent(err)
		}
		return id, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(s.cfg.RetryInterval)),
		backoff.WithMaxTries(s.cfg.MaxRetries),
	)
	if err != nil {
		return nil, fmt.Errorf("bundle submission failed: %w", err)
	}

	s.logger.Info("Atomic bundle submitted",
		zap.String("bundle_id", bundleID),
		zap.Uint64("tip_lamports", tipLamports))
	return &Result{BundleID: bundleID}, nil
}

// buildGroupTx assembles an unsigned transaction; signing happens per send
// attempt because the blockhash is refreshed on retry.
func (s *Submitter) buildGroupTx(ctx context.Context, instructions []solana.Instruction, payer solana.PrivateKey) (*solana.Transaction, error) {
	blockhash, err := s.client.GetRecentBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blockhash: %w", err)
	}
	return solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(payer.PublicKey()))
}

func (s *Submitter) sendConfirmWithRetry(ctx context.Context, tx *solana.Transaction, payer solana.PrivateKey, group dex.InstructionGroup, extras []solana.PrivateKey) (solana.Signature, error) {
	return backoff.Retry(ctx, func() (solana.Signature, error) {
		// Blockhashes expire; refresh and re-sign on every attempt.
		blockhash, err := s.client.GetRecentBlockhash(ctx)
		if err != nil {
			return solana.Signature{}, err
		}
		tx.Message.RecentBlockhash = blockhash
		tx.Signatures = nil
		if err := signTx(tx, payer, group, extras); err != nil {
			return solana.Signature{}, backoff.Permanent(err)
		}

		sig, err := s.client.SendTransaction(ctx, tx)
		if err != nil {
			if !chain.IsRetryable(err) {
				return solana.Signature{}, backoff.Permanent(err)
			}
			s.logger.Warn("Retrying transaction send",
				zap.String("group", group.Label),
				zap.Error(err))
			return solana.Signature{}, err
		}

		if err := s.client.ConfirmTransaction(ctx, sig, s.cfg.ConfirmTimeout); err != nil {
			if !chain.IsRetryable(err) {
				return solana.Signature{}, backoff.Permanent(err)
			}
			s.logger.Warn("Retrying after confirmation timeout",
				zap.String("group", group.Label),
				zap.String("signature", sig.String()))
			return solana.Signature{}, err
		}
		return sig, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(s.cfg.RetryInterval)),
		backoff.WithMaxTries(s.cfg.MaxRetries),
	)
}

// signTx signs with the payer plus only the extra signers this group
// references. Scoping matters: handing every keypair to every transaction
// would let a malformed group consume a signature it has no claim to.
func signTx(tx *solana.Transaction, payer solana.PrivateKey, group dex.InstructionGroup, extras []solana.PrivateKey) error {
	scoped := groupSigners(group, extras)
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer.PublicKey()) {
			return &payer
		}
		for i := range scoped {
			if key.Equals(scoped[i].PublicKey()) {
				return &scoped[i]
			}
		}
		return nil
	})
	return err
}

// groupSigners filters the plan's extra signers down to the ones this group
// declares.
func groupSigners(group dex.InstructionGroup, extras []solana.PrivateKey) []solana.PrivateKey {
	out := make([]solana.PrivateKey, 0, len(extras))
	for _, key := range extras {
		if group.RequiresSigner(key.PublicKey()) {
			out = append(out, key)
		}
	}
	return out
}

func (s *Submitter) wrapPartial(err error, confirmed []solana.Signature) error {
	if len(confirmed) == 0 {
		return err
	}
	sigs := make([]string, len(confirmed))
	for i, sig := range confirmed {
		sigs[i] = sig.String()
	}
	return fmt.Errorf("%w (already confirmed: %s)", err, strings.Join(sigs, ", "))
}
