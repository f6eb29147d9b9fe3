// =============================
// File: internal/chain/client.go
// =============================
package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// accountBatchSize caps one GetMultipleAccounts request.
const accountBatchSize = 100

// Client is a thin adapter over the Solana RPC surface used by the launcher.
type Client struct {
	rpc    *rpc.Client
	logger *zap.Logger
}

// NewClient creates a client for one RPC endpoint.
func NewClient(rpcURL string, logger *zap.Logger) *Client {
	return &Client{
		rpc:    rpc.New(rpcURL),
		logger: logger.Named("chain"),
	}
}

// GetRecentBlockhash fetches the latest finalized blockhash.
func (c *Client) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	result, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		c.logger.Error("GetRecentBlockhash error", zap.Error(err))
		return solana.Hash{}, err
	}
	return result.Value.Blockhash, nil
}

// SendTransaction submits a signed transaction.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		c.logger.Error("SendTransaction error", zap.Error(err))
		return solana.Signature{}, err
	}
	return sig, nil
}

// ConfirmTransaction polls until the signature reaches confirmed commitment.
// A status carrying an execution error is reported as ErrReverted: the
// submission looked successful but the transaction failed on chain.
func (c *Client) ConfirmTransaction(ctx context.Context, sig solana.Signature, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", ErrConfirmationTimeout, sig)
		case <-ticker.C:
		}

		res, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			c.logger.Debug("GetSignatureStatuses error", zap.Error(err))
			continue
		}
		if len(res.Value) == 0 || res.Value[0] == nil {
			continue
		}
		status := res.Value[0]
		if status.Err != nil {
			return fmt.Errorf("%w: %s: %v", ErrReverted, sig, status.Err)
		}
		switch status.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			return nil
		}
	}
}

// AccountsExist reports, for each key, whether the account exists on chain.
// Reads are batched and independent batches run concurrently.
func (c *Client) AccountsExist(ctx context.Context, keys []solana.PublicKey) ([]bool, error) {
	out := make([]bool, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(keys); start += accountBatchSize {
		start := start
		end := start + accountBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		g.Go(func() error {
			res, err := c.rpc.GetMultipleAccountsWithOpts(ctx, keys[start:end], &rpc.GetMultipleAccountsOpts{
				Commitment: rpc.CommitmentConfirmed,
				Encoding:   solana.EncodingBase64,
			})
			if err != nil {
				return err
			}
			for i, acc := range res.Value {
				out[start+i] = acc != nil
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Debug("AccountsExist error", zap.Error(err))
		return nil, err
	}
	return out, nil
}

// GetMinimumBalanceForRentExemption returns the rent-exempt lamports for an
// account of the given size.
func (c *Client) GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	lamports, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, size, rpc.CommitmentFinalized)
	if err != nil {
		c.logger.Error("GetMinimumBalanceForRentExemption error", zap.Error(err))
		return 0, err
	}
	return lamports, nil
}

// GetBalance returns the lamport balance of an account.
func (c *Client) GetBalance(ctx context.Context, key solana.PublicKey) (uint64, error) {
	res, err := c.rpc.GetBalance(ctx, key, rpc.CommitmentConfirmed)
	if err != nil {
		c.logger.Error("GetBalance error",
			zap.String("pubkey", key.String()),
			zap.Error(err))
		return 0, err
	}
	return res.Value, nil
}
