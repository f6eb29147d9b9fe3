// =============================
// File: internal/jito/bundle.go
// =============================
package jito

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// regionalEndpoints maps a block-engine region to its bundle endpoint. The
// empty region routes to the global endpoint.
var regionalEndpoints = map[string]string{
	"":          "https://mainnet.block-engine.jito.wtf/api/v1/bundles",
	"amsterdam": "https://amsterdam.mainnet.block-engine.jito.wtf/api/v1/bundles",
	"frankfurt": "https://frankfurt.mainnet.block-engine.jito.wtf/api/v1/bundles",
	"ny":        "https://ny.mainnet.block-engine.jito.wtf/api/v1/bundles",
	"tokyo":     "https://tokyo.mainnet.block-engine.jito.wtf/api/v1/bundles",
	"slc":       "https://slc.mainnet.block-engine.jito.wtf/api/v1/bundles",
}

// tipAccounts are the block engine's tip collection accounts. Any one works;
// picking at random spreads write locks across bundles.
var tipAccounts = []string{
	"96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5",
	"HFqU5x63VTqvQss8hp11i4bVNa1xJZmCkrhGnVw6nNYS",
	"Cw8CFyM9FkoMi7K7Crf6HNQqf4uEMzpKw6QNghXLvLkY",
	"ADaUMid9yfUytqMBgopwjb2DTLSokTSzL1zt6iGPaS49",
	"DfXygSm4jCyNCybVYYK6DwvWqjKee8pbDmJGcLWNDXjh",
	"ADuUkR4vqLUMWXxW9gh6D6L8pMSawimctcNZ5pGwDcEt",
	"DttWaMuVvTiduZRnguLF7jNxTgiMBZ1hyAumKUiL2KRL",
	"3AVi9Tg9Uo68tJfuvoKvqKNWKkC5wPdSSdeBnizKZ6jT",
}

// RandomTipAccount picks one of the block engine's tip accounts.
func RandomTipAccount() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(tipAccounts[rand.Intn(len(tipAccounts))])
}

// EndpointForRegion resolves a region name to its bundle endpoint. Unknown
// regions fall back to the global endpoint.
func EndpointForRegion(region string) string {
	if endpoint, ok := regionalEndpoints[region]; ok {
		return endpoint
	}
	return regionalEndpoints[""]
}

// BundleClient submits atomic transaction bundles to a block engine.
type BundleClient struct {
	endpoint string
	http     *http.Client
	logger   *zap.Logger
}

// NewBundleClient creates a bundle client for a region.
func NewBundleClient(region string, logger *zap.Logger) *BundleClient {
	return &BundleClient{
		endpoint: EndpointForRegion(region),
		http:     &http.Client{Timeout: 15 * time.Second},
		logger:   logger.Named("bundle"),
	}
}

type bundleRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// SendBundle submits the transactions as one atomic bundle and returns the
// bundle id. All transactions land in order in the same block or none do.
func (c *BundleClient) SendBundle(ctx context.Context, txs []*solana.Transaction) (string, error) {
	if len(txs) == 0 {
		return "", fmt.Errorf("bundle must contain at least one transaction")
	}
	if len(txs) > 5 {
		return "", fmt.Errorf("bundle of %d transactions exceeds the 5-transaction limit", len(txs))
	}

	encoded := make([]string, len(txs))
	for i, tx := range txs {
		b64, err := tx.ToBase64()
		if err != nil {
			return "", fmt.Errorf("failed to encode bundle transaction %d: %w", i, err)
		}
		encoded[i] = b64
	}

	payload, err := json.Marshal(bundleRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "sendBundle",
		Params:  []any{encoded, map[string]string{"encoding": "base64"}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal bundle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("bundle submission failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read bundle response: %w", err)
	}

	if rpcErr := gjson.GetBytes(body, "error.message"); rpcErr.Exists() {
		return "", fmt.Errorf("block engine rejected bundle: %s", rpcErr.String())
	}
	bundleID := gjson.GetBytes(body, "result").String()
	if bundleID == "" {
		return "", fmt.Errorf("block engine returned no bundle id (status %d)", resp.StatusCode)
	}

	c.logger.Info("Bundle submitted",
		zap.String("bundle_id", bundleID),
		zap.Int("transactions", len(txs)))
	return bundleID, nil
}
