// =============================
// File: internal/jito/tip.go
// =============================
package jito

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// DefaultTipFloorURL serves recent landed-tip percentiles.
const DefaultTipFloorURL = "https://bundles.jito.wtf/api/v1/bundles/tip_floor"

const tipFetchTimeout = 3 * time.Second

// TipQuoter fetches a competitive tip from the public tip-floor feed. Quote
// failures are absorbed: the launch must not stall because a stats endpoint
// is down, so every failure path returns the configured fallback.
type TipQuoter struct {
	url      string
	fallback float64
	http     *http.Client
	logger   *zap.Logger
}

// NewTipQuoter creates a quoter with the given fallback tip in SOL.
func NewTipQuoter(url string, fallbackSOL float64, logger *zap.Logger) *TipQuoter {
	if url == "" {
		url = DefaultTipFloorURL
	}
	return &TipQuoter{
		url:      url,
		fallback: fallbackSOL,
		http:     &http.Client{Timeout: tipFetchTimeout},
		logger:   logger.Named("tip"),
	}
}

// FetchTipSOL returns the 95th-percentile landed tip in SOL, or the fallback.
func (q *TipQuoter) FetchTipSOL(ctx context.Context) float64 {
	ctx, cancel := context.WithTimeout(ctx, tipFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.url, nil)
	if err != nil {
		return q.fallback
	}
	resp, err := q.http.Do(req)
	if err != nil {
		q.logger.Warn("Tip quote request failed, using fallback",
			zap.Float64("fallback_sol", q.fallback),
			zap.Error(err))
		return q.fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		q.logger.Warn("Tip quote returned non-200, using fallback",
			zap.Int("status", resp.StatusCode))
		return q.fallback
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return q.fallback
	}

	value := gjson.GetBytes(body, "0.landed_tips_95th_percentile")
	if !value.Exists() {
		q.logger.Warn("Tip quote payload missing percentile field, using fallback")
		return q.fallback
	}

	tip := normalizeTip(value.Float())
	if tip <= 0 {
		return q.fallback
	}
	q.logger.Debug("Fetched tip quote", zap.Float64("tip_sol", tip))
	return tip
}

// normalizeTip converts a quote of unknown magnitude to SOL. Feeds have
// reported SOL, lamports, and micro-lamports over time; the value's order of
// magnitude is enough to tell them apart for any realistic tip.
func normalizeTip(v float64) float64 {
	switch {
	case v <= 1:
		return v
	case v > 1e11:
		return v / 1e15
	default:
		return v / 1e9
	}
}
