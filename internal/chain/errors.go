// =============================
// File: internal/chain/errors.go
// =============================
package chain

import (
	"errors"
	"strings"
)

var (
	// ErrReverted marks a transaction that landed on-chain but failed during
	// execution. Always fatal: the state change already happened (or was
	// rolled back) and resubmitting would not help.
	ErrReverted = errors.New("transaction reverted on chain")

	// ErrConfirmationTimeout marks a confirmation poll that exhausted its
	// window without a definitive status.
	ErrConfirmationTimeout = errors.New("transaction confirmation timed out")
)

// transientPhrases are the submission-failure signatures that are safe to
// retry. Everything else is treated as fatal and propagated immediately.
var transientPhrases = []string{
	"minimum context slot has not been reached",
	"min context slot not reached",
	"block height exceeded",
	"blockhash not found",
	"transaction expired",
	"timed out",
	"timeout",
}

// IsRetryable classifies a submission failure as transient. On-chain reverts
// are never retryable, even though they surface after an apparently
// successful send.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrReverted) {
		return false
	}
	if errors.Is(err, ErrConfirmationTimeout) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range transientPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
