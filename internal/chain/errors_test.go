// =============================
// File: internal/chain/errors_test.go
// =============================
package chain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"reverted is fatal", fmt.Errorf("group failed: %w", ErrReverted), false},
		{"confirmation timeout retries", fmt.Errorf("send: %w", ErrConfirmationTimeout), true},
		{"min context slot", errors.New("Minimum context slot has not been reached"), true},
		{"blockhash not found", errors.New("blockhash not found"), true},
		{"block height exceeded", errors.New("Block height exceeded"), true},
		{"transaction expired", errors.New("transaction expired: block height exceeded"), true},
		{"generic timeout", errors.New("request timed out"), true},
		{"program error is fatal", errors.New("custom program error: 0x1771"), false},
		{"insufficient funds is fatal", errors.New("insufficient funds for rent"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
