package uow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetry(t *testing.T) {
	other := errors.New("boom")
	tests := []struct {
		name      string
		attempts  int
		failures  []error
		wantCalls int
		wantErr   error
	}{
		{"first try", 3, nil, 1, nil},
		{"conflict then ok", 3, []error{ErrTransactionConflict}, 2, nil},
		{"wrapped conflict then ok", 3, []error{fmt.Errorf("save: %w", ErrTransactionConflict)}, 2, nil},
		{"exhausted", 3, []error{ErrTransactionConflict, ErrTransactionConflict, ErrTransactionConflict}, 3, ErrTransactionConflict},
		{"other error not retried", 3, []error{other}, 1, other},
		{"zero attempts runs once", 0, []error{ErrTransactionConflict}, 1, ErrTransactionConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), tc.attempts, func() error {
				calls++
				if calls <= len(tc.failures) {
					return tc.failures[calls-1]
				}
				return nil
			})
			assert.Equal(t, tc.wantCalls, calls)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestRetry_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, 5, func() error {
		calls++
		cancel()
		return ErrTransactionConflict
	})
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
}
