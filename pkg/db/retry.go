package db

import (
	"context"
	"time"

	"gorm.io/gorm"
)

const (
	txMaxAttempts  = 3
	txBackoffBase  = 25 * time.Millisecond
	txBackoffLimit = 250 * time.Millisecond
)

// TransactionWithRetry runs fn inside a transaction, retrying transient
// conflicts with bounded exponential backoff before giving up. The final
// error is returned unwrapped so callers can classify it.
func TransactionWithRetry(ctx context.Context, conn *gorm.DB, fn func(tx *gorm.DB) error) error {
	backoff := txBackoffBase

	var err error
	for attempt := 1; attempt <= txMaxAttempts; attempt++ {
		err = conn.WithContext(ctx).Transaction(fn)
		if err == nil || !IsRetryableTxErr(err) {
			return err
		}
		if attempt == txMaxAttempts {
			break
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
		if backoff > txBackoffLimit {
			backoff = txBackoffLimit
		}
	}
	return err
}
