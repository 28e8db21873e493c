package repository

import (
	"context"
	"strings"
	"time"

	"github.com/go-pkgz/repeater/v2"
)

// sqlite reports contention with any of these messages
var lockMarkers = []string{"SQLITE_BUSY", "database is locked", "database table is locked"}

// withLockRetry repeats fn while the database is locked. Any other error stops it at once.
func withLockRetry(ctx context.Context, fn func() error) error {
	var fatal error
	rep := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	if err := rep.Do(ctx, func() error {
		err := fn()
		if err != nil && !isLockError(err) {
			fatal = err
			return nil
		}
		return err
	}); err != nil {
		return err
	}
	return fatal
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, m := range lockMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
