// Package lock provides MySQL advisory locks that keep two runs from
// writing the same destination database at once.
package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrLockTimeout is returned when another session holds the lock.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// Timeouts for Acquire, in seconds. MySQL treats negative values as an
// infinite wait.
const (
	TimeoutImmediate = 0
	TimeoutShort     = 1
	TimeoutMedium    = 10
	TimeoutInfinite  = -1
)

// MaxNameLength is the MySQL limit on user lock names.
const MaxNameLength = 64

const namePrefix = "jsontables:db:"

// AdvisoryLock is a named GET_LOCK lock. It pins one connection of the pool,
// since MySQL ties user locks to the session that took them.
type AdvisoryLock struct {
	conn *sql.Conn
	name string
	held bool
}

// NewAdvisoryLock reserves a connection from db for the lock named name.
// The lock is not acquired until Acquire is called.
func NewAdvisoryLock(ctx context.Context, db *sql.DB, name string) (*AdvisoryLock, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve lock connection: %w", err)
	}
	return &AdvisoryLock{conn: conn, name: name}, nil
}

// Acquire tries to take the lock, waiting up to timeoutSeconds.
// It reports false when the wait ran out.
//
// GET_LOCK returns 1 on success, 0 on timeout and NULL on error.
func (a *AdvisoryLock) Acquire(ctx context.Context, timeoutSeconds int) (bool, error) {
	if a.held {
		return true, nil
	}

	var result sql.NullInt64
	if err := a.conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", a.name, timeoutSeconds).Scan(&result); err != nil {
		return false, fmt.Errorf("failed to execute GET_LOCK: %w", err)
	}
	if !result.Valid {
		return false, fmt.Errorf("GET_LOCK returned NULL for lock %q", a.name)
	}

	switch result.Int64 {
	case 1:
		a.held = true
		return true, nil
	case 0:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected GET_LOCK return value: %d", result.Int64)
	}
}

// AcquireOrFail is Acquire with ErrLockTimeout in place of a false result.
func (a *AdvisoryLock) AcquireOrFail(ctx context.Context, timeoutSeconds int) error {
	acquired, err := a.Acquire(ctx, timeoutSeconds)
	if err != nil {
		return err
	}
	if !acquired {
		return fmt.Errorf("%w: lock %q is held by another session", ErrLockTimeout, a.name)
	}
	return nil
}

// Release releases the lock if held and returns the pinned connection to
// the pool. The lock object cannot be reused afterwards.
func (a *AdvisoryLock) Release(ctx context.Context) error {
	var releaseErr error
	if a.held {
		var result sql.NullInt64
		if err := a.conn.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", a.name).Scan(&result); err != nil {
			releaseErr = fmt.Errorf("failed to execute RELEASE_LOCK: %w", err)
		}
		a.held = false
	}
	if err := a.conn.Close(); err != nil && releaseErr == nil {
		releaseErr = err
	}
	return releaseErr
}

// IsHeld reports whether this session holds the lock.
func (a *AdvisoryLock) IsHeld() bool {
	return a.held
}

// Name returns the lock name.
func (a *AdvisoryLock) Name() string {
	return a.name
}

// DatabaseLockName returns the lock name guarding writes to database.
// Characters outside [A-Za-z0-9_-] become underscores and the result is
// cut to MaxNameLength.
func DatabaseLockName(database string) string {
	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, database)

	name := namePrefix + sanitized
	if len(name) > MaxNameLength {
		name = name[:MaxNameLength]
	}
	return name
}
