package locks

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when a lock could not be acquired before ctx ended.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// Locker hands out mutually exclusive leases keyed by string. unlock must be
// called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
