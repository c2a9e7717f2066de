package tx

import (
	"fmt"

	"github.com/damianoneill/ncbroker/netconf/ops"

	"github.com/pkg/errors"
)

var (
	// ErrLockFailed is reported when a datastore lock cannot be acquired.
	ErrLockFailed = errors.New("lock failed")
	// ErrTransactionFinished is reported by any operation on a transaction that was committed, cancelled or failed.
	ErrTransactionFinished = errors.New("transaction already finished")
	// ErrUnsupportedStore is reported when a write targets other than the configuration store.
	ErrUnsupportedStore = errors.New("only the configuration store can be written")
	// ErrEmptyPath is reported when an edit is requested with an empty path.
	ErrEmptyPath = errors.New("edit requires a non-empty path")
)

// LockError reports a datastore lock that could not be acquired. It matches ErrLockFailed.
type LockError struct {
	Device string
	Target ops.Datastore
	Err    error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("%s: lock of %s datastore failed: %v", e.Device, e.Target, e.Err)
}

func (e *LockError) Unwrap() error {
	return e.Err
}

func (e *LockError) Is(target error) bool {
	return target == ErrLockFailed
}
