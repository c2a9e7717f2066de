package tx

import (
	"context"

	"github.com/damianoneill/ncbroker/netconf/ops"
	"github.com/damianoneill/ncbroker/netconf/rpc"
)

// runningOnly edits the running datastore directly under a running lock. Each edit is effective
// as soon as it is applied, so committing only releases the lock and a failed transaction leaves
// earlier edits in place.
type runningOnly struct{}

func (runningOnly) acquire(ctx context.Context, w *writeTx) error {
	return w.lock(ctx, ops.Running)
}

func (runningOnly) commit(ctx context.Context, w *writeTx) *rpc.Future[*CommitResult] {
	out := rpc.NewFuture[*CommitResult]()
	go func() {
		w.release(context.WithoutCancel(ctx))
		w.finish(Committed, nil)
		out.Complete(&CommitResult{Successful: true}, nil)
	}()
	return out
}

func (runningOnly) abort(ctx context.Context, w *writeTx) {
	w.release(ctx)
}
