package tx

import (
	"context"
	"time"

	"github.com/damianoneill/ncbroker/netconf/ops"
	"github.com/damianoneill/ncbroker/netconf/rpc"

	"github.com/pkg/errors"
)

// candidateOnly edits the candidate datastore under a candidate lock and commits it to running.
type candidateOnly struct{}

func (candidateOnly) acquire(ctx context.Context, w *writeTx) error {
	return lockCandidate(ctx, w)
}

// lockCandidate acquires the candidate lock. A refused lock is retried once after discarding
// changes, since changes left in the candidate by an earlier session prevent locking.
func lockCandidate(ctx context.Context, w *writeTx) error {
	err := w.lock(ctx, ops.Candidate)
	if err == nil {
		return nil
	}

	w.trace.LockRetry(w.device, w.id, err)
	lockRetriesTotal.Inc()
	w.discard(ctx)
	return w.lock(ctx, ops.Candidate)
}

func (candidateOnly) commit(ctx context.Context, w *writeTx) *rpc.Future[*CommitResult] {
	out := rpc.NewFuture[*CommitResult]()

	rctx, cancel := context.WithTimeout(ctx, w.cfg.RPCTimeout())
	start := time.Now()
	f := w.ops.Commit(rctx)

	go func() {
		defer cancel()
		res, err := f.Get(rctx)
		commitDuration.Observe(time.Since(start).Seconds())
		detached := context.WithoutCancel(ctx)

		if err == nil && res.Successful {
			out.Complete(&CommitResult{Successful: true, Errors: res.Errors}, nil)
			w.finish(Committed, nil)
			go w.release(detached)
			return
		}

		if err == nil {
			err = res.Err(ops.CommitRPC)
		}
		w.trace.Error("commit", w.device, errors.Wrapf(err, "write failed, transaction %s, discarding changes", w.id))
		w.discard(detached)
		w.release(detached)
		w.finish(CommitFailed, err)

		if res == nil {
			out.Complete(nil, errors.Wrapf(err, "%s: commit of transaction %s failed", w.device, w.id))
			return
		}
		out.Complete(&CommitResult{Errors: res.Errors}, nil)
	}()
	return out
}

func (candidateOnly) abort(ctx context.Context, w *writeTx) {
	w.discard(ctx)
	w.release(ctx)
}

// candidateAndRunning additionally holds the running lock, acquired before the candidate lock,
// so that no other session changes running while the candidate is edited.
type candidateAndRunning struct {
	candidateOnly
}

func (candidateAndRunning) acquire(ctx context.Context, w *writeTx) error {
	if err := w.lock(ctx, ops.Running); err != nil {
		return err
	}
	if err := lockCandidate(ctx, w); err != nil {
		w.release(context.WithoutCancel(ctx))
		return err
	}
	return nil
}
