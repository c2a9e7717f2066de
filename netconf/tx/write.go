package tx

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/damianoneill/ncbroker/netconf/common"
	"github.com/damianoneill/ncbroker/netconf/data"
	"github.com/damianoneill/ncbroker/netconf/ops"
	"github.com/damianoneill/ncbroker/netconf/rpc"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Store identifies the logical datastore addressed by a transaction.
type Store int

const (
	Configuration Store = iota
	Operational
)

func (s Store) String() string {
	switch s {
	case Configuration:
		return "configuration"
	case Operational:
		return "operational"
	}
	return "unknown"
}

// Profile identifies the write strategy selected from the device capabilities.
type Profile int

const (
	RunningOnly Profile = iota
	CandidateOnly
	CandidateAndRunning
)

func (p Profile) String() string {
	switch p {
	case CandidateOnly:
		return "candidate"
	case CandidateAndRunning:
		return "candidate-running"
	}
	return "running"
}

// SelectProfile delivers the write strategy appropriate to caps.
func SelectProfile(caps common.Capabilities) Profile {
	switch {
	case caps.Candidate && caps.WritableRunning:
		return CandidateAndRunning
	case caps.Candidate:
		return CandidateOnly
	default:
		return RunningOnly
	}
}

// Outcome describes the terminal state of a write transaction.
type Outcome string

const (
	Committed    Outcome = "committed"
	CommitFailed Outcome = "commit-failed"
	Cancelled    Outcome = "cancelled"
	Failed       Outcome = "failed"
	LockFailed   Outcome = "lock-failed"
)

// CommitResult is the outcome of a commit. A commit rejected by the device is unsuccessful and
// carries the reported errors.
type CommitResult struct {
	Successful bool
	Errors     []common.RPCError
}

// WriteTransaction changes the configuration of a device. Each edit is sent to the device as it is
// made; the transaction holds its datastore lock(s) from creation until it is committed, cancelled
// or fails. A transaction is not safe for concurrent use.
type WriteTransaction interface {
	// ID delivers the identity of the transaction.
	ID() string

	// Put replaces the data at path with value.
	Put(ctx context.Context, store Store, path data.Path, value *data.Node) error

	// Merge merges value with the data at path.
	Merge(ctx context.Context, store Store, path data.Path, value *data.Node) error

	// Delete removes the data at path.
	Delete(ctx context.Context, store Store, path data.Path) error

	// Commit makes the edits effective and releases the transaction. The returned future
	// resolves to an unsuccessful result if the device rejects the commit, and to an error if
	// the commit could not be completed.
	Commit(ctx context.Context) *rpc.Future[*CommitResult]

	// Cancel discards the edits and releases the transaction. It returns false if the transaction
	// had already finished.
	Cancel(ctx context.Context) bool
}

// strategy defines the profile specific parts of a write transaction.
type strategy interface {
	acquire(ctx context.Context, w *writeTx) error
	commit(ctx context.Context, w *writeTx) *rpc.Future[*CommitResult]
	abort(ctx context.Context, w *writeTx)
}

// writeTx implements the edit path shared by every profile.
type writeTx struct {
	id         string
	device     string
	profile    Profile
	target     ops.Datastore
	rollback   bool
	ops        *ops.Ops
	cfg        *Config
	trace      *Trace
	normalizer Normalizer
	strategy   strategy

	finished atomic.Bool
	started  time.Time
	locks    []ops.Datastore
}

func strategyFor(profile Profile) (strategy, ops.Datastore) {
	switch profile {
	case CandidateAndRunning:
		return candidateAndRunning{}, ops.Candidate
	case CandidateOnly:
		return candidateOnly{}, ops.Candidate
	default:
		return runningOnly{}, ops.Running
	}
}

func newWriteTx(ctx context.Context, o *ops.Ops, profile Profile, rollback bool, cfg *Config, trace *Trace, normalizer Normalizer) (*writeTx, error) {
	s, target := strategyFor(profile)
	w := &writeTx{
		id:         uuid.New().String(),
		device:     o.Device(),
		profile:    profile,
		target:     target,
		rollback:   rollback,
		ops:        o,
		cfg:        cfg,
		trace:      trace,
		normalizer: normalizer,
		strategy:   s,
		started:    time.Now(),
	}

	if err := s.acquire(ctx, w); err != nil {
		w.finished.Store(true)
		w.finish(LockFailed, err)
		return nil, err
	}
	w.trace.Started(w.device, w.id, profile)
	return w, nil
}

func (w *writeTx) ID() string {
	return w.id
}

func (w *writeTx) Put(ctx context.Context, store Store, path data.Path, value *data.Node) error {
	return w.edit(ctx, store, EditRequest{Path: path, Action: data.Replace, Value: value}, data.None)
}

func (w *writeTx) Merge(ctx context.Context, store Store, path data.Path, value *data.Node) error {
	return w.edit(ctx, store, EditRequest{Path: path, Value: value}, data.Unspecified)
}

func (w *writeTx) Delete(ctx context.Context, store Store, path data.Path) error {
	return w.edit(ctx, store, EditRequest{Path: path, Action: data.Delete}, data.None)
}

func (w *writeTx) Commit(ctx context.Context) *rpc.Future[*CommitResult] {
	if !w.finished.CompareAndSwap(false, true) {
		return rpc.Completed[*CommitResult](nil, w.finishedErr())
	}
	return w.strategy.commit(ctx, w)
}

func (w *writeTx) Cancel(ctx context.Context) bool {
	if !w.finished.CompareAndSwap(false, true) {
		return false
	}
	w.strategy.abort(context.WithoutCancel(ctx), w)
	w.finish(Cancelled, nil)
	return true
}

func (w *writeTx) finishedErr() error {
	return errors.Wrapf(ErrTransactionFinished, "%s: transaction %s", w.device, w.id)
}

func (w *writeTx) edit(ctx context.Context, store Store, req EditRequest, defaultOp data.ModifyAction) error {
	if w.finished.Load() {
		return w.finishedErr()
	}
	if store != Configuration {
		return errors.Wrapf(ErrUnsupportedStore, "%s: cannot %s %s in the %s store", w.device, verb(req.Action), req.Path, store)
	}

	if req.Value != nil {
		legacy, err := w.normalizer.ToLegacy(req.Path, req.Value)
		if err != nil {
			return errors.Wrapf(err, "%s: cannot convert value for %s", w.device, req.Path)
		}
		req.Value = legacy
	}
	editReq, err := BuildEditConfig(req, EditOptions{Target: w.target, DefaultOperation: defaultOp, RollbackOnError: w.rollback})
	if err != nil {
		return errors.Wrapf(err, "%s: cannot %s %s", w.device, verb(req.Action), req.Path)
	}

	start := time.Now()
	err = w.await(ctx, w.cfg.RPCTimeout(), ops.EditConfigRPC, func(ctx context.Context) *rpc.Future[*rpc.Result] {
		return w.ops.Invoke(ctx, ops.EditConfigRPC, editReq)
	})
	w.trace.EditDone(w.device, w.id, req.Action, req.Path, err, time.Since(start))
	editsTotal.WithLabelValues(verb(req.Action), editResult(err)).Inc()
	if err == nil {
		return nil
	}

	// The transaction is dead once an edit fails.
	err = errors.Wrapf(err, "%s: error while %s %s in transaction %s", w.device, gerund(req.Action), req.Path, w.id)
	w.fail(ctx, err)
	return err
}

// fail releases the transaction after an edit failure, unless it has already finished.
func (w *writeTx) fail(ctx context.Context, err error) {
	if !w.finished.CompareAndSwap(false, true) {
		return
	}
	w.strategy.abort(context.WithoutCancel(ctx), w)
	w.finish(Failed, err)
}

func (w *writeTx) finish(outcome Outcome, err error) {
	transactionsTotal.WithLabelValues(w.profile.String(), string(outcome)).Inc()
	w.trace.Finished(w.device, w.id, outcome, err, time.Since(w.started))
}

// await invokes an rpc and waits, at most timeout, for its outcome. An rpc rejected by the device
// is reported as an *rpc.Error.
func (w *writeTx) await(ctx context.Context, timeout time.Duration, name string, invoke func(context.Context) *rpc.Future[*rpc.Result]) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := invoke(ctx).Get(ctx)
	if err != nil {
		return err
	}
	return res.Err(name)
}

// lock acquires target, recording it so it is released when the transaction finishes.
func (w *writeTx) lock(ctx context.Context, target ops.Datastore) error {
	err := w.await(ctx, w.cfg.LockTimeout(), ops.LockRPC, func(ctx context.Context) *rpc.Future[*rpc.Result] {
		return w.ops.Lock(ctx, target)
	})
	if err != nil {
		return &LockError{Device: w.device, Target: target, Err: err}
	}
	w.locks = append(w.locks, target)
	return nil
}

// discard reverts the candidate. Failure is reported, not returned.
func (w *writeTx) discard(ctx context.Context) bool {
	err := w.await(ctx, w.cfg.RPCTimeout(), ops.DiscardChangesRPC, w.ops.DiscardChanges)
	if err != nil {
		w.cleanupFailed(ops.DiscardChangesRPC, errors.Wrapf(err, "discarding changes failed, transaction %s, device configuration might be corrupted", w.id))
		return false
	}
	return true
}

// release unlocks every held datastore, in reverse order of acquisition. Failures are reported,
// not returned.
func (w *writeTx) release(ctx context.Context) {
	for i := len(w.locks) - 1; i >= 0; i-- {
		target := w.locks[i]
		err := w.await(ctx, w.cfg.RPCTimeout(), ops.UnlockRPC, func(ctx context.Context) *rpc.Future[*rpc.Result] {
			return w.ops.Unlock(ctx, target)
		})
		if err != nil {
			w.cleanupFailed(ops.UnlockRPC, errors.Wrapf(err, "unlock of %s datastore failed, transaction %s", target, w.id))
		}
	}
	w.locks = nil
}

func (w *writeTx) cleanupFailed(name string, err error) {
	cleanupFailuresTotal.WithLabelValues(name).Inc()
	w.trace.Error("cleanup", w.device, err)
}

func verb(action data.ModifyAction) string {
	switch action {
	case data.Replace:
		return "put"
	case data.Delete:
		return "delete"
	}
	return "merge"
}

func gerund(action data.ModifyAction) string {
	switch action {
	case data.Replace:
		return "replacing"
	case data.Delete:
		return "deleting"
	}
	return "merging"
}
