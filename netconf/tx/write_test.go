package tx

import (
	"context"
	"testing"
	"time"

	"github.com/damianoneill/ncbroker/netconf/common"
	"github.com/damianoneill/ncbroker/netconf/data"
	"github.com/damianoneill/ncbroker/netconf/ops"
	"github.com/damianoneill/ncbroker/netconf/rpc"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	assert "github.com/stretchr/testify/require"
)

func TestSelectProfile(t *testing.T) {
	assert.Equal(t, CandidateAndRunning, SelectProfile(common.Capabilities{Candidate: true, WritableRunning: true}))
	assert.Equal(t, CandidateOnly, SelectProfile(common.Capabilities{Candidate: true}))
	assert.Equal(t, RunningOnly, SelectProfile(common.Capabilities{WritableRunning: true}))
	assert.Equal(t, RunningOnly, SelectProfile(common.Capabilities{}))
}

func TestCandidateOnlyIssuesOneLock(t *testing.T) {

	f, minv := newMockFactory(t, candidateCaps)
	expectRPC(minv, ops.LockRPC, ops.Candidate).Return(ok())

	w, err := f.NewWriteOnlyTransaction(context.Background())
	assert.NoError(t, err, "Not expecting lock to fail")
	assert.NotEmpty(t, w.ID())
}

func TestCandidateOnlyLockRetry(t *testing.T) {

	f, minv := newMockFactory(t, candidateCaps)
	retries := testutil.ToFloat64(lockRetriesTotal)

	gomock.InOrder(
		expectRPC(minv, ops.LockRPC, ops.Candidate).Return(rejected("lock-denied")),
		expectRPC(minv, ops.DiscardChangesRPC, "").Return(ok()),
		expectRPC(minv, ops.LockRPC, ops.Candidate).Return(ok()),
	)

	_, err := f.NewWriteOnlyTransaction(context.Background())
	assert.NoError(t, err, "Expecting retried lock to succeed")
	assert.Equal(t, retries+1, testutil.ToFloat64(lockRetriesTotal))
}

func TestCandidateOnlyLockFailure(t *testing.T) {

	f, minv := newMockFactory(t, candidateCaps)
	gomock.InOrder(
		expectRPC(minv, ops.LockRPC, ops.Candidate).Return(rejected("lock-denied")),
		expectRPC(minv, ops.DiscardChangesRPC, "").Return(ok()),
		expectRPC(minv, ops.LockRPC, ops.Candidate).Return(rejected("lock-denied")),
	)

	w, err := f.NewWriteOnlyTransaction(context.Background())
	assert.Nil(t, w)
	assert.ErrorIs(t, err, ErrLockFailed)

	var lockErr *LockError
	assert.ErrorAs(t, err, &lockErr)
	assert.Equal(t, ops.Candidate, lockErr.Target)

	var rpcErr *rpc.Error
	assert.ErrorAs(t, err, &rpcErr, "Expecting device errors to be available")
	assert.Equal(t, "lock-denied", rpcErr.Errors[0].Tag)
}

func TestCandidateAndRunningOrdering(t *testing.T) {

	f, minv := newMockFactory(t, candidateRunningCaps)
	assert.Equal(t, CandidateAndRunning, f.Profile())

	done := make(chan struct{})
	gomock.InOrder(
		expectRPC(minv, ops.LockRPC, ops.Running).Return(ok()),
		expectRPC(minv, ops.LockRPC, ops.Candidate).Return(ok()),
		expectRPC(minv, ops.EditConfigRPC, ops.Candidate).Return(ok()),
		expectRPC(minv, ops.CommitRPC, "").Return(ok()),
		expectRPC(minv, ops.UnlockRPC, ops.Candidate).Return(ok()),
		expectRPC(minv, ops.UnlockRPC, ops.Running).Do(signal(done)).Return(ok()),
	)

	ctx := context.Background()
	w, err := f.NewWriteOnlyTransaction(ctx)
	assert.NoError(t, err)
	assert.NoError(t, w.Merge(ctx, Configuration, eth0Path(), ifEntry("1500")))

	res, err := w.Commit(ctx).Get(ctx)
	assert.NoError(t, err)
	assert.True(t, res.Successful)
	waitFor(t, done)
}

func TestCandidateAndRunningRunningLockFailure(t *testing.T) {

	f, minv := newMockFactory(t, candidateRunningCaps)
	expectRPC(minv, ops.LockRPC, ops.Running).Return(rejected("lock-denied"))

	_, err := f.NewWriteOnlyTransaction(context.Background())
	assert.ErrorIs(t, err, ErrLockFailed, "Running lock failure should not be retried")
}

func TestCandidateAndRunningCandidateLockFailure(t *testing.T) {

	f, minv := newMockFactory(t, candidateRunningCaps)
	gomock.InOrder(
		expectRPC(minv, ops.LockRPC, ops.Running).Return(ok()),
		expectRPC(minv, ops.LockRPC, ops.Candidate).Return(rejected("lock-denied")),
		expectRPC(minv, ops.DiscardChangesRPC, "").Return(ok()),
		expectRPC(minv, ops.LockRPC, ops.Candidate).Return(broken()),
		expectRPC(minv, ops.UnlockRPC, ops.Running).Return(ok()),
	)

	_, err := f.NewWriteOnlyTransaction(context.Background())
	assert.ErrorIs(t, err, ErrLockFailed)
}

func TestRunningOnlyLockFailureNotRetried(t *testing.T) {

	f, minv := newMockFactory(t, runningCaps)
	assert.Equal(t, RunningOnly, f.Profile())
	expectRPC(minv, ops.LockRPC, ops.Running).Return(rejected("lock-denied"))

	_, err := f.NewWriteOnlyTransaction(context.Background())
	assert.ErrorIs(t, err, ErrLockFailed)
}

func TestRunningOnlyCommitOnlyUnlocks(t *testing.T) {

	f, minv := newMockFactory(t, runningCaps)
	gomock.InOrder(
		expectRPC(minv, ops.LockRPC, ops.Running).Return(ok()),
		expectRPC(minv, ops.EditConfigRPC, ops.Running).Return(ok()),
		expectRPC(minv, ops.UnlockRPC, ops.Running).Return(ok()),
	)

	ctx := context.Background()
	w, err := f.NewWriteOnlyTransaction(ctx)
	assert.NoError(t, err)
	assert.NoError(t, w.Put(ctx, Configuration, eth0Path(), ifEntry("1500")))

	res, err := w.Commit(ctx).Get(ctx)
	assert.NoError(t, err)
	assert.True(t, res.Successful)
}

func TestEditOperationMapping(t *testing.T) {

	f, minv := newMockFactory(t, candidateCaps)
	const rollback = `<error-option>rollback-on-error</error-option>`
	gomock.InOrder(
		expectRPC(minv, ops.LockRPC, ops.Candidate).Return(ok()),
		minv.EXPECT().InvokeRPC(gomock.Any(), ops.EditConfigRPC,
			body(`<target><candidate/></target>`, `<default-operation>none</default-operation>`, rollback, `nc:operation="replace"`, `<mtu>1500</mtu>`)).Return(ok()),
		minv.EXPECT().InvokeRPC(gomock.Any(), ops.EditConfigRPC,
			body(rollback, `<mtu>9000</mtu>`).without(`operation`)).Return(ok()),
		minv.EXPECT().InvokeRPC(gomock.Any(), ops.EditConfigRPC,
			body(`<default-operation>none</default-operation>`, rollback, `<eth0 xmlns:nc="urn:ietf:params:xml:ns:netconf:base:1.0" nc:operation="delete"></eth0>`)).Return(ok()),
	)

	ctx := context.Background()
	w, err := f.NewWriteOnlyTransaction(ctx)
	assert.NoError(t, err)
	assert.NoError(t, w.Put(ctx, Configuration, eth0Path(), ifEntry("1500")))
	assert.NoError(t, w.Merge(ctx, Configuration, eth0Path(), ifEntry("9000")))
	assert.NoError(t, w.Delete(ctx, Configuration, eth0Path()))
}

func TestRollbackOnErrorCanBeDisabled(t *testing.T) {

	f, minv := newMockFactory(t, candidateCaps, WithConfig(&Config{DisableRollbackOnError: true}))
	gomock.InOrder(
		expectRPC(minv, ops.LockRPC, ops.Candidate).Return(ok()),
		minv.EXPECT().InvokeRPC(gomock.Any(), ops.EditConfigRPC, body(`<mtu>1500</mtu>`).without(`error-option`)).Return(ok()),
	)

	ctx := context.Background()
	w, err := f.NewWriteOnlyTransaction(ctx)
	assert.NoError(t, err)
	assert.NoError(t, w.Put(ctx, Configuration, eth0Path(), ifEntry("1500")))
}

func TestFinishedTransactionFailsFast(t *testing.T) {

	f, minv := newMockFactory(t, runningCaps)
	gomock.InOrder(
		expectRPC(minv, ops.LockRPC, ops.Running).Return(ok()),
		expectRPC(minv, ops.UnlockRPC, ops.Running).Return(ok()),
	)

	ctx := context.Background()
	w, err := f.NewWriteOnlyTransaction(ctx)
	assert.NoError(t, err)
	_, err = w.Commit(ctx).Get(ctx)
	assert.NoError(t, err)

	assert.ErrorIs(t, w.Put(ctx, Configuration, eth0Path(), ifEntry("1")), ErrTransactionFinished)
	assert.ErrorIs(t, w.Merge(ctx, Configuration, eth0Path(), ifEntry("1")), ErrTransactionFinished)
	assert.ErrorIs(t, w.Delete(ctx, Configuration, eth0Path()), ErrTransactionFinished)
	_, err = w.Commit(ctx).Get(ctx)
	assert.ErrorIs(t, err, ErrTransactionFinished)
	assert.False(t, w.Cancel(ctx))
}

func TestCancelIsIdempotent(t *testing.T) {

	f, minv := newMockFactory(t, candidateCaps)
	gomock.InOrder(
		expectRPC(minv, ops.LockRPC, ops.Candidate).Return(ok()),
		expectRPC(minv, ops.DiscardChangesRPC, "").Return(ok()),
		expectRPC(minv, ops.UnlockRPC, ops.Candidate).Return(ok()),
	)

	ctx := context.Background()
	w, err := f.NewWriteOnlyTransaction(ctx)
	assert.NoError(t, err)

	assert.True(t, w.Cancel(ctx))
	assert.False(t, w.Cancel(ctx), "Second cancel should do nothing")
	_, err = w.Commit(ctx).Get(ctx)
	assert.ErrorIs(t, err, ErrTransactionFinished)
}

func TestRunningOnlyCancelOnlyUnlocks(t *testing.T) {

	f, minv := newMockFactory(t, runningCaps)
	gomock.InOrder(
		expectRPC(minv, ops.LockRPC, ops.Running).Return(ok()),
		expectRPC(minv, ops.UnlockRPC, ops.Running).Return(ok()),
	)

	ctx := context.Background()
	w, err := f.NewWriteOnlyTransaction(ctx)
	assert.NoError(t, err)
	assert.True(t, w.Cancel(ctx))
}

func TestEditFailureCancelsTransaction(t *testing.T) {

	f, minv := newMockFactory(t, candidateCaps)
	before := testutil.ToFloat64(transactionsTotal.WithLabelValues("candidate", string(Failed)))
	gomock.InOrder(
		expectRPC(minv, ops.LockRPC, ops.Candidate).Return(ok()),
		expectRPC(minv, ops.EditConfigRPC, ops.Candidate).Return(rejected("invalid-value")),
		expectRPC(minv, ops.DiscardChangesRPC, "").Return(ok()),
		expectRPC(minv, ops.UnlockRPC, ops.Candidate).Return(ok()),
	)

	ctx := context.Background()
	w, err := f.NewWriteOnlyTransaction(ctx)
	assert.NoError(t, err)

	err = w.Put(ctx, Configuration, eth0Path(), ifEntry("1500"))
	assert.EqualError(t, err, "dev1: error while replacing /if/eth0 in transaction "+w.ID()+": netconf edit-config failed: netconf rpc [error] 'invalid-value'")

	var rpcErr *rpc.Error
	assert.ErrorAs(t, err, &rpcErr)
	assert.ErrorIs(t, w.Merge(ctx, Configuration, eth0Path(), ifEntry("1")), ErrTransactionFinished, "Transaction should be dead after failure")
	assert.False(t, w.Cancel(ctx))
	assert.Equal(t, before+1, testutil.ToFloat64(transactionsTotal.WithLabelValues("candidate", string(Failed))))
}

func TestEditPreconditionsIssueNoRPC(t *testing.T) {

	f, minv := newMockFactory(t, candidateCaps)
	gomock.InOrder(
		expectRPC(minv, ops.LockRPC, ops.Candidate).Return(ok()),
		expectRPC(minv, ops.DiscardChangesRPC, "").Return(ok()),
		expectRPC(minv, ops.UnlockRPC, ops.Candidate).Return(ok()),
	)

	ctx := context.Background()
	w, err := f.NewWriteOnlyTransaction(ctx)
	assert.NoError(t, err)

	assert.ErrorIs(t, w.Put(ctx, Operational, eth0Path(), ifEntry("1")), ErrUnsupportedStore)
	assert.ErrorIs(t, w.Delete(ctx, Configuration, data.Path{}), ErrEmptyPath)
	assert.True(t, w.Cancel(ctx), "Transaction should remain usable after a rejected edit")
}

func TestCommitRejected(t *testing.T) {

	var reported []error
	trace := &Trace{Error: func(context, device string, err error) { reported = append(reported, err) }}
	f, minv := newMockFactory(t, candidateCaps, WithTrace(trace))
	gomock.InOrder(
		expectRPC(minv, ops.LockRPC, ops.Candidate).Return(ok()),
		expectRPC(minv, ops.CommitRPC, "").Return(rejected("operation-failed")),
		expectRPC(minv, ops.DiscardChangesRPC, "").Return(ok()),
		expectRPC(minv, ops.UnlockRPC, ops.Candidate).Return(ok()),
	)

	ctx := context.Background()
	w, err := f.NewWriteOnlyTransaction(ctx)
	assert.NoError(t, err)

	res, err := w.Commit(ctx).Get(ctx)
	assert.NoError(t, err, "Rejected commit is reported in the result")
	assert.False(t, res.Successful)
	assert.Equal(t, "operation-failed", res.Errors[0].Tag)
	assert.Len(t, reported, 1)
}

func TestCommitTransportFailure(t *testing.T) {

	f, minv := newMockFactory(t, candidateCaps)
	gomock.InOrder(
		expectRPC(minv, ops.LockRPC, ops.Candidate).Return(ok()),
		expectRPC(minv, ops.CommitRPC, "").Return(broken()),
		expectRPC(minv, ops.DiscardChangesRPC, "").Return(ok()),
		expectRPC(minv, ops.UnlockRPC, ops.Candidate).Return(ok()),
	)

	ctx := context.Background()
	w, err := f.NewWriteOnlyTransaction(ctx)
	assert.NoError(t, err)

	_, err = w.Commit(ctx).Get(ctx)
	assert.EqualError(t, err, "dev1: commit of transaction "+w.ID()+" failed: connection reset")
}

func TestCleanupFailureIsReported(t *testing.T) {

	var reported []string
	trace := &Trace{Error: func(context, device string, err error) { reported = append(reported, context+":"+device) }}
	f, minv := newMockFactory(t, candidateCaps, WithTrace(trace))
	discards := testutil.ToFloat64(cleanupFailuresTotal.WithLabelValues(ops.DiscardChangesRPC))
	unlocks := testutil.ToFloat64(cleanupFailuresTotal.WithLabelValues(ops.UnlockRPC))

	gomock.InOrder(
		expectRPC(minv, ops.LockRPC, ops.Candidate).Return(ok()),
		expectRPC(minv, ops.DiscardChangesRPC, "").Return(broken()),
		expectRPC(minv, ops.UnlockRPC, ops.Candidate).Return(rejected("operation-failed")),
	)

	ctx := context.Background()
	w, err := f.NewWriteOnlyTransaction(ctx)
	assert.NoError(t, err)
	assert.True(t, w.Cancel(ctx), "Cleanup failure does not fail cancel")

	assert.Equal(t, []string{"cleanup:dev1", "cleanup:dev1"}, reported)
	assert.Equal(t, discards+1, testutil.ToFloat64(cleanupFailuresTotal.WithLabelValues(ops.DiscardChangesRPC)))
	assert.Equal(t, unlocks+1, testutil.ToFloat64(cleanupFailuresTotal.WithLabelValues(ops.UnlockRPC)))
}

func TestPostCommitUnlockFailureOnlyReported(t *testing.T) {

	reported := make(chan error, 1)
	trace := &Trace{Error: func(context, device string, err error) { reported <- err }}
	f, minv := newMockFactory(t, candidateCaps, WithTrace(trace))
	gomock.InOrder(
		expectRPC(minv, ops.LockRPC, ops.Candidate).Return(ok()),
		expectRPC(minv, ops.CommitRPC, "").Return(ok()),
		expectRPC(minv, ops.UnlockRPC, ops.Candidate).Return(rejected("operation-failed")),
	)

	ctx := context.Background()
	w, err := f.NewWriteOnlyTransaction(ctx)
	assert.NoError(t, err)

	res, err := w.Commit(ctx).Get(ctx)
	assert.NoError(t, err)
	assert.True(t, res.Successful, "Unlock failure should not affect the commit result")

	select {
	case err = <-reported:
		assert.Contains(t, errors.Cause(err).Error(), "unlock failed")
	case <-time.After(2 * time.Second):
		t.Fatal("Expecting unlock failure to be reported")
	}
}

func TestCommitCancelRace(t *testing.T) {

	f, minv := newMockFactory(t, runningCaps)
	gomock.InOrder(
		expectRPC(minv, ops.LockRPC, ops.Running).Return(ok()),
		expectRPC(minv, ops.UnlockRPC, ops.Running).Return(ok()),
	)

	ctx := context.Background()
	w, err := f.NewWriteOnlyTransaction(ctx)
	assert.NoError(t, err)

	results := make(chan bool, 2)
	go func() {
		_, err := w.Commit(ctx).Get(ctx)
		results <- err == nil
	}()
	go func() {
		results <- w.Cancel(ctx)
	}()
	winners := 0
	for i := 0; i < 2; i++ {
		if <-results {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "Exactly one of commit and cancel should take effect")
}
