package tx_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/damianoneill/ncbroker/netconf/common"
	"github.com/damianoneill/ncbroker/netconf/data"
	"github.com/damianoneill/ncbroker/netconf/ops"
	"github.com/damianoneill/ncbroker/netconf/simulator"
	"github.com/damianoneill/ncbroker/netconf/tx"

	assert "github.com/stretchr/testify/require"
)

const ifNS = "urn:example:if"

func eth0Path() data.Path {
	return data.MustParsePath("/ex:if/eth0", data.Namespace{ID: "ex", Path: ifNS})
}

func eth0(mtu string) *data.Node {
	return data.Container(data.Name(ifNS, "eth0"), data.Leaf(data.Name(ifNS, "mtu"), mtu))
}

func rpcs(d *simulator.Device) []string {
	var names []string
	for _, c := range d.Calls() {
		names = append(names, c.String())
	}
	return names
}

func bodyOf(d *simulator.Device, name string) string {
	for _, c := range d.Calls() {
		if c.RPC == name {
			return c.Body
		}
	}
	return ""
}

func newFactory(d *simulator.Device) *tx.Factory {
	return tx.NewFactory(d.Session(), d.Capabilities(), tx.WithDeviceID("sim"), tx.WithTrace(tx.NoOpLoggingHooks))
}

// Candidate device with rollback-on-error: put then commit.
func TestScenarioCandidateCommit(t *testing.T) {

	d := simulator.New(simulator.WithCapabilities(common.Capabilities{Candidate: true, RollbackOnError: true}))
	f := newFactory(d)
	assert.Equal(t, tx.CandidateOnly, f.Profile())

	ctx := context.Background()
	w, err := f.NewWriteOnlyTransaction(ctx)
	assert.NoError(t, err)
	assert.NoError(t, w.Put(ctx, tx.Configuration, eth0Path(), eth0("1500")))

	res, err := w.Commit(ctx).Get(ctx)
	assert.NoError(t, err)
	assert.True(t, res.Successful)

	assert.Eventually(t, func() bool { return d.LockHolder(ops.Candidate) == "" }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"lock candidate", "edit-config candidate", "commit", "unlock candidate"}, rpcs(d))

	edit := bodyOf(d, ops.EditConfigRPC)
	assert.Contains(t, edit, `<error-option>rollback-on-error</error-option>`)
	assert.Contains(t, edit, `nc:operation="replace"`)
	assert.Contains(t, edit, `<mtu>1500</mtu>`)

	running := d.Datastore(ops.Running)
	assert.Equal(t, "1500", data.FindNode(running, append(eth0Path(), data.Arg(data.Name(ifNS, "mtu")))).Value)
}

// Candidate device rejecting the edit.
func TestScenarioEditFailure(t *testing.T) {

	d := simulator.New(simulator.WithCapabilities(common.Capabilities{Candidate: true, RollbackOnError: true}))
	d.FailOn(ops.EditConfigRPC, 1)
	f := newFactory(d)

	ctx := context.Background()
	w, err := f.NewWriteOnlyTransaction(ctx)
	assert.NoError(t, err)

	err = w.Put(ctx, tx.Configuration, eth0Path(), eth0("1500"))
	assert.Error(t, err, "Expecting edit failure to be raised")

	_, err = w.Commit(ctx).Get(ctx)
	assert.ErrorIs(t, err, tx.ErrTransactionFinished)
	assert.Equal(t, []string{"lock candidate", "edit-config candidate", "discard-changes", "unlock candidate"}, rpcs(d))
}

// Device without candidate: delete then commit.
func TestScenarioRunningOnlyDelete(t *testing.T) {

	if0 := data.Container(data.Name(ifNS, "if"), eth0("1500"))
	d := simulator.New(simulator.WithCapabilities(common.Capabilities{}), simulator.WithRunning(if0))
	f := newFactory(d)
	assert.Equal(t, tx.RunningOnly, f.Profile())

	ctx := context.Background()
	w, err := f.NewWriteOnlyTransaction(ctx)
	assert.NoError(t, err)
	assert.NoError(t, w.Delete(ctx, tx.Configuration, eth0Path()))

	res, err := w.Commit(ctx).Get(ctx)
	assert.NoError(t, err)
	assert.True(t, res.Successful)
	assert.Equal(t, []string{"lock running", "edit-config running", "unlock running"}, rpcs(d))
	assert.Contains(t, bodyOf(d, ops.EditConfigRPC), `nc:operation="delete"`)
	assert.Nil(t, data.FindNode(d.Datastore(ops.Running), eth0Path()), "Expecting eth0 to be deleted")
}

func TestScenarioDirtyCandidateRecovered(t *testing.T) {

	d := simulator.New()
	other := ops.NewOps(context.Background(), d.Session(), "other")
	_, err := other.EditConfig(context.Background(), ops.Candidate, ops.Cfg(data.Container(data.Name(ifNS, "if"), eth0("1")))).Get(context.Background())
	assert.NoError(t, err)
	d.ResetCalls()

	w, err := newFactory(d).NewWriteOnlyTransaction(context.Background())
	assert.NoError(t, err, "Expecting lock to succeed after discarding changes")
	assert.True(t, w.Cancel(context.Background()))
	assert.Equal(t, []string{"lock candidate", "discard-changes", "lock candidate", "discard-changes", "unlock candidate"}, rpcs(d))
}

func TestScenarioCandidateAndRunning(t *testing.T) {

	d := simulator.New(simulator.WithCapabilities(common.Capabilities{Candidate: true, WritableRunning: true}))
	f := newFactory(d)

	ctx := context.Background()
	w, err := f.NewWriteOnlyTransaction(ctx)
	assert.NoError(t, err)
	assert.NoError(t, w.Merge(ctx, tx.Configuration, eth0Path(), eth0("9000")))

	// Running is locked for the lifetime of the transaction.
	other := ops.NewOps(ctx, d.Session(), "other")
	res, err := other.EditConfig(ctx, ops.Running, ops.Cfg(data.Container(data.Name(ifNS, "if")))).Get(ctx)
	assert.NoError(t, err)
	assert.False(t, res.Successful)

	cres, err := w.Commit(ctx).Get(ctx)
	assert.NoError(t, err)
	assert.True(t, cres.Successful)
	assert.Eventually(t, func() bool { return d.LockHolder(ops.Running) == "" }, time.Second, 5*time.Millisecond)

	var mine []string
	for _, c := range rpcs(d) {
		if !strings.HasPrefix(c, "edit-config running") {
			mine = append(mine, c)
		}
	}
	assert.Equal(t, []string{"lock running", "lock candidate", "edit-config candidate", "commit", "unlock candidate", "unlock running"}, mine)
}

func TestScenarioConcurrentTransactionLocksOut(t *testing.T) {

	d := simulator.New(simulator.WithCapabilities(common.Capabilities{WritableRunning: true}))
	ctx := context.Background()

	w, err := newFactory(d).NewWriteOnlyTransaction(ctx)
	assert.NoError(t, err)

	_, err = newFactory(d).NewWriteOnlyTransaction(ctx)
	assert.ErrorIs(t, err, tx.ErrLockFailed)

	assert.True(t, w.Cancel(ctx))
	_, err = newFactory(d).NewWriteOnlyTransaction(ctx)
	assert.NoError(t, err, "Expecting lock to be available after cancel")
}
