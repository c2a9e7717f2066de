// Package ops builds RFC 6241 protocol operations and invokes each of them, once, through an
// rpc.Invoker. It holds no state and performs no retries.
package ops

import (
	"context"
	"time"

	"github.com/damianoneill/ncbroker/netconf/common"
	"github.com/damianoneill/ncbroker/netconf/rpc"

	"github.com/pkg/errors"
)

// ErrCandidateReadUnsupported is reported when get-config is requested against the candidate datastore.
var ErrCandidateReadUnsupported = errors.New("get-config from the candidate datastore is not supported")

// Ops issues protocol operations against a single device.
type Ops struct {
	invoker rpc.Invoker
	device  string
	trace   *Trace
}

// NewOps delivers the protocol operations for device, invoked through invoker. Trace hooks are
// taken from ctx (see WithTrace).
func NewOps(ctx context.Context, invoker rpc.Invoker, device string) *Ops {
	return &Ops{invoker: invoker, device: device, trace: ContextTrace(ctx)}
}

// Device delivers the identity of the device the operations are issued against.
func (o *Ops) Device() string {
	return o.device
}

// Lock issues a lock request on the target datastore.
func (o *Ops) Lock(ctx context.Context, target Datastore) *rpc.Future[*rpc.Result] {
	return o.invoke(ctx, LockRPC, createLockRequest(target))
}

// Unlock issues an unlock request on the target datastore.
func (o *Ops) Unlock(ctx context.Context, target Datastore) *rpc.Future[*rpc.Result] {
	return o.invoke(ctx, UnlockRPC, createUnlockRequest(target))
}

// DiscardChanges issues a discard-changes request, reverting the candidate to the running configuration.
func (o *Ops) DiscardChanges(ctx context.Context) *rpc.Future[*rpc.Result] {
	return o.invoke(ctx, DiscardChangesRPC, createDiscardRequest())
}

// Commit issues a commit request.
func (o *Ops) Commit(ctx context.Context) *rpc.Future[*rpc.Result] {
	return o.invoke(ctx, CommitRPC, createCommitRequest())
}

// Validate issues a validate request against source.
func (o *Ops) Validate(ctx context.Context, source CfgDsOpt) *rpc.Future[*rpc.Result] {
	return o.invoke(ctx, ValidateRPC, createValidateRequest(source))
}

// CopyConfig issues a copy-config request.
// source and target are defined by a CfgDsOpt, which can be one of:
// - DsName(name) where name defines the configuration data store name (Running, Candidate ...)
// - DsURL(url) where url defines the url of the datastore
func (o *Ops) CopyConfig(ctx context.Context, source, target CfgDsOpt) *rpc.Future[*rpc.Result] {
	return o.invoke(ctx, CopyConfigRPC, createCopyConfigRequest(source, target))
}

// Get issues a get request with an optional subtree filter, which may be an xml string, a
// *data.Node or a struct with xml tags.
func (o *Ops) Get(ctx context.Context, filter interface{}) *rpc.Future[*rpc.Result] {
	return o.invoke(ctx, GetRPC, createGetRequest(filter))
}

// GetConfig issues a get-config request against source with an optional subtree filter.
// Reading the candidate datastore is rejected without invoking an rpc.
func (o *Ops) GetConfig(ctx context.Context, source Datastore, filter interface{}) *rpc.Future[*rpc.Result] {
	if source == Candidate {
		return rpc.Completed[*rpc.Result](nil, ErrCandidateReadUnsupported)
	}
	return o.invoke(ctx, GetConfigRPC, createGetConfigRequest(source, filter))
}

// EditConfig issues an edit-config request defined by config to be applied to the target datastore.
// config will be defined by a ConfigOption, which can be one of:
// - Cfg(cfg), where cfg is an xml string, a *data.Node, or a struct with xml tags.
// - CfgURL(url), in which case the configuration is defined by a <url> element.
func (o *Ops) EditConfig(ctx context.Context, target Datastore, config ConfigOption, options ...EditOption) *rpc.Future[*rpc.Result] {
	return o.invoke(ctx, EditConfigRPC, NewEditConfigRequest(target, config, options...))
}

// Invoke issues a prepared request, such as one built with NewEditConfigRequest.
func (o *Ops) Invoke(ctx context.Context, name string, req common.Request) *rpc.Future[*rpc.Result] {
	return o.invoke(ctx, name, req)
}

func (o *Ops) invoke(ctx context.Context, name string, req common.Request) *rpc.Future[*rpc.Result] {
	o.trace.RPCStart(o.device, name, req)
	start := time.Now()

	f := o.invoker.InvokeRPC(ctx, name, req)
	if f == nil {
		f = rpc.Completed[*rpc.Result](nil, errors.Errorf("no outcome for %s", name))
	}
	f.OnComplete(func(res *rpc.Result, err error) {
		o.trace.RPCDone(o.device, name, req, res, err, time.Since(start))
	})
	return f
}
