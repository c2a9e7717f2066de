package simulator

import (
	"github.com/damianoneill/ncbroker/netconf/common"
	"github.com/damianoneill/ncbroker/netconf/data"
	"github.com/damianoneill/ncbroker/netconf/ops"
	"github.com/damianoneill/ncbroker/netconf/rpc"
)

type handler func(d *Device, session string, req *data.Node) *rpc.Result

var handlers map[string]handler

func init() {
	handlers = map[string]handler{
		ops.LockRPC:           (*Device).lock,
		ops.UnlockRPC:         (*Device).unlock,
		ops.EditConfigRPC:     (*Device).editConfig,
		ops.CommitRPC:         (*Device).commit,
		ops.DiscardChangesRPC: (*Device).discardChanges,
		ops.ValidateRPC:       (*Device).validate,
		ops.CopyConfigRPC:     (*Device).copyConfig,
		ops.GetRPC:            (*Device).get,
		ops.GetConfigRPC:      (*Device).getConfig,
	}
}

// datastore resolves the datastore named within the element called local, which must be one the
// device supports.
func (d *Device) datastore(req *data.Node, local string) (ops.Datastore, *rpc.Result) {
	wrapper := req.Child(localName(local), false)
	if wrapper == nil {
		return "", rpc.Failed(rpcError(common.ErrorTypeProtocol, "missing-element", "missing "+local))
	}
	ds := ops.Datastore(wrapper.Children[0].Name.Local)
	switch {
	case ds == ops.Running, ds == ops.Startup:
	case ds == ops.Candidate && d.caps.Candidate:
	default:
		return "", rpc.Failed(rpcError(common.ErrorTypeProtocol, "invalid-value", "unsupported datastore "+string(ds)))
	}
	return ds, nil
}

func (d *Device) lock(session string, req *data.Node) *rpc.Result {
	ds, fail := d.datastore(req, "target")
	if fail != nil {
		return fail
	}
	if holder, held := d.locks[ds]; held {
		e := rpcError(common.ErrorTypeProtocol, "lock-denied", "lock held by session "+holder)
		e.Info = &common.ErrorInfo{Content: "<session-id>" + holder + "</session-id>"}
		return rpc.Failed(e)
	}
	if ds == ops.Candidate && d.dirty {
		return rpc.Failed(rpcError(common.ErrorTypeProtocol, "lock-denied", "candidate has uncommitted changes"))
	}
	d.locks[ds] = session
	return rpc.Success(nil)
}

func (d *Device) unlock(session string, req *data.Node) *rpc.Result {
	ds, fail := d.datastore(req, "target")
	if fail != nil {
		return fail
	}
	if d.locks[ds] != session {
		return rpc.Failed(rpcError(common.ErrorTypeProtocol, "operation-failed", "lock not held by this session"))
	}
	delete(d.locks, ds)
	return rpc.Success(nil)
}

// inUse returns a failure if ds is locked by a session other than session.
func (d *Device) inUse(session string, ds ops.Datastore) *rpc.Result {
	if holder, held := d.locks[ds]; held && holder != session {
		return rpc.Failed(rpcError(common.ErrorTypeProtocol, "in-use", string(ds)+" locked by session "+holder))
	}
	return nil
}

func (d *Device) editConfig(session string, req *data.Node) *rpc.Result {
	ds, fail := d.datastore(req, "target")
	if fail != nil {
		return fail
	}
	if ds == ops.Running && d.caps.Candidate && !d.caps.WritableRunning {
		return rpc.Failed(rpcError(common.ErrorTypeProtocol, "operation-not-supported", "running is not writable"))
	}
	if fail = d.inUse(session, ds); fail != nil {
		return fail
	}

	defaultOp := data.Merge.String()
	if n := req.Child(localName("default-operation"), true); n != nil {
		defaultOp = n.Value
	}
	rollback := false
	if n := req.Child(localName("error-option"), true); n != nil {
		rollback = n.Value == ops.RollbackOnErrorErrOpt
		if rollback && !d.caps.RollbackOnError {
			return rpc.Failed(rpcError(common.ErrorTypeProtocol, "operation-not-supported", "rollback-on-error is not supported"))
		}
	}
	config := req.Child(localName("config"), false)
	if config == nil {
		// An empty config element has no children, so is parsed as a leaf.
		if req.Child(localName("config"), true) == nil {
			return rpc.Failed(rpcError(common.ErrorTypeProtocol, "missing-element", "missing config"))
		}
		return rpc.Success(nil)
	}

	working := d.stores[ds].Clone()
	ed := editor{listKeys: d.listKeys}
	var editErr *common.RPCError
	for _, c := range config.Children {
		if editErr = ed.apply(working, c, defaultOp); editErr != nil {
			break
		}
	}
	if editErr != nil && rollback {
		return rpc.Failed(*editErr)
	}
	d.stores[ds] = working
	if ds == ops.Candidate {
		d.dirty = true
	}
	if editErr != nil {
		return rpc.Failed(*editErr)
	}
	return rpc.Success(nil)
}

func (d *Device) commit(session string, _ *data.Node) *rpc.Result {
	if !d.caps.Candidate {
		return rpc.Failed(rpcError(common.ErrorTypeProtocol, "operation-not-supported", "candidate is not supported"))
	}
	if fail := d.inUse(session, ops.Running); fail != nil {
		return fail
	}
	d.stores[ops.Running] = d.stores[ops.Candidate].Clone()
	d.dirty = false
	return rpc.Success(nil)
}

func (d *Device) discardChanges(_ string, _ *data.Node) *rpc.Result {
	if !d.caps.Candidate {
		return rpc.Failed(rpcError(common.ErrorTypeProtocol, "operation-not-supported", "candidate is not supported"))
	}
	d.discard()
	return rpc.Success(nil)
}

func (d *Device) discard() {
	d.stores[ops.Candidate] = d.stores[ops.Running].Clone()
	d.dirty = false
}

func (d *Device) validate(_ string, req *data.Node) *rpc.Result {
	if !d.caps.Validate {
		return rpc.Failed(rpcError(common.ErrorTypeProtocol, "operation-not-supported", "validate is not supported"))
	}
	if _, fail := d.datastore(req, "source"); fail != nil {
		return fail
	}
	return rpc.Success(nil)
}

func (d *Device) copyConfig(session string, req *data.Node) *rpc.Result {
	source, fail := d.datastore(req, "source")
	if fail != nil {
		return fail
	}
	target, fail := d.datastore(req, "target")
	if fail != nil {
		return fail
	}
	if source == target {
		return rpc.Failed(rpcError(common.ErrorTypeProtocol, "invalid-value", "source and target are the same datastore"))
	}
	if fail = d.inUse(session, target); fail != nil {
		return fail
	}
	d.stores[target] = d.stores[source].Clone()
	if target == ops.Candidate {
		d.dirty = true
	}
	return rpc.Success(nil)
}

func (d *Device) get(_ string, req *data.Node) *rpc.Result {
	all := d.stores[ops.Running].Clone()
	for _, n := range d.state.Children {
		all.Add(n.Clone())
	}
	return rpc.Success(subtree(all, filterOf(req)))
}

func (d *Device) getConfig(_ string, req *data.Node) *rpc.Result {
	ds, fail := d.datastore(req, "source")
	if fail != nil {
		return fail
	}
	return rpc.Success(subtree(d.stores[ds], filterOf(req)))
}
