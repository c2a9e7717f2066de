package tx

import (
	"context"

	"github.com/damianoneill/ncbroker/netconf/data"
	"github.com/damianoneill/ncbroker/netconf/ops"
	"github.com/damianoneill/ncbroker/netconf/rpc"

	"github.com/pkg/errors"
)

// ReadResult holds the outcome of a read. Node is nil if nothing exists at the path read.
type ReadResult struct {
	Node *data.Node
}

// Present returns true if data was found.
func (r ReadResult) Present() bool {
	return r.Node != nil
}

// ReadTransaction reads configuration and operational data from a device. It holds no state
// between calls and takes no locks.
type ReadTransaction struct {
	ops        *ops.Ops
	cfg        *Config
	normalizer Normalizer
}

func newReadTransaction(o *ops.Ops, cfg *Config, normalizer Normalizer) *ReadTransaction {
	return &ReadTransaction{ops: o, cfg: cfg, normalizer: normalizer}
}

// Read delivers the data at path. The configuration store is read from the running datastore.
func (r *ReadTransaction) Read(ctx context.Context, store Store, path data.Path) *rpc.Future[ReadResult] {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.RPCTimeout())

	var f *rpc.Future[*rpc.Result]
	var name string
	switch store {
	case Configuration:
		name = ops.GetConfigRPC
		f = r.ops.GetConfig(ctx, ops.Running, ToFilter(path))
	case Operational:
		name = ops.GetRPC
		f = r.ops.Get(ctx, ToFilter(path))
	default:
		cancel()
		return rpc.Completed(ReadResult{}, errors.Errorf("%s: cannot read from the %s store", r.ops.Device(), store))
	}

	return rpc.Transform(f, func(res *rpc.Result, err error) (ReadResult, error) {
		cancel()
		if err == nil {
			err = res.Err(name)
		}
		if err != nil {
			return ReadResult{}, errors.Wrapf(err, "%s: read of %s from the %s store failed", r.ops.Device(), path, store)
		}
		return r.extract(res.Data, path)
	})
}

// Exists delivers true if data exists at path.
func (r *ReadTransaction) Exists(ctx context.Context, store Store, path data.Path) *rpc.Future[bool] {
	return rpc.Transform(r.Read(ctx, store, path), func(res ReadResult, err error) (bool, error) {
		return res.Present(), err
	})
}

func (r *ReadTransaction) extract(reply *data.Node, path data.Path) (ReadResult, error) {
	found := data.FindNode(reply, path)
	if found == nil {
		return ReadResult{}, nil
	}
	normalized, err := r.normalizer.ToNormalized(path, found)
	if err != nil {
		return ReadResult{}, errors.Wrapf(err, "%s: cannot convert value read from %s", r.ops.Device(), path)
	}
	return ReadResult{Node: normalized}, nil
}
