// Package tx implements NETCONF read and write transactions. A write transaction locks the
// datastore(s) implied by the device capabilities when it is created, sends each edit to the
// device as an edit-config rpc as it is made, and commits or discards the edits before releasing
// its locks.
package tx

import (
	"context"

	"github.com/damianoneill/ncbroker/netconf/common"
	"github.com/damianoneill/ncbroker/netconf/ops"
	"github.com/damianoneill/ncbroker/netconf/rpc"
)

// Factory creates transactions against a single device session.
type Factory struct {
	invoker    rpc.Invoker
	caps       common.Capabilities
	device     string
	cfg        *Config
	trace      *Trace
	normalizer Normalizer
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithDeviceID identifies the device in errors and trace events.
func WithDeviceID(id string) FactoryOption {
	return func(f *Factory) {
		f.device = id
	}
}

// WithConfig defines the transaction configuration. Unset properties take their default values.
func WithConfig(cfg *Config) FactoryOption {
	return func(f *Factory) {
		f.cfg = resolveConfig(cfg)
	}
}

// WithTrace defines the hooks called on transaction events.
func WithTrace(trace *Trace) FactoryOption {
	return func(f *Factory) {
		f.trace = resolveTrace(trace)
	}
}

// WithNormalizer defines the conversion applied to values written and read.
func WithNormalizer(n Normalizer) FactoryOption {
	return func(f *Factory) {
		f.normalizer = n
	}
}

// NewFactory delivers a factory creating transactions that invoke rpcs through invoker, against a
// device that advertised capabilities.
func NewFactory(invoker rpc.Invoker, capabilities []string, opts ...FactoryOption) *Factory {
	f := &Factory{
		invoker:    invoker,
		caps:       common.ParseCapabilities(capabilities),
		device:     "device",
		cfg:        resolveConfig(nil),
		trace:      resolveTrace(nil),
		normalizer: IdentityNormalizer{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Capabilities delivers the device capabilities relevant to transactions.
func (f *Factory) Capabilities() common.Capabilities {
	return f.caps
}

// Profile delivers the write strategy used by write transactions.
func (f *Factory) Profile() Profile {
	return SelectProfile(f.caps)
}

func (f *Factory) newOps(ctx context.Context) *ops.Ops {
	return ops.NewOps(ctx, f.invoker, f.device)
}

// NewReadOnlyTransaction delivers a transaction that reads from the device. Protocol trace hooks
// are taken from ctx (see ops.WithTrace).
func (f *Factory) NewReadOnlyTransaction(ctx context.Context) *ReadTransaction {
	return newReadTransaction(f.newOps(ctx), f.cfg, f.normalizer)
}

// NewWriteOnlyTransaction delivers a transaction that writes to the device, having acquired the
// datastore lock(s) it needs. An error matching ErrLockFailed is returned if they cannot be acquired.
func (f *Factory) NewWriteOnlyTransaction(ctx context.Context) (WriteTransaction, error) {
	w, err := f.newWriteTx(ctx)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (f *Factory) newWriteTx(ctx context.Context) (*writeTx, error) {
	rollback := f.caps.RollbackOnError && !f.cfg.DisableRollbackOnError
	return newWriteTx(ctx, f.newOps(ctx), f.Profile(), rollback, f.cfg, f.trace, f.normalizer)
}

// ReadWriteTransaction combines a read transaction with a write transaction. Reads observe the
// running datastore, so edits held in the candidate are not visible until committed.
type ReadWriteTransaction struct {
	*ReadTransaction
	WriteTransaction
}

// NewReadWriteTransaction delivers a transaction that reads from and writes to the device.
func (f *Factory) NewReadWriteTransaction(ctx context.Context) (*ReadWriteTransaction, error) {
	w, err := f.newWriteTx(ctx)
	if err != nil {
		return nil, err
	}
	return &ReadWriteTransaction{ReadTransaction: newReadTransaction(f.newOps(ctx), f.cfg, f.normalizer), WriteTransaction: w}, nil
}
