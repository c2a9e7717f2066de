// Package simulator provides an in-memory NETCONF device, which serves rpcs invoked through the
// rpc.Invoker contract against candidate, running and startup datastores.
package simulator

import (
	"context"
	"encoding/xml"
	"strings"
	"sync"

	"github.com/damianoneill/ncbroker/netconf/common"
	"github.com/damianoneill/ncbroker/netconf/data"
	"github.com/damianoneill/ncbroker/netconf/ops"
	"github.com/damianoneill/ncbroker/netconf/rpc"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var dataName = data.Name(common.NetconfNS, "data")

// Call records an rpc received by the device.
type Call struct {
	Session string
	RPC     string
	// Target holds the datastore named by the target (or source) of the rpc, if any.
	Target string
	Body   string
}

func (c Call) String() string {
	if c.Target == "" {
		return c.RPC
	}
	return c.RPC + " " + c.Target
}

// Option configures a Device.
type Option func(*Device)

// WithCapabilities defines the capabilities advertised by the device.
func WithCapabilities(caps common.Capabilities) Option {
	return func(d *Device) {
		d.caps = caps
	}
}

// WithListKeys identifies the lists held by the device and their keys.
func WithListKeys(keys data.ListKeys) Option {
	return func(d *Device) {
		d.listKeys = keys
	}
}

// WithRunning defines the initial content of the running (and candidate) datastore.
func WithRunning(nodes ...*data.Node) Option {
	return func(d *Device) {
		for _, n := range nodes {
			d.stores[ops.Running].Add(n.Clone())
		}
	}
}

// WithState defines operational data, returned by get alongside the running configuration.
func WithState(nodes ...*data.Node) Option {
	return func(d *Device) {
		for _, n := range nodes {
			d.state.Add(n.Clone())
		}
	}
}

type failure struct {
	remaining int
	transport bool
	errs      []common.RPCError
}

// Device is a simulated NETCONF server. It is safe for concurrent use by multiple sessions.
type Device struct {
	mu       sync.Mutex
	caps     common.Capabilities
	listKeys data.ListKeys
	stores   map[ops.Datastore]*data.Node
	state    *data.Node
	dirty    bool
	locks    map[ops.Datastore]string
	failures map[string]*failure
	calls    []Call
}

// New delivers a device advertising the candidate and rollback-on-error capabilities, unless
// WithCapabilities is supplied.
func New(opts ...Option) *Device {
	d := &Device{
		caps:     common.Capabilities{Candidate: true, RollbackOnError: true, Validate: true},
		stores:   map[ops.Datastore]*data.Node{ops.Running: data.Container(dataName), ops.Startup: data.Container(dataName)},
		state:    data.Container(dataName),
		locks:    map[ops.Datastore]string{},
		failures: map[string]*failure{},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.stores[ops.Candidate] = d.stores[ops.Running].Clone()
	return d
}

// Capabilities delivers the capability URIs advertised by the device.
func (d *Device) Capabilities() []string {
	return d.caps.URIs()
}

// Session delivers a new session with the device.
func (d *Device) Session() *Session {
	return &Session{id: uuid.New().String(), d: d}
}

// FailOn arranges for the next count invocations of the named rpc to be rejected with errs, or
// with an operation-failed error if none are supplied.
func (d *Device) FailOn(name string, count int, errs ...common.RPCError) {
	if len(errs) == 0 {
		errs = []common.RPCError{rpcError(common.ErrorTypeApplication, "operation-failed", "injected failure")}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[name] = &failure{remaining: count, errs: errs}
}

// FailTransportOn arranges for the next count invocations of the named rpc to fail without a reply.
func (d *Device) FailTransportOn(name string, count int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[name] = &failure{remaining: count, transport: true}
}

// Calls delivers the rpcs received, in order of receipt.
func (d *Device) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// ResetCalls clears the record of rpcs received.
func (d *Device) ResetCalls() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
}

// Datastore delivers a copy of the content of the named datastore, as a data element.
func (d *Device) Datastore(name ops.Datastore) *data.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stores[name].Clone()
}

// LockHolder delivers the id of the session holding the lock on the named datastore, or "".
func (d *Device) LockHolder(name ops.Datastore) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.locks[name]
}

// Session is a client session with a Device. It implements rpc.Invoker.
type Session struct {
	id string
	d  *Device
}

// ID delivers the session identifier.
func (s *Session) ID() string {
	return s.id
}

// InvokeRPC handles the request on a separate goroutine, as a transport would.
func (s *Session) InvokeRPC(ctx context.Context, name string, body common.Request) *rpc.Future[*rpc.Result] {
	f := rpc.NewFuture[*rpc.Result]()
	go func() {
		if err := ctx.Err(); err != nil {
			f.Complete(nil, err)
			return
		}
		f.Complete(s.d.handle(s.id, name, body))
	}()
	return f
}

// Close ends the session, releasing its locks. Changes to the candidate are discarded if the
// session held the candidate lock.
func (s *Session) Close() {
	d := s.d
	d.mu.Lock()
	defer d.mu.Unlock()
	for ds, holder := range d.locks {
		if holder != s.id {
			continue
		}
		delete(d.locks, ds)
		if ds == ops.Candidate {
			d.discard()
		}
	}
}

func (d *Device) handle(session, name string, body common.Request) (*rpc.Result, error) {
	req, raw, err := decode(body)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed %s request", name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls = append(d.calls, Call{Session: session, RPC: req.Name.Local, Target: datastoreOf(req), Body: raw})
	if req.Name.Local != name {
		return rpc.Failed(rpcError(common.ErrorTypeRPC, "operation-not-supported", "rpc "+name+" carries a "+req.Name.Local+" body")), nil
	}

	if f, ok := d.failures[name]; ok && f.remaining > 0 {
		f.remaining--
		if f.transport {
			return nil, errors.Errorf("connection lost during %s", name)
		}
		return rpc.Failed(f.errs...), nil
	}

	h, ok := handlers[name]
	if !ok {
		return rpc.Failed(rpcError(common.ErrorTypeProtocol, "operation-not-supported", "unsupported rpc "+name)), nil
	}
	return h(d, session, req), nil
}

func decode(body common.Request) (*data.Node, string, error) {
	var raw string
	switch b := body.(type) {
	case string:
		raw = b
	case []byte:
		raw = string(b)
	default:
		out, err := xml.Marshal(body)
		if err != nil {
			return nil, "", err
		}
		raw = string(out)
	}
	n, err := data.ParseXML(raw)
	return n, raw, err
}

func datastoreOf(req *data.Node) string {
	for _, local := range []string{"target", "source"} {
		if c := req.Child(localName(local), false); c != nil {
			return strings.TrimSpace(c.Children[0].Name.Local)
		}
	}
	return ""
}

func localName(local string) func(data.QName) bool {
	return func(q data.QName) bool { return q.Local == local }
}

func rpcError(typ, tag, msg string) common.RPCError {
	return common.RPCError{Type: typ, Tag: tag, Severity: common.SeverityError, Message: msg}
}
