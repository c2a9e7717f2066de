package ops

import (
	"context"
	"log"
	"time"

	"github.com/damianoneill/ncbroker/netconf/common"
	"github.com/damianoneill/ncbroker/netconf/rpc"

	"github.com/imdario/mergo"
)

// unique type to prevent assignment.
type opsEventContextKey struct{}

// ContextTrace returns the Trace associated with the provided context. If none, it returns
// NoOpLoggingHooks.
func ContextTrace(ctx context.Context) *Trace {
	trace, _ := ctx.Value(opsEventContextKey{}).(*Trace)
	if trace == nil {
		trace = NoOpLoggingHooks
	} else {
		_ = mergo.Merge(trace, NoOpLoggingHooks)
	}
	return trace
}

// WithTrace returns a new context based on the provided parent ctx. Operations created with the
// returned context will use the provided trace hooks.
func WithTrace(ctx context.Context, trace *Trace) context.Context {
	return context.WithValue(ctx, opsEventContextKey{}, trace)
}

// Trace defines a structure for handling protocol operation events.
type Trace struct {
	// RPCStart is called before an rpc is invoked.
	RPCStart func(device, name string, req common.Request)

	// RPCDone is called when the outcome of an rpc is known. res is nil if err is not.
	RPCDone func(device, name string, req common.Request, res *rpc.Result, err error, d time.Duration)
}

// DefaultLoggingHooks provides a default logging hook to report failed rpcs.
var DefaultLoggingHooks = &Trace{
	RPCDone: func(device, name string, req common.Request, res *rpc.Result, err error, d time.Duration) {
		if err == nil {
			err = res.Err(name)
		}
		if err != nil {
			log.Printf("NETCONF-RPCError device:%s rpc:%s err:%v\n", device, name, err)
		}
	},
}

// MetricLoggingHooks provides a set of hooks that will log rpc durations.
var MetricLoggingHooks = &Trace{
	RPCDone: func(device, name string, req common.Request, res *rpc.Result, err error, d time.Duration) {
		log.Printf("NETCONF-RPCDone device:%s rpc:%s ok:%v err:%v took:%dms\n", device, name, err == nil && res.Successful, err, d.Milliseconds())
	},
}

// DiagnosticLoggingHooks provides a set of default diagnostic hooks
var DiagnosticLoggingHooks = &Trace{
	RPCStart: func(device, name string, req common.Request) {
		log.Printf("NETCONF-RPCStart device:%s rpc:%s req:%v\n", device, name, req)
	},
	RPCDone: func(device, name string, req common.Request, res *rpc.Result, err error, d time.Duration) {
		if err == nil && !res.Successful {
			err = res.Err(name)
		}
		log.Printf("NETCONF-RPCDone device:%s rpc:%s err:%v took:%dms\n", device, name, err, d.Milliseconds())
	},
}

// NoOpLoggingHooks provides set of hooks that do nothing.
var NoOpLoggingHooks = &Trace{
	RPCStart: func(device, name string, req common.Request) {},
	RPCDone:  func(device, name string, req common.Request, res *rpc.Result, err error, d time.Duration) {},
}
