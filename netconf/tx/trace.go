package tx

import (
	"log"
	"time"

	"github.com/damianoneill/ncbroker/netconf/data"

	"github.com/imdario/mergo"
)

// Trace defines a structure for handling transaction events.
type Trace struct {
	// Started is called once a write transaction holds its locks.
	Started func(device, id string, profile Profile)

	// LockRetry is called when the candidate lock is refused, before changes are discarded and the
	// lock retried.
	LockRetry func(device, id string, err error)

	// EditDone is called after each edit-config completes, with err indicating whether it was successful.
	EditDone func(device, id string, action data.ModifyAction, path data.Path, err error, d time.Duration)

	// Finished is called when a write transaction reaches a terminal state.
	Finished func(device, id string, outcome Outcome, err error, d time.Duration)

	// Error is called after an error condition has been detected that cannot be reported to the caller.
	Error func(context, device string, err error)
}

// DefaultLoggingHooks provides a default logging hook to report errors.
var DefaultLoggingHooks = &Trace{
	Error: func(context, device string, err error) {
		log.Printf("NETCONF-TxError context:%s device:%s err:%v\n", context, device, err)
	},
}

// DiagnosticLoggingHooks provides a set of default diagnostic hooks
var DiagnosticLoggingHooks = &Trace{
	Started: func(device, id string, profile Profile) {
		log.Printf("NETCONF-TxStarted device:%s tx:%s profile:%s\n", device, id, profile)
	},
	LockRetry: func(device, id string, err error) {
		log.Printf("NETCONF-TxLockRetry device:%s tx:%s err:%v\n", device, id, err)
	},
	EditDone: func(device, id string, action data.ModifyAction, path data.Path, err error, d time.Duration) {
		log.Printf("NETCONF-TxEditDone device:%s tx:%s action:%s path:%s err:%v took:%dms\n", device, id, action, path, err, d.Milliseconds())
	},
	Finished: func(device, id string, outcome Outcome, err error, d time.Duration) {
		log.Printf("NETCONF-TxFinished device:%s tx:%s outcome:%s err:%v took:%dms\n", device, id, outcome, err, d.Milliseconds())
	},
	Error: DefaultLoggingHooks.Error,
}

// NoOpLoggingHooks provides set of hooks that do nothing.
var NoOpLoggingHooks = &Trace{
	Started:   func(device, id string, profile Profile) {},
	LockRetry: func(device, id string, err error) {},
	EditDone:  func(device, id string, action data.ModifyAction, path data.Path, err error, d time.Duration) {},
	Finished:  func(device, id string, outcome Outcome, err error, d time.Duration) {},
	Error:     func(context, device string, err error) {},
}

// resolveTrace delivers a copy of trace with unset hooks defaulted.
func resolveTrace(trace *Trace) *Trace {
	if trace == nil {
		trace = DefaultLoggingHooks
	}
	resolved := *trace
	_ = mergo.Merge(&resolved, NoOpLoggingHooks)
	return &resolved
}
