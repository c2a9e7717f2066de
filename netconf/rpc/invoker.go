package rpc

import (
	"context"
	"fmt"
	"strings"

	"github.com/damianoneill/ncbroker/netconf/common"
	"github.com/damianoneill/ncbroker/netconf/data"
)

// Invoker is the asynchronous primitive used to run a named RPC with a structured body.
// Implementations must not block: the outcome is delivered through the returned future.
// A future error indicates a transport failure, whereas an RPC rejected by the device completes
// successfully with an unsuccessful Result.
type Invoker interface {
	InvokeRPC(ctx context.Context, name string, body common.Request) *Future[*Result]
}

// InvokerFunc allows an ordinary function to be used as an Invoker.
type InvokerFunc func(ctx context.Context, name string, body common.Request) *Future[*Result]

// InvokeRPC calls f(ctx, name, body).
func (f InvokerFunc) InvokeRPC(ctx context.Context, name string, body common.Request) *Future[*Result] {
	return f(ctx, name, body)
}

// Result is the outcome of an RPC.
type Result struct {
	// Successful is false if the device reported any error with error severity.
	Successful bool
	// Errors holds every rpc-error reported, including warnings.
	Errors []common.RPCError
	// Data holds the content of the reply data element, if any.
	Data *data.Node
}

// Success delivers a successful result carrying d.
func Success(d *data.Node) *Result {
	return &Result{Successful: true, Data: d}
}

// Failed delivers an unsuccessful result carrying errs.
func Failed(errs ...common.RPCError) *Result {
	return &Result{Errors: errs}
}

// Err delivers an *Error if the result is unsuccessful, otherwise nil.
func (r *Result) Err(name string) error {
	if r == nil || r.Successful {
		return nil
	}
	return &Error{RPC: name, Errors: r.Errors}
}

// Error represents an RPC rejected by the device.
type Error struct {
	RPC    string
	Errors []common.RPCError
}

func (e *Error) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("netconf %s failed", e.RPC)
	}
	msgs := make([]string, 0, len(e.Errors))
	for i := range e.Errors {
		msgs = append(msgs, e.Errors[i].Error())
	}
	return fmt.Sprintf("netconf %s failed: %s", e.RPC, strings.Join(msgs, "; "))
}

// Invoke runs the RPC and waits for the outcome, folding an unsuccessful result into an *Error.
func Invoke(ctx context.Context, i Invoker, name string, body common.Request) (*Result, error) {
	res, err := i.InvokeRPC(ctx, name, body).Get(ctx)
	if err != nil {
		return res, err
	}
	return res, res.Err(name)
}
