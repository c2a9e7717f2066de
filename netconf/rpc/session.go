package rpc

import (
	"context"
	"io"

	"github.com/damianoneill/ncbroker/netconf/common"
	"github.com/damianoneill/ncbroker/netconf/data"

	"github.com/pkg/errors"
)

// Executor is the asynchronous part of a netconf client session: it submits a request and
// arranges for the reply to be sent to rchan. The channel is closed, or nil is sent, if the
// session ends before a reply is received.
type Executor interface {
	ExecuteAsync(req common.Request, rchan chan *common.RPCReply) error
}

// SessionInvoker adapts an Executor to the Invoker contract.
type SessionInvoker struct {
	e Executor
}

// NewSessionInvoker delivers an Invoker that submits requests through e.
func NewSessionInvoker(e Executor) *SessionInvoker {
	return &SessionInvoker{e: e}
}

func (s *SessionInvoker) InvokeRPC(ctx context.Context, name string, body common.Request) *Future[*Result] {
	f := NewFuture[*Result]()

	rchan := make(chan *common.RPCReply, 1)
	if err := s.e.ExecuteAsync(body, rchan); err != nil {
		f.Complete(nil, errors.Wrapf(err, "failed to submit %s", name))
		return f
	}

	go func() {
		select {
		case reply, ok := <-rchan:
			if !ok || reply == nil {
				f.Complete(nil, errors.Wrapf(io.ErrUnexpectedEOF, "no reply to %s", name))
				return
			}
			f.Complete(ReplyToResult(reply))
		case <-ctx.Done():
			f.Complete(nil, errors.Wrapf(ctx.Err(), "waiting for reply to %s", name))
		}
	}()
	return f
}

// ReplyToResult maps an rpc-reply message to a Result. The reply is unsuccessful if it carries any
// error with error severity.
func ReplyToResult(reply *common.RPCReply) (*Result, error) {
	res := &Result{Successful: true, Errors: reply.Errors}
	for i := range reply.Errors {
		if reply.Errors[i].IsError() {
			res.Successful = false
		}
	}

	nodes, err := data.ParseXMLFragment(reply.Data)
	if err != nil {
		return nil, errors.Wrap(err, "malformed rpc-reply")
	}
	for _, n := range nodes {
		if n.Name.Local == "data" {
			res.Data = n
			break
		}
	}
	return res, nil
}
