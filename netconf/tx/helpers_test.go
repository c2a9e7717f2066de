package tx

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/damianoneill/ncbroker/netconf/common"
	"github.com/damianoneill/ncbroker/netconf/data"
	"github.com/damianoneill/ncbroker/netconf/mocks"
	"github.com/damianoneill/ncbroker/netconf/ops"
	"github.com/damianoneill/ncbroker/netconf/rpc"

	"github.com/golang/mock/gomock"
	assert "github.com/stretchr/testify/require"
)

const ifNS = "urn:example:if"

var nslist = []data.Namespace{{ID: "ex", Path: ifNS}}

var (
	candidateCaps        = []string{common.CapBase11, common.CapCandidate, common.CapRollbackOnEr}
	candidateRunningCaps = []string{common.CapBase11, common.CapCandidate, common.CapWritableRun}
	runningCaps          = []string{common.CapBase11, common.CapWritableRun}
)

// bodyMatcher matches a request whose xml encoding contains every fragment, and none of the excluded.
type bodyMatcher struct {
	fragments []string
	excluded  []string
}

func body(fragments ...string) *bodyMatcher {
	return &bodyMatcher{fragments: fragments}
}

func (m *bodyMatcher) without(fragments ...string) *bodyMatcher {
	m.excluded = append(m.excluded, fragments...)
	return m
}

func (m *bodyMatcher) Matches(x interface{}) bool {
	b, err := xml.Marshal(x)
	if err != nil {
		return false
	}
	for _, f := range m.fragments {
		if !strings.Contains(string(b), f) {
			return false
		}
	}
	for _, f := range m.excluded {
		if strings.Contains(string(b), f) {
			return false
		}
	}
	return true
}

func (m *bodyMatcher) String() string {
	return fmt.Sprintf("contains %q and not %q", m.fragments, m.excluded)
}

func ok() *rpc.Future[*rpc.Result] {
	return rpc.Completed(rpc.Success(nil), nil)
}

func rejected(tag string) *rpc.Future[*rpc.Result] {
	return rpc.Completed(rpc.Failed(common.RPCError{Type: common.ErrorTypeProtocol, Tag: tag, Severity: common.SeverityError, Message: tag}), nil)
}

func broken() *rpc.Future[*rpc.Result] {
	return rpc.Completed[*rpc.Result](nil, fmt.Errorf("connection reset"))
}

func newMockFactory(t *testing.T, caps []string, opts ...FactoryOption) (*Factory, *mocks.MockInvoker) {
	ctrl := gomock.NewController(t)
	minv := mocks.NewMockInvoker(ctrl)
	opts = append([]FactoryOption{WithDeviceID("dev1"), WithTrace(NoOpLoggingHooks)}, opts...)
	return NewFactory(minv, caps, opts...), minv
}

func expectRPC(minv *mocks.MockInvoker, name string, target ops.Datastore) *gomock.Call {
	if target == "" {
		return minv.EXPECT().InvokeRPC(gomock.Any(), name, gomock.Any())
	}
	return minv.EXPECT().InvokeRPC(gomock.Any(), name, body("<"+string(target)+"/>"))
}

// signal closes done when the call is made.
func signal(done chan struct{}) func(context.Context, string, common.Request) {
	return func(context.Context, string, common.Request) { close(done) }
}

func waitFor(t *testing.T, done chan struct{}) {
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		assert.Fail(t, "timed out waiting for rpc")
	}
}

func ifEntry(mtu string) *data.Node {
	return data.Container(data.Name(ifNS, "eth0"), data.Leaf(data.Name(ifNS, "mtu"), mtu))
}

func eth0Path() data.Path {
	return data.MustParsePath("/ex:if/eth0", nslist...)
}
