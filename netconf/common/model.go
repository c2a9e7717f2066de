package common

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Defines structs representing netconf messages and the capabilities that drive transaction behaviour.

// Request represents the body of a Netconf RPC request.
type Request interface{}

// RPCReply defines an rpc reply message.
type RPCReply struct {
	XMLName   xml.Name   `xml:"rpc-reply"`
	Errors    []RPCError `xml:"rpc-error,omitempty"`
	Data      string     `xml:",innerxml"`
	Ok        bool       `xml:",omitempty"`
	RawReply  string     `xml:"-"`
	MessageID string     `xml:"message-id,attr"`
}

// RPCError defines an error reply to a RPC request
type RPCError struct {
	Type     string     `xml:"error-type"`
	Tag      string     `xml:"error-tag"`
	Severity string     `xml:"error-severity"`
	Path     string     `xml:"error-path"`
	Message  string     `xml:"error-message"`
	Info     *ErrorInfo `xml:"error-info,omitempty"`
}

// ErrorInfo holds the protocol or data-model specific content of an error-info element.
type ErrorInfo struct {
	Content string `xml:",innerxml"`
}

// Error generates a string representation of the RPC error
func (re *RPCError) Error() string {
	return fmt.Sprintf("netconf rpc [%s] '%s'", re.Severity, re.Message)
}

// IsError reports whether the error has error (as opposed to warning) severity.
func (re *RPCError) IsError() bool {
	return re.Severity != SeverityWarning
}

// Union allows a request body to be supplied either as a raw xml string or as a value
// that will be marshalled.
type Union struct {
	ValueStr interface{}
	ValueXML string `xml:",innerxml"`
}

// GetUnion wraps s in a Union.
func GetUnion(s interface{}) *Union {
	switch request := s.(type) {
	case string:
		return &Union{ValueXML: request}
	default:
		return &Union{ValueStr: request}
	}
}

// Define netconf URNs.
const (
	NetconfNS       = "urn:ietf:params:xml:ns:netconf:base:1.0"
	CapBase10       = "urn:ietf:params:netconf:base:1.0"
	CapBase11       = "urn:ietf:params:netconf:base:1.1"
	CapXpath        = "urn:ietf:params:netconf:capability:xpath:1.0"
	CapCandidate    = "urn:ietf:params:netconf:capability:candidate:1.0"
	CapWritableRun  = "urn:ietf:params:netconf:capability:writable-running:1.0"
	CapRollbackOnEr = "urn:ietf:params:netconf:capability:rollback-on-error:1.0"
	CapValidate     = "urn:ietf:params:netconf:capability:validate:1.0"
	CapValidate11   = "urn:ietf:params:netconf:capability:validate:1.1"
)

// Error severities and types defined by RFC 6241.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"

	ErrorTypeTransport   = "transport"
	ErrorTypeRPC         = "rpc"
	ErrorTypeProtocol    = "protocol"
	ErrorTypeApplication = "application"
)

// Capabilities summarises the server capabilities relevant to configuration transactions.
type Capabilities struct {
	Candidate       bool
	WritableRunning bool
	RollbackOnError bool
	Validate        bool
}

// ParseCapabilities extracts transaction-relevant capabilities from a list of capability URIs, as
// advertised in a server hello. Query parameters (e.g. "?module=...") are ignored.
func ParseCapabilities(caps []string) Capabilities {
	return Capabilities{
		Candidate:       PeerSupports(caps, CapCandidate),
		WritableRunning: PeerSupports(caps, CapWritableRun),
		RollbackOnError: PeerSupports(caps, CapRollbackOnEr),
		Validate:        PeerSupports(caps, CapValidate) || PeerSupports(caps, CapValidate11),
	}
}

// URIs delivers the capability URIs corresponding to c.
func (c Capabilities) URIs() []string {
	uris := []string{CapBase10, CapBase11}
	if c.Candidate {
		uris = append(uris, CapCandidate)
	}
	if c.WritableRunning {
		uris = append(uris, CapWritableRun)
	}
	if c.RollbackOnError {
		uris = append(uris, CapRollbackOnEr)
	}
	if c.Validate {
		uris = append(uris, CapValidate)
	}
	return uris
}

// PeerSupports returns true if the capability list contains capability.
func PeerSupports(caps []string, capability string) bool {
	for _, c := range caps {
		if i := strings.IndexByte(c, '?'); i >= 0 {
			c = c[:i]
		}
		if strings.TrimSpace(c) == capability {
			return true
		}
	}
	return false
}
