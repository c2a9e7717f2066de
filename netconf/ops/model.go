package ops

import (
	"encoding/xml"

	"github.com/damianoneill/ncbroker/netconf/common"
	"github.com/damianoneill/ncbroker/netconf/data"
)

// Datastore identifies a configuration datastore.
type Datastore string

const (
	// Configuration Datastores
	Running   Datastore = "running"
	Candidate Datastore = "candidate"
	Startup   Datastore = "startup"

	// Edit Config Error Options
	StopOnErrorErrOpt     = "stop-on-error"
	ContinueOnErrorErrOpt = "continue-on-error"
	RollbackOnErrorErrOpt = "rollback-on-error"

	// Edit Config Test Options
	TestThenSetOpt = "test-then-set"
	SetOpt         = "set"
	TestOnlyOpt    = "test-only"
)

// RPC names, as passed to the invoker.
const (
	LockRPC           = "lock"
	UnlockRPC         = "unlock"
	DiscardChangesRPC = "discard-changes"
	CommitRPC         = "commit"
	ValidateRPC       = "validate"
	CopyConfigRPC     = "copy-config"
	GetRPC            = "get"
	GetConfigRPC      = "get-config"
	EditConfigRPC     = "edit-config"
)

// Request structs.

type Filter struct {
	XMLName xml.Name `xml:"filter"`
	Type    string   `xml:"type,attr"`
	Select  string   `xml:"select,attr,omitempty"`
	*common.Union
}

type Config struct {
	XMLName xml.Name `xml:"config"`
	*common.Union
}

type ConfigType struct {
	Type string `xml:",innerxml"`
	URL  string `xml:"url,omitempty"`
}

type GetReq struct {
	XMLName xml.Name `xml:"get"`
	Filter  *Filter
}

type GetConfigReq struct {
	XMLName xml.Name    `xml:"get-config"`
	Source  *ConfigType `xml:"source"`
	Filter  *Filter
}

// EditConfigReq fields are declared in the element order required by RFC 6241.
type EditConfigReq struct {
	XMLName          xml.Name    `xml:"edit-config"`
	Target           *ConfigType `xml:"target"`
	DefaultOperation string      `xml:"default-operation,omitempty"`
	TestOption       string      `xml:"test-option,omitempty"`
	ErrorOption      string      `xml:"error-option,omitempty"`
	Config           *Config
	ConfigURL        string `xml:"url,omitempty"`
}

type CopyConfigReq struct {
	XMLName xml.Name    `xml:"copy-config"`
	Target  *ConfigType `xml:"target"`
	Source  *ConfigType `xml:"source"`
}

type LockReq struct {
	XMLName xml.Name    `xml:"lock"`
	Target  *ConfigType `xml:"target"`
}

type UnlockReq struct {
	XMLName xml.Name    `xml:"unlock"`
	Target  *ConfigType `xml:"target"`
}

type DiscardReq struct {
	XMLName xml.Name `xml:"discard-changes"`
}

type CommitReq struct {
	XMLName xml.Name `xml:"commit"`
}

type ValidateReq struct {
	XMLName xml.Name    `xml:"validate"`
	Source  *ConfigType `xml:"source"`
}

// ConfigOption defines the configuration to be applied by an edit config operation
type ConfigOption func(*EditConfigReq)

// Cfg defines the content of the config element, which may be an xml string, a *data.Node or a
// struct with xml tags.
func Cfg(cfg interface{}) ConfigOption {
	return func(req *EditConfigReq) {
		req.Config = &Config{Union: common.GetUnion(cfg)}
	}
}

func CfgURL(url string) ConfigOption {
	return func(req *EditConfigReq) {
		req.ConfigURL = url
	}
}

// CfgDsOpt defines a datastore, either by name or by url.
type CfgDsOpt func(*ConfigType)

func DsName(name Datastore) CfgDsOpt {
	return func(t *ConfigType) {
		t.Type = datastoreElement(name)
	}
}

func DsURL(url string) CfgDsOpt {
	return func(t *ConfigType) {
		t.URL = url
	}
}

// EditOption configures an edit config operation.
type EditOption func(*EditConfigReq)

// DefaultOperation sets the default-operation of the request. An unspecified action leaves the
// element out, so the device default of merge applies.
func DefaultOperation(action data.ModifyAction) EditOption {
	return func(req *EditConfigReq) {
		req.DefaultOperation = action.String()
	}
}

func TestOption(opt string) EditOption {
	return func(req *EditConfigReq) {
		req.TestOption = opt
	}
}

func ErrorOption(opt string) EditOption {
	return func(req *EditConfigReq) {
		req.ErrorOption = opt
	}
}

func (r *EditConfigReq) applyOpts(options ...EditOption) {
	for _, opt := range options {
		opt(r)
	}
}

// xml Marshaller will not create self-closing tags (and some devices require it)...
func datastoreElement(name Datastore) string {
	return "<" + string(name) + "/>"
}

func datastore(name Datastore) *ConfigType {
	return &ConfigType{Type: datastoreElement(name)}
}

func subtreeFilter(filter interface{}) *Filter {
	if filter == nil {
		return nil
	}
	if n, ok := filter.(*data.Node); ok && n == nil {
		return nil
	}
	return &Filter{Type: "subtree", Union: common.GetUnion(filter)}
}

func createLockRequest(target Datastore) *LockReq {
	return &LockReq{Target: datastore(target)}
}

func createUnlockRequest(target Datastore) *UnlockReq {
	return &UnlockReq{Target: datastore(target)}
}

func createDiscardRequest() *DiscardReq {
	return &DiscardReq{}
}

func createCommitRequest() *CommitReq {
	return &CommitReq{}
}

func createValidateRequest(source CfgDsOpt) *ValidateReq {
	req := &ValidateReq{Source: &ConfigType{}}
	source(req.Source)
	return req
}

func createCopyConfigRequest(source, target CfgDsOpt) *CopyConfigReq {
	req := &CopyConfigReq{Source: &ConfigType{}, Target: &ConfigType{}}
	source(req.Source)
	target(req.Target)
	return req
}

func createGetRequest(filter interface{}) *GetReq {
	return &GetReq{Filter: subtreeFilter(filter)}
}

func createGetConfigRequest(source Datastore, filter interface{}) *GetConfigReq {
	return &GetConfigReq{Source: datastore(source), Filter: subtreeFilter(filter)}
}

// NewEditConfigRequest delivers the edit-config request for target, defined by cfgOpt and options.
func NewEditConfigRequest(target Datastore, cfgOpt ConfigOption, options ...EditOption) *EditConfigReq {
	req := &EditConfigReq{Target: datastore(target)}
	req.applyOpts(options...)
	cfgOpt(req)
	return req
}
