package main

import (
	"os"
	"strings"

	"github.com/damianoneill/ncbroker/netconf/common"
	"github.com/damianoneill/ncbroker/netconf/data"
	"github.com/damianoneill/ncbroker/netconf/simulator"
	"github.com/damianoneill/ncbroker/netconf/tx"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// script describes a simulated device and the transaction steps run against it.
type script struct {
	Device     deviceSpec        `yaml:"device"`
	Namespaces map[string]string `yaml:"namespaces"`
	Steps      []step            `yaml:"steps"`
}

type deviceSpec struct {
	Candidate       bool                `yaml:"candidate"`
	WritableRunning bool                `yaml:"writableRunning"`
	RollbackOnError bool                `yaml:"rollbackOnError"`
	Validate        bool                `yaml:"validate"`
	ListKeys        map[string][]string `yaml:"listKeys"`
	// Running and State hold XML fragments.
	Running string        `yaml:"running"`
	State   string        `yaml:"state"`
	Fail    []failureSpec `yaml:"fail"`
}

type failureSpec struct {
	RPC       string `yaml:"rpc"`
	Count     int    `yaml:"count"`
	Transport bool   `yaml:"transport"`
}

// step is a single transaction operation. Op is one of put, merge, delete, commit, cancel or read.
type step struct {
	Op    string `yaml:"op"`
	Path  string `yaml:"path"`
	Value string `yaml:"value"`
	Store string `yaml:"store"`
}

func parseScript(b []byte) (*script, error) {
	s := &script{}
	if err := yaml.Unmarshal(b, s); err != nil {
		return nil, errors.Wrap(err, "failed to parse script")
	}
	for i, st := range s.Steps {
		switch st.Op {
		case "put", "merge", "delete", "read":
			if st.Path == "" {
				return nil, errors.Errorf("step %d: %s requires a path", i+1, st.Op)
			}
		case "commit", "cancel":
		default:
			return nil, errors.Errorf("step %d: unknown op %q", i+1, st.Op)
		}
		if _, err := storeOf(st.Store); err != nil {
			return nil, errors.Wrapf(err, "step %d", i+1)
		}
	}
	return s, nil
}

func loadScript(path string) (*script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read script %s", path)
	}
	return parseScript(b)
}

func storeOf(name string) (tx.Store, error) {
	switch strings.ToLower(name) {
	case "", "config", "configuration":
		return tx.Configuration, nil
	case "operational", "state":
		return tx.Operational, nil
	}
	return 0, errors.Errorf("unknown store %q", name)
}

// newDevice delivers the simulated device described by spec.
func (spec deviceSpec) newDevice() (*simulator.Device, error) {
	opts := []simulator.Option{
		simulator.WithCapabilities(common.Capabilities{
			Candidate:       spec.Candidate,
			WritableRunning: spec.WritableRunning,
			RollbackOnError: spec.RollbackOnError,
			Validate:        spec.Validate,
		}),
		simulator.WithListKeys(data.ListKeys(spec.ListKeys)),
	}
	if spec.Running != "" {
		nodes, err := data.ParseXMLFragment(spec.Running)
		if err != nil {
			return nil, errors.Wrap(err, "invalid running content")
		}
		opts = append(opts, simulator.WithRunning(nodes...))
	}
	if spec.State != "" {
		nodes, err := data.ParseXMLFragment(spec.State)
		if err != nil {
			return nil, errors.Wrap(err, "invalid state content")
		}
		opts = append(opts, simulator.WithState(nodes...))
	}

	d := simulator.New(opts...)
	for _, f := range spec.Fail {
		count := f.Count
		if count == 0 {
			count = 1
		}
		if f.Transport {
			d.FailTransportOn(f.RPC, count)
		} else {
			d.FailOn(f.RPC, count)
		}
	}
	return d, nil
}
