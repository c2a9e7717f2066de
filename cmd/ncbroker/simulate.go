package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/damianoneill/ncbroker/netconf/data"
	"github.com/damianoneill/ncbroker/netconf/ops"
	"github.com/damianoneill/ncbroker/netconf/simulator"
	"github.com/damianoneill/ncbroker/netconf/tx"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newSimulateCmd() *cobra.Command {
	var (
		scriptPath string
		configPath string
		verbose    bool
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a scripted transaction against a simulated device and print the rpcs it received",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadScript(scriptPath)
			if err != nil {
				return err
			}
			cfg := tx.DefaultConfig
			if configPath != "" {
				if cfg, err = tx.LoadConfig(configPath); err != nil {
					return err
				}
			}
			r := &runner{script: s, cfg: cfg, out: cmd.OutOrStdout(), verbose: verbose}
			return r.run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&scriptPath, "script", "", "YAML script describing the device and transaction steps")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML transaction configuration")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log rpc and transaction events")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

type runner struct {
	script  *script
	cfg     *tx.Config
	out     io.Writer
	verbose bool

	device  *simulator.Device
	factory *tx.Factory
	nslist  []data.Namespace
	write   tx.WriteTransaction
}

func (r *runner) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	d, err := r.script.Device.newDevice()
	if err != nil {
		return err
	}
	r.device = d
	r.nslist = namespaces(r.script.Namespaces)

	trace := tx.NoOpLoggingHooks
	if r.verbose {
		trace = tx.DiagnosticLoggingHooks
		ctx = ops.WithTrace(ctx, ops.DiagnosticLoggingHooks)
	}
	session := d.Session()
	defer session.Close()
	r.factory = tx.NewFactory(session, d.Capabilities(), tx.WithDeviceID("simulator"), tx.WithConfig(r.cfg), tx.WithTrace(trace))

	r.printf("profile: %s\n", r.factory.Profile())
	for i, st := range r.script.Steps {
		result, err := r.step(ctx, st)
		if err != nil {
			result = "error: " + err.Error()
		}
		r.printf("%d %s: %s\n", i+1, describe(st), result)
	}
	if r.write != nil {
		r.write.Cancel(ctx)
		r.awaitRelease(ctx)
	}

	r.printf("rpcs:\n")
	for _, c := range d.Calls() {
		r.printf("  %s\n", c)
	}
	return nil
}

func (r *runner) step(ctx context.Context, st step) (string, error) {
	store, _ := storeOf(st.Store)
	switch st.Op {
	case "put", "merge", "delete":
		path, err := data.ParsePath(st.Path, r.nslist...)
		if err != nil {
			return "", err
		}
		w, err := r.writeTx(ctx)
		if err != nil {
			return "", err
		}
		switch st.Op {
		case "delete":
			err = w.Delete(ctx, store, path)
		default:
			var value *data.Node
			if value, err = valueOf(path, st.Value); err != nil {
				return "", err
			}
			if st.Op == "put" {
				err = w.Put(ctx, store, path, value)
			} else {
				err = w.Merge(ctx, store, path, value)
			}
		}
		if err != nil {
			return "", err
		}
		return "ok", nil

	case "commit":
		w, err := r.writeTx(ctx)
		if err != nil {
			return "", err
		}
		r.write = nil
		res, err := w.Commit(ctx).Get(ctx)
		r.awaitRelease(ctx)
		if err != nil {
			return "", err
		}
		if !res.Successful {
			msgs := make([]string, 0, len(res.Errors))
			for i := range res.Errors {
				msgs = append(msgs, res.Errors[i].Error())
			}
			return "rejected: " + strings.Join(msgs, "; "), nil
		}
		return "committed", nil

	case "cancel":
		if r.write == nil {
			return "no transaction", nil
		}
		cancelled := r.write.Cancel(ctx)
		r.write = nil
		r.awaitRelease(ctx)
		return fmt.Sprintf("cancelled: %t", cancelled), nil

	case "read":
		path, err := data.ParsePath(st.Path, r.nslist...)
		if err != nil {
			return "", err
		}
		res, err := r.factory.NewReadOnlyTransaction(ctx).Read(ctx, store, path).Get(ctx)
		if err != nil {
			return "", err
		}
		if !res.Present() {
			return "absent", nil
		}
		return res.Node.JSON()
	}
	return "", errors.Errorf("unknown op %q", st.Op)
}

// writeTx delivers the open write transaction, creating one if needed.
func (r *runner) writeTx(ctx context.Context) (tx.WriteTransaction, error) {
	if r.write == nil {
		w, err := r.factory.NewWriteOnlyTransaction(ctx)
		if err != nil {
			return nil, err
		}
		r.write = w
	}
	return r.write, nil
}

// awaitRelease waits for the locks of a finished transaction to be released, as unlock completes
// after the commit result is delivered.
func (r *runner) awaitRelease(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.RPCTimeout())
	defer cancel()
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for r.device.LockHolder(ops.Candidate) != "" || r.device.LockHolder(ops.Running) != "" {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *runner) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func valueOf(path data.Path, js string) (*data.Node, error) {
	if js == "" {
		return nil, errors.Errorf("no value for %s", path)
	}
	return data.FromJSON(path.Last().Name, js)
}

func describe(st step) string {
	if st.Path == "" {
		return st.Op
	}
	if st.Store != "" {
		return st.Op + " " + st.Store + " " + st.Path
	}
	return st.Op + " " + st.Path
}
