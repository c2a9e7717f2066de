package main

import (
	"encoding/xml"
	"fmt"

	"github.com/damianoneill/ncbroker/netconf/common"
	"github.com/damianoneill/ncbroker/netconf/data"
	"github.com/damianoneill/ncbroker/netconf/ops"
	"github.com/damianoneill/ncbroker/netconf/tx"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type renderOpts struct {
	path      string
	ns        map[string]string
	op        string
	value     string
	candidate bool
	rollback  bool
}

func newRenderCmd() *cobra.Command {
	opts := &renderOpts{}
	render := &cobra.Command{
		Use:   "render",
		Short: "Print the rpc content generated for a transaction step",
	}
	render.PersistentFlags().StringVar(&opts.path, "path", "", "data path, e.g. /if:interfaces/interface[name=eth0]")
	render.PersistentFlags().StringToStringVar(&opts.ns, "ns", nil, "namespace prefix bindings, e.g. if=urn:example:if")
	_ = render.MarkPersistentFlagRequired("path")

	edit := &cobra.Command{
		Use:   "edit",
		Short: "Print the edit-config request for a put, merge or delete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := opts.editConfig()
			if err != nil {
				return err
			}
			return printXML(cmd, req)
		},
	}
	edit.Flags().StringVar(&opts.op, "op", "merge", "put, merge, delete or an edit-config operation (create, remove, ...)")
	edit.Flags().StringVar(&opts.value, "value", "", "value as a JSON document")
	edit.Flags().BoolVar(&opts.candidate, "candidate", false, "target the candidate datastore")
	edit.Flags().BoolVar(&opts.rollback, "rollback", false, "request rollback-on-error")

	filter := &cobra.Command{
		Use:   "filter",
		Short: "Print the subtree filter selecting a path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := data.ParsePath(opts.path, namespaces(opts.ns)...)
			if err != nil {
				return err
			}
			return printXML(cmd, &ops.Filter{Type: "subtree", Union: common.GetUnion(tx.ToFilter(path))})
		},
	}

	render.AddCommand(edit, filter)
	return render
}

func (o *renderOpts) editConfig() (*ops.EditConfigReq, error) {
	path, err := data.ParsePath(o.path, namespaces(o.ns)...)
	if err != nil {
		return nil, err
	}
	if path.IsEmpty() {
		return nil, tx.ErrEmptyPath
	}

	req := tx.EditRequest{Path: path}
	var defaultOp data.ModifyAction
	switch o.op {
	case "put":
		req.Action, defaultOp = data.Replace, data.None
	case "merge":
	case "delete":
		req.Action, defaultOp = data.Delete, data.None
	default:
		if req.Action, err = data.ParseModifyAction(o.op); err != nil {
			return nil, err
		}
	}

	if o.value != "" {
		if req.Value, err = data.FromJSON(path.Last().Name, o.value); err != nil {
			return nil, err
		}
	}

	target := ops.Running
	if o.candidate {
		target = ops.Candidate
	}
	return tx.BuildEditConfig(req, tx.EditOptions{Target: target, DefaultOperation: defaultOp, RollbackOnError: o.rollback})
}

func printXML(cmd *cobra.Command, v interface{}) error {
	b, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode rpc")
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}
