package main

import (
	"sort"

	"github.com/damianoneill/ncbroker/netconf/data"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ncbroker",
		Short:        "NETCONF transaction engine tooling",
		SilenceUsage: true,
	}
	root.AddCommand(newRenderCmd(), newSimulateCmd())
	return root
}

// namespaces converts prefix to namespace bindings, in prefix order.
func namespaces(bindings map[string]string) []data.Namespace {
	nslist := make([]data.Namespace, 0, len(bindings))
	for id, path := range bindings {
		nslist = append(nslist, data.Namespace{ID: id, Path: path})
	}
	sort.Slice(nslist, func(i, j int) bool { return nslist[i].ID < nslist[j].ID })
	return nslist
}
