package tx

import (
	"encoding/xml"

	"github.com/damianoneill/ncbroker/netconf/data"
	"github.com/damianoneill/ncbroker/netconf/ops"

	"github.com/pkg/errors"
)

var operationAttr = xml.Name{Space: data.NetconfNS, Local: "operation"}

// EditRequest describes a single change to the configuration: the value (if any) to be applied
// at Path with Action.
type EditRequest struct {
	Path   data.Path
	Action data.ModifyAction
	Value  *data.Node
}

// EditOptions qualify the edit-config request carrying an EditRequest.
type EditOptions struct {
	Target           ops.Datastore
	DefaultOperation data.ModifyAction
	RollbackOnError  bool
}

// BuildEditConfig delivers the edit-config request applying req.
func BuildEditConfig(req EditRequest, opts EditOptions) (*ops.EditConfigReq, error) {
	tree, err := EditTree(req)
	if err != nil {
		return nil, err
	}
	editOpts := []ops.EditOption{ops.DefaultOperation(opts.DefaultOperation)}
	if opts.RollbackOnError {
		editOpts = append(editOpts, ops.ErrorOption(ops.RollbackOnErrorErrOpt))
	}
	return ops.NewEditConfigRequest(opts.Target, ops.Cfg(tree), editOpts...), nil
}

// EditTree builds the content of the config element for req, from the deepest path argument
// outwards. The deepest element carries the operation attribute, its key leaves and the
// children of the value that do not duplicate a key. Each ancestor wraps the element below,
// preceded by its own key leaves.
func EditTree(req EditRequest) (*data.Node, error) {
	if req.Path.IsEmpty() {
		return nil, ErrEmptyPath
	}

	last := req.Path.Last()
	current := elementFor(last)
	if req.Action.IsSpecified() {
		current.SetAttr(operationAttr, req.Action.String())
	}
	if v := req.Value; v != nil {
		if v.IsLeaf() && !last.IsListEntry() {
			current.Value = v.Value
		}
		for _, c := range v.Children {
			if !last.HasKey(c.Name) {
				current.Add(c.Clone())
			}
		}
	}

	for i := len(req.Path) - 2; i >= 0; i-- {
		current = elementFor(req.Path[i]).Add(current)
	}
	return current, nil
}

// ToFilter builds the subtree filter selecting path. List entry arguments become content match
// nodes. An empty path selects everything and delivers nil.
func ToFilter(path data.Path) *data.Node {
	if path.IsEmpty() {
		return nil
	}
	current := elementFor(path.Last())
	for i := len(path) - 2; i >= 0; i-- {
		current = elementFor(path[i]).Add(current)
	}
	return current
}

func elementFor(arg data.PathArgument) *data.Node {
	n := &data.Node{Name: arg.Name}
	for _, k := range arg.Keys {
		n.Add(data.Leaf(k.Name, k.Value))
	}
	return n
}

// ParseEditConfig recovers the edit requests carried by the content of a config element.
// Every element carrying an operation attribute yields a request for the path leading to it,
// where ancestors named in listKeys become list entry arguments. A top level element without
// any operation attribute beneath it yields a single request with an unspecified action.
func ParseEditConfig(config *data.Node, listKeys data.ListKeys) ([]EditRequest, error) {
	if config == nil {
		return nil, errors.New("missing config")
	}
	var reqs []EditRequest
	for _, top := range config.Children {
		found, err := collectEdits(top, nil, listKeys, &reqs)
		if err != nil {
			return nil, err
		}
		if !found {
			reqs = append(reqs, EditRequest{
				Path:   data.Path{listKeys.EntryArg(top)},
				Action: data.Unspecified,
				Value:  stripOperation(top.Clone()),
			})
		}
	}
	return reqs, nil
}

func collectEdits(n *data.Node, parent data.Path, listKeys data.ListKeys, reqs *[]EditRequest) (bool, error) {
	path := append(append(data.Path{}, parent...), listKeys.EntryArg(n))

	if op, ok := n.Attr(operationAttr); ok {
		action, err := data.ParseModifyAction(op)
		if err != nil {
			return false, errors.Wrapf(err, "invalid edit at %s", path)
		}
		req := EditRequest{Path: path, Action: action}
		if action != data.Delete && action != data.Remove {
			req.Value = stripOperation(n.Clone())
		}
		*reqs = append(*reqs, req)
		return true, nil
	}

	found := false
	for _, c := range n.Children {
		f, err := collectEdits(c, path, listKeys, reqs)
		if err != nil {
			return false, err
		}
		found = found || f
	}
	return found, nil
}

func stripOperation(n *data.Node) *data.Node {
	n.RemoveAttr(operationAttr)
	for _, c := range n.Children {
		stripOperation(c)
	}
	return n
}
