package simulator

import (
	"github.com/damianoneill/ncbroker/netconf/data"
)

func filterOf(req *data.Node) *data.Node {
	f := req.Child(localName("filter"), false)
	if f == nil {
		return nil
	}
	return f
}

// subtree delivers a data element holding the content of root selected by the subtree filter f,
// following RFC 6241 6.2. A nil filter selects everything.
func subtree(root, f *data.Node) *data.Node {
	out := data.Container(dataName)
	if f == nil {
		out.Children = root.Clone().Children
		return out
	}
	for _, dc := range root.Children {
		for _, fc := range f.Children {
			if !fc.Name.Matches(dc.Name) {
				continue
			}
			if r := selectNode(dc, fc); r != nil {
				out.Add(r)
				break
			}
		}
	}
	return out
}

// selectNode applies filter node f to d, which has the same name, delivering the selected content or nil.
func selectNode(d, f *data.Node) *data.Node {
	if f.IsLeaf() {
		if f.Value == "" || (d.IsLeaf() && d.Value == f.Value) {
			return d.Clone()
		}
		return nil
	}

	var matches, others []*data.Node
	for _, fc := range f.Children {
		if fc.IsLeaf() && fc.Value != "" {
			matches = append(matches, fc)
		} else {
			others = append(others, fc)
		}
	}
	for _, m := range matches {
		if !hasContent(d, m) {
			return nil
		}
	}
	if len(others) == 0 {
		return d.Clone()
	}

	out := &data.Node{Name: d.Name}
	selected := false
	for _, dc := range d.Children {
		if matchesAny(dc, matches) {
			out.Add(dc.Clone())
			continue
		}
		for _, fc := range others {
			if !fc.Name.Matches(dc.Name) {
				continue
			}
			if r := selectNode(dc, fc); r != nil {
				out.Add(r)
				selected = true
				break
			}
		}
	}
	if !selected {
		return nil
	}
	return out
}

func hasContent(d, m *data.Node) bool {
	for _, c := range d.Children {
		if c.IsLeaf() && c.Name.Matches(m.Name) && c.Value == m.Value {
			return true
		}
	}
	return false
}

func matchesAny(n *data.Node, matches []*data.Node) bool {
	for _, m := range matches {
		if n.IsLeaf() && n.Name.Matches(m.Name) && n.Value == m.Value {
			return true
		}
	}
	return false
}
