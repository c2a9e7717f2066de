package simulator

import (
	"encoding/xml"

	"github.com/damianoneill/ncbroker/netconf/common"
	"github.com/damianoneill/ncbroker/netconf/data"
)

var operationAttr = xml.Name{Space: data.NetconfNS, Local: "operation"}

// editor applies edit-config content to a datastore, following the operation semantics of RFC 6241 7.2.
type editor struct {
	listKeys data.ListKeys
}

func (e editor) apply(parent, edit *data.Node, inherited string) *common.RPCError {
	op := inherited
	if v, ok := edit.Attr(operationAttr); ok {
		op = v
	}
	existing, idx := e.find(parent, edit)

	switch op {
	case "merge":
		if existing == nil {
			parent.Add(clean(edit))
			return nil
		}
		if edit.IsLeaf() {
			existing.Value = edit.Value
			return nil
		}
		return e.applyChildren(existing, edit, op)
	case "replace":
		if existing == nil {
			parent.Add(clean(edit))
		} else {
			parent.Children[idx] = clean(edit)
		}
		return nil
	case "create":
		if existing != nil {
			err := editError("data-exists", edit)
			return &err
		}
		parent.Add(clean(edit))
		return nil
	case "delete":
		if existing == nil {
			err := editError("data-missing", edit)
			return &err
		}
		removeChild(parent, idx)
		return nil
	case "remove":
		if existing != nil {
			removeChild(parent, idx)
		}
		return nil
	case "none":
		if edit.IsLeaf() {
			return nil
		}
		created := false
		if existing == nil {
			existing = e.skeleton(edit)
			parent.Add(existing)
			created = true
		}
		skeletonSize := len(existing.Children)
		if err := e.applyChildren(existing, edit, op); err != nil {
			return err
		}
		if created && len(existing.Children) == skeletonSize {
			removeChild(parent, len(parent.Children)-1)
		}
		return nil
	}

	err := common.RPCError{Type: common.ErrorTypeProtocol, Tag: "bad-attribute", Severity: common.SeverityError, Message: "unknown operation " + op}
	return &err
}

// applyChildren applies the children of edit to existing, other than the keys identifying existing.
func (e editor) applyChildren(existing, edit *data.Node, op string) *common.RPCError {
	keys := e.listKeys.Of(edit.Name)
	for _, c := range edit.Children {
		if c.IsLeaf() && contains(keys, c.Name.Local) {
			continue
		}
		if err := e.apply(existing, c, op); err != nil {
			return err
		}
	}
	return nil
}

// find delivers the child of parent identified by edit, with its index. List entries are
// identified by their keys.
func (e editor) find(parent, edit *data.Node) (*data.Node, int) {
	keys := e.listKeys.Of(edit.Name)
	for i, c := range parent.Children {
		if !c.Name.Matches(edit.Name) {
			continue
		}
		if keysEqual(c, edit, keys) {
			return c, i
		}
	}
	return nil, -1
}

// skeleton delivers an element named as edit holding only its key leaves.
func (e editor) skeleton(edit *data.Node) *data.Node {
	n := &data.Node{Name: edit.Name}
	for _, k := range e.listKeys.Of(edit.Name) {
		if leaf := edit.Child(localName(k), true); leaf != nil {
			n.Add(clean(leaf))
		}
	}
	return n
}

func keysEqual(a, b *data.Node, keys []string) bool {
	for _, k := range keys {
		ka := a.Child(localName(k), true)
		kb := b.Child(localName(k), true)
		if ka == nil || kb == nil || ka.Value != kb.Value {
			return false
		}
	}
	return true
}

func contains(keys []string, name string) bool {
	for _, k := range keys {
		if k == name {
			return true
		}
	}
	return false
}

func removeChild(n *data.Node, idx int) {
	n.Children = append(n.Children[:idx], n.Children[idx+1:]...)
}

// clean delivers a copy of n without operation attributes.
func clean(n *data.Node) *data.Node {
	c := n.Clone()
	strip(c)
	return c
}

func strip(n *data.Node) {
	n.RemoveAttr(operationAttr)
	for _, c := range n.Children {
		strip(c)
	}
}

func editError(tag string, edit *data.Node) common.RPCError {
	return common.RPCError{
		Type:     common.ErrorTypeApplication,
		Tag:      tag,
		Severity: common.SeverityError,
		Path:     edit.Name.String(),
		Message:  tag + ": " + edit.Name.Local,
	}
}
