package data

import (
	"encoding/xml"
)

// Node is an element of the value tree. A node without children is a leaf, whose content
// is held in Value.
type Node struct {
	Name     QName
	Attrs    []xml.Attr
	Value    string
	Children []*Node
}

// Leaf delivers a new leaf node.
func Leaf(name QName, value string) *Node {
	return &Node{Name: name, Value: value}
}

// Container delivers a new composite node holding children.
func Container(name QName, children ...*Node) *Node {
	return &Node{Name: name, Children: children}
}

// IsLeaf returns true if the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Add appends children to the node, returning the node.
func (n *Node) Add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Attr delivers the value of the named attribute.
func (n *Node) Attr(name xml.Name) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets (or replaces) the named attribute.
func (n *Node) SetAttr(name xml.Name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, xml.Attr{Name: name, Value: value})
}

// RemoveAttr removes the named attribute, if present.
func (n *Node) RemoveAttr(name xml.Name) {
	attrs := n.Attrs[:0]
	for _, a := range n.Attrs {
		if a.Name != name {
			attrs = append(attrs, a)
		}
	}
	n.Attrs = attrs
}

// Child delivers the first child whose name satisfies match and whose shape (leaf or composite)
// is as requested.
func (n *Node) Child(match func(QName) bool, leaf bool) *Node {
	for _, c := range n.Children {
		if c.IsLeaf() == leaf && match(c.Name) {
			return c
		}
	}
	return nil
}

// ChildrenNamed delivers the children that match name, ignoring revision.
func (n *Node) ChildrenNamed(name QName) []*Node {
	var found []*Node
	for _, c := range n.Children {
		if c.Name.Matches(name) {
			found = append(found, c)
		}
	}
	return found
}

// Clone delivers a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Name: n.Name, Value: n.Value}
	if n.Attrs != nil {
		c.Attrs = append([]xml.Attr(nil), n.Attrs...)
	}
	for _, ch := range n.Children {
		c.Children = append(c.Children, ch.Clone())
	}
	return c
}

// Equal reports whether n and o carry the same names, values and children. Attributes and
// revisions are not compared.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if !n.Name.Matches(o.Name) || len(n.Children) != len(o.Children) {
		return false
	}
	if n.IsLeaf() {
		return n.Value == o.Value
	}
	for i := range n.Children {
		if !n.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	b, err := xml.Marshal(n)
	if err != nil {
		return err.Error()
	}
	return string(b)
}
