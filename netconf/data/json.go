package data

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// FromJSON builds a node named name from a JSON document. Object members become children in the
// namespace of name, arrays become repeated children and scalars become leaf values.
func FromJSON(name QName, js string) (*Node, error) {
	if !gjson.Valid(js) {
		return nil, errors.Errorf("invalid json value for %s", name.Local)
	}
	return fromResult(name, gjson.Parse(js)), nil
}

func fromResult(name QName, r gjson.Result) *Node {
	n := &Node{Name: name}
	if !r.IsObject() {
		n.Value = r.String()
		return n
	}
	r.ForEach(func(k, v gjson.Result) bool {
		child := QName{Namespace: name.Namespace, Local: k.String()}
		if v.IsArray() {
			for _, item := range v.Array() {
				n.Children = append(n.Children, fromResult(child, item))
			}
		} else {
			n.Children = append(n.Children, fromResult(child, v))
		}
		return true
	})
	return n
}

// JSON renders the node as a JSON object keyed by the node's local name. Leaf values are
// rendered as strings, repeated children as arrays.
func (n *Node) JSON() (string, error) {
	raw, err := n.rawJSON()
	if err != nil {
		return "", err
	}
	return sjson.SetRaw("{}", escapeKey(n.Name.Local), raw)
}

func (n *Node) rawJSON() (string, error) {
	if n.IsLeaf() {
		obj, err := sjson.Set("{}", "v", n.Value)
		if err != nil {
			return "", err
		}
		return gjson.Get(obj, "v").Raw, nil
	}

	var order []string
	groups := map[string][]*Node{}
	for _, c := range n.Children {
		if _, ok := groups[c.Name.Local]; !ok {
			order = append(order, c.Name.Local)
		}
		groups[c.Name.Local] = append(groups[c.Name.Local], c)
	}

	obj := "{}"
	for _, name := range order {
		var raws []string
		for _, c := range groups[name] {
			raw, err := c.rawJSON()
			if err != nil {
				return "", err
			}
			raws = append(raws, raw)
		}
		raw := raws[0]
		if len(raws) > 1 {
			raw = "[" + strings.Join(raws, ",") + "]"
		}
		var err error
		if obj, err = sjson.SetRaw(obj, escapeKey(name), raw); err != nil {
			return "", err
		}
	}
	return obj, nil
}

var keyEscaper = strings.NewReplacer(`\`, `\\`, ".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)

func escapeKey(k string) string {
	return keyEscaper.Replace(k)
}
