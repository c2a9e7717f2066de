package data

import (
	"encoding/xml"
	"io"
	"strings"
)

// NetconfNS is the base namespace, used to qualify the operation attribute of edit-config content.
const NetconfNS = "urn:ietf:params:xml:ns:netconf:base:1.0"

const netconfPrefix = "nc"

// MarshalXML encodes the node and its descendants. The supplied start element is ignored, the
// node's own name is always used. A namespace declaration is only emitted when it differs from the
// enclosing element.
func (n *Node) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	if err := n.encode(e, ""); err != nil {
		return err
	}
	return e.Flush()
}

func (n *Node) encode(e *xml.Encoder, parentNS string) error {
	start := xml.StartElement{Name: xml.Name{Local: n.Name.Local}}
	if n.Name.Namespace != parentNS {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "xmlns"}, Value: n.Name.Namespace})
	}

	ncDeclared := false
	for _, a := range n.Attrs {
		switch a.Name.Space {
		case "xmlns":
			// Declarations are regenerated.
			continue
		case NetconfNS:
			if !ncDeclared {
				start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "xmlns:" + netconfPrefix}, Value: NetconfNS})
				ncDeclared = true
			}
			start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: netconfPrefix + ":" + a.Name.Local}, Value: a.Value})
		default:
			start.Attr = append(start.Attr, a)
		}
	}

	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if n.IsLeaf() {
		if n.Value != "" {
			if err := e.EncodeToken(xml.CharData(n.Value)); err != nil {
				return err
			}
		}
	} else {
		for _, c := range n.Children {
			if err := c.encode(e, n.Name.Namespace); err != nil {
				return err
			}
		}
	}
	return e.EncodeToken(start.End())
}

// UnmarshalXML decodes an element and its descendants into the node.
func (n *Node) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	n.Name = QName{Namespace: start.Name.Space, Local: start.Name.Local}
	n.Attrs = nil
	n.Children = nil
	for _, a := range start.Attr {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		n.Attrs = append(n.Attrs, a)
	}

	var text strings.Builder
	for {
		token, err := d.Token()
		if err != nil {
			return err
		}
		switch token := token.(type) {
		case xml.StartElement:
			child := &Node{}
			if err = child.UnmarshalXML(d, token); err != nil {
				return err
			}
			n.Children = append(n.Children, child)
		case xml.CharData:
			text.Write(token)
		case xml.EndElement:
			if n.IsLeaf() {
				n.Value = strings.TrimSpace(text.String())
			}
			return nil
		}
	}
}

// ParseXML decodes the first element found in s.
func ParseXML(s string) (*Node, error) {
	n := &Node{}
	if err := xml.Unmarshal([]byte(s), n); err != nil {
		return nil, err
	}
	return n, nil
}

// ParseXMLFragment decodes every top level element found in s, which need not have a single root.
func ParseXMLFragment(s string) ([]*Node, error) {
	d := xml.NewDecoder(strings.NewReader(s))
	var nodes []*Node
	for {
		token, err := d.Token()
		if err != nil {
			if err == io.EOF {
				return nodes, nil
			}
			return nil, err
		}
		if se, ok := token.(xml.StartElement); ok {
			n := &Node{}
			if err = n.UnmarshalXML(d, se); err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		}
	}
}
