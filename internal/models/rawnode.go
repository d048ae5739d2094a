package models

import (
	"encoding/xml"
	"strings"
)

// RawNode is the archival payload for hierarchical-document records: a
// recursive tagged tree mirroring the source element (tag, text, attributes,
// ordered children). It is stored untruncated alongside the normalized
// record so the original is always recoverable.
type RawNode struct {
	Tag      string            `json:"tag"`
	Text     string            `json:"text"`
	Attrs    map[string]string `json:"attrs"`
	Children []*RawNode        `json:"children"`
}

// UnmarshalXML decodes one element and its subtree into a RawNode.
// Character data directly under the element is concatenated and trimmed.
func (n *RawNode) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	n.Tag = start.Name.Local
	n.Attrs = make(map[string]string, len(start.Attr))
	n.Children = []*RawNode{}
	for _, a := range start.Attr {
		n.Attrs[a.Name.Local] = a.Value
	}

	var text strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			child := &RawNode{}
			if err := child.UnmarshalXML(d, t); err != nil {
				return err
			}
			n.Children = append(n.Children, child)
		case xml.EndElement:
			n.Text = strings.TrimSpace(text.String())
			return nil
		}
	}
}

// Child returns the first child with the given tag in document order, or
// nil. First-match-wins is the documented lookup rule for scalar fields.
func (n *RawNode) Child(tag string) *RawNode {
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// ChildAll returns every child with the given tag, in document order.
func (n *RawNode) ChildAll(tag string) []*RawNode {
	var out []*RawNode
	for _, c := range n.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// ChildText returns the trimmed text of the first child with the given tag,
// or "" when the tag is absent. Absent tags are never an error.
func (n *RawNode) ChildText(tag string) string {
	c := n.Child(tag)
	if c == nil {
		return ""
	}
	return c.Text
}

// Attr returns the named attribute value, or "" when absent.
func (n *RawNode) Attr(name string) string {
	return n.Attrs[name]
}
