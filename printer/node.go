package printer

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/tmplkit/tmpl"
)

// Node is the structured form of an element used by the JSON, YAML and
// CBOR formats.
type Node struct {
	Label    string `json:"label" yaml:"label" cbor:"label"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty" cbor:"type,omitempty"`
	Path     string `json:"path" yaml:"path" cbor:"path"`
	Offset   *int   `json:"offset,omitempty" yaml:"offset,omitempty" cbor:"offset,omitempty"`
	Size     *int   `json:"size,omitempty" yaml:"size,omitempty" cbor:"size,omitempty"`
	Value    any    `json:"value,omitempty" yaml:"value,omitempty" cbor:"value,omitempty"`
	Text     string `json:"text,omitempty" yaml:"text,omitempty" cbor:"text,omitempty"`
	Symbol   string `json:"symbol,omitempty" yaml:"symbol,omitempty" cbor:"symbol,omitempty"`
	Children []Node `json:"children,omitempty" yaml:"children,omitempty" cbor:"children,omitempty"`
}

// Nodes converts a list of elements with the printer's options applied.
func (p *Printer) Nodes(list []*tmpl.Element) []Node {
	return p.nodes(list, 0)
}

func (p *Printer) nodes(list []*tmpl.Element, depth int) []Node {
	if p.opts.MaxDepth > 0 && depth >= p.opts.MaxDepth {
		return nil
	}
	out := make([]Node, 0, len(list))
	for _, e := range list {
		n := Node{Label: e.Label(), Path: e.Path()}
		if p.opts.ShowTypes {
			n.Type = e.Type()
		}
		if p.opts.ShowOffsets {
			off, size := e.Offset(), e.Size()
			n.Offset, n.Size = &off, &size
		}
		if p.opts.ShowValues && hasValue(e) {
			n.Value = e.Value()
			n.Text = e.Text()
			n.Symbol = e.Symbol()
		}
		n.Children = p.nodes(e.Children(), depth+1)
		out = append(out, n)
	}
	return out
}

// hasValue reports whether e carries a value of its own.
func hasValue(e *tmpl.Element) bool {
	switch e.Kind() {
	case tmpl.KindEntry, tmpl.KindSkip, tmpl.KindCosmetic:
		return false
	}
	return true
}

func (p *Printer) printJSON(nodes []Node) error {
	data, err := json.MarshalIndent(nodes, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(p.writer, "%s\n", data)
	return err
}

func (p *Printer) printYAML(nodes []Node) error {
	enc := yaml.NewEncoder(p.writer)
	enc.SetIndent(p.indentSize())
	if err := enc.Encode(nodes); err != nil {
		return err
	}
	return enc.Close()
}

var cborMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339, Sort: cbor.SortCanonical}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

func (p *Printer) printCBOR(nodes []Node) error {
	return cborMode.NewEncoder(p.writer).Encode(nodes)
}

func (p *Printer) indentSize() int {
	if p.opts.IndentSize <= 0 {
		return DefaultIndentSize
	}
	return p.opts.IndentSize
}
