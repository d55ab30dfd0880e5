// Package printer renders decoded element lists as text, JSON, YAML or CBOR.
package printer

import (
	"fmt"
	"io"

	"github.com/joshuapare/tmplkit/tmpl"
)

const (
	DefaultIndentSize    = 2
	DefaultMaxDepth      = 0
	DefaultMaxValueBytes = 32
)

// Format specifies the output format for printing.
type Format string

const (
	// FormatText outputs an indented human-readable tree.
	FormatText Format = "text"

	// FormatJSON outputs the node tree as indented JSON.
	FormatJSON Format = "json"

	// FormatYAML outputs the node tree as YAML.
	FormatYAML Format = "yaml"

	// FormatCBOR outputs the node tree as binary CBOR.
	FormatCBOR Format = "cbor"
)

// ParseFormat maps a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatYAML, FormatCBOR:
		return f, nil
	case "":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Options controls printing behavior.
type Options struct {
	// Format specifies output format.
	// Default: FormatText
	Format Format

	// IndentSize is the number of spaces per indent level (text format only).
	// Default: 2
	IndentSize int

	// MaxDepth limits recursion depth (0 = unlimited).
	// Default: 0 (unlimited)
	MaxDepth int

	// ShowTypes includes the four-character type code of each field.
	// Default: true
	ShowTypes bool

	// ShowOffsets includes byte offset and size of each element.
	// Default: false
	ShowOffsets bool

	// ShowValues includes element values. When false only labels print.
	// Default: true
	ShowValues bool

	// MaxValueBytes limits how many bytes of hex data the text format shows.
	// Set to 0 for no limit.
	// Default: 32
	MaxValueBytes int
}

// DefaultOptions returns sensible defaults for printing.
func DefaultOptions() Options {
	return Options{
		Format:        FormatText,
		IndentSize:    DefaultIndentSize,
		MaxDepth:      DefaultMaxDepth,
		ShowTypes:     true,
		ShowOffsets:   false,
		ShowValues:    true,
		MaxValueBytes: DefaultMaxValueBytes,
	}
}

// Printer writes element trees to an io.Writer.
type Printer struct {
	opts   Options
	writer io.Writer
}

// New creates a Printer.
//
// Example:
//
//	p := printer.New(os.Stdout, printer.DefaultOptions())
//	p.PrintList(list)
func New(w io.Writer, opts Options) *Printer {
	return &Printer{writer: w, opts: opts}
}

// PrintList prints every top-level element of l.
func (p *Printer) PrintList(l *tmpl.ElementList) error {
	return p.print(l.Elements())
}

// PrintElement prints e and its descendants.
func (p *Printer) PrintElement(e *tmpl.Element) error {
	return p.print([]*tmpl.Element{e})
}

// PrintElements prints several elements and their descendants. Structured
// formats emit them as one document.
func (p *Printer) PrintElements(list []*tmpl.Element) error {
	return p.print(list)
}

func (p *Printer) print(list []*tmpl.Element) error {
	switch p.opts.Format {
	case FormatJSON:
		return p.printJSON(p.nodes(list, 0))
	case FormatYAML:
		return p.printYAML(p.nodes(list, 0))
	case FormatCBOR:
		return p.printCBOR(p.nodes(list, 0))
	case FormatText:
		return p.printText(list, 0)
	default:
		return p.printText(list, 0)
	}
}
