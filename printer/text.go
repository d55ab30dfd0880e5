package printer

import (
	"fmt"
	"strings"

	"github.com/joshuapare/tmplkit/tmpl"
)

// printText prints elements as an indented tree:
//
//	Label [TYPE] = text (Symbol)
func (p *Printer) printText(list []*tmpl.Element, depth int) error {
	if p.opts.MaxDepth > 0 && depth >= p.opts.MaxDepth {
		return nil
	}
	indent := strings.Repeat(" ", depth*p.indentSize())
	for _, e := range list {
		var sb strings.Builder
		sb.WriteString(indent)
		label := e.Label()
		if label == "" {
			label = fmt.Sprintf("#%d", e.Index())
		}
		sb.WriteString(label)
		if p.opts.ShowTypes && e.Type() != "" {
			fmt.Fprintf(&sb, " [%s]", e.Type())
		}
		if p.opts.ShowOffsets {
			fmt.Fprintf(&sb, " @%d+%d", e.Offset(), e.Size())
		}
		if p.opts.ShowValues && hasValue(e) {
			sb.WriteString(" = ")
			sb.WriteString(p.valueText(e))
			if sym := e.Symbol(); sym != "" {
				fmt.Fprintf(&sb, " (%s)", sym)
			}
		}
		sb.WriteByte('\n')
		if _, err := fmt.Fprint(p.writer, sb.String()); err != nil {
			return err
		}
		if err := p.printText(e.Children(), depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) valueText(e *tmpl.Element) string {
	text := e.Text()
	switch e.Kind() {
	case tmpl.KindString, tmpl.KindChar:
		return fmt.Sprintf("%q", text)
	case tmpl.KindHex, tmpl.KindFill, tmpl.KindAlign:
		n := len(text) / 2
		if n == 0 {
			return "<empty>"
		}
		if max := p.opts.MaxValueBytes; max > 0 && n > max {
			return fmt.Sprintf("%s (truncated, %d total bytes)", strings.ToUpper(text[:max*2]), n)
		}
		return strings.ToUpper(text)
	}
	return text
}
