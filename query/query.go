// Package query selects elements with boolean expressions.
//
// Expressions are compiled with expr-lang against Env, for example:
//
//	Type == "PSTR" && Text contains "Apple"
//	Kind == "int" && Value > 100
//	Path startsWith "Items/" && Depth == 2
package query

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/joshuapare/tmplkit/tmpl"
)

// Env is the environment an expression sees for one element.
type Env struct {
	Label  string
	Type   string
	Kind   string
	Path   string
	Offset int
	Size   int
	Depth  int
	Value  any
	Text   string
	Symbol string
}

// EnvOf builds the environment for e at the given depth.
func EnvOf(e *tmpl.Element, depth int) Env {
	return Env{
		Label:  e.Label(),
		Type:   e.Type(),
		Kind:   e.Kind().String(),
		Path:   e.Path(),
		Offset: e.Offset(),
		Size:   e.Size(),
		Depth:  depth,
		Value:  e.Value(),
		Text:   e.Text(),
		Symbol: e.Symbol(),
	}
}

func exprOptions() []expr.Option {
	return []expr.Option{
		expr.Env(Env{}),
		expr.AsBool(),
	}
}

// Query is a compiled filter expression.
type Query struct {
	src     string
	program *vm.Program
}

// Compile parses and type-checks src.
func Compile(src string) (*Query, error) {
	program, err := expr.Compile(src, exprOptions()...)
	if err != nil {
		return nil, fmt.Errorf("compile query %q: %w", src, err)
	}
	return &Query{src: src, program: program}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(src string) *Query {
	q, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return q
}

// String returns the source expression.
func (q *Query) String() string { return q.src }

// Match evaluates the query for e. depth is 0 for top-level elements.
func (q *Query) Match(e *tmpl.Element, depth int) (bool, error) {
	out, err := expr.Run(q.program, EnvOf(e, depth))
	if err != nil {
		return false, fmt.Errorf("query %q at %s: %w", q.src, e.Path(), err)
	}
	return out.(bool), nil
}

// Filter returns every element of l, in tree order, that matches.
func (q *Query) Filter(l *tmpl.ElementList) ([]*tmpl.Element, error) {
	var (
		out []*tmpl.Element
		err error
	)
	l.Walk(func(e *tmpl.Element, depth int) bool {
		var ok bool
		if ok, err = q.Match(e, depth); err != nil {
			return false
		}
		if ok {
			out = append(out, e)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
