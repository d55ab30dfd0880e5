package tmpl

import (
	"bytes"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/tmplkit/pkg/types"
)

// yamlTemplate is the on-disk YAML form of a template.
type yamlTemplate struct {
	Name   string  `yaml:"name"`
	Fields []Entry `yaml:"fields"`
}

// ParseYAML reads a template written as:
//
//	name: STR#
//	fields:
//	  - {label: "Number of Strings", type: OCNT}
//	  - {label: "*****", type: LSTC}
//	  - {label: "The String", type: PSTR}
//	  - {label: "*****", type: LSTE}
func ParseYAML(data []byte) (*Template, error) {
	return LoadYAML(bytes.NewReader(data))
}

// LoadYAML is ParseYAML over a reader.
func LoadYAML(r io.Reader) (*Template, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc yamlTemplate
	if err := dec.Decode(&doc); err != nil {
		return nil, types.NewError(types.ErrKindTemplate, "bad YAML template", err)
	}
	if doc.Name == "" {
		return nil, types.NewError(types.ErrKindTemplate, "YAML template has no name", nil)
	}
	return FromEntries(doc.Name, doc.Fields)
}

// MarshalYAML encodes t in the form ParseYAML reads.
func (t *Template) MarshalYAML() (any, error) {
	return yamlTemplate{Name: t.Name, Fields: t.Entries}, nil
}
