package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/tmplkit/rsrc"
)

var templatesFile string

func init() {
	cmd := newTemplatesCmd()
	cmd.Flags().StringVar(&templatesFile, "file", "", "Also use TMPL resources from this resource file")
	rootCmd.AddCommand(cmd)
}

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates [type]",
		Short: "List available templates or print one as YAML",
		Long: `The templates command lists the resource types that have a template,
with where each template was loaded from. Given a type, it prints that
template in the YAML form accepted by --template and support directories.

Example:
  tmplctl templates --support ~/Templates
  tmplctl templates STR# --file App.rsrc > str.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTemplates(args)
		},
	}
}

type templateEntry struct {
	Type   string `json:"type"`
	Fields int    `json:"fields"`
	Source string `json:"source"`
}

func runTemplates(args []string) error {
	source := templatesFile
	var (
		f   *rsrc.File
		err error
	)
	if source != "" {
		if f, err = openFile(source); err != nil {
			return err
		}
	}
	s, err := loadSupport(f, source)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		t, err := s.Lookup(normalizeType(args[0]))
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(t.Entries)
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return err
		}
		return enc.Close()
	}

	var entries []templateEntry
	for _, typ := range s.Types() {
		t, _ := s.Lookup(typ)
		entries = append(entries, templateEntry{Type: typ, Fields: len(t.Entries), Source: s.Source(typ)})
	}
	if jsonOut {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		printInfo("No templates (use --support, --template or the support config setting)\n")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tFIELDS\tSOURCE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Type, e.Fields, e.Source)
	}
	return tw.Flush()
}
