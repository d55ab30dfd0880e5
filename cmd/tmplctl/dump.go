package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/tmplkit/printer"
	"github.com/joshuapare/tmplkit/query"
)

var (
	dumpFormat   string
	dumpOffsets  bool
	dumpNoTypes  bool
	dumpDepth    int
	dumpMaxBytes int
	dumpFilter   string
)

func init() {
	cmd := newDumpCmd()
	cmd.Flags().StringVarP(&dumpFormat, "format", "f", "", "Output format: text, json, yaml, cbor (default from config)")
	cmd.Flags().BoolVar(&dumpOffsets, "offsets", false, "Show byte offset and size of each field")
	cmd.Flags().BoolVar(&dumpNoTypes, "no-types", false, "Hide field type codes")
	cmd.Flags().IntVar(&dumpDepth, "depth", 0, "Maximum depth to print (0 = unlimited)")
	cmd.Flags().IntVar(&dumpMaxBytes, "max-bytes", printer.DefaultMaxValueBytes, "Hex bytes to show per field (0 = all)")
	cmd.Flags().StringVar(&dumpFilter, "filter", "", "Only print fields matching an expression, e.g. 'Type == \"PSTR\"'")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file> <type> <id|name>",
		Short: "Decode a resource with its template and print the fields",
		Long: `The dump command decodes a resource with the template for its type
and prints every field.

Example:
  tmplctl dump App.rsrc STR# 128
  tmplctl dump App.rsrc vers 1 --offsets
  tmplctl dump App.rsrc MENU 129 --format yaml
  tmplctl dump App.rsrc STR# 128 --filter 'Text contains "Error"'`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args)
		},
	}
}

func dumpOptions() (printer.Options, error) {
	opts := printer.DefaultOptions()
	name := dumpFormat
	if name == "" {
		name = cfg.Format
	}
	if jsonOut {
		name = string(printer.FormatJSON)
	}
	format, err := printer.ParseFormat(name)
	if err != nil {
		return opts, err
	}
	opts.Format = format
	opts.ShowOffsets = dumpOffsets
	opts.ShowTypes = !dumpNoTypes
	opts.MaxDepth = dumpDepth
	opts.MaxValueBytes = dumpMaxBytes
	return opts, nil
}

func runDump(args []string) error {
	opts, err := dumpOptions()
	if err != nil {
		return err
	}
	tg, err := openTarget(args[0], args[1], args[2])
	if err != nil {
		return err
	}
	list, err := tg.decode()
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", tg.res, err)
	}

	p := printer.New(os.Stdout, opts)
	if dumpFilter == "" {
		return p.PrintList(list)
	}

	q, err := query.Compile(dumpFilter)
	if err != nil {
		return err
	}
	matches, err := q.Filter(list)
	if err != nil {
		return err
	}
	if opts.Format != printer.FormatText {
		return p.PrintElements(matches)
	}
	for _, e := range matches {
		printInfo("%s\n", e.Path())
		if err := p.PrintElement(e); err != nil {
			return err
		}
	}
	return nil
}
