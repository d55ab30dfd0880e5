package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newGetCmd())
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <file> <type> <id|name> <path>",
		Short: "Print one field of a resource",
		Long: `The get command prints the value of one field. Paths are
slash-separated labels; list entries are addressed by index and unlabelled
or duplicate fields by #position.

Example:
  tmplctl get App.rsrc STR# 128 "*****/0/The String"
  tmplctl get App.rsrc vers 1 "Short version string" --json`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(args)
		},
	}
}

type fieldResult struct {
	Path   string `json:"path"`
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Size   int    `json:"size"`
	Text   string `json:"text"`
	Symbol string `json:"symbol,omitempty"`
	Value  any    `json:"value,omitempty"`
}

func runGet(args []string) error {
	tg, err := openTarget(args[0], args[1], args[2])
	if err != nil {
		return err
	}
	list, err := tg.decode()
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", tg.res, err)
	}
	e, err := list.Lookup(args[3])
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(fieldResult{
			Path:   e.Path(),
			Type:   e.Type(),
			Offset: e.Offset(),
			Size:   e.Size(),
			Text:   e.Text(),
			Symbol: e.Symbol(),
			Value:  e.Value(),
		})
	}
	if sym := e.Symbol(); sym != "" {
		printInfo("%s (%s)\n", e.Text(), sym)
		return nil
	}
	printInfo("%s\n", e.Text())
	return nil
}
