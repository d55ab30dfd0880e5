package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joshuapare/tmplkit/pkg/types"
)

func init() {
	rootCmd.AddCommand(newListCmd())
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <file> [type]",
		Short: "List resources in a resource file",
		Long: `The list command shows every resource in a resource file, or only
those of one type.

Example:
  tmplctl list System.rsrc
  tmplctl list System.rsrc STR#
  tmplctl list System.rsrc --json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(args)
		},
	}
}

type listEntry struct {
	Type       string `json:"type"`
	ID         int16  `json:"id"`
	Name       string `json:"name,omitempty"`
	Size       int    `json:"size"`
	Attributes uint8  `json:"attributes"`
}

func runList(args []string) error {
	f, err := openFile(args[0])
	if err != nil {
		return err
	}
	typ := ""
	if len(args) > 1 {
		typ = normalizeType(args[1])
	}

	var entries []listEntry
	for _, r := range f.Resources(typ) {
		entries = append(entries, listEntry{
			Type:       r.Type,
			ID:         r.ID,
			Name:       r.Name,
			Size:       len(r.Data),
			Attributes: r.Attributes,
		})
	}

	if jsonOut {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		printInfo("No resources\n")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tID\tSIZE\tATTRS\tNAME")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", e.Type, e.ID, e.Size, attrString(e.Attributes), e.Name)
	}
	return tw.Flush()
}

// attrString renders attribute bits as letters, e.g. "-p-l--".
func attrString(a uint8) string {
	flags := []struct {
		bit uint8
		ch  byte
	}{
		{types.AttrSysHeap, 's'},
		{types.AttrPurgeable, 'p'},
		{types.AttrLocked, 'l'},
		{types.AttrProtected, 'r'},
		{types.AttrPreload, 'P'},
		{types.AttrChanged, 'c'},
	}
	out := make([]byte, len(flags))
	for i, f := range flags {
		out[i] = '-'
		if a&f.bit != 0 {
			out[i] = f.ch
		}
	}
	return string(out)
}
