package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/tmplkit/pkg/types"
	"github.com/joshuapare/tmplkit/tmpl"
)

func init() {
	rootCmd.AddCommand(newValidateCmd())
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file> [type]",
		Short: "Check that resources decode and re-encode exactly",
		Long: `The validate command decodes every resource that has a template and
checks that encoding the decoded fields reproduces the original bytes.
Empty resources and resources without a template are skipped. It exits
non-zero if any resource fails.

Example:
  tmplctl validate App.rsrc
  tmplctl validate App.rsrc DLOG --json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args)
		},
	}
}

type validateResult struct {
	Resource string `json:"resource"`
	Status   string `json:"status"` // ok, failed, skipped
	Error    string `json:"error,omitempty"`
}

func runValidate(args []string) error {
	f, err := openFile(args[0])
	if err != nil {
		return err
	}
	s, err := loadSupport(f, args[0])
	if err != nil {
		return err
	}
	typ := ""
	if len(args) > 1 {
		typ = normalizeType(args[1])
	}

	var (
		results []validateResult
		failed  int
	)
	for _, r := range f.Resources(typ) {
		res := validateResult{Resource: r.String(), Status: "ok"}
		t, err := s.Lookup(r.Type)
		if err != nil || len(r.Data) == 0 {
			res.Status = "skipped"
			results = append(results, res)
			continue
		}
		if err := roundTrip(t, r); err != nil {
			res.Status, res.Error = "failed", err.Error()
			failed++
		}
		results = append(results, res)
	}

	if jsonOut {
		if err := printJSON(results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			switch res.Status {
			case "failed":
				printInfo("FAIL %s: %s\n", res.Resource, res.Error)
			case "skipped":
				printVerbose("skip %s: empty or no template\n", res.Resource)
			default:
				printVerbose("ok   %s\n", res.Resource)
			}
		}
		printInfo("%d resources checked, %d failed\n", len(results), failed)
	}
	if failed > 0 {
		return fmt.Errorf("%d resources failed validation", failed)
	}
	return nil
}

// roundTrip decodes the resource data and checks the encoding matches it
// byte for byte.
func roundTrip(t *tmpl.Template, res *types.Resource) error {
	opts := cfg.DecodeOptions()
	opts.ResourceID = res.ID
	list, err := tmpl.Decode(t, res.Data, opts)
	if err != nil {
		return err
	}
	out, err := list.Encode()
	if err != nil {
		return err
	}
	if !bytes.Equal(out, res.Data) {
		return fmt.Errorf("re-encoded %d bytes differ from the original %d", len(out), len(res.Data))
	}
	return nil
}
