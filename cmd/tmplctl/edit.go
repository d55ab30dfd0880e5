package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joshuapare/tmplkit/host"
	"github.com/joshuapare/tmplkit/printer"
	"github.com/joshuapare/tmplkit/query"
	"github.com/joshuapare/tmplkit/session"
)

func init() {
	rootCmd.AddCommand(newEditCmd())
}

func newEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <file> <type> <id|name>",
		Short: "Edit a resource in an interactive shell",
		Long: `The edit command opens an interactive shell on one resource. Edits
stay in memory until "save" writes the resource file.

Example:
  tmplctl edit App.rsrc DLOG 128`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(args)
		},
	}
}

func runEdit(args []string) error {
	tg, err := openTarget(args[0], args[1], args[2])
	if err != nil {
		return err
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("%s #%d> ", tg.res.Type, tg.res.ID),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	sh, err := newShell(tg, rl.Stdout())
	if err != nil {
		return err
	}
	defer sh.close()

	sh.printHelp()
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(sh.out, "Exiting...")
			return nil
		}
		quit, err := sh.exec(line)
		if err != nil {
			fmt.Fprintf(sh.out, "Error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// shell runs editor commands against one session.
type shell struct {
	tg      *target
	host    *host.Host
	handle  host.Handle
	ed      *session.Session
	out     io.Writer
	unsaved bool
}

func newShell(tg *target, out io.Writer) (*shell, error) {
	h := tg.newHost()
	handle, err := h.OpenEditor(tg.res, tg.tmpl)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", tg.res, err)
	}
	ed, err := h.Editor(handle)
	if err != nil {
		return nil, err
	}
	return &shell{tg: tg, host: h, handle: handle, ed: ed, out: out}, nil
}

// close drops uncommitted edits and shuts the session down.
func (sh *shell) close() error {
	if sh.ed.Dirty() {
		_ = sh.ed.Revert()
	}
	return sh.host.Close()
}

// exec runs one command line and reports whether the shell should exit.
func (sh *shell) exec(line string) (bool, error) {
	// expressions keep their quotes
	if word, rest, _ := strings.Cut(strings.TrimSpace(line), " "); word == "find" || word == "f" {
		return false, sh.cmdFind(strings.TrimSpace(rest))
	}
	args, err := splitArgs(line)
	if err != nil || len(args) == 0 {
		return false, err
	}
	cmd, args := strings.ToLower(args[0]), args[1:]

	switch cmd {
	case "help", "?":
		sh.printHelp()
	case "show", "ls":
		return false, sh.cmdShow(args)
	case "get", "g":
		return false, sh.cmdGet(args)
	case "set", "s":
		return false, sh.cmdSet(args)
	case "insert", "ins":
		return false, sh.cmdInsert(args)
	case "remove", "rm":
		return false, sh.cmdRemove(args)
	case "revert":
		if err := sh.ed.Revert(); err != nil {
			return false, err
		}
		sh.unsaved = false
		fmt.Fprintln(sh.out, "Reverted to the saved resource")
	case "commit":
		return false, sh.ed.Commit()
	case "save", "w":
		return false, sh.cmdSave()
	case "quit", "exit", "q":
		if sh.unsaved || sh.ed.Dirty() {
			fmt.Fprintln(sh.out, "Unsaved changes: use save, or quit! to discard them")
			return false, nil
		}
		return true, nil
	case "quit!", "q!":
		return true, nil
	default:
		fmt.Fprintf(sh.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false, nil
}

func (sh *shell) printer() *printer.Printer {
	opts := printer.DefaultOptions()
	opts.ShowOffsets = verbose
	return printer.New(sh.out, opts)
}

func (sh *shell) cmdShow(args []string) error {
	list := sh.ed.List()
	if len(args) == 0 {
		return sh.printer().PrintList(list)
	}
	e, err := list.Lookup(args[0])
	if err != nil {
		return err
	}
	return sh.printer().PrintElement(e)
}

func (sh *shell) cmdGet(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: get <path>")
	}
	e, err := sh.ed.List().Lookup(args[0])
	if err != nil {
		return err
	}
	if sym := e.Symbol(); sym != "" {
		fmt.Fprintf(sh.out, "%s (%s)\n", e.Text(), sym)
	} else {
		fmt.Fprintln(sh.out, e.Text())
	}
	return nil
}

func (sh *shell) cmdSet(args []string) error {
	var path, value string
	switch len(args) {
	case 1:
		var err error
		if path, value, err = splitEdit(args[0]); err != nil {
			return err
		}
	case 2:
		path, value = args[0], args[1]
	default:
		return errors.New("usage: set <path> <value>")
	}
	if err := sh.ed.Set(path, value); err != nil {
		return err
	}
	sh.unsaved = true
	return nil
}

func (sh *shell) cmdInsert(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: insert <list> [index]")
	}
	index := -1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("bad index %q", args[1])
		}
		index = n
	}
	e, err := sh.ed.InsertEntry(args[0], index)
	if err != nil {
		return err
	}
	sh.unsaved = true
	fmt.Fprintf(sh.out, "Inserted %s\n", e.Path())
	return nil
}

func (sh *shell) cmdRemove(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: remove <list> <index>")
	}
	index, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad index %q", args[1])
	}
	if err := sh.ed.RemoveEntry(args[0], index); err != nil {
		return err
	}
	sh.unsaved = true
	return nil
}

func (sh *shell) cmdFind(src string) error {
	if src == "" {
		return errors.New("usage: find <expression>")
	}
	q, err := query.Compile(src)
	if err != nil {
		return err
	}
	matches, err := q.Filter(sh.ed.List())
	if err != nil {
		return err
	}
	for _, e := range matches {
		fmt.Fprintf(sh.out, "%s = %s\n", e.Path(), e.Text())
	}
	fmt.Fprintf(sh.out, "%d matches\n", len(matches))
	return nil
}

func (sh *shell) cmdSave() error {
	if err := sh.ed.Commit(); err != nil {
		return err
	}
	if err := sh.tg.file.WriteFile(sh.tg.path); err != nil {
		return fmt.Errorf("failed to write %s: %w", sh.tg.path, err)
	}
	sh.unsaved = false
	logger.Info("resource saved", zap.String("file", sh.tg.path), zap.Stringer("resource", sh.tg.res))
	fmt.Fprintf(sh.out, "Saved %s to %s\n", sh.tg.res, sh.tg.path)
	return nil
}

func (sh *shell) printHelp() {
	fmt.Fprintln(sh.out, `
Template Editor Commands:
  Inspection:
    show [path]          - Print all fields, or one field and its children
    get <path>           - Print one field's value
    find <expression>    - List fields matching an expression (Type, Label, Text, Value, ...)

  Editing:
    set <path> <value>   - Change a field (also: set path=value)
    insert <list> [i]    - Insert a default entry (at the end by default)
    remove <list> <i>    - Remove entry i
    revert               - Discard all edits since the last save

  Saving:
    commit               - Apply edits to the in-memory resource
    save                 - Commit and write the resource file
    quit                 - Exit (quit! discards unsaved edits)`)
}

// splitArgs splits a command line on spaces, keeping double-quoted runs
// together.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quoted  bool
		started bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && quoted && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		case c == '"':
			quoted = !quoted
			started = true
		case (c == ' ' || c == '\t') && !quoted:
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteByte(c)
			started = true
		}
	}
	if quoted {
		return nil, errors.New("unterminated quote")
	}
	if started {
		args = append(args, cur.String())
	}
	return args, nil
}
