package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/joshuapare/tmplkit/host"
	"github.com/joshuapare/tmplkit/pkg/types"
	"github.com/joshuapare/tmplkit/rsrc"
	"github.com/joshuapare/tmplkit/session"
	"github.com/joshuapare/tmplkit/tmpl"
)

// openFile parses the resource file at path.
func openFile(path string) (*rsrc.File, error) {
	printVerbose("Opening resource file: %s\n", path)
	f, err := rsrc.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open resource file: %w", err)
	}
	return f, nil
}

// findResource looks a resource up by decimal id or, failing that, by name.
func findResource(f *rsrc.File, typ, idOrName string) (*types.Resource, error) {
	typ = normalizeType(typ)
	if id, err := strconv.ParseInt(idOrName, 10, 16); err == nil {
		return f.Get(typ, int16(id))
	}
	return f.GetNamed(typ, idOrName)
}

// normalizeType pads short type codes with spaces, so "PNT" means "PNT ".
func normalizeType(typ string) string {
	if n := len(typ); n > 0 && n < 4 {
		return typ + strings.Repeat(" ", 4-n)
	}
	return typ
}

// loadSupport builds the template registry from, in increasing priority,
// the configured support paths, --support, the TMPL resources of the file
// being edited, and --template.
func loadSupport(f *rsrc.File, source string) (*host.Support, error) {
	s := host.NewSupport(logger)
	paths := append(append([]string(nil), cfg.Support...), supportPaths...)
	if len(paths) > 0 {
		n, err := s.Load(paths...)
		printVerbose("Loaded %d templates from support paths\n", n)
		if err != nil {
			logger.Warn("some templates failed to load", zap.Error(err))
		}
	}
	if f != nil {
		if _, err := s.AddFile(f, source); err != nil {
			logger.Warn("bad templates in resource file", zap.String("file", source), zap.Error(err))
		}
	}
	if templatePath != "" {
		switch strings.ToLower(filepath.Ext(templatePath)) {
		case ".yaml", ".yml":
			if err := s.LoadYAML(templatePath); err != nil {
				return nil, fmt.Errorf("failed to load template: %w", err)
			}
		default:
			n, err := s.LoadFile(templatePath)
			if n == 0 && err == nil {
				err = fmt.Errorf("no %s resources in %s", host.TemplateType, templatePath)
			}
			if err != nil {
				return nil, fmt.Errorf("failed to load template: %w", err)
			}
		}
	}
	return s, nil
}

// target is an open resource file plus one resource in it.
type target struct {
	path    string
	file    *rsrc.File
	res     *types.Resource
	support *host.Support
	tmpl    *tmpl.Template
}

// openTarget opens path, finds the resource and its template.
func openTarget(path, typ, id string) (*target, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	res, err := findResource(f, typ, id)
	if err != nil {
		return nil, err
	}
	s, err := loadSupport(f, path)
	if err != nil {
		return nil, err
	}
	t, err := s.Lookup(res.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", res, err)
	}
	printVerbose("Using template '%s' from %s\n", t.Name, s.Source(res.Type))
	return &target{path: path, file: f, res: res, support: s, tmpl: t}, nil
}

// decode decodes the target resource with the configured options.
func (tg *target) decode() (*tmpl.ElementList, error) {
	opts := cfg.DecodeOptions()
	opts.ResourceID = tg.res.ID
	if len(tg.res.Data) == 0 {
		return tmpl.New(tg.tmpl, opts)
	}
	return tmpl.Decode(tg.tmpl, tg.res.Data, opts)
}

// newHost returns a host whose sessions use the configured options.
func (tg *target) newHost() *host.Host {
	return host.New(tg.support, &session.Options{
		Decode:        cfg.DecodeOptions(),
		CommitOnClose: true,
		Logger:        logger,
	})
}
