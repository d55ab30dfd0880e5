package host

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/joshuapare/tmplkit/internal/logging"
	"github.com/joshuapare/tmplkit/pkg/types"
	"github.com/joshuapare/tmplkit/rsrc"
	"github.com/joshuapare/tmplkit/tmpl"
)

// TemplateType is the resource type that holds templates. A TMPL resource's
// name is the resource type it describes.
const TemplateType = "TMPL"

// Support holds the templates available to a host, keyed by the resource
// type they describe. Later registrations replace earlier ones.
type Support struct {
	templates map[string]*tmpl.Template
	sources   map[string]string
	log       *zap.Logger
}

// NewSupport returns an empty registry. log may be nil.
func NewSupport(log *zap.Logger) *Support {
	return &Support{
		templates: make(map[string]*tmpl.Template),
		sources:   make(map[string]string),
		log:       logging.OrNop(log),
	}
}

// Add registers t for the resource type named by t.Name.
func (s *Support) Add(t *tmpl.Template, source string) {
	if prev, ok := s.sources[t.Name]; ok {
		s.log.Debug("template replaced", zap.String("type", t.Name), zap.String("old", prev), zap.String("new", source))
	}
	s.templates[t.Name] = t
	s.sources[t.Name] = source
}

// Lookup returns the template for a resource type.
func (s *Support) Lookup(typ string) (*tmpl.Template, error) {
	t, ok := s.templates[typ]
	if !ok {
		return nil, &types.Error{Kind: types.ErrKindNotFound, Msg: fmt.Sprintf("no template for '%s'", typ), Offset: -1}
	}
	return t, nil
}

// Source reports where the template for typ was loaded from.
func (s *Support) Source(typ string) string { return s.sources[typ] }

// Types returns the resource types that have templates, sorted.
func (s *Support) Types() []string {
	out := make([]string, 0, len(s.templates))
	for typ := range s.templates {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered templates.
func (s *Support) Len() int { return len(s.templates) }

// AddFile registers every TMPL resource in f. Templates that fail to parse
// are skipped and their errors joined into the result.
func (s *Support) AddFile(f *rsrc.File, source string) (int, error) {
	var errs []error
	n := 0
	for _, r := range f.Resources(TemplateType) {
		if r.Name == "" {
			s.log.Warn("unnamed template skipped", zap.String("source", source), zap.Stringer("resource", r))
			continue
		}
		t, err := tmpl.ParseTMPL(r.Name, r.Data)
		if err != nil {
			s.log.Warn("bad template skipped", zap.String("source", source), zap.Stringer("resource", r), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s %s: %w", source, r, err))
			continue
		}
		s.Add(t, fmt.Sprintf("%s %s", source, r))
		n++
	}
	return n, errors.Join(errs...)
}

// LoadFile reads a resource file and registers its templates.
func (s *Support) LoadFile(path string) (int, error) {
	f, err := rsrc.Open(path)
	if err != nil {
		return 0, err
	}
	return s.AddFile(f, path)
}

// LoadYAML reads one YAML template file.
func (s *Support) LoadYAML(path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fh.Close()
	t, err := tmpl.LoadYAML(fh)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	s.Add(t, path)
	return nil
}

// LoadDir walks dir and loads every .yaml, .yml and .rsrc file in it. It
// keeps going past bad files and returns their errors joined.
func (s *Support) LoadDir(dir string) (int, error) {
	var errs []error
	n := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			if err := s.LoadYAML(path); err != nil {
				errs = append(errs, err)
				return nil
			}
			n++
		case ".rsrc":
			c, err := s.LoadFile(path)
			n += c
			if err != nil {
				errs = append(errs, err)
			}
		}
		return nil
	})
	if err != nil {
		errs = append(errs, err)
	}
	s.log.Debug("support directory loaded", zap.String("dir", dir), zap.Int("templates", n))
	return n, errors.Join(errs...)
}

// Load loads each path, as a directory or as a resource or YAML file.
func (s *Support) Load(paths ...string) (int, error) {
	var errs []error
	n := 0
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		var c int
		switch ext := strings.ToLower(filepath.Ext(p)); {
		case info.IsDir():
			c, err = s.LoadDir(p)
		case ext == ".yaml" || ext == ".yml":
			if err = s.LoadYAML(p); err == nil {
				c = 1
			}
		default:
			c, err = s.LoadFile(p)
		}
		n += c
		if err != nil {
			errs = append(errs, err)
		}
	}
	return n, errors.Join(errs...)
}
