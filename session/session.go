// Package session holds one template editor bound to one resource.
//
// A Session decodes the resource once, applies edits to the decoded tree and
// writes the encoded bytes back to the resource on Commit. The caller owns
// the session and must Close it; nothing is tied to the lifetime of a window
// or any other host object.
//
// Sessions are not safe for concurrent use.
package session

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joshuapare/tmplkit/internal/logging"
	"github.com/joshuapare/tmplkit/pkg/types"
	"github.com/joshuapare/tmplkit/tmpl"
)

// Options configures a session.
type Options struct {
	// Decode is passed to tmpl.Decode for the initial decode and Reload.
	Decode tmpl.DecodeOptions

	// CommitOnClose writes pending edits back to the resource on Close.
	// Default: true
	CommitOnClose bool

	// Logger receives debug events. Default: zap.NewNop()
	Logger *zap.Logger
}

// DefaultOptions returns the options used when Open is given nil.
func DefaultOptions() Options {
	return Options{CommitOnClose: true}
}

// Session edits one resource through one template.
type Session struct {
	id     uuid.UUID
	res    *types.Resource
	tmpl   *tmpl.Template
	list   *tmpl.ElementList
	opt    Options
	log    *zap.Logger
	dirty  bool
	closed bool
}

// Open decodes res with t. Empty resource data gets a default tree built
// from the template. Options can be nil to use defaults.
func Open(res *types.Resource, t *tmpl.Template, opts *Options) (*Session, error) {
	if res == nil || t == nil {
		return nil, types.NewError(types.ErrKindState, "session needs a resource and a template", nil)
	}
	if opts == nil {
		def := DefaultOptions()
		opts = &def
	}
	s := &Session{
		id:   uuid.New(),
		res:  res,
		tmpl: t,
		opt:  *opts,
	}
	s.opt.Decode.ResourceID = res.ID
	s.log = logging.OrNop(opts.Logger).With(zap.Stringer("session", s.id), zap.Stringer("resource", res))

	list, err := s.decode(res.Data)
	if err != nil {
		return nil, fmt.Errorf("open %s with template %q: %w", res, t.Name, err)
	}
	s.list = list
	s.log.Debug("session opened", zap.Int("bytes", list.Len()), zap.String("template", t.Name))
	return s, nil
}

// WithSession opens a session, runs fn and closes the session. The close
// error is returned when fn succeeds.
func WithSession(res *types.Resource, t *tmpl.Template, opts *Options, fn func(*Session) error) (err error) {
	s, err := Open(res, t, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(s)
}

func (s *Session) decode(data []byte) (*tmpl.ElementList, error) {
	if len(data) == 0 {
		return tmpl.New(s.tmpl, s.opt.Decode)
	}
	return tmpl.Decode(s.tmpl, data, s.opt.Decode)
}

func (s *Session) check() error {
	if s.closed {
		return types.ErrClosed
	}
	return nil
}

// ID identifies the session.
func (s *Session) ID() uuid.UUID { return s.id }

// Resource returns the edited resource.
func (s *Session) Resource() *types.Resource { return s.res }

// Template returns the template in use.
func (s *Session) Template() *tmpl.Template { return s.tmpl }

// List returns the current tree, or nil once closed. Edits made through the
// list directly are not tracked by Dirty; use the session methods.
func (s *Session) List() *tmpl.ElementList {
	if s.closed {
		return nil
	}
	return s.list
}

// Dirty reports whether there are edits not yet committed.
func (s *Session) Dirty() bool { return s.dirty }

// Closed reports whether Close has been called.
func (s *Session) Closed() bool { return s.closed }

// Set changes the element at path.
func (s *Session) Set(path, text string) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := s.list.Set(path, text); err != nil {
		s.log.Debug("set rejected", zap.String("path", path), zap.Error(err))
		return err
	}
	s.dirty = true
	s.log.Debug("set", zap.String("path", path), zap.String("text", text))
	return nil
}

// InsertEntry adds a default entry to the list at path.
func (s *Session) InsertEntry(path string, index int) (*tmpl.Element, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	e, err := s.list.InsertEntry(path, index)
	if err != nil {
		return nil, err
	}
	s.dirty = true
	s.log.Debug("entry inserted", zap.String("path", e.Path()))
	return e, nil
}

// RemoveEntry removes an entry from the list at path.
func (s *Session) RemoveEntry(path string, index int) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := s.list.RemoveEntry(path, index); err != nil {
		return err
	}
	s.dirty = true
	s.log.Debug("entry removed", zap.String("path", path), zap.Int("index", index))
	return nil
}

// Reload replaces the tree with a decode of data. If decoding fails the
// current tree stays as it was.
func (s *Session) Reload(data []byte) error {
	if err := s.check(); err != nil {
		return err
	}
	list, err := s.decode(data)
	if err != nil {
		s.log.Debug("reload failed", zap.Error(err))
		return err
	}
	s.list = list
	s.dirty = !bytes.Equal(data, s.res.Data)
	return nil
}

// Revert drops uncommitted edits by decoding the resource again.
func (s *Session) Revert() error {
	if err := s.check(); err != nil {
		return err
	}
	list, err := s.decode(s.res.Data)
	if err != nil {
		return err
	}
	s.list = list
	s.dirty = false
	return nil
}

// Bytes encodes the current tree.
func (s *Session) Bytes() ([]byte, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	return s.list.Encode()
}

// Commit writes the encoded tree into the resource and marks it changed.
func (s *Session) Commit() error {
	if err := s.check(); err != nil {
		return err
	}
	return s.commit()
}

func (s *Session) commit() error {
	data, err := s.list.Encode()
	if err != nil {
		return err
	}
	if !bytes.Equal(data, s.res.Data) {
		s.res.Data = data
		s.res.Attributes |= types.AttrChanged
	}
	s.dirty = false
	s.log.Debug("committed", zap.Int("bytes", len(data)))
	return nil
}

// Close commits pending edits when CommitOnClose is set, then releases the
// tree. The session is unusable afterwards even if the commit failed.
// Closing twice is a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	var err error
	if s.opt.CommitOnClose && s.dirty {
		err = s.commit()
	}
	s.closed = true
	s.list = nil
	s.log.Debug("session closed", zap.Error(err))
	return err
}
