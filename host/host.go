// Package host owns template editor sessions on behalf of an application.
//
// The application opens an editor for a resource and gets back a Handle. It
// closes the editor explicitly with CloseEditor when its window or view goes
// away; the host commits pending edits and drops the session. Close shuts
// down every open editor.
package host

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joshuapare/tmplkit/internal/logging"
	"github.com/joshuapare/tmplkit/pkg/types"
	"github.com/joshuapare/tmplkit/session"
	"github.com/joshuapare/tmplkit/tmpl"
)

// Handle identifies an open editor.
type Handle = uuid.UUID

// Host tracks open editor sessions.
type Host struct {
	support  *Support
	opt      session.Options
	log      *zap.Logger
	sessions map[Handle]*session.Session
	closed   bool
}

// New returns a host that looks up missing templates in support. Both
// arguments may be nil.
func New(support *Support, opts *session.Options) *Host {
	opt := session.DefaultOptions()
	if opts != nil {
		opt = *opts
	}
	opt.Logger = logging.OrNop(opt.Logger)
	if support == nil {
		support = NewSupport(opt.Logger)
	}
	return &Host{
		support:  support,
		opt:      opt,
		log:      opt.Logger,
		sessions: make(map[Handle]*session.Session),
	}
}

// Support returns the template registry.
func (h *Host) Support() *Support { return h.support }

// OpenEditor starts a session for res. A nil template is looked up by the
// resource's type.
func (h *Host) OpenEditor(res *types.Resource, t *tmpl.Template) (Handle, error) {
	if h.closed {
		return Handle{}, types.ErrClosed
	}
	if res == nil {
		return Handle{}, types.NewError(types.ErrKindState, "no resource", nil)
	}
	if t == nil {
		var err error
		if t, err = h.support.Lookup(res.Type); err != nil {
			return Handle{}, err
		}
	}
	s, err := session.Open(res, t, &h.opt)
	if err != nil {
		return Handle{}, err
	}
	h.sessions[s.ID()] = s
	h.log.Info("editor opened", zap.Stringer("handle", s.ID()), zap.Stringer("resource", res))
	return s.ID(), nil
}

// Editor returns the session for handle.
func (h *Host) Editor(handle Handle) (*session.Session, error) {
	s, ok := h.sessions[handle]
	if !ok {
		return nil, &types.Error{Kind: types.ErrKindNotFound, Msg: fmt.Sprintf("no editor %s", handle), Offset: -1}
	}
	return s, nil
}

// Editors returns the handles of open editors in string order.
func (h *Host) Editors() []Handle {
	out := make([]Handle, 0, len(h.sessions))
	for k := range h.sessions {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// EditorFor returns the open editor for the resource, if any.
func (h *Host) EditorFor(res *types.Resource) (Handle, bool) {
	for k, s := range h.sessions {
		if s.Resource() == res {
			return k, true
		}
	}
	return Handle{}, false
}

// CloseEditor closes the session for handle and forgets it. The session is
// dropped even if its final commit fails.
func (h *Host) CloseEditor(handle Handle) error {
	s, err := h.Editor(handle)
	if err != nil {
		return err
	}
	delete(h.sessions, handle)
	err = s.Close()
	h.log.Info("editor closed", zap.Stringer("handle", handle), zap.Error(err))
	return err
}

// Close closes every editor and joins their errors. The host accepts no new
// editors afterwards.
func (h *Host) Close() error {
	var errs []error
	for _, handle := range h.Editors() {
		if err := h.CloseEditor(handle); err != nil {
			errs = append(errs, fmt.Errorf("editor %s: %w", handle, err))
		}
	}
	h.closed = true
	return errors.Join(errs...)
}
