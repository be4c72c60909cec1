// Package session keeps drawing sessions: one path buffer per open score
// part, loaded through the forward codec and committed through the inverse.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/staffline/internal/apperr"
	"github.com/starford/staffline/internal/buffer"
	"github.com/starford/staffline/internal/codec"
	"github.com/starford/staffline/internal/geometry"
	"github.com/starford/staffline/internal/grid"
	"github.com/starford/staffline/internal/music"
	"github.com/starford/staffline/internal/path"
	"github.com/starford/staffline/internal/scoreservice"
	"github.com/starford/staffline/internal/validation"
)

// Store loads and saves scores. *scoreservice.Service implements it.
type Store interface {
	LoadScore(ctx context.Context, path string) (music.Score, string, error)
	SaveScore(ctx context.Context, path string, s music.Score, ifMatch string) (*scoreservice.ScoreDetail, error)
}

// Event kinds passed to the notifier.
const (
	EventUpdated   = "session.updated"
	EventCommitted = "session.committed"
	EventClosed    = "session.closed"
)

// Event describes a session change.
type Event struct {
	Kind      string `json:"kind"`
	SessionID string `json:"session_id"`
	Path      string `json:"path"`
	Revision  uint64 `json:"revision"`
}

// View is a consistent copy of a session's state.
type View struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Part     int    `json:"part"`
	PartName string `json:"part_name"`
	Checksum string `json:"checksum"`
	buffer.Snapshot
}

type session struct {
	mu sync.Mutex

	id       string
	path     string
	part     int
	checksum string
	score    music.Score
	// number of leading measures drawn into the buffer
	window int
	buf    *buffer.Buffer
}

func (s *session) view() View {
	return View{
		ID:       s.id,
		Path:     s.path,
		Part:     s.part,
		PartName: s.score.Parts[s.part].Name,
		Checksum: s.checksum,
		Snapshot: s.buf.Snapshot(),
	}
}

// Manager owns every open session. Each session is locked independently.
type Manager struct {
	store   Store
	geom    geometry.Config
	snapper *grid.Snapper
	notify  func(Event)

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewManager creates a Manager for one geometry. notify may be nil.
func NewManager(store Store, geom geometry.Config, notify func(Event)) *Manager {
	if notify == nil {
		notify = func(Event) {}
	}
	return &Manager{
		store:    store,
		geom:     geom,
		snapper:  grid.New(geom),
		notify:   notify,
		sessions: make(map[string]*session),
	}
}

// Geometry returns the layout sessions are drawn with.
func (m *Manager) Geometry() geometry.Config { return m.geom }

// Open loads part of the score at scorePath and draws its leading measures
// into a fresh buffer.
func (m *Manager) Open(ctx context.Context, scorePath string, part int) (View, error) {
	sc, cs, err := m.store.LoadScore(ctx, scorePath)
	if err != nil {
		return View{}, err
	}
	if part < 0 || part >= len(sc.Parts) {
		return View{}, fmt.Errorf("session: %s has no part %d: %w", scorePath, part, apperr.ErrInvalidInput)
	}
	s := &session{
		id:       uuid.NewString(),
		path:     scorePath,
		part:     part,
		checksum: cs,
		buf:      buffer.New(m.snapper),
	}
	if err := m.load(s, sc, cs); err != nil {
		return View{}, err
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()
	return s.view(), nil
}

// load redraws s from sc. Callers hold s.mu or own s exclusively.
func (m *Manager) load(s *session, sc music.Score, cs string) error {
	s.score = sc
	s.checksum = cs
	measures := sc.Parts[s.part].Measures
	s.window = min(len(measures), m.geom.VisibleMeasures)
	segs := codec.ToPathSegments(measures, m.geom, m.geom.VisibleMeasures)
	if _, err := s.buf.ReplaceAll(segs); err != nil {
		return fmt.Errorf("session: draw %s: %w", s.path, err)
	}
	return nil
}

func (m *Manager) get(id string) (*session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session: %s: %w", id, apperr.ErrNotFound)
	}
	return s, nil
}

// Get returns the current state of a session.
func (m *Manager) Get(id string) (View, error) {
	s, err := m.get(id)
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(), nil
}

// List returns every open session.
func (m *Manager) List() []View {
	m.mu.RLock()
	all := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	out := make([]View, 0, len(all))
	for _, s := range all {
		s.mu.Lock()
		out = append(out, s.view())
		s.mu.Unlock()
	}
	return out
}

// mutate runs f under the session lock and notifies when the revision moved.
func (m *Manager) mutate(id string, f func(s *session) error) (View, error) {
	s, err := m.get(id)
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	before := s.buf.Revision()
	err = f(s)
	v := s.view()
	s.mu.Unlock()

	if v.Revision != before {
		m.notify(Event{Kind: EventUpdated, SessionID: v.ID, Path: v.Path, Revision: v.Revision})
	}
	return v, err
}

// Append feeds one pointer segment through the buffer.
func (m *Manager) Append(id string, seg path.Segment) (View, error) {
	return m.mutate(id, func(s *session) error {
		_, err := s.buf.Append(seg)
		return err
	})
}

// AppendAll feeds segments in order, stopping at the first failure.
func (m *Manager) AppendAll(id string, segs []path.Segment) (View, error) {
	return m.mutate(id, func(s *session) error {
		for _, seg := range segs {
			if _, err := s.buf.Append(seg); err != nil {
				return err
			}
		}
		return nil
	})
}

// Undo drops the most recent note.
func (m *Manager) Undo(id string) (View, error) {
	return m.mutate(id, func(s *session) error {
		s.buf.UndoLast()
		return nil
	})
}

// Replace swaps the whole buffer for raw, snapped like appended input. raw
// must alternate MoveTo and a terminating segment and may end in a pending
// MoveTo.
func (m *Manager) Replace(id string, raw []path.Segment) (View, error) {
	return m.mutate(id, func(s *session) error {
		if _, err := s.buf.ReplaceInput(raw); err != nil {
			return fmt.Errorf("session: replace: %w", err)
		}
		return nil
	})
}

// Commit decodes the buffer and merges the measures into the score. On
// validation failure the score is left untouched, the error overlay is set
// and the returned error is a validation.Errors.
func (m *Manager) Commit(ctx context.Context, id string) (View, error) {
	s, err := m.get(id)
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	before := s.buf.Revision()
	v, err := m.commit(ctx, s)
	s.mu.Unlock()

	switch {
	case err == nil:
		m.notify(Event{Kind: EventCommitted, SessionID: v.ID, Path: v.Path, Revision: v.Revision})
	case v.Revision != before:
		m.notify(Event{Kind: EventUpdated, SessionID: v.ID, Path: v.Path, Revision: v.Revision})
	}
	return v, err
}

func (m *Manager) commit(ctx context.Context, s *session) (View, error) {
	part := s.score.Parts[s.part]
	parent := validation.Root().
		Child(validation.KindScore, 0).WithID(s.path).
		Child(validation.KindPart, s.part).WithID(part.Name)

	measures, err := codec.DecodeUnder(parent, s.buf.Segments(), m.geom)
	if err != nil {
		var errs validation.Errors
		if errors.As(err, &errs) {
			s.buf.SetOverlay(codec.ErrorOverlay(errs, m.geom))
		}
		return s.view(), err
	}

	// keep later measures in place when trailing window measures were erased
	if len(measures) < s.window && len(part.Measures) > s.window {
		measures = append(measures, make([]music.Measure, s.window-len(measures))...)
	}
	updated := s.score.WithPart(s.part, part.ReplaceLeading(measures, s.window))
	detail, err := m.store.SaveScore(ctx, s.path, updated, s.checksum)
	if err != nil {
		return s.view(), err
	}
	if err := m.load(s, updated, detail.Checksum); err != nil {
		return s.view(), err
	}
	return s.view(), nil
}

// Reload discards local edits and redraws the session from the stored score.
func (m *Manager) Reload(ctx context.Context, id string) (View, error) {
	s, err := m.get(id)
	if err != nil {
		return View{}, err
	}
	sc, cs, err := m.store.LoadScore(ctx, s.path)
	if err != nil {
		return View{}, err
	}
	return m.mutate(id, func(s *session) error {
		if s.part >= len(sc.Parts) {
			return fmt.Errorf("session: %s no longer has part %d: %w", s.path, s.part, apperr.ErrConflict)
		}
		return m.load(s, sc, cs)
	})
}

// Close forgets a session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("session: %s: %w", id, apperr.ErrNotFound)
	}
	m.notify(Event{Kind: EventClosed, SessionID: id, Path: s.path})
	return nil
}
