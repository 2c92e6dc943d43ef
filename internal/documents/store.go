package documents

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	app_errors "github.com/docchat/cli/internal/errors"
	"github.com/docchat/cli/internal/gateway"
)

const (
	refreshFailed = "Failed to fetch documents."
	deleteFailed  = "Failed to delete document."
)

// Backend is the part of the gateway the store needs.
type Backend interface {
	ListDocuments(ctx context.Context) ([]gateway.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

// Selection is the shared selection the store keeps free of dangling ids.
type Selection interface {
	Current() (string, bool)
	Release(id string) bool
}

// RefreshedMsg carries the settled result of a Refresh.
type RefreshedMsg struct {
	Docs []gateway.Document
	Err  error

	seq int
}

// RemovedMsg carries the settled result of a Remove.
type RemovedMsg struct {
	ID  string
	Err error
}

// Store is the client's copy of the backend document list. All methods must
// be called from the program loop; the commands they return do the network
// I/O and report back through RefreshedMsg and RemovedMsg.
type Store struct {
	backend   Backend
	selection Selection
	logger    *zap.Logger

	docs    []gateway.Document
	err     string
	loading bool

	// issued is the sequence number of the latest Refresh. Only its result
	// is applied; earlier ones that land late are dropped.
	issued int
	// removed maps a confirmed-deleted id to the refresh sequence current at
	// confirmation. Refresh results issued at or before that sequence may
	// still list the id and are filtered.
	removed map[string]int
}

// NewStore creates an empty store.
func NewStore(backend Backend, selection Selection, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend:   backend,
		selection: selection,
		logger:    logger,
		docs:      []gateway.Document{},
		removed:   make(map[string]int),
	}
}

// Documents returns a copy of the current list.
func (s *Store) Documents() []gateway.Document {
	out := make([]gateway.Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// Find looks a document up by id.
func (s *Store) Find(id string) (gateway.Document, bool) {
	for _, d := range s.docs {
		if d.ID == id {
			return d, true
		}
	}
	return gateway.Document{}, false
}

// Err returns the last user-visible error, or "".
func (s *Store) Err() string { return s.err }

// Loading reports whether a refresh is in flight.
func (s *Store) Loading() bool { return s.loading }

// Refresh fetches the full list from the backend. On success the stored list
// is replaced wholesale; on failure it is kept and Err is set.
func (s *Store) Refresh(ctx context.Context) tea.Cmd {
	s.issued++
	seq := s.issued
	s.loading = true
	s.err = ""

	backend := s.backend
	return func() tea.Msg {
		docs, err := backend.ListDocuments(ctx)
		return RefreshedMsg{Docs: docs, Err: err, seq: seq}
	}
}

// Remove deletes id on the backend. The local list only changes once the
// backend has confirmed.
func (s *Store) Remove(ctx context.Context, id string) tea.Cmd {
	if id == "" {
		return func() tea.Msg {
			return RemovedMsg{Err: app_errors.Validationf("No document selected.")}
		}
	}

	backend := s.backend
	return func() tea.Msg {
		return RemovedMsg{ID: id, Err: backend.DeleteDocument(ctx, id)}
	}
}

// Update applies settled store messages and ignores everything else.
func (s *Store) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case RefreshedMsg:
		s.applyRefresh(msg)
	case RemovedMsg:
		s.applyRemove(msg)
	}
	return nil
}

func (s *Store) applyRefresh(msg RefreshedMsg) {
	if msg.seq != s.issued {
		s.logger.Debug("dropping superseded refresh", zap.Int("seq", msg.seq), zap.Int("latest", s.issued))
		return
	}
	s.loading = false

	if msg.Err != nil {
		s.err = gateway.Detail(msg.Err, refreshFailed)
		s.logger.Warn("refresh failed, keeping previous list", zap.Int("kept", len(s.docs)), zap.Error(msg.Err))
		return
	}

	docs := make([]gateway.Document, 0, len(msg.Docs))
	for _, d := range msg.Docs {
		if at, ok := s.removed[d.ID]; ok && at >= msg.seq {
			continue
		}
		docs = append(docs, d)
	}
	for id, at := range s.removed {
		if at < msg.seq {
			delete(s.removed, id)
		}
	}
	s.docs = docs
	s.logger.Debug("document list refreshed", zap.Int("count", len(docs)))

	if cur, ok := s.selection.Current(); ok {
		if _, found := s.Find(cur); !found {
			s.selection.Release(cur)
			s.logger.Info("selected document no longer listed, selection cleared", zap.String("id", cur))
		}
	}
}

func (s *Store) applyRemove(msg RemovedMsg) {
	if msg.Err != nil {
		s.err = gateway.Detail(msg.Err, deleteFailed)
		s.logger.Warn("delete failed, list unchanged", zap.String("id", msg.ID), zap.Error(msg.Err))
		return
	}

	kept := s.docs[:0:0]
	for _, d := range s.docs {
		if d.ID != msg.ID {
			kept = append(kept, d)
		}
	}
	s.docs = kept
	s.removed[msg.ID] = s.issued
	s.err = ""

	if s.selection.Release(msg.ID) {
		s.logger.Info("deleted document was selected, selection cleared", zap.String("id", msg.ID))
	}
	s.logger.Info("document deleted", zap.String("id", msg.ID))
}
