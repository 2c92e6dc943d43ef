// Package chat keeps the conversation with the question-answering backend.
package chat

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/docchat/cli/internal/gateway"
)

// TimestampLayout is ISO-8601 with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

const askFailed = "Failed to get a response."

// Sender identifies who wrote a message.
type Sender string

const (
	User Sender = "user"
	Bot  Sender = "bot"
)

// Message is one entry of the conversation. Messages are never changed once
// appended.
type Message struct {
	ID        string `json:"id"`
	Sender    Sender `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// Time parses Timestamp.
func (m Message) Time() (time.Time, error) {
	return time.Parse(TimestampLayout, m.Timestamp)
}

// Asker sends a question to the backend.
type Asker interface {
	Ask(ctx context.Context, query, documentID string) (*gateway.ChatResponse, error)
}

// Selection tells the session which document to scope a question to.
type Selection interface {
	Current() (string, bool)
}

type answeredMsg struct {
	resp *gateway.ChatResponse
	err  error
}

// Session holds the history and the one exchange that may be in flight.
// Methods must be called from the program loop.
type Session struct {
	asker     Asker
	selection Selection
	clock     clockwork.Clock
	logger    *zap.Logger

	messages    []Message
	draft       string
	busy        bool
	err         string
	lastContext []string
}

// Config carries optional collaborators.
type Config struct {
	Clock  clockwork.Clock
	Logger *zap.Logger
}

// NewSession creates an empty conversation.
func NewSession(asker Asker, selection Selection, cfg Config) *Session {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Session{
		asker:     asker,
		selection: selection,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
	}
}

// Messages returns a copy of the history in append order.
func (s *Session) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Draft is the unsent query text.
func (s *Session) Draft() string { return s.draft }

// SetDraft replaces the unsent query text.
func (s *Session) SetDraft(text string) { s.draft = text }

// Busy reports whether an exchange is in flight.
func (s *Session) Busy() bool { return s.busy }

// Err is the detail of the last failed exchange. It is cleared when the next
// question is sent.
func (s *Session) Err() string { return s.err }

// LastContext returns the context passages the backend used for the latest
// answer.
func (s *Session) LastContext() []string { return s.lastContext }

// Submit sends the draft.
func (s *Session) Submit(ctx context.Context) tea.Cmd {
	return s.Send(ctx, s.draft)
}

// Send appends text as a user message and asks the backend, scoped to the
// current selection. Blank text, or text sent while an exchange is in
// flight, is ignored and nothing changes.
func (s *Session) Send(ctx context.Context, text string) tea.Cmd {
	if strings.TrimSpace(text) == "" || s.busy {
		return nil
	}

	s.append(User, text)
	s.draft = ""
	s.busy = true
	s.err = ""

	documentID, _ := s.selection.Current()
	asker := s.asker
	s.logger.Debug("asking", zap.String("document_id", documentID), zap.Int("query_len", len(text)))

	return func() tea.Msg {
		resp, err := asker.Ask(ctx, text, documentID)
		return answeredMsg{resp: resp, err: err}
	}
}

// Update applies a finished exchange and ignores everything else.
func (s *Session) Update(msg tea.Msg) tea.Cmd {
	answered, ok := msg.(answeredMsg)
	if !ok || !s.busy {
		return nil
	}
	s.busy = false

	if answered.err != nil {
		detail := gateway.Detail(answered.err, askFailed)
		s.err = detail
		s.lastContext = nil
		s.append(Bot, "Error: "+detail)
		s.logger.Warn("ask failed", zap.Error(answered.err))
		return nil
	}

	s.lastContext = answered.resp.ContextUsed
	s.append(Bot, answered.resp.Answer)
	s.logger.Debug("answer received", zap.Int("context_used", len(answered.resp.ContextUsed)))
	return nil
}

func (s *Session) append(sender Sender, text string) {
	s.messages = append(s.messages, Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		Timestamp: s.clock.Now().UTC().Format(TimestampLayout),
	})
}
