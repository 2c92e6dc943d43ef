package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Sender forwards messages from background goroutines into the running
// program. Messages sent before a program is attached, or after it exits,
// are dropped.
type Sender struct {
	mu      sync.Mutex
	program *tea.Program
}

// NewSender returns a Sender with no program attached yet.
func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) attach(p *tea.Program) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.program = p
}

// Send must not be called from the program loop itself; tea.Program.Send
// blocks until the loop receives.
func (s *Sender) Send(msg tea.Msg) {
	s.mu.Lock()
	p := s.program
	s.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}
