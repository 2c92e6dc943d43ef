package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/docchat/cli/internal/chat"
	"github.com/docchat/cli/internal/documents"
	"github.com/docchat/cli/internal/selection"
)

const (
	scopedPlaceholder  = "Ask about selected document..."
	generalPlaceholder = "Ask a general question..."
	emptyConversation  = "Start by selecting a document (or none to chat with all) and ask a question!"

	maxSourceLen = 160
)

// ChatView handles the conversation pane
type ChatView struct {
	session   *chat.Session
	selection *selection.Coordinator
	store     *documents.Store

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	width    int
}

// NewChatView builds the chat pane over session.
func NewChatView(session *chat.Session, sel *selection.Coordinator, store *documents.Store) *ChatView {
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = mutedStyle

	cv := &ChatView{
		session:   session,
		selection: sel,
		store:     store,
		input:     input,
		spinner:   sp,
		viewport:  viewport.New(80, 20),
		width:     80,
	}
	cv.syncPlaceholder()
	cv.renderMessages()
	return cv
}

// syncPlaceholder follows the current selection.
func (cv *ChatView) syncPlaceholder() {
	if _, ok := cv.selection.Current(); ok {
		cv.input.Placeholder = scopedPlaceholder
		return
	}
	cv.input.Placeholder = generalPlaceholder
}

func (cv *ChatView) handleKey(ctx context.Context, msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		cv.session.SetDraft(cv.input.Value())
		cmd := cv.session.Submit(ctx)
		if cmd == nil {
			return nil
		}
		cv.input.Reset()
		cv.renderMessages()
		return tea.Batch(cmd, cv.spinner.Tick)
	case "pgup":
		cv.viewport.LineUp(5)
		return nil
	case "pgdown":
		cv.viewport.LineDown(5)
		return nil
	}

	var cmd tea.Cmd
	cv.input, cmd = cv.input.Update(msg)
	cv.session.SetDraft(cv.input.Value())
	return cmd
}

func (cv *ChatView) update(msg tea.Msg) tea.Cmd {
	if tick, ok := msg.(spinner.TickMsg); ok {
		if !cv.session.Busy() {
			return nil
		}
		var cmd tea.Cmd
		cv.spinner, cmd = cv.spinner.Update(tick)
		return cmd
	}
	return nil
}

func (cv *ChatView) setSize(w, h int) {
	cv.width = max(w, 20)
	cv.viewport.Width = cv.width
	cv.viewport.Height = max(h-4, 3)
	cv.input.Width = max(cv.width-len(cv.input.Prompt)-1, 10)
	cv.renderMessages()
}

// renderMessages updates the messages display
func (cv *ChatView) renderMessages() {
	msgs := cv.session.Messages()
	if len(msgs) == 0 {
		cv.viewport.SetContent(mutedStyle.Render(emptyConversation))
		return
	}

	wrap := lipgloss.NewStyle().Width(cv.width)
	var lines []string
	for _, msg := range msgs {
		stamp := ""
		if at, err := msg.Time(); err == nil {
			stamp = mutedStyle.Render(" " + at.Local().Format("15:04:05"))
		}

		if msg.Sender == chat.User {
			lines = append(lines, userStyle.Render("You")+stamp)
			lines = append(lines, wrap.Render(msg.Text), "")
			continue
		}
		lines = append(lines, botStyle.Render("Bot")+stamp)
		text := msg.Text
		if strings.HasPrefix(text, "Error: ") {
			text = errorStyle.Render(text)
		}
		lines = append(lines, wrap.Render(text), "")
	}

	if sources := cv.session.LastContext(); len(sources) > 0 && !cv.session.Busy() {
		lines = append(lines, sourcesStyle.Render("Sources Found:"))
		for _, s := range sources {
			lines = append(lines, wrap.Render(mutedStyle.Render("  - "+truncate(s, maxSourceLen))))
		}
	}

	cv.viewport.SetContent(strings.Join(lines, "\n"))
	cv.viewport.GotoBottom()
}

func (cv *ChatView) scope() string {
	id, ok := cv.selection.Current()
	if !ok {
		return "all documents"
	}
	if doc, found := cv.store.Find(id); found {
		return doc.Filename
	}
	return id
}

func (cv *ChatView) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Chat") + mutedStyle.Render(fmt.Sprintf(" (asking %s)", cv.scope())) + "\n")
	b.WriteString(cv.viewport.View() + "\n")

	switch {
	case cv.session.Busy():
		b.WriteString(cv.spinner.View() + " " + mutedStyle.Render("Thinking...") + "\n")
	case cv.session.Err() != "":
		b.WriteString(errorStyle.Render(cv.session.Err()) + "\n")
	default:
		b.WriteString("\n")
	}

	b.WriteString(cv.input.View())
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
