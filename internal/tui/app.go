// Package tui is the interactive front end: a documents pane, an upload pane
// and a chat pane over the shared components.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/docchat/cli/internal/chat"
	"github.com/docchat/cli/internal/documents"
	"github.com/docchat/cli/internal/selection"
	"github.com/docchat/cli/internal/upload"
)

type pane int

const (
	documentsPane pane = iota
	uploadPane
	chatPane
	paneCount
)

// selectionChangedMsg is posted by the selection subscription. It carries no
// id; the handler reads the current selection so late deliveries are harmless.
type selectionChangedMsg struct{}

// Deps are the components the UI drives.
type Deps struct {
	Store      *documents.Store
	Upload     *upload.Manager
	Chat       *chat.Session
	Selection  *selection.Coordinator
	Sender     *Sender
	BackendURL string
	Logger     *zap.Logger
}

// App represents the main TUI application
type App struct {
	ctx       context.Context
	store     *documents.Store
	uploads   *upload.Manager
	session   *chat.Session
	selection *selection.Coordinator
	sender    *Sender
	backend   string
	logger    *zap.Logger

	// Views
	documentsView *DocumentsView
	uploadView    *UploadView
	chatView      *ChatView

	focus         pane
	width, height int
}

// NewApp creates a new TUI application
func NewApp(ctx context.Context, deps Deps) *App {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Sender == nil {
		deps.Sender = NewSender()
	}
	a := &App{
		ctx:           ctx,
		store:         deps.Store,
		uploads:       deps.Upload,
		session:       deps.Chat,
		selection:     deps.Selection,
		sender:        deps.Sender,
		backend:       deps.BackendURL,
		logger:        deps.Logger,
		documentsView: NewDocumentsView(deps.Store, deps.Selection),
		uploadView:    NewUploadView(deps.Upload),
		chatView:      NewChatView(deps.Chat, deps.Selection, deps.Store),
		focus:         documentsPane,
	}
	return a
}

// Run starts the program and blocks until the user quits.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	a.sender.attach(p)
	defer a.sender.attach(nil)

	// Subscribers run on the loop goroutine when the selection changes from
	// a key press, and Program.Send blocks until the loop receives.
	unsubscribe := a.selection.Subscribe(func(string) {
		go a.sender.Send(selectionChangedMsg{})
	})
	defer unsubscribe()

	a.logger.Info("tui started", zap.String("backend", a.backend))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run tui: %w", err)
	}
	return nil
}

func (a *App) Init() tea.Cmd {
	return a.store.Refresh(a.ctx)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "tab":
			cmds = append(cmds, a.setFocus((a.focus+1)%paneCount))
		case "shift+tab":
			cmds = append(cmds, a.setFocus((a.focus+paneCount-1)%paneCount))
		case "q":
			if a.focus == documentsPane {
				return a, tea.Quit
			}
			cmds = append(cmds, a.handleKey(msg))
		default:
			cmds = append(cmds, a.handleKey(msg))
		}

	case selectionChangedMsg:
		a.chatView.syncPlaceholder()

	default:
		// Cursor blinks for whichever input is focused.
		var cmd tea.Cmd
		a.uploadView.input, cmd = a.uploadView.input.Update(msg)
		cmds = append(cmds, cmd)
		a.chatView.input, cmd = a.chatView.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	cmds = append(cmds,
		a.store.Update(msg),
		a.uploads.Update(msg),
		a.session.Update(msg),
		a.chatView.update(msg),
	)

	a.documentsView.clamp()
	a.chatView.renderMessages()
	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch a.focus {
	case documentsPane:
		return a.documentsView.handleKey(a.ctx, msg)
	case uploadPane:
		return a.uploadView.handleKey(a.ctx, msg)
	case chatPane:
		return a.chatView.handleKey(a.ctx, msg)
	}
	return nil
}

func (a *App) setFocus(p pane) tea.Cmd {
	a.focus = p
	a.uploadView.input.Blur()
	a.chatView.input.Blur()

	switch p {
	case uploadPane:
		return a.uploadView.input.Focus()
	case chatPane:
		return a.chatView.input.Focus()
	}
	return nil
}

func (a *App) resize(w, h int) {
	a.width, a.height = w, h

	left := w / 3
	right := w - left - 4
	a.uploadView.setWidth(left - 4)
	a.chatView.setSize(right-4, h-4)
}

func (a *App) View() string {
	box := func(p pane, content string, width int) string {
		style := paneStyle
		if a.focus == p {
			style = focusedPaneStyle
		}
		if width > 0 {
			style = style.Width(width)
		}
		return style.Render(content)
	}

	left := 0
	if a.width > 0 {
		left = a.width/3 - 2
	}
	sidebar := lipgloss.JoinVertical(lipgloss.Left,
		box(documentsPane, a.documentsView.view(a.focus == documentsPane), left),
		box(uploadPane, a.uploadView.view(), left),
	)

	right := 0
	if a.width > 0 {
		right = a.width - a.width/3 - 2
	}
	conversation := box(chatPane, a.chatView.view(), right)

	header := titleStyle.Render("Document Chat") + mutedStyle.Render("  "+a.backend)
	footer := helpStyle.Render("tab: switch pane | pgup/pgdown: scroll chat | ctrl+c: quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.JoinHorizontal(lipgloss.Top, sidebar, conversation),
		footer,
	)
}
