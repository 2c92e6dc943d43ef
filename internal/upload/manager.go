// Package upload drives the lifecycle of a single document upload: pick a
// file, stream it with progress, report the outcome, then clear the outcome
// after a short delay.
package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	app_errors "github.com/docchat/cli/internal/errors"
	"github.com/docchat/cli/internal/gateway"
)

// AutoClearDelay is how long a success or failure message stays visible.
const AutoClearDelay = 5 * time.Second

const uploadFailed = "Failed to upload file."

// Phase is where the manager is in the upload lifecycle.
type Phase int

const (
	Idle Phase = iota
	Uploading
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Uploading:
		return "uploading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Uploader sends a file to the backend.
type Uploader interface {
	UploadDocument(ctx context.Context, up gateway.Upload, onProgress func(int)) (*gateway.Document, error)
}

// Refresher reloads the document list after a successful upload.
type Refresher interface {
	Refresh(ctx context.Context) tea.Cmd
}

// Dispatcher posts a message into the program loop from another goroutine.
// *tea.Program satisfies it.
type Dispatcher interface {
	Send(msg tea.Msg)
}

type progressMsg struct {
	percent int
	events  <-chan tea.Msg
}

type settledMsg struct {
	ctx  context.Context
	doc  *gateway.Document
	name string
	err  error
}

type clearMsg struct {
	gen int
}

// Manager owns the upload state. Its methods must be called from the program
// loop.
type Manager struct {
	uploader   Uploader
	refresher  Refresher
	dispatcher Dispatcher
	clock      clockwork.Clock
	allowed    []string
	logger     *zap.Logger

	file     *File
	phase    Phase
	progress int
	message  string

	timer clockwork.Timer
	// gen tags auto-clear firings; any interruption bumps it so a firing
	// already in the loop's queue is ignored.
	gen int
}

// Config carries the manager's collaborators that have sensible defaults.
type Config struct {
	AllowedExtensions []string
	Clock             clockwork.Clock
	Logger            *zap.Logger
}

// NewManager creates an idle manager.
func NewManager(uploader Uploader, refresher Refresher, dispatcher Dispatcher, cfg Config) *Manager {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = DefaultExtensions
	}
	return &Manager{
		uploader:   uploader,
		refresher:  refresher,
		dispatcher: dispatcher,
		clock:      cfg.Clock,
		allowed:    cfg.AllowedExtensions,
		logger:     cfg.Logger,
	}
}

// Phase returns where the current attempt stands.
func (m *Manager) Phase() Phase { return m.phase }

// Progress is the percentage reported for the running upload, 0 otherwise.
func (m *Manager) Progress() int { return m.progress }

// Message is the outcome text of the last settled attempt, or "".
func (m *Manager) Message() string { return m.message }

// Busy reports whether an upload is running; the upload trigger is disabled
// while it is.
func (m *Manager) Busy() bool { return m.phase == Uploading }

// AllowedExtensions lists the extensions Select accepts.
func (m *Manager) AllowedExtensions() []string { return m.allowed }

// File returns the selected file, or nil.
func (m *Manager) File() *File {
	if m.file == nil {
		return nil
	}
	f := *m.file
	return &f
}

// Select inspects path and makes it the file to upload, clearing any shown
// outcome. A file that fails inspection leaves the previous selection in
// place and is reported as a failure.
func (m *Manager) Select(path string) error {
	if m.phase == Uploading {
		return app_errors.Validationf("An upload is already in progress.")
	}
	m.stopTimer()

	f, err := Inspect(path, m.allowed)
	if err != nil {
		m.fail(err)
		return err
	}

	m.file = f
	m.phase = Idle
	m.progress = 0
	m.message = ""
	m.logger.Debug("file selected", zap.String("path", f.Path), zap.Int64("size", f.Size), zap.Int("pages", f.Pages))
	return nil
}

// Submit starts uploading the selected file. It returns nil while an upload
// is already running.
func (m *Manager) Submit(ctx context.Context) tea.Cmd {
	if m.phase == Uploading {
		m.logger.Debug("submit ignored, upload in progress")
		return nil
	}
	m.stopTimer()

	if m.file == nil {
		m.fail(app_errors.Validationf("Please select a file first."))
		return nil
	}

	m.phase = Uploading
	m.progress = 0
	m.message = ""

	// Progress is at most 101 distinct values plus one settle event.
	events := make(chan tea.Msg, 102)
	file := *m.file
	uploader := m.uploader
	m.logger.Info("upload started", zap.String("file", file.Name), zap.Int64("size", file.Size))

	return func() tea.Msg {
		go send(ctx, uploader, file, events)
		return <-events
	}
}

func send(ctx context.Context, uploader Uploader, file File, events chan tea.Msg) {
	settled := settledMsg{ctx: ctx, name: file.Name}
	settled.doc, settled.err = uploader.UploadDocument(ctx, gateway.Upload{
		Filename: file.Name,
		Open: func() (io.ReadCloser, error) {
			return os.Open(file.Path)
		},
		Size: file.Size,
	}, func(percent int) {
		select {
		case events <- progressMsg{percent: percent, events: events}:
		default:
		}
	})
	events <- settled
}

func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

// Update applies upload messages and ignores everything else.
func (m *Manager) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case progressMsg:
		if m.phase == Uploading && msg.percent > m.progress {
			m.progress = min(msg.percent, 100)
		}
		return waitForEvent(msg.events)

	case settledMsg:
		return m.settle(msg)

	case clearMsg:
		if msg.gen != m.gen || m.phase == Uploading {
			return nil
		}
		m.timer = nil
		m.phase = Idle
		m.progress = 0
		m.message = ""
	}
	return nil
}

func (m *Manager) settle(msg settledMsg) tea.Cmd {
	m.progress = 0

	if msg.err != nil {
		m.logger.Warn("upload failed", zap.String("file", msg.name), zap.Error(msg.err))
		m.fail(msg.err)
		return nil
	}

	m.phase = Succeeded
	m.message = fmt.Sprintf("File \"%s\" uploaded successfully!", msg.name)
	m.file = nil
	m.armClear()

	fields := []zap.Field{zap.String("file", msg.name)}
	if msg.doc != nil {
		fields = append(fields, zap.String("id", msg.doc.ID))
	}
	m.logger.Info("upload succeeded", fields...)

	if m.refresher == nil {
		return nil
	}
	return m.refresher.Refresh(msg.ctx)
}

func (m *Manager) fail(err error) {
	m.phase = Failed
	m.progress = 0
	m.message = gateway.Detail(err, uploadFailed)
	m.armClear()
}

func (m *Manager) armClear() {
	m.stopTimer()
	gen := m.gen
	dispatcher := m.dispatcher
	m.timer = m.clock.AfterFunc(AutoClearDelay, func() {
		if dispatcher != nil {
			dispatcher.Send(clearMsg{gen: gen})
		}
	})
}

func (m *Manager) stopTimer() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.gen++
}
