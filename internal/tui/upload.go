package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/docchat/cli/internal/upload"
)

// UploadView takes a file path and shows the upload lifecycle.
type UploadView struct {
	manager *upload.Manager
	input   textinput.Model
	bar     progress.Model
}

// NewUploadView builds the upload pane around manager.
func NewUploadView(manager *upload.Manager) *UploadView {
	input := textinput.New()
	input.Prompt = "File: "
	input.Placeholder = "path/to/document.pdf"
	input.CharLimit = 0

	return &UploadView{
		manager: manager,
		input:   input,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
	}
}

func (uv *UploadView) handleKey(ctx context.Context, msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		if uv.manager.Busy() {
			return nil
		}
		if err := uv.manager.Select(strings.TrimSpace(uv.input.Value())); err == nil {
			uv.input.Reset()
		}
		return nil
	case "ctrl+u":
		return uv.manager.Submit(ctx)
	}

	var cmd tea.Cmd
	uv.input, cmd = uv.input.Update(msg)
	return cmd
}

func (uv *UploadView) setWidth(w int) {
	uv.input.Width = max(w-len(uv.input.Prompt)-2, 10)
	uv.bar.Width = max(w-2, 10)
}

func (uv *UploadView) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Upload Documents") + "\n\n")
	b.WriteString(uv.input.View() + "\n")

	if f := uv.manager.File(); f != nil {
		b.WriteString("Selected: " + f.Describe() + "\n")
	}

	switch uv.manager.Phase() {
	case upload.Uploading:
		p := uv.manager.Progress()
		b.WriteString(fmt.Sprintf("Uploading (%d%%)\n", p))
		if p > 0 && p < 100 {
			b.WriteString(uv.bar.ViewAs(float64(p)/100) + "\n")
		}
	case upload.Succeeded:
		b.WriteString(successStyle.Render(uv.manager.Message()) + "\n")
	case upload.Failed:
		b.WriteString(errorStyle.Render(uv.manager.Message()) + "\n")
	}

	accepted := strings.Join(uv.manager.AllowedExtensions(), ", ")
	b.WriteString("\n" + helpStyle.Render("enter: select | ctrl+u: upload | accepts "+accepted))
	return b.String()
}
