package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/docchat/cli/internal/documents"
	"github.com/docchat/cli/internal/gateway"
	"github.com/docchat/cli/internal/selection"
)

// DocumentsView lists the backend documents and drives selection and delete.
type DocumentsView struct {
	store     *documents.Store
	selection *selection.Coordinator
	cursor    int
}

// NewDocumentsView builds the documents pane over store.
func NewDocumentsView(store *documents.Store, sel *selection.Coordinator) *DocumentsView {
	return &DocumentsView{store: store, selection: sel}
}

func (dv *DocumentsView) handleKey(ctx context.Context, msg tea.KeyMsg) tea.Cmd {
	docs := dv.store.Documents()

	switch msg.String() {
	case "up", "k":
		if dv.cursor > 0 {
			dv.cursor--
		}
	case "down", "j":
		if dv.cursor < len(docs)-1 {
			dv.cursor++
		}
	case "enter", " ":
		if doc, ok := dv.atCursor(docs); ok {
			dv.selection.Select(doc.ID)
		}
	case "x":
		dv.selection.Clear()
	case "d":
		if doc, ok := dv.atCursor(docs); ok {
			return dv.store.Remove(ctx, doc.ID)
		}
	case "r":
		return dv.store.Refresh(ctx)
	}
	return nil
}

func (dv *DocumentsView) atCursor(docs []gateway.Document) (gateway.Document, bool) {
	if dv.cursor < 0 || dv.cursor >= len(docs) {
		return gateway.Document{}, false
	}
	return docs[dv.cursor], true
}

// clamp keeps the cursor on a row after the list shrinks.
func (dv *DocumentsView) clamp() {
	n := len(dv.store.Documents())
	if dv.cursor >= n {
		dv.cursor = n - 1
	}
	if dv.cursor < 0 {
		dv.cursor = 0
	}
}

func (dv *DocumentsView) view(focused bool) string {
	var b strings.Builder

	title := "Your Documents"
	if dv.store.Loading() {
		title += mutedStyle.Render(" (loading...)")
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")

	docs := dv.store.Documents()
	selected, _ := dv.selection.Current()
	if len(docs) == 0 && !dv.store.Loading() {
		b.WriteString(mutedStyle.Render("No documents uploaded yet.") + "\n")
	}
	for i, doc := range docs {
		pointer := "  "
		if focused && i == dv.cursor {
			pointer = "> "
		}
		line := pointer + doc.Filename
		if doc.ID == selected {
			line = successStyle.Render(line + " *")
		}
		b.WriteString(line + "\n")
	}

	if err := dv.store.Err(); err != "" {
		b.WriteString("\n" + errorStyle.Render(err) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render(fmt.Sprintf("enter: select | x: deselect | d: delete | r: reload (%d)", len(docs))))
	return b.String()
}
