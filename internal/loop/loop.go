// Package loop runs bubbletea commands without a Program, for
// non-interactive commands and tests.
package loop

import tea "github.com/charmbracelet/bubbletea"

// Drain executes cmd on the calling goroutine and passes each resulting
// message to update, then keeps executing whatever commands update returns
// until none are left. tea.BatchMsg is expanded in order. Messages and
// commands are handled one at a time, which gives the same single-threaded
// guarantees as the program loop.
func Drain(cmd tea.Cmd, update func(tea.Msg) tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			queue = append(queue, update(msg))
		}
	}
}

// Step executes cmd once and returns its message, or nil for a nil command.
func Step(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}
