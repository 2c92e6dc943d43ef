package loop

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

type countMsg int

func TestDrain(t *testing.T) {
	var seen []int
	emit := func(n int) tea.Cmd {
		return func() tea.Msg { return countMsg(n) }
	}

	update := func(msg tea.Msg) tea.Cmd {
		n := int(msg.(countMsg))
		seen = append(seen, n)
		if n == 1 {
			return tea.Batch(emit(2), nil, emit(3))
		}
		return nil
	}

	Drain(emit(1), update)

	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestDrain_Nil(t *testing.T) {
	called := false
	Drain(nil, func(tea.Msg) tea.Cmd { called = true; return nil })
	Drain(func() tea.Msg { return nil }, func(tea.Msg) tea.Cmd { called = true; return nil })
	assert.False(t, called)
}

func TestStep(t *testing.T) {
	assert.Nil(t, Step(nil))
	assert.Equal(t, countMsg(7), Step(func() tea.Msg { return countMsg(7) }))
}
