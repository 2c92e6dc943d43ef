package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	app_errors "github.com/docchat/cli/internal/errors"
	"github.com/docchat/cli/internal/gateway"
	"github.com/docchat/cli/internal/loop"
)

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) UploadDocument(ctx context.Context, up gateway.Upload, onProgress func(int)) (*gateway.Document, error) {
	args := m.Called(ctx, up, onProgress)
	doc, _ := args.Get(0).(*gateway.Document)
	return doc, args.Error(1)
}

type refreshedMsg struct{}

type fakeRefresher struct {
	calls int
}

func (r *fakeRefresher) Refresh(context.Context) tea.Cmd {
	r.calls++
	return func() tea.Msg { return refreshedMsg{} }
}

type chanDispatcher chan tea.Msg

func (d chanDispatcher) Send(msg tea.Msg) { d <- msg }

type harness struct {
	m         *Manager
	uploader  *mockUploader
	refresher *fakeRefresher
	clock     *clockwork.FakeClock
	sent      chanDispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		uploader:  new(mockUploader),
		refresher: &fakeRefresher{},
		clock:     clockwork.NewFakeClock(),
		sent:      make(chanDispatcher, 8),
	}
	h.m = NewManager(h.uploader, h.refresher, h.sent, Config{Clock: h.clock})
	t.Cleanup(func() { h.uploader.AssertExpectations(t) })
	return h
}

// fire advances past the auto-clear delay and applies the firing.
func (h *harness) fire(t *testing.T) {
	t.Helper()
	h.clock.Advance(AutoClearDelay)
	h.m.Update(h.receive(t))
}

func (h *harness) receive(t *testing.T) tea.Msg {
	t.Helper()
	select {
	case msg := <-h.sent:
		return msg
	case <-time.After(time.Second):
		t.Fatal("auto-clear did not fire")
		return nil
	}
}

func (h *harness) assertNothingSent(t *testing.T) {
	t.Helper()
	select {
	case msg := <-h.sent:
		t.Fatalf("unexpected message %T", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func namedUpload(name string) any {
	return mock.MatchedBy(func(up gateway.Upload) bool { return up.Filename == name })
}

func TestManager_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.m.Select(writeFile(t, "notes.txt", "hello world")))

		var body []byte
		h.uploader.On("UploadDocument", mock.Anything, namedUpload("notes.txt"), mock.Anything).
			Run(func(args mock.Arguments) {
				up := args.Get(1).(gateway.Upload)
				assert.Equal(t, int64(11), up.Size)
				for range 2 {
					f, err := up.Open()
					if assert.NoError(t, err) {
						body, _ = io.ReadAll(f)
						f.Close()
					}
				}
				report := args.Get(2).(func(int))
				report(40)
				report(100)
			}).
			Return(&gateway.Document{ID: "doc-1", Filename: "notes.txt"}, nil).Once()

		var seen []int
		cmd := h.m.Submit(ctx)
		assert.Equal(t, Uploading, h.m.Phase())
		assert.True(t, h.m.Busy())

		loop.Drain(cmd, func(msg tea.Msg) tea.Cmd {
			next := h.m.Update(msg)
			if _, ok := msg.(progressMsg); ok {
				seen = append(seen, h.m.Progress())
			}
			return next
		})

		assert.Equal(t, "hello world", string(body), "each open rereads the file from the start")
		assert.Equal(t, []int{40, 100}, seen)
		assert.Equal(t, Succeeded, h.m.Phase())
		assert.Equal(t, `File "notes.txt" uploaded successfully!`, h.m.Message())
		assert.Nil(t, h.m.File())
		assert.Zero(t, h.m.Progress())
		assert.Equal(t, 1, h.refresher.calls)
	})

	t.Run("AutoClearsAfterDelay", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.m.Select(writeFile(t, "notes.txt", "hello")))
		h.uploader.On("UploadDocument", mock.Anything, namedUpload("notes.txt"), mock.Anything).
			Return(&gateway.Document{ID: "doc-1"}, nil).Once()
		loop.Drain(h.m.Submit(ctx), h.m.Update)
		require.Equal(t, Succeeded, h.m.Phase())

		h.clock.Advance(AutoClearDelay - time.Millisecond)
		h.assertNothingSent(t)
		assert.Equal(t, Succeeded, h.m.Phase())

		h.clock.Advance(time.Millisecond)
		h.m.Update(h.receive(t))

		assert.Equal(t, Idle, h.m.Phase())
		assert.Empty(t, h.m.Message())
	})

	t.Run("NoFileSelected", func(t *testing.T) {
		h := newHarness(t)

		assert.Nil(t, h.m.Submit(ctx))

		assert.Equal(t, Failed, h.m.Phase())
		assert.Equal(t, "Please select a file first.", h.m.Message())
		h.uploader.AssertNotCalled(t, "UploadDocument", mock.Anything, mock.Anything, mock.Anything)

		h.fire(t)
		assert.Equal(t, Idle, h.m.Phase())
		assert.Empty(t, h.m.Message())
	})

	t.Run("BackendFailureKeepsFile", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.m.Select(writeFile(t, "notes.txt", "hello")))
		h.uploader.On("UploadDocument", mock.Anything, namedUpload("notes.txt"), mock.Anything).
			Run(func(args mock.Arguments) { args.Get(2).(func(int))(60) }).
			Return(nil, &gateway.BackendError{Op: "upload document", Status: 400, Detail: "Unsupported file type"}).Once()

		loop.Drain(h.m.Submit(ctx), h.m.Update)

		assert.Equal(t, Failed, h.m.Phase())
		assert.Equal(t, "Unsupported file type", h.m.Message())
		assert.Zero(t, h.m.Progress())
		require.NotNil(t, h.m.File())
		assert.Equal(t, "notes.txt", h.m.File().Name)
		assert.Zero(t, h.refresher.calls)

		h.fire(t)
		assert.Equal(t, Idle, h.m.Phase())
		assert.NotNil(t, h.m.File())
	})

	t.Run("FileRemovedAfterSelect", func(t *testing.T) {
		h := newHarness(t)
		path := writeFile(t, "notes.txt", "hello")
		require.NoError(t, h.m.Select(path))
		require.NoError(t, os.Remove(path))

		h.uploader.On("UploadDocument", mock.Anything, namedUpload("notes.txt"), mock.Anything).
			Run(func(args mock.Arguments) {
				_, err := args.Get(1).(gateway.Upload).Open()
				assert.ErrorIs(t, err, os.ErrNotExist)
			}).
			Return(nil, fmt.Errorf("failed to open file: %w", os.ErrNotExist)).Once()

		loop.Drain(h.m.Submit(ctx), h.m.Update)

		assert.Equal(t, Failed, h.m.Phase())
		assert.Equal(t, "Failed to upload file.", h.m.Message())
	})

	t.Run("TransportFailureFallback", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.m.Select(writeFile(t, "notes.txt", "hello")))
		h.uploader.On("UploadDocument", mock.Anything, namedUpload("notes.txt"), mock.Anything).
			Return(nil, &gateway.TransportError{Op: "upload document", Err: errors.New("connection reset")}).Once()

		loop.Drain(h.m.Submit(ctx), h.m.Update)

		assert.Equal(t, "Failed to upload file.", h.m.Message())
	})

	t.Run("IgnoredWhileUploading", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.m.Select(writeFile(t, "notes.txt", "hello")))

		require.NotNil(t, h.m.Submit(ctx))
		assert.Nil(t, h.m.Submit(ctx))
		assert.Equal(t, Uploading, h.m.Phase())
	})
}

func TestManager_Select(t *testing.T) {
	ctx := context.Background()

	t.Run("ReplacesAndClearsOutcome", func(t *testing.T) {
		h := newHarness(t)
		h.m.Submit(ctx)
		require.Equal(t, Failed, h.m.Phase())

		require.NoError(t, h.m.Select(writeFile(t, "b.txt", "bb")))

		assert.Equal(t, Idle, h.m.Phase())
		assert.Empty(t, h.m.Message())
		assert.Equal(t, "b.txt", h.m.File().Name)
	})

	t.Run("CancelsPendingAutoClear", func(t *testing.T) {
		h := newHarness(t)
		h.m.Submit(ctx)
		require.NoError(t, h.m.Select(writeFile(t, "b.txt", "bb")))

		h.clock.Advance(2 * AutoClearDelay)
		h.assertNothingSent(t)
	})

	t.Run("LateFiringIgnored", func(t *testing.T) {
		h := newHarness(t)
		h.m.Submit(ctx)
		h.clock.Advance(AutoClearDelay)
		stale := h.receive(t)

		// A second failure re-arms the timer before the first firing is handled.
		h.m.Submit(ctx)
		h.m.Update(stale)

		assert.Equal(t, Failed, h.m.Phase())
		assert.Equal(t, "Please select a file first.", h.m.Message())
	})

	t.Run("RejectedWhileUploading", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.m.Select(writeFile(t, "a.txt", "aa")))
		h.m.Submit(ctx)

		err := h.m.Select(writeFile(t, "b.txt", "bb"))

		require.Error(t, err)
		assert.True(t, app_errors.IsValidation(err))
		assert.Equal(t, Uploading, h.m.Phase())
		assert.Equal(t, "a.txt", h.m.File().Name)
	})

	t.Run("InvalidFileKeepsPrevious", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.m.Select(writeFile(t, "a.txt", "aa")))

		err := h.m.Select(writeFile(t, "image.png", "x"))

		require.Error(t, err)
		assert.Equal(t, Failed, h.m.Phase())
		assert.Equal(t, "only PDF and txt files are allowed.", h.m.Message())
		assert.Equal(t, "a.txt", h.m.File().Name)
	})
}

func TestManager_ProgressNeverDecreases(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.m.Select(writeFile(t, "a.txt", "aa")))
	h.m.Submit(context.Background())
	events := make(chan tea.Msg)

	h.m.Update(progressMsg{percent: 50, events: events})
	h.m.Update(progressMsg{percent: 30, events: events})
	assert.Equal(t, 50, h.m.Progress())

	h.m.Update(progressMsg{percent: 100, events: events})
	assert.Equal(t, 100, h.m.Progress())
}
