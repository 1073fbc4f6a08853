package library

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
)

func newTestViewer(t *testing.T, delay time.Duration) *Viewer {
	t.Helper()
	dir := t.TempDir()
	writeDoc(t, dir, "paper-a.txt", "one", "two", "three")
	writeDoc(t, dir, "paper-b.txt", "only")
	lib, err := Open(dir)
	require.NoError(t, err)

	v := NewViewer(lib, delay)
	t.Cleanup(v.Close)
	return v
}

func TestViewer_OpenAndNavigate(t *testing.T) {
	v := newTestViewer(t, 0)
	ctx := context.Background()

	_, err := v.CurrentPage(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, v.OpenDocument(ctx, "paper-a"))
	assert.True(t, v.Ready())
	assert.Equal(t, "paper-a", v.CurrentDocument())

	ok, err := v.NavigateToPage(ctx, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	page, err := v.CurrentPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, page)

	text, err := v.PageText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "three", text)

	ok, err = v.NavigateToPage(ctx, 4)
	require.NoError(t, err)
	assert.False(t, ok, "out of range")
}

func TestViewer_OpenUnknownDocument(t *testing.T) {
	v := newTestViewer(t, 0)

	err := v.OpenDocument(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, v.CurrentDocument())
}

func TestViewer_BecomesReadyAfterLoad(t *testing.T) {
	v := newTestViewer(t, 20*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, v.OpenDocument(ctx, "paper-a"))
	assert.False(t, v.Ready())

	ok, err := v.NavigateToPage(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok, "loading viewer rejects navigation")

	assert.Eventually(t, v.Ready, time.Second, 5*time.Millisecond)
	ok, err = v.NavigateToPage(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestViewer_SelectionNotifications(t *testing.T) {
	v := newTestViewer(t, 0)
	ctx := context.Background()
	require.NoError(t, v.OpenDocument(ctx, "paper-a"))

	var calls atomic.Int32
	unsubscribe := v.OnSelectionEnd(func() { calls.Add(1) })

	v.Select("a highlighted sentence")
	text, err := v.SelectedText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a highlighted sentence", text)
	assert.Equal(t, int32(1), calls.Load())

	v.Deselect()
	v.Deselect()
	assert.Equal(t, int32(2), calls.Load(), "second deselect is a no-op")

	v.Select("again")
	require.NoError(t, v.OpenDocument(ctx, "paper-b"))
	assert.Equal(t, int32(4), calls.Load(), "opening a document clears the selection")

	unsubscribe()
	v.Select("ignored")
	assert.Equal(t, int32(4), calls.Load())
}
