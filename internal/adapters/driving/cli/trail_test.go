package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
)

func TestTrailCmd_Empty(t *testing.T) {
	f, cleanup := setupTestWiring()
	defer cleanup()

	out, err := execute(t, "trail")

	require.NoError(t, err)
	assert.Contains(t, out, "The trail is empty.")
	require.Len(t, f.opened, 1)
	assert.Empty(t, f.opened[0].LibraryDir)
}

func TestTrailCmd_ListsEntries(t *testing.T) {
	f, cleanup := setupTestWiring()
	defer cleanup()
	f.workbench.trail = []domain.BreadcrumbEntry{
		{ID: "1", DocumentID: "paper-a", PageNumber: 2, ContextPreview: "Synaptic pruning", Timestamp: time.Now()},
		{ID: "2", DocumentID: "paper-b", PageNumber: 1, Timestamp: time.Now().Add(-2 * time.Hour)},
	}

	out, err := execute(t, "trail")

	require.NoError(t, err)
	assert.Contains(t, out, "1. paper-a, page 2  just now")
	assert.Contains(t, out, "Synaptic pruning")
	assert.Contains(t, out, "2. paper-b, page 1  2h ago")
}

func TestTrailCmd_JSON(t *testing.T) {
	f, cleanup := setupTestWiring()
	defer cleanup()
	defer func() { trailJSON = false }()
	f.workbench.trail = []domain.BreadcrumbEntry{{ID: "1", DocumentID: "paper-a", PageNumber: 2}}

	out, err := execute(t, "trail", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"document_id": "paper-a"`)
}

func TestResetCmd(t *testing.T) {
	f, cleanup := setupTestWiring()
	defer cleanup()
	f.workbench.trail = []domain.BreadcrumbEntry{{ID: "1", DocumentID: "paper-a", PageNumber: 2}}

	out, err := execute(t, "reset")

	require.NoError(t, err)
	assert.Equal(t, 1, f.workbench.resets)
	assert.Empty(t, f.workbench.trail)
	assert.Contains(t, out, "Cache and trail cleared.")
}

func TestForgetCmd(t *testing.T) {
	f, cleanup := setupTestWiring()
	defer cleanup()

	out, err := execute(t, "forget", "paper-a")

	require.NoError(t, err)
	assert.Equal(t, []string{"paper-a"}, f.workbench.invalidated)
	assert.Contains(t, out, "Forgot cached connections for paper-a.")
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "just now", formatAge(now.Add(-30*time.Second), now))
	assert.Equal(t, "5m ago", formatAge(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", formatAge(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2026-02-20", formatAge(now.Add(-9*24*time.Hour), now))
}
