package provision

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateManagerFreshStart(t *testing.T) {
	m := NewStateManager(t.TempDir())
	require.NoError(t, m.Load())

	assert.False(t, m.IsProvisioned())
	assert.Zero(t, m.Get().InitializedVersion)
	assert.True(t, m.Get().ProvisionedAt.IsZero())
}

func TestStateManagerLoadMissingDir(t *testing.T) {
	m := NewStateManager(filepath.Join(t.TempDir(), "not", "created"))
	require.NoError(t, m.Load())
	assert.False(t, m.IsProvisioned())
}

func TestStateManagerMarkProvisioned(t *testing.T) {
	dir := t.TempDir()

	m := NewStateManager(dir)
	require.NoError(t, m.Load())
	require.NoError(t, m.MarkProvisioned())

	assert.True(t, m.IsProvisioned())
	assert.False(t, m.Get().ProvisionedAt.IsZero())

	// A fresh manager must see the persisted state.
	again := NewStateManager(dir)
	require.NoError(t, again.Load())
	assert.True(t, again.IsProvisioned())
	assert.Equal(t, CurrentVersion, again.Get().InitializedVersion)
}

func TestStateManagerNewerVersionCountsAsProvisioned(t *testing.T) {
	dir := t.TempDir()
	data := fmt.Sprintf(`{"initialized_version": %d}`, CurrentVersion+3)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "state.json"), []byte(data), 0644))

	m := NewStateManager(dir)
	require.NoError(t, m.Load())
	assert.True(t, m.IsProvisioned())
}

func TestStateManagerReset(t *testing.T) {
	dir := t.TempDir()

	m := NewStateManager(dir)
	require.NoError(t, m.Load())
	require.NoError(t, m.MarkProvisioned())

	require.NoError(t, m.Reset())
	assert.False(t, m.IsProvisioned())
	_, err := os.Stat(m.Path())
	assert.True(t, os.IsNotExist(err))

	// Resetting an already clean slate is not an error.
	require.NoError(t, m.Reset())
}

func TestStateManagerCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "state.json"), []byte("{nope"), 0644))

	m := NewStateManager(dir)
	assert.Error(t, m.Load())
}
