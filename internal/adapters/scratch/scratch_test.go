package scratch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndRemove(t *testing.T) {
	dir := New(filepath.Join(t.TempDir(), "nested"))

	f, err := dir.Write("Quarterly report: Q1/Q2", ".csv", []byte("a,b"))
	require.NoError(t, err)

	base := filepath.Base(f.Path)
	assert.True(t, strings.HasPrefix(base, "Quarterly_report__Q1_Q2_"))
	assert.True(t, strings.HasSuffix(base, ".csv"))

	data, err := os.ReadFile(f.Path)
	require.NoError(t, err)
	assert.Equal(t, "a,b", string(data))

	require.NoError(t, f.Remove())
	_, err = os.Stat(f.Path)
	assert.True(t, os.IsNotExist(err))

	// second remove is a no-op
	assert.NoError(t, f.Remove())
}

func TestWriteUniqueNames(t *testing.T) {
	dir := New(t.TempDir())
	a, err := dir.Write("same", ".txt", nil)
	require.NoError(t, err)
	b, err := dir.Write("same", ".txt", nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.Path, b.Path)
}

func TestSweep(t *testing.T) {
	dir := New(t.TempDir())
	stale, err := dir.Write("stale", ".txt", []byte("x"))
	require.NoError(t, err)
	fresh, err := dir.Write("fresh", ".txt", []byte("y"))
	require.NoError(t, err)

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale.Path, old, old))

	removed, err := dir.Sweep(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(stale.Path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh.Path)
	assert.NoError(t, err)
}

func TestSweepMissingDir(t *testing.T) {
	removed, err := New(filepath.Join(t.TempDir(), "absent")).Sweep(time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
