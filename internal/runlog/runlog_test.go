package runlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenClearsPreviousRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultName), []byte("old: SUCCESS x\n"), 0o644))

	l, err := Open(dir, "")
	require.NoError(t, err)
	require.NoError(t, l.Append("A: SUCCESS https://example.com/a.pdf"))
	require.NoError(t, l.Append("B: ERROR lookup failed\n"))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(filepath.Join(dir, DefaultName))
	require.NoError(t, err)
	assert.Equal(t, "A: SUCCESS https://example.com/a.pdf\nB: ERROR lookup failed\n", string(data))
}

func TestAppendIsVisibleBeforeClose(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir, "custom.log")
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Append("A: SUCCESS u"))
	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Equal(t, "A: SUCCESS u\n", string(data))
	assert.Equal(t, filepath.Join(dir, "custom.log"), l.Path())
}
