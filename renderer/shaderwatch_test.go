package renderer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func TestShaderWatcherSignalsWatchedFiles(t *testing.T) {
	dir := t.TempDir()
	vert := filepath.Join(dir, "basic_vert.spv")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(vert, spirvWords(spirvMagic), 0o644))

	logger, _ := test.NewNullLogger()
	watcher, err := WatchShaders(logger, vert)
	require.NoError(t, err)
	defer watcher.Close()

	require.False(t, watcher.Changed())

	require.NoError(t, os.WriteFile(other, []byte("unrelated"), 0o644))
	require.Never(t, watcher.Changed, 200*time.Millisecond, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(vert, spirvWords(spirvMagic, 1), 0o644))
	require.Eventually(t, watcher.Changed, 2*time.Second, 10*time.Millisecond)
}
