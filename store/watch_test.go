package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchMetadataNonCleanPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scripts_metadata.json")
	nonClean := dir + string(os.PathSeparator) + "." + string(os.PathSeparator) + "scripts_metadata.json"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan string, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		WatchMetadata(ctx, nonClean, func(p string) {
			select {
			case changes <- p:
			default:
			}
		})
	}()

	// Give the watcher time to register before the write
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`{"scripts":[]}`), 0o644))

	select {
	case p := <-changes:
		require.Equal(t, path, p)
	case <-time.After(2 * time.Second):
		t.Fatal("no change notification for non-clean metadata path")
	}

	cancel()
	<-done
}
