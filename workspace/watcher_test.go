package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HelixDB/hls/config"
)

func TestWatcherPicksUpEdits(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "schema.hx")
	require.NoError(t, os.WriteFile(path, []byte(schemaSource), 0644))

	cfg := config.DefaultConfig()
	cfg.Watch.Debounce = 20 * time.Millisecond

	ws := New(nil)
	_, err := ws.Scan(root, cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watcher, err := NewWatcher(ws, root, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, watcher.Start(ctx))
	defer watcher.Stop()

	before := ws.Epoch(path)
	require.NoError(t, os.WriteFile(path, []byte(schemaSource+"\nN::Extra {\n    x: I64\n}\n"), 0644))

	select {
	case changed := <-watcher.Refreshed():
		assert.Contains(t, changed, path)
	case <-time.After(5 * time.Second):
		t.Fatal("no refresh after file change")
	}
	assert.Greater(t, ws.Epoch(path), before)
	assert.NotNil(t, ws.Snapshot().Registry(path).FindNode("Extra"))
}

func TestWatcherIgnoresNonMatchingFiles(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Watch.Debounce = 20 * time.Millisecond

	ws := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watcher, err := NewWatcher(ws, root, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, watcher.Start(ctx))
	defer watcher.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644))

	select {
	case changed := <-watcher.Refreshed():
		t.Fatalf("unexpected refresh for %v", changed)
	case <-time.After(300 * time.Millisecond):
	}
	assert.Empty(t, ws.Paths())
}
