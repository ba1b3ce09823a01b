package templates

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatcher_ReloadsOnConfigChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	path := writeConfig(t, root, `
templates:
  first:
    description: first
    include_regex: a
    tail_paragraphs: 0
`)

	manager := NewManager(ManagerOptions{StartDir: root, CacheTTL: time.Hour})
	_, ok := manager.GetTemplate("first")
	require.True(t, ok)

	watcher, err := NewWatcher(manager, nil)
	require.NoError(t, err)
	require.NoError(t, watcher.Start(context.Background()))
	defer watcher.Stop()

	require.NoError(t, os.WriteFile(path, []byte(`
templates:
  second:
    description: second
    include_regex: b
    tail_paragraphs: 1
`), 0644))

	assert.Eventually(t, func() bool {
		_, ok := manager.GetTemplate("second")
		return ok
	}, 5*time.Second, 20*time.Millisecond)

	_, ok = manager.GetTemplate("first")
	assert.False(t, ok)
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	manager := NewManager(ManagerOptions{StartDir: t.TempDir()})
	watcher, err := NewWatcher(manager, nil)
	require.NoError(t, err)

	watcher.Stop()
}

func TestWatcher_StopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	writeConfig(t, root, "templates: {}\n")

	manager := NewManager(ManagerOptions{StartDir: root})
	watcher, err := NewWatcher(manager, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, watcher.Start(ctx))
	cancel()

	watcher.Stop()
}
