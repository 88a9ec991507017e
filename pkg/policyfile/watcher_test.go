package policyfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisai/polis-guard/pkg/policy"
)

const permissiveBundle = `modules:
  guard.rego: |
    package guard

    default allow := true
policies:
  - name: always
    entrypoint: guard/allow
`

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validBundle), 0o600))

	swapped := make(chan *policy.Set[map[string]any], 1)
	watcher, err := NewWatcher(path, func(set *policy.Set[map[string]any]) {
		swapped <- set
	}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))
	defer watcher.Stop() //nolint:errcheck

	require.NoError(t, os.WriteFile(path, []byte(permissiveBundle), 0o600))

	select {
	case set := <-swapped:
		require.Equal(t, 1, set.Len())
		assert.True(t, set.Policy("always").Check(map[string]any{}))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for bundle reload")
	}
}

func TestWatcher_KeepsPreviousSetOnBrokenReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validBundle), 0o600))

	swapped := make(chan struct{}, 1)
	watcher, err := NewWatcher(path, func(*policy.Set[map[string]any]) {
		swapped <- struct{}{}
	}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))
	defer watcher.Stop() //nolint:errcheck

	require.NoError(t, os.WriteFile(path, []byte("modules: {}\n"), 0o600))

	select {
	case <-swapped:
		t.Fatal("broken bundle must not be swapped in")
	case <-time.After(1 * time.Second):
		// reload failed and was dropped, as intended
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validBundle), 0o600))

	watcher, err := NewWatcher(path, func(*policy.Set[map[string]any]) {}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, watcher.Start(context.Background()))

	require.NoError(t, watcher.Stop())
	require.NoError(t, watcher.Stop())
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validBundle), 0o600))

	swapped := make(chan struct{}, 1)
	watcher, err := NewWatcher(path, func(*policy.Set[map[string]any]) {
		swapped <- struct{}{}
	}, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))
	defer watcher.Stop() //nolint:errcheck

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o600))

	select {
	case <-swapped:
		t.Fatal("sibling file writes must not trigger a reload")
	case <-time.After(1 * time.Second):
	}
}
