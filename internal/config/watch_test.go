package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, DefaultConfig().Save(path))

	var mu sync.Mutex
	var got []*Config

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) {
			mu.Lock()
			got = append(got, c)
			mu.Unlock()
		}, WatchOptions{Debounce: 20 * time.Millisecond})
	}()

	// Keep rewriting until the watcher, which registers asynchronously, sees it.
	require.Eventually(t, func() bool {
		content := fmt.Sprintf("[engine]\ncombo_limit = %d\n", 7)
		_ = os.WriteFile(path, []byte(content), 0o644)

		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 7, got[len(got)-1].Engine.ComboLimit)
	assert.Equal(t, "focused", got[len(got)-1].Engine.ComboMode)
}

func TestWatchSkipsInvalidChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	other := filepath.Join(dir, "other.toml")
	require.NoError(t, DefaultConfig().Save(path))

	var mu sync.Mutex
	calls := 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(*Config) {
			mu.Lock()
			calls++
			mu.Unlock()
		}, WatchOptions{Debounce: 20 * time.Millisecond})
	}()

	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		_ = os.WriteFile(path, []byte("[engine]\ncombo_mode = \"sideways\"\n"), 0o644)
		_ = os.WriteFile(other, []byte("[engine]\ncombo_limit = 9\n"), 0o644)
		time.Sleep(30 * time.Millisecond)
	}

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, calls)
}

func TestWatchCreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "config.toml")

	var mu sync.Mutex
	var got []*Config

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) {
			mu.Lock()
			got = append(got, c)
			mu.Unlock()
		}, WatchOptions{Debounce: 20 * time.Millisecond})
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Dir(path))
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("[engine]\ncombo_limit = 5\n"), 0o644)

		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, got[len(got)-1].Engine.ComboLimit)
}

func TestWatchUnusableDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := Watch(context.Background(), filepath.Join(blocker, "config.toml"), func(*Config) {}, WatchOptions{})
	assert.Error(t, err)
}
