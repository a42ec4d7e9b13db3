package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// replaceFile swaps in content with modification time mod in a single rename.
func replaceFile(t *testing.T, path, content string, mod time.Time) {
	t.Helper()
	tmp := path + ".tmp"
	writeFile(t, tmp, content)
	require.NoError(t, os.Chtimes(tmp, mod, mod))
	require.NoError(t, os.Rename(tmp, path))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	t.Setenv("MEDBOOK_TEST_REDIS", "redis.internal:6380")

	writeFile(t, path, `
server:
  address: ":9090"
storage:
  backend: file
  path: `+filepath.Join(dir, "data", "appointments.json")+`
redis:
  address: ${MEDBOOK_TEST_REDIS}
hours:
  start_hour: 9
  timezone: UTC
booking:
  window_days: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Address)
	assert.Equal(t, 9, cfg.Hours.StartHour)
	assert.Equal(t, 18, cfg.Hours.EndHour)
	assert.Equal(t, 12, cfg.Hours.LunchHour)
	assert.Equal(t, 5, cfg.BookingWindowDays())
	assert.Equal(t, 30, cfg.RescheduleMaxDays())
	assert.Equal(t, "medbook.appointments", cfg.Storage.Key)
	assert.DirExists(t, filepath.Join(dir, "data"))

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "server: ["},
		{"unknown backend", "storage:\n  backend: mongo\n"},
		{"bad hours", "hours:\n  start_hour: 18\n  end_hour: 8\n"},
		{"bad timezone", "hours:\n  timezone: Mars/Olympus\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "c.yaml")
			writeFile(t, path, tt.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, 7, cfg.BookingWindowDays())
	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout())
	assert.Equal(t, 30*time.Second, cfg.CatalogReloadInterval())
	assert.Equal(t, 24*time.Hour, cfg.BackupInterval())
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout())
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv("MEDBOOK_CONFIG_PATH", "")
	assert.Equal(t, DefaultPath, PathFromEnv())

	t.Setenv("MEDBOOK_CONFIG_PATH", "/etc/medbook.yaml")
	assert.Equal(t, "/etc/medbook.yaml", PathFromEnv())
}

func readString(p string) (string, error) {
	b, err := os.ReadFile(p)
	return string(b), err
}

func TestFileWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "value.txt")
	writeFile(t, path, "one")

	var latest atomic.Value
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, FileWatch[string]{
		Path:     path,
		Interval: 10 * time.Millisecond,
		Load:     readString,
		Apply:    func(v string) { latest.Store(v) },
	}.Start(ctx))
	assert.Equal(t, "one", latest.Load())

	writeFile(t, path, "two")
	future := time.Now().Add(time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	assert.Eventually(t, func() bool {
		return latest.Load() == "two"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFileWatchReportsReloadErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "value.txt")
	writeFile(t, path, "good")

	var latest atomic.Value
	errs := make(chan error, 16)
	load := func(p string) (string, error) {
		v, err := readString(p)
		if err == nil && v == "broken" {
			return "", errors.New("parse failed")
		}
		return v, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, FileWatch[string]{
		Path:     path,
		Interval: 10 * time.Millisecond,
		Load:     load,
		Apply:    func(v string) { latest.Store(v) },
		OnError:  func(err error) { errs <- err },
	}.Start(ctx))

	replaceFile(t, path, "broken", time.Now().Add(time.Second))

	select {
	case err := <-errs:
		assert.ErrorContains(t, err, "parse failed")
		assert.ErrorContains(t, err, path)
	case <-time.After(2 * time.Second):
		t.Fatal("reload error was not reported")
	}
	assert.Equal(t, "good", latest.Load())

	// the same broken revision is not reported again
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, errs)
}

func TestFileWatchMissing(t *testing.T) {
	err := FileWatch[string]{Path: filepath.Join(t.TempDir(), "nope"), Load: readString}.Start(context.Background())
	assert.Error(t, err)
}
