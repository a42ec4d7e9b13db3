package config

import (
	"context"
	"fmt"
	"os"
	"time"
)

const defaultWatchInterval = 30 * time.Second

// FileWatch keeps a value derived from a file current. The file is polled and
// reloaded whenever its modification time or size changes.
type FileWatch[T any] struct {
	Path     string
	Interval time.Duration
	Load     func(path string) (T, error)
	Apply    func(T)
	// OnError receives failed reloads. A broken revision of the file is
	// reported once and not retried until the file changes again.
	OnError func(error)
}

type fileStamp struct {
	mod  time.Time
	size int64
}

func stat(path string) (fileStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, err
	}
	return fileStamp{mod: info.ModTime(), size: info.Size()}, nil
}

// Start loads and applies the file, then polls it until ctx is done. Only the
// initial load is fatal.
func (fw FileWatch[T]) Start(ctx context.Context) error {
	seen, err := stat(fw.Path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", fw.Path, err)
	}
	v, err := fw.Load(fw.Path)
	if err != nil {
		return fmt.Errorf("load %s: %w", fw.Path, err)
	}
	fw.apply(v)

	interval := fw.Interval
	if interval <= 0 {
		interval = defaultWatchInterval
	}
	go fw.poll(ctx, interval, seen)
	return nil
}

func (fw FileWatch[T]) poll(ctx context.Context, interval time.Duration, seen fileStamp) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cur, err := stat(fw.Path)
		if err != nil {
			// Editors often replace the file; keep the last revision until it reappears.
			continue
		}
		if cur == seen {
			continue
		}
		seen = cur

		v, err := fw.Load(fw.Path)
		if err != nil {
			fw.report(fmt.Errorf("reload %s: %w", fw.Path, err))
			continue
		}
		fw.apply(v)
	}
}

func (fw FileWatch[T]) apply(v T) {
	if fw.Apply != nil {
		fw.Apply(v)
	}
}

func (fw FileWatch[T]) report(err error) {
	if fw.OnError != nil {
		fw.OnError(err)
	}
}
