package file

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/warden/internal/logging"
	"github.com/aretw0/warden/pkg/ports"
	"github.com/fsnotify/fsnotify"
)

// beaconName is the file rewritten on every Publish; watchers react to its replacement.
const beaconName = ".broadcast.json"

// Broadcaster implements ports.Broadcaster for processes sharing a directory.
// Publish atomically rewrites a beacon file; subscribers watch the directory with
// fsnotify and decode the beacon whenever it changes.
type Broadcaster struct {
	Dir    string
	logger *slog.Logger
}

// BroadcasterOption configures a Broadcaster.
type BroadcasterOption func(*Broadcaster)

// WithLogger configures a logger for watcher errors.
func WithLogger(logger *slog.Logger) BroadcasterOption {
	return func(b *Broadcaster) {
		b.logger = logger
	}
}

// NewBroadcaster creates a Broadcaster rooted at dir (default ".warden").
func NewBroadcaster(dir string, opts ...BroadcasterOption) *Broadcaster {
	if dir == "" {
		dir = ".warden"
	}
	b := &Broadcaster{Dir: dir, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish rewrites the beacon file with msg.
func (b *Broadcaster) Publish(ctx context.Context, msg ports.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return writeAtomic(b.Dir, filepath.Join(b.Dir, beaconName), data)
}

// Subscribe starts a directory watcher.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan ports.Message, ports.CancelFunc, error) {
	if err := os.MkdirAll(b.Dir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to ensure broadcast directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(b.Dir); err != nil {
		_ = watcher.Close()
		return nil, nil, fmt.Errorf("failed to watch %s: %w", b.Dir, err)
	}

	out := make(chan ports.Message, 16)
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() { close(done) })
	}

	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				b.logger.Warn("Broadcast watcher error", "dir", b.Dir, "err", err)
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != beaconName || !(ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)) {
					continue
				}
				msg, err := b.readBeacon()
				if err != nil {
					// Replaced again or removed between the event and the read; the next event covers it.
					b.logger.Debug("Skipping unreadable beacon", "err", err)
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				case <-done:
					return
				}
			}
		}
	}()

	return out, cancel, nil
}

func (b *Broadcaster) readBeacon() (ports.Message, error) {
	var msg ports.Message
	data, err := os.ReadFile(filepath.Join(b.Dir, beaconName))
	if err != nil {
		return msg, err
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, err
	}
	return msg, nil
}
