// Package reload is the out-of-band path for tuning parameters at runtime.
// A Channel watches a flat key→value config file and applies it to the
// parameter store, and answers two external triggers: SIGHUP (reload the
// file now) and SIGUSR1 (dump the current parameter snapshot to the log).
package reload

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/brendadeeznuts1111/lattice/internal/params"
)

// Channel owns no parameter state; it is a conduit into the store.
type Channel struct {
	store   *params.Store
	log     *zap.Logger
	path    string
	watcher *fsnotify.Watcher
	sigCh   chan os.Signal
	stopCh  chan struct{}
	doneCh  chan struct{}

	mu      sync.Mutex
	running bool
}

// New creates a Channel that reads config payloads from path.
func New(store *params.Store, log *zap.Logger, path string) *Channel {
	if log == nil {
		log = zap.NewNop()
	}
	return &Channel{
		store:  store,
		log:    log,
		path:   path,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins watching the config file's directory and listening for
// reload/dump signals. Non-blocking; the event loop runs in its own
// goroutine so slow file I/O never blocks decay calls elsewhere. An
// existing config file is applied once at startup.
func (c *Channel) Start() error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = true
	c.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	c.watcher = watcher

	// Watch the directory, not the file: the atomic write protocol renames
	// a temp file into place, which replaces the watched inode.
	dir := filepath.Dir(c.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	c.sigCh = make(chan os.Signal, 1)
	signal.Notify(c.sigCh, syscall.SIGHUP, syscall.SIGUSR1)

	if _, err := os.Stat(c.path); err == nil {
		if err := c.ReloadNow(); err != nil {
			c.log.Warn("initial config load failed", zap.Error(err))
		}
	}

	go c.run()
	return nil
}

// Stop shuts down the event loop and releases the watcher.
func (c *Channel) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	close(c.stopCh)
	<-c.doneCh
	signal.Stop(c.sigCh)
	if err := c.watcher.Close(); err != nil {
		c.log.Warn("close watcher", zap.Error(err))
	}
}

func (c *Channel) run() {
	defer close(c.doneCh)

	// Rapid successive writes collapse into one reload. The debounce
	// window tracks the updateIntervalMs parameter, so it is itself
	// live-tunable.
	var debounce *time.Timer
	var debounceC <-chan time.Time

	for {
		select {
		case <-c.stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return

		case sig := <-c.sigCh:
			switch sig {
			case syscall.SIGHUP:
				c.log.Info("reload signal received")
				if err := c.ReloadNow(); err != nil {
					c.log.Warn("reload failed", zap.Error(err))
				}
			case syscall.SIGUSR1:
				c.DumpNow()
			}

		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != filepath.Base(c.path) {
				continue
			}
			if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			window := time.Duration(c.store.Int(params.KeyUpdateIntervalMs)) * time.Millisecond
			if window <= 0 {
				window = 100 * time.Millisecond
			}
			if debounce == nil {
				debounce = time.NewTimer(window)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(window)
			}
			debounceC = debounce.C

		case <-debounceC:
			debounceC = nil
			if err := c.ReloadNow(); err != nil {
				c.log.Warn("reload failed", zap.Error(err))
			}

		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.log.Warn("watcher error", zap.Error(err))
		}
	}
}

// ReloadNow reads the config payload and applies it to the store. The
// cycle is skipped — parameters untouched — when a writer is mid-protocol
// (the temp file still exists) or the payload fails to parse. Semantic
// validity of individual keys is the store's job; ApplyBatch skips bad
// entries one by one.
func (c *Channel) ReloadNow() error {
	if _, err := os.Stat(c.path + tmpSuffix); err == nil {
		c.log.Debug("config write in progress, skipping cycle", zap.String("path", c.path))
		return nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	payload, err := ParsePayload(data)
	if err != nil {
		c.log.Warn("malformed config payload, cycle skipped",
			zap.String("path", c.path),
			zap.Error(err))
		return nil
	}

	applied := c.store.ApplyBatch(payload)
	c.log.Info("config applied",
		zap.String("path", c.path),
		zap.Int("accepted", len(applied)),
		zap.Int("offered", len(payload)))
	return nil
}

// DumpNow writes the current parameter snapshot to the log. Read-only.
func (c *Channel) DumpNow() {
	c.log.Info("parameter snapshot", zap.Any("params", c.store.Snapshot()))
}
