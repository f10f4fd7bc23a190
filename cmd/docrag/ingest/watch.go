package ingestcmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/papercomputeco/docrag/pkg/cliui"
	"github.com/papercomputeco/docrag/pkg/pipeline"
)

// settleDelay is how long a file must go without write events before it is
// ingested, so partially written files are not picked up.
const settleDelay = 500 * time.Millisecond

func (c *ingestCommander) watch(ctx context.Context, owner string, p *pipeline.Pipeline) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(c.watchDir); err != nil {
		return fmt.Errorf("watching %s: %w", c.watchDir, err)
	}

	fmt.Fprintf(c.out, "  %s %s\n", cliui.StepStyle.Render("Watching"), c.watchDir)

	pending := newPendingSet()
	ticker := time.NewTicker(settleDelay / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || ignored(event.Name) {
				continue
			}
			pending.touch(event.Name, time.Now())

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)

		case now := <-ticker.C:
			ready := pending.settled(now, settleDelay)
			if len(ready) == 0 {
				continue
			}
			// A failed batch is reported and watching continues.
			_ = c.ingestPaths(ctx, owner, p, ready)
		}
	}
}

// pendingSet tracks the last write time of files awaiting ingestion.
type pendingSet struct {
	seen map[string]time.Time
}

func newPendingSet() *pendingSet {
	return &pendingSet{seen: make(map[string]time.Time)}
}

func (s *pendingSet) touch(path string, at time.Time) {
	s.seen[path] = at
}

// settled removes and returns the regular files quiet for at least delay.
func (s *pendingSet) settled(now time.Time, delay time.Duration) []string {
	var ready []string
	for path, at := range s.seen {
		if now.Sub(at) < delay {
			continue
		}
		delete(s.seen, path)

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		ready = append(ready, path)
	}
	return ready
}

func ignored(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~")
}
