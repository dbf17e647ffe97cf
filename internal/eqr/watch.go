package eqr

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrDownloadTimeout is returned when no new file lands in the download
// directory within the configured wait.
var ErrDownloadTimeout = errors.New("timed out waiting for download")

// Chrome writes these while a download is still in flight.
var partialSuffixes = []string{".crdownload", ".tmp", ".part"}

// DirWatch snapshots a directory so that later arrivals can be told apart
// from files that were already there.
type DirWatch struct {
	dir    string
	before map[string]struct{}
}

// WatchDir records the current contents of dir. Call it before triggering
// the download, then Wait for the result.
func WatchDir(dir string) (*DirWatch, error) {
	before, err := listDir(dir)
	if err != nil {
		return nil, err
	}
	return &DirWatch{dir: dir, before: before}, nil
}

// Wait blocks until at least one genuinely new file appears in the watched
// directory, the timeout passes, or ctx is cancelled. In-flight browser
// artifacts (.crdownload and friends) keep the wait going until they settle.
// fsnotify events wake the check early; a ticker covers anything the
// watcher misses.
func (w *DirWatch) Wait(ctx context.Context, timeout time.Duration) ([]string, error) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	var events <-chan fsnotify.Event
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		defer watcher.Close()
		if watcher.Add(w.dir) == nil {
			events = watcher.Events
		}
	}

	for {
		fresh, err := w.newFiles()
		if err != nil {
			return nil, err
		}
		if len(fresh) > 0 {
			return fresh, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, ErrDownloadTimeout
		case <-events:
		case <-ticker.C:
		}
	}
}

// newFiles returns files not present in the snapshot. A pending partial
// download suppresses the result so a finished sibling is not reported
// while another file is still being written.
func (w *DirWatch) newFiles() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, err
	}

	var fresh []string
	pending := false
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if _, ok := w.before[name]; ok {
			continue
		}
		if isPartialDownload(name) {
			pending = true
			continue
		}
		fresh = append(fresh, name)
	}
	if pending {
		return nil, nil
	}
	return fresh, nil
}

func listDir(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		names[e.Name()] = struct{}{}
	}
	return names, nil
}

func isPartialDownload(name string) bool {
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
