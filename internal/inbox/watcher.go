// Package inbox ingests journal moments dropped as JSON files into an
// import directory, so other tools can append entries without going
// through the HTTP API.
package inbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/BrayneSnax/pdaok/internal/models"
	"github.com/BrayneSnax/pdaok/internal/state"
)

// Journal selectors accepted in a drop file.
const (
	JournalDefault   = "journal"
	JournalSubstance = "substance"
)

// Drop is the payload of one import file: a moment plus the journal it
// belongs to.
type Drop struct {
	Journal string `json:"journal"`
	models.Moment
}

// Watch starts an fsnotify watcher on the inbox directory and ingests
// .json drops until ctx is cancelled. Ingestion is debounced so files
// still being written are picked up whole. Ingested files move to a
// processed/ subdirectory; malformed files are renamed with a
// .rejected suffix so they are not retried forever.
func Watch(ctx context.Context, ctrl *state.Controller, dir string, logger *slog.Logger) error {
	if err := os.MkdirAll(filepath.Join(dir, "processed"), 0o755); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("inbox: started", slog.String("dir", dir))

	// Pick up anything that was dropped while we were not running.
	ingestAll(ctrl, dir, logger)

	// ingestTimer debounces bursts of write events on the same file.
	var ingestTimer *time.Timer
	var ingestCh <-chan time.Time

	scheduleIngest := func() {
		if ingestTimer == nil {
			ingestTimer = time.NewTimer(200 * time.Millisecond)
			ingestCh = ingestTimer.C
		} else {
			ingestTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if ingestTimer != nil {
				ingestTimer.Stop()
			}
			logger.Info("inbox: stopped")
			return nil

		case <-ingestCh:
			ingestAll(ctrl, dir, logger)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !strings.HasSuffix(ev.Name, ".json") {
				continue
			}
			scheduleIngest()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// ingestAll processes every .json file currently in the inbox root.
func ingestAll(ctrl *state.Controller, dir string, logger *slog.Logger) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("inbox: read dir failed", slog.String("error", err.Error()))
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := ingestFile(ctrl, path); err != nil {
			logger.Warn("inbox: rejected", slog.String("file", e.Name()), slog.String("error", err.Error()))
			_ = os.Rename(path, path+".rejected")
			continue
		}
		if err := os.Rename(path, filepath.Join(dir, "processed", e.Name())); err != nil {
			logger.Warn("inbox: archive failed", slog.String("file", e.Name()), slog.String("error", err.Error()))
		}
		logger.Debug("inbox: ingested", slog.String("file", e.Name()))
	}
}

// ingestFile parses one drop and appends it to the selected journal.
func ingestFile(ctrl *state.Controller, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var d Drop
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	switch d.Journal {
	case JournalSubstance:
		ctrl.AppendSubstanceEntry(d.Moment)
	case JournalDefault, "":
		ctrl.AppendJournalEntry(d.Moment)
	default:
		return fmt.Errorf("inbox: unknown journal %q", d.Journal)
	}
	return nil
}
