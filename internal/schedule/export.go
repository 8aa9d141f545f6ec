// Package schedule runs the periodic export of the event store.
package schedule

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"kalender/internal/config"
	"kalender/internal/ics"
	appLog "kalender/internal/log"
	"kalender/internal/model"
)

// ErrNothingToExport is returned by RunOnce when the source is empty.
var ErrNothingToExport = errors.New("no events to export")

// Source yields the events to export, in the order they should be written.
type Source interface {
	Snapshot() []model.Event
}

// Exporter writes export files into a directory on a cron schedule.
type Exporter struct {
	cron *cron.Cron
	src  Source
	dir  string
	now  func() time.Time
}

// NewExporter validates the cron expression and registers the export job.
// The job does not run until Start.
func NewExporter(cfg config.AutoExportConfig, src Source) (*Exporter, error) {
	if !cfg.Enabled() {
		return nil, errors.New("auto export needs both cron and dir")
	}

	e := &Exporter{
		cron: cron.New(),
		src:  src,
		dir:  cfg.Dir,
		now:  time.Now,
	}

	if _, err := e.cron.AddFunc(cfg.Cron, e.run); err != nil {
		return nil, fmt.Errorf("invalid auto export cron %q: %w", cfg.Cron, err)
	}
	return e, nil
}

// Start begins scheduling in the background.
func (e *Exporter) Start() {
	appLog.Info("auto export scheduled", "dir", e.dir, "entries", len(e.cron.Entries()))
	e.cron.Start()
}

// Stop halts scheduling and waits for a running export to finish.
func (e *Exporter) Stop() {
	<-e.cron.Stop().Done()
}

func (e *Exporter) run() {
	path, err := e.RunOnce()
	switch {
	case errors.Is(err, ErrNothingToExport):
		appLog.Debug("auto export skipped; store is empty")
	case err != nil:
		appLog.Error("auto export failed", err, "dir", e.dir)
	default:
		appLog.Info("auto export written", "path", path)
	}
}

// RunOnce encodes the current events and writes them to
// dir/kalender-export-YYYY-MM-DD.ics, replacing an earlier file of the day.
func (e *Exporter) RunOnce() (string, error) {
	events := e.src.Snapshot()
	if len(events) == 0 {
		return "", ErrNothingToExport
	}

	var buf bytes.Buffer
	if err := ics.EncodeTo(&buf, events); err != nil {
		return "", err
	}

	path := filepath.Join(e.dir, ics.ExportFilename(e.now()))
	if err := config.WriteFileAtomic(path, buf.Bytes(), ".kalender-export-*.tmp"); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
