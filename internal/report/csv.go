// Package report exports the day's alert journal at session close and
// prunes old report files.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"OptAlert/internal/domain/models"
	"OptAlert/pkg/logger"
)

const fileDateLayout = "2006-01-02"

// CSVSink writes one end-of-day CSV per session into the report directory.
type CSVSink struct {
	dir string
	log *logger.Logger
}

func NewCSVSink(dir string, log *logger.Logger) *CSVSink {
	return &CSVSink{dir: dir, log: log}
}

// FileName returns the report path for the given day.
func (s *CSVSink) FileName(day time.Time) string {
	return filepath.Join(s.dir, fmt.Sprintf("EOD_Report_%s.csv", day.Format(fileDateLayout)))
}

// Export writes the day's events. An existing file for the same day is
// overwritten so a restarted session replaces a partial report.
func (s *CSVSink) Export(ctx context.Context, day time.Time, events []models.AlertEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	path := s.FileName(day)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"timestamp", "strategy", "details"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range events {
		row := []string{e.Timestamp.Format(time.RFC3339), e.Strategy, e.Message}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}

	s.log.Info("report written",
		logger.String("path", path),
		logger.Int("events", len(events)))
	return nil
}
