package report

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"OptAlert/pkg/logger"
)

// Retention removes report files older than the configured age. Scheduled
// as a daily housekeeping job.
type Retention struct {
	dir  string
	days int
	log  *logger.Logger
	now  func() time.Time
}

func NewRetention(dir string, days int, log *logger.Logger) *Retention {
	return &Retention{dir: dir, days: days, log: log, now: time.Now}
}

// WithNow overrides the time source.
func (r *Retention) WithNow(now func() time.Time) *Retention {
	r.now = now
	return r
}

// Prune deletes reports dated before the retention cutoff. Files that do
// not match the report naming scheme are left alone.
func (r *Retention) Prune() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := r.now().AddDate(0, 0, -r.days)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, "EOD_Report_") || !strings.HasSuffix(name, ".csv") {
			continue
		}
		dateStr := strings.TrimSuffix(strings.TrimPrefix(name, "EOD_Report_"), ".csv")
		day, err := time.Parse(fileDateLayout, dateStr)
		if err != nil {
			continue
		}
		if day.Before(cutoff) {
			if err := os.Remove(filepath.Join(r.dir, name)); err != nil {
				r.log.Warn("retention remove failed",
					logger.String("file", name), logger.Error(err))
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		r.log.Info("old reports pruned", logger.Int("removed", removed))
	}
	return nil
}
