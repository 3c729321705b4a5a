package report

import (
	"context"
	"fmt"
	"time"

	"OptAlert/internal/domain/models"
	"OptAlert/pkg/clickhouse"
)

// Schema statements for the alert archive. Idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS alerts (
		day       Date,
		ts        DateTime64(3),
		strategy  LowCardinality(String),
		message   String
	) ENGINE = MergeTree()
	ORDER BY (day, strategy, ts)`,
}

// ClickHouseSink archives alert events for cross-day queries. The CSV sink
// remains the primary report; the archive is additive.
type ClickHouseSink struct {
	client *clickhouse.Client
}

func NewClickHouseSink(ctx context.Context, client *clickhouse.Client) (*ClickHouseSink, error) {
	if err := client.InitSchema(ctx, schemaStatements); err != nil {
		return nil, err
	}
	return &ClickHouseSink{client: client}, nil
}

func (s *ClickHouseSink) Export(ctx context.Context, day time.Time, events []models.AlertEvent) error {
	tx, err := s.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO alerts (day, ts, strategy, message) VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, day, e.Timestamp, e.Strategy, e.Message); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert alert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}
