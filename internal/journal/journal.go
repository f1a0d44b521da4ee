// Package journal records booking attempts for later auditing. Nothing in the
// scheduler reads it back.
package journal

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
)

const (
	OutcomeBooked    = "booked"
	OutcomeRecovered = "recovered"
	OutcomeFailed    = "failed"
)

// Entry is one attempt at one candidate.
type Entry struct {
	HuntID     string
	Mode       string
	Day        string
	ResourceID string
	HourIDs    []int
	Outcome    string
	OrderID    string
	ErrorKind  string
	Error      string
	At         time.Time
}

// Recorder stores entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Nop is used when no database is configured.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

// Execer is satisfied by *db.DB.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) error
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

type Repo struct{ db Execer }

func NewRepo(d Execer) *Repo { return &Repo{db: d} }

func (r *Repo) Record(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	query, args, err := psql.Insert("booking_attempts").
		Columns("hunt_id", "mode", "day", "resource_id", "hour_ids", "outcome", "order_id", "error_kind", "error", "attempted_at").
		Values(e.HuntID, e.Mode, e.Day, e.ResourceID, joinHours(e.HourIDs), e.Outcome,
			nullable(e.OrderID), nullable(e.ErrorKind), nullable(e.Error), e.At).
		ToSql()
	if err != nil {
		return fmt.Errorf("journal: build insert: %w", err)
	}
	if err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("journal: insert: %w", err)
	}
	return nil
}

func joinHours(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ",")
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
