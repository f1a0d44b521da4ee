package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

type fakeExecer struct {
	calls []execCall
	err   error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) error {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return f.err
}

func TestRepo_Record(t *testing.T) {
	ex := &fakeExecer{}
	at := time.Date(2025, 5, 23, 7, 0, 1, 0, time.UTC)

	err := NewRepo(ex).Record(context.Background(), Entry{
		HuntID:     "hunt",
		Mode:       "eager",
		Day:        "2025-05-25",
		ResourceID: "225",
		HourIDs:    []int{328235, 328236},
		Outcome:    OutcomeBooked,
		OrderID:    "20250526105041351958",
		At:         at,
	})

	require.NoError(t, err)
	require.Len(t, ex.calls, 1)
	call := ex.calls[0]
	assert.Contains(t, call.sql, "INSERT INTO booking_attempts")
	assert.Contains(t, call.sql, "$10")
	require.Len(t, call.args, 10)
	assert.Equal(t, "328235,328236", call.args[4])
	assert.Equal(t, "20250526105041351958", *(call.args[6].(*string)))
	assert.Nil(t, call.args[7].(*string))
	assert.Equal(t, at, call.args[9])
}

func TestRepo_RecordWrapsError(t *testing.T) {
	boom := errors.New("conn refused")
	ex := &fakeExecer{err: boom}

	err := NewRepo(ex).Record(context.Background(), Entry{Outcome: OutcomeFailed})

	assert.ErrorIs(t, err, boom)
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	assert.NoError(t, r.Record(context.Background(), Entry{}))
}
