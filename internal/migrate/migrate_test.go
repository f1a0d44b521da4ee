package migrate

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/gym-scheduler/internal/db"
)

type boolRow bool

func (b boolRow) Scan(dest ...any) error {
	*(dest[0].(*bool)) = bool(b)
	return nil
}

type fakeConn struct {
	applied map[string]bool
	execs   []string
}

func (f *fakeConn) Exec(_ context.Context, sql string, args ...any) error {
	f.execs = append(f.execs, sql)
	if strings.HasPrefix(sql, "INSERT INTO schema_migrations") {
		f.applied[args[0].(string)] = true
	}
	return nil
}

func (f *fakeConn) QueryRow(_ context.Context, _ string, args ...any) db.Row {
	return boolRow(f.applied[args[0].(string)])
}

func TestFiles(t *testing.T) {
	files, err := Files()

	require.NoError(t, err)
	assert.Contains(t, files, "001_attempts.sql")
}

func TestUp_AppliesOnce(t *testing.T) {
	conn := &fakeConn{applied: map[string]bool{}}

	require.NoError(t, Up(context.Background(), conn, nil))
	first := len(conn.execs)
	require.NoError(t, Up(context.Background(), conn, nil))

	assert.True(t, conn.applied["001_attempts.sql"])
	// second run only re-creates the bookkeeping table
	assert.Equal(t, first+1, len(conn.execs))
}
