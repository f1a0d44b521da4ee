package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "gymsched dev")
}

func TestSubcommandsRegistered(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"run", "schedule", "orders", "version"} {
		c, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("debug"))
}

func TestOrdersCancel_FlagValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"nothing", []string{}, "either --id or --resource"},
		{"both", []string{"--id", "x", "--resource", "221", "--hour", "328230"}, "cannot be combined"},
		{"resource only", []string{"--resource", "221"}, "must be given together"},
		{"hour only", []string{"--hour", "328230"}, "must be given together"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"orders", "cancel"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOrdersList_FlagValidation(t *testing.T) {
	_, err := execute(t, "orders", "list", "--status", "pending")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --status")

	_, err = execute(t, "orders", "list", "--limit", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--limit")
}

func TestSchedule_NegativeOffset(t *testing.T) {
	_, err := execute(t, "schedule", "--offset=-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--offset")
}
