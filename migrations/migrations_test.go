package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreReversible(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		body, err := fs.ReadFile(FS, name)
		require.NoError(t, err)

		sql := string(body)
		assert.True(t, strings.HasPrefix(sql, "-- +goose Up"), name)
		assert.Contains(t, sql, "-- +goose Down", name)
	}
}

func TestMigrationsCreateLedgerTables(t *testing.T) {
	body, err := fs.ReadFile(FS, "00003_create_commission_ledgers.sql")
	require.NoError(t, err)

	sql := string(body)
	assert.Contains(t, sql, "CREATE TABLE commissions_due")
	assert.Contains(t, sql, "CREATE TABLE commission_payments")
	assert.Contains(t, sql, "ON commissions_due (user_id, customer_id)")
	assert.Contains(t, sql, "ON commission_payments (commission_due_id)")
}
