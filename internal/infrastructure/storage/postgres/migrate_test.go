package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles_Paired(t *testing.T) {
	names, err := MigrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, names)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, n := range names {
		switch {
		case strings.HasSuffix(n, ".up.sql"):
			ups[strings.TrimSuffix(n, ".up.sql")] = true
		case strings.HasSuffix(n, ".down.sql"):
			downs[strings.TrimSuffix(n, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file %s", n)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestMigrations_InvoiceSchema(t *testing.T) {
	body, err := migrationsFS.ReadFile("migrations/000002_invoices.up.sql")
	require.NoError(t, err)
	sql := string(body)

	assert.Contains(t, sql, "ON DELETE CASCADE")
	assert.Contains(t, sql, "UNIQUE (number_seq)")
	assert.Contains(t, sql, "sys_sequences")
}
