package migrations

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var migrationName = regexp.MustCompile(`^\d{3}_[a-z0-9_]+\.(up|down)\.sql$`)

func TestEmbeddedMigrations_PairedAndWellNamed(t *testing.T) {
	entries, err := migrationFS.ReadDir(".")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		require.Regexp(t, migrationName, name)

		base := strings.TrimSuffix(strings.TrimSuffix(name, ".up.sql"), ".down.sql")
		if strings.HasSuffix(name, ".up.sql") {
			ups[base] = true
		} else {
			downs[base] = true
		}

		content, err := migrationFS.ReadFile(name)
		require.NoError(t, err)
		require.NotEmpty(t, strings.TrimSpace(string(content)), "migration %s is empty", name)
	}

	// golang-migrate needs both directions for every version.
	require.Equal(t, ups, downs)
}

func TestEmbeddedMigrations_BaselineCreatesCoreTables(t *testing.T) {
	content, err := migrationFS.ReadFile("001_create_core_tables.up.sql")
	require.NoError(t, err)

	schema := string(content)
	for _, table := range []string{"signals", "insights", "alerts"} {
		require.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table)
	}
}
