package database

import (
	"os"
	"path/filepath"
	"testing"

	coreconfig "github.com/m3rciful/buttonbot/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrationFilesAndSelectApplied(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_b.up.sql", "000001_a.up.sql", "000001_a.down.sql", "000003_c.up.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}

	files := listMigrationFiles(dir)
	assert.Equal(t, []string{"000001_a.up.sql", "000002_b.up.sql", "000003_c.up.sql"}, files)
	assert.Equal(t, []string{"000002_b.up.sql", "000003_c.up.sql"}, selectApplied(files, 1, 3))
	assert.Empty(t, selectApplied(files, 3, 3))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "+2"}, preview([]string{"a", "b", "c", "d"}, 2))
	assert.Equal(t, []string{"a"}, preview([]string{"a"}, 2))
}

func TestURLEscapesCredentials(t *testing.T) {
	u := URL(coreconfig.DatabaseConfig{
		Host: "db", Port: "5432", User: "bot", Password: "p@ss word", Name: "buttons", SSLMode: "disable",
	})
	assert.Equal(t, "postgres://bot:p%40ss%20word@db:5432/buttons?sslmode=disable", u)
}
