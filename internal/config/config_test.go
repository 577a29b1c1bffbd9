package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemacrawler/internal/renderer"
)

const properties = `# report settings
schemacrawler.format.no_info=true
schemacrawler.format.hide_weakassociations=true
schemacrawler.format.title=Books Database
schemacrawler.table.pattern.exclude=.*_LIST
select.INFORMATION_SCHEMA.TABLES=SELECT 1
publishers=SELECT PUBLISHER FROM PUBLISHERS
maxid=SELECT MAX(ID) FROM ${table}
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.config.properties")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, properties))
	require.NoError(t, err)

	assert.Equal(t, renderer.Options{
		Title:                "Books Database",
		NoInfo:               true,
		HideWeakAssociations: true,
	}, cfg.FormatOptions())

	rule, err := cfg.Rule("table")
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.False(t, rule.Matches("AUTHORS_LIST"))
	assert.True(t, rule.Matches("AUTHORS"))

	rule, err = cfg.Rule("column")
	require.NoError(t, err)
	assert.Nil(t, rule)

	assert.Equal(t, map[string]string{"select.INFORMATION_SCHEMA.TABLES": "SELECT 1"}, cfg.InformationSchemaQueries())
	assert.Equal(t, map[string]string{
		"publishers": "SELECT PUBLISHER FROM PUBLISHERS",
		"maxid":      "SELECT MAX(ID) FROM ${table}",
	}, cfg.Queries())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SCHCRWLR_URL", "jdbc:sqlite:books.db")
	t.Setenv("SCHCRWLR_USER", "sa")
	t.Setenv("SCHCRWLR_PORT", "1433")

	cfg, err := Load("")
	require.NoError(t, err)
	conn := cfg.Connection()
	assert.Equal(t, "jdbc:sqlite:books.db", conn.URL)
	assert.Equal(t, "sa", conn.User)
	assert.Equal(t, 1433, conn.Port)
	assert.Empty(t, conn.Password)
	assert.Empty(t, cfg.Queries())
}

func TestLoad_BadPattern(t *testing.T) {
	cfg, err := Load(writeConfig(t, "schemacrawler.column.pattern.include=[a-\n"))
	require.NoError(t, err)
	_, err = cfg.Rule("column")
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.properties"))
	assert.Error(t, err)
}
