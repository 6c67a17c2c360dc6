package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "flatsql", cfg.AppName)
	assert.Equal(t, "DATABASES", cfg.Storage.Root)
	assert.Equal(t, "RESULT.csv", cfg.Storage.ResultFile)
	assert.Equal(t, "ID", cfg.Catalog.IDColumn)
	assert.True(t, cfg.Session.Persist)
	assert.Equal(t, 0, cfg.Snapshot.MaxDepth)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "flatsql> ", cfg.Repl.Prompt)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flatsql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  root: /srv/data
snapshot:
  max_depth: 25
history:
  enabled: true
log:
  level: debug
  development: true
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/data", cfg.Storage.Root)
	assert.Equal(t, "RESULT.csv", cfg.Storage.ResultFile)
	assert.Equal(t, 25, cfg.Snapshot.MaxDepth)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("FLATSQL_STORAGE_ROOT", "/env/root")
	t.Setenv("FLATSQL_SNAPSHOT_MAX_DEPTH", "3")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/env/root", cfg.Storage.Root)
	assert.Equal(t, 3, cfg.Snapshot.MaxDepth)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
