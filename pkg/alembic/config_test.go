package alembic_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/pseudomuto/birdwatch/pkg/alembic"
	"github.com/pseudomuto/birdwatch/pkg/consts"
	"github.com/stretchr/testify/require"
)

func writeINI(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, "alembic.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), consts.ModeFile))
	return path
}

func TestLoadScriptConfigFile(t *testing.T) {
	t.Run("standard layout", func(t *testing.T) {
		dir := t.TempDir()
		path := writeINI(t, dir, "[alembic]\nscript_location = ./migrations\n")

		cfg, err := LoadScriptConfigFile(path)
		require.NoError(t, err)
		require.Equal(t, filepath.Join(dir, "migrations", "versions"), cfg.VersionsDir())
	})

	t.Run("nested layout", func(t *testing.T) {
		dir := t.TempDir()
		path := writeINI(t, dir, "[alembic]\nscript_location = ./backend/migrations\n")

		cfg, err := LoadScriptConfigFile(path)
		require.NoError(t, err)
		require.Equal(t, filepath.Join(dir, "backend", "migrations", "versions"), cfg.VersionsDir())
	})

	t.Run("no dot slash prefix", func(t *testing.T) {
		dir := t.TempDir()
		path := writeINI(t, dir, "[alembic]\nscript_location = migrations\n")

		cfg, err := LoadScriptConfigFile(path)
		require.NoError(t, err)
		require.Equal(t, filepath.Join(dir, "migrations", "versions"), cfg.VersionsDir())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadScriptConfigFile(filepath.Join(t.TempDir(), "alembic.ini"))
		requireConfigError(t, err)
	})

	t.Run("missing section", func(t *testing.T) {
		path := writeINI(t, t.TempDir(), "[other]\nkey = value\n")

		_, err := LoadScriptConfigFile(path)
		requireConfigError(t, err)
		require.Contains(t, err.Error(), "missing [alembic] section")
	})

	t.Run("missing script_location", func(t *testing.T) {
		path := writeINI(t, t.TempDir(), "[alembic]\n")

		_, err := LoadScriptConfigFile(path)
		requireConfigError(t, err)
		require.Contains(t, err.Error(), "missing script_location")
	})
}

func requireConfigError(t *testing.T, err error) {
	t.Helper()

	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}
