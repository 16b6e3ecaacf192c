package alembic

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

type (
	// ScriptConfig is the subset of alembic.ini this tool needs: where the
	// configuration lives and where the migration scripts are.
	ScriptConfig struct {
		// Path is the location of the alembic.ini file
		Path string

		// ScriptLocation is the configured [alembic] script_location value
		ScriptLocation string
	}
)

// LoadScriptConfigFile reads an alembic.ini file and returns its script
// configuration. A missing file, a missing [alembic] section, or a missing
// script_location key all return a *ConfigError.
//
// Example:
//
//	cfg, err := alembic.LoadScriptConfigFile("alembic.ini")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Println("migrations live in", cfg.VersionsDir())
func LoadScriptConfigFile(path string) (*ScriptConfig, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: errors.Wrap(err, "failed to read file")}
	}

	section, err := f.GetSection("alembic")
	if err != nil {
		return nil, &ConfigError{Path: path, Err: errors.New("missing [alembic] section")}
	}

	if !section.HasKey("script_location") {
		return nil, &ConfigError{Path: path, Err: errors.New("missing script_location key")}
	}

	return &ScriptConfig{
		Path:           path,
		ScriptLocation: section.Key("script_location").String(),
	}, nil
}

// VersionsDir returns the directory holding migration scripts: the configured
// script_location (resolved relative to the ini file's directory) plus the
// conventional "versions" subdirectory.
func (c *ScriptConfig) VersionsDir() string {
	loc := strings.TrimPrefix(c.ScriptLocation, "./")
	return filepath.Join(filepath.Dir(c.Path), filepath.FromSlash(loc), "versions")
}
