package config

import (
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/pseudomuto/birdwatch/pkg/consts"
	"gopkg.in/yaml.v3"
)

type (
	// Config represents the optional birdwatch.yaml tool configuration.
	// Every field has a sensible default; projects that follow Alembic and
	// squawk conventions need no config file at all.
	Config struct {
		// AlembicConfig is the path to the project's alembic.ini
		AlembicConfig string `yaml:"alembic_config,omitempty"`

		// Alembic is the migration runner binary
		Alembic string `yaml:"alembic,omitempty"`

		// Squawk is the SQL linter binary
		Squawk string `yaml:"squawk,omitempty"`

		// SquawkArgs are extra arguments passed to the linter verbatim
		SquawkArgs []string `yaml:"squawk_args,omitempty"`

		// DatabaseURLVar is the environment variable holding the connection
		// string Alembic's env.py interpolates
		DatabaseURLVar string `yaml:"database_url_var,omitempty"`

		// FallbackDatabaseURL is substituted when the variable is unset
		FallbackDatabaseURL string `yaml:"fallback_database_url,omitempty"`

		// DiffBranch, when set, narrows every run to migrations not already
		// present on that branch (the --diff-branch flag overrides it)
		DiffBranch string `yaml:"diff_branch,omitempty"`
	}
)

// LoadConfig parses a tool configuration from the provided io.Reader and
// applies defaults for any unset field.
//
// Example:
//
//	cfg, err := config.LoadConfig(strings.NewReader("squawk: /usr/local/bin/squawk\n"))
//	if err != nil {
//		panic(err)
//	}
//
//	fmt.Println(cfg.AlembicConfig) // "alembic.ini"
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to unmarshal tool config")
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadConfigFile loads a tool configuration from the specified file path.
// This is a convenience function that opens the file and calls LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}

// Default returns the configuration used when no birdwatch.yaml exists.
func Default() *Config {
	cfg := new(Config)
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.AlembicConfig == "" {
		c.AlembicConfig = consts.DefaultAlembicConfig
	}
	if c.Alembic == "" {
		c.Alembic = consts.DefaultAlembicBin
	}
	if c.Squawk == "" {
		c.Squawk = consts.DefaultSquawkBin
	}
	if c.DatabaseURLVar == "" {
		c.DatabaseURLVar = consts.DefaultDatabaseURLVar
	}
	if c.FallbackDatabaseURL == "" {
		c.FallbackDatabaseURL = consts.FallbackDatabaseURL
	}
}

// ResolveDatabaseURL returns the connection string the migration runner
// should see: the configured environment variable when set (a .env file in
// the working directory is honored, matching Alembic dev setups), otherwise
// the deterministic fallback. Offline mode never connects either way.
func (c *Config) ResolveDatabaseURL() string {
	// Best effort; a missing .env is the normal case.
	_ = godotenv.Load()

	if v := os.Getenv(c.DatabaseURLVar); v != "" {
		return v
	}

	return c.FallbackDatabaseURL
}
