package alembic

import "fmt"

type (
	// ConfigError indicates the project's alembic.ini is missing, unreadable,
	// or lacks the script_location key. It is fatal: without a migrations
	// directory nothing downstream can run.
	ConfigError struct {
		// Path is the configuration file that failed to resolve
		Path string

		// Err is the underlying cause
		Err error
	}

	// MalformedMigrationError indicates a migration script inside the
	// versions directory could not be scanned for revision identifiers. It is
	// reported per file and fails the run, but does not stop other files from
	// being processed.
	MalformedMigrationError struct {
		// Path is the migration script that failed to scan
		Path string

		// Err is the underlying cause
		Err error
	}
)

func (e *ConfigError) Error() string {
	return fmt.Sprintf("alembic config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *MalformedMigrationError) Error() string {
	return fmt.Sprintf("malformed migration %s: %v", e.Path, e.Err)
}

func (e *MalformedMigrationError) Unwrap() error { return e.Err }
