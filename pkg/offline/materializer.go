// Package offline materializes the SQL a migration would execute by driving
// Alembic's offline ("--sql") mode, one revision at a time.
package offline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/birdwatch/pkg/alembic"
)

type (
	// Materializer runs the migration runner in offline mode for single
	// revisions. Each invocation is independent, so one migration's failure
	// never blocks SQL generation for the others.
	Materializer struct {
		cfg Config
	}

	// Config contains configuration options for creating a new Materializer.
	Config struct {
		// Alembic is the migration runner binary, e.g. "alembic"
		Alembic string

		// ConfigPath is the alembic.ini path passed via -c
		ConfigPath string

		// DatabaseURLVar is the environment variable env.py reads its
		// connection string from
		DatabaseURLVar string

		// DatabaseURL is the resolved connection string value. Offline mode
		// never connects, but env.py always interpolates the URL, so a
		// placeholder is injected when the environment has none.
		DatabaseURL string
	}

	// Error carries the runner's diagnostic output for one failed
	// materialization.
	Error struct {
		// Revision is the migration revision that failed to materialize
		Revision string

		// Stderr is the runner's captured standard error, verbatim
		Stderr string
	}
)

func (e *Error) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		msg = "migration runner exited non-zero"
	}
	return fmt.Sprintf("failed to materialize %s: %s", e.Revision, msg)
}

// New creates a Materializer with the provided configuration.
func New(cfg Config) *Materializer {
	return &Materializer{cfg: cfg}
}

// MaterializeSQL generates the SQL for exactly one migration by running
//
//	alembic -c <ini> upgrade <down>:<revision> --sql
//
// (from "base" for root migrations). Stdout is the SQL payload; a non-zero
// exit returns an *Error carrying stderr. The subprocess inherits ctx, so
// cancelling the run also terminates the runner.
//
// Merge migrations have no single parent and produce no DDL; callers filter
// them out before reaching here.
func (m *Materializer) MaterializeSQL(ctx context.Context, mig *alembic.Migration) (string, error) {
	if mig.IsMerge() {
		return "", errors.Errorf("refusing to materialize merge migration %s", mig.Revision)
	}

	down := "base"
	if len(mig.DownRevisions) == 1 {
		down = mig.DownRevisions[0]
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, m.cfg.Alembic, m.Args(mig.Revision, down)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = m.Env(os.Environ())

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &Error{Revision: mig.Revision, Stderr: stderr.String()}
		}
		return "", errors.Wrapf(err, "failed to run %s", m.cfg.Alembic)
	}

	return stdout.String(), nil
}

// Args builds the runner argument list for one revision range.
func (m *Materializer) Args(revision, down string) []string {
	return []string{"-c", m.cfg.ConfigPath, "upgrade", down + ":" + revision, "--sql"}
}

// Env returns base with the connection-string variable appended when absent.
// An existing value always wins; the fallback exists only so env.py can
// interpolate something syntactically valid.
func (m *Materializer) Env(base []string) []string {
	prefix := m.cfg.DatabaseURLVar + "="
	for _, kv := range base {
		if strings.HasPrefix(kv, prefix) {
			return base
		}
	}
	return append(base, prefix+m.cfg.DatabaseURL)
}
