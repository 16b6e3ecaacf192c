package hook

import (
	"context"

	"github.com/pkg/errors"
	"github.com/pseudomuto/birdwatch/pkg/alembic"
)

type (
	// Materializer produces the SQL a single migration would execute,
	// without touching a database.
	Materializer interface {
		MaterializeSQL(ctx context.Context, mig *alembic.Migration) (string, error)
	}

	// Linter evaluates SQL and returns its human-readable findings and exit
	// code. Exit code 0 means clean. A non-nil error means the linter itself
	// could not run.
	Linter interface {
		Lint(ctx context.Context, sql string) (output string, exitCode int, err error)
	}

	// RefOracle answers file-existence queries against a version-control
	// reference.
	RefOracle interface {
		VerifyRef(ctx context.Context, ref string) error
		FileExistsAt(ctx context.Context, ref, path string) (bool, error)
	}

	// Pipeline wires the stages together for one hook invocation. Files are
	// processed sequentially in discovery order; each file's stages are
	// independent of every other file's.
	Pipeline struct {
		cfg Config
	}

	// Config contains configuration options for creating a new Pipeline.
	Config struct {
		// VersionsDir is the resolved Alembic versions directory
		VersionsDir string

		// Materializer generates per-revision SQL
		Materializer Materializer

		// Linter evaluates the generated SQL
		Linter Linter

		// Oracle answers diff-branch membership queries. Required only when
		// DiffBranch is set.
		Oracle RefOracle

		// DiffBranch, when non-empty, excludes migrations already present at
		// that reference
		DiffBranch string
	}
)

// New creates a Pipeline with the provided configuration.
func New(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Run executes the pipeline over the changed-file list and returns the
// aggregated report. The returned error is non-nil only for fatal
// conditions: an unresolvable diff branch, or a linter that cannot be
// spawned at all. Per-file problems land in the report instead.
func (p *Pipeline) Run(ctx context.Context, files []string) (*Report, error) {
	candidates := FilterScope(p.cfg.VersionsDir, files)

	if p.cfg.DiffBranch != "" {
		if err := p.narrowToBranch(ctx, candidates); err != nil {
			return nil, err
		}
	}

	report := &Report{DiffBranch: p.cfg.DiffBranch}

	for _, c := range candidates {
		// Files outside the migrations directory are not part of this run at
		// all; keeping them out of the report keeps output identical no
		// matter what else a commit touches.
		if c.Status == StatusSkippedOutsideDir {
			continue
		}

		result := &FileResult{Path: c.Path, Status: c.Status, Err: c.Err}
		report.Files = append(report.Files, result)

		if c.Status != StatusInScope || c.Err != nil {
			continue
		}

		findings, err := alembic.CheckAutocommitFile(c.Path)
		if err != nil {
			result.Err = err
			continue
		}
		result.Findings = findings

		// Materialization and linting proceed even when the safety check
		// found violations: a single run should report everything at once.
		sql, err := p.cfg.Materializer.MaterializeSQL(ctx, c.Migration)
		if err != nil {
			result.Err = err
			continue
		}
		result.SQL = sql

		output, code, err := p.cfg.Linter.Lint(ctx, sql)
		if err != nil {
			return nil, errors.Wrap(err, "failed to invoke linter")
		}

		result.LintOutput = output
		result.LintExitCode = code
	}

	return report, nil
}

// narrowToBranch marks in-scope candidates that already exist at the diff
// branch. The ref is verified once up front; any query failure afterwards is
// fatal, since guessing "not present" would let violations slip through.
func (p *Pipeline) narrowToBranch(ctx context.Context, candidates []*Candidate) error {
	if err := p.cfg.Oracle.VerifyRef(ctx, p.cfg.DiffBranch); err != nil {
		return err
	}

	for _, c := range candidates {
		if c.Status != StatusInScope && c.Status != StatusSkippedMerge {
			continue
		}

		exists, err := p.cfg.Oracle.FileExistsAt(ctx, p.cfg.DiffBranch, c.Path)
		if err != nil {
			return err
		}

		if exists {
			c.Status = StatusSkippedOnBranch
			c.Err = nil
		}
	}

	return nil
}
