package hook

import (
	"path/filepath"
	"strings"

	"github.com/pseudomuto/birdwatch/pkg/alembic"
	"github.com/pseudomuto/birdwatch/pkg/consts"
)

type (
	// ScopeStatus is the per-file outcome of scope filtering.
	ScopeStatus string

	// Candidate pairs a changed file with its scope decision. Decisions are
	// immutable once made; downstream stages only read them.
	Candidate struct {
		// Path is the changed file as supplied by the pre-commit framework
		Path string

		// Status is the scope decision for this file
		Status ScopeStatus

		// Migration holds the parsed revision metadata for files inside the
		// migrations directory, nil when parsing failed
		Migration *alembic.Migration

		// Err records a metadata parse failure. The file stays in the report
		// and fails the run, but does not reach materialization or linting.
		Err error
	}
)

const (
	// StatusInScope marks a migration that proceeds through every stage
	StatusInScope ScopeStatus = "in scope"

	// StatusSkippedMerge marks a multi-parent merge migration, which executes
	// no DDL of its own
	StatusSkippedMerge ScopeStatus = "skipped: merge migration"

	// StatusSkippedOutsideDir marks a changed file that is not a migration
	// script in the versions directory
	StatusSkippedOutsideDir ScopeStatus = "skipped: not a migration"

	// StatusSkippedOnBranch marks a migration already present on the diff
	// branch, which predates this change set
	StatusSkippedOnBranch ScopeStatus = "skipped: already on branch"
)

// FilterScope intersects the changed-file list with the migrations directory
// and parses revision metadata for each retained file. Output order follows
// the input order; every downstream stage and the final report preserve it.
func FilterScope(versionsDir string, files []string) []*Candidate {
	candidates := make([]*Candidate, 0, len(files))

	for _, path := range files {
		c := &Candidate{Path: path}
		candidates = append(candidates, c)

		if !underDir(versionsDir, path) || filepath.Ext(path) != consts.MigrationExt {
			c.Status = StatusSkippedOutsideDir
			continue
		}

		mig, err := alembic.ScanRevisionFile(path)
		if err != nil {
			c.Status = StatusInScope
			c.Err = err
			continue
		}

		c.Migration = mig
		if mig.IsMerge() {
			c.Status = StatusSkippedMerge
		} else {
			c.Status = StatusInScope
		}
	}

	return candidates
}

// underDir reports whether path lies under dir.
func underDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
