package hook

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pseudomuto/birdwatch/pkg/alembic"
)

type (
	// FileResult is the complete outcome for one file, in every stage it
	// reached.
	FileResult struct {
		// Path is the file as supplied by the pre-commit framework
		Path string

		// Status is the scope decision
		Status ScopeStatus

		// Findings are the concurrent-index occurrences, wrapped and not
		Findings []alembic.Finding

		// SQL is the materialized offline SQL (empty when a stage failed)
		SQL string

		// LintOutput is the linter's verbatim output
		LintOutput string

		// LintExitCode is the linter's exit code; 0 means clean
		LintExitCode int

		// Err records a per-file failure: malformed revision metadata or a
		// materialization error
		Err error
	}

	// Report is the ordered aggregation of one run. File order matches the
	// order the changed files were supplied in, so output diffs cleanly
	// across runs.
	Report struct {
		// DiffBranch is the reference the run was narrowed to, if any
		DiffBranch string

		// Files holds per-file results in discovery order
		Files []*FileResult
	}
)

var (
	okColor   = color.New(color.FgGreen)
	skipColor = color.New(color.Faint)
	badColor  = color.New(color.FgRed)
)

// Violations returns the unwrapped concurrent-index findings for this file.
func (r *FileResult) Violations() []alembic.Finding {
	return alembic.Unwrapped(r.Findings)
}

// OK reports whether this file passed every stage it was subject to. Skipped
// files are trivially OK.
func (r *FileResult) OK() bool {
	if r.Status != StatusInScope {
		return true
	}
	return r.Err == nil && len(r.Violations()) == 0 && r.LintExitCode == 0
}

// OK reports whether the whole run passed: every file OK, no violations, no
// failures, no findings.
func (r *Report) OK() bool {
	for _, f := range r.Files {
		if !f.OK() {
			return false
		}
	}
	return true
}

// ProblemCount returns the number of files that did not pass.
func (r *Report) ProblemCount() int {
	n := 0
	for _, f := range r.Files {
		if !f.OK() {
			n++
		}
	}
	return n
}

// Render writes the per-file outcomes and a summary line to w.
func (r *Report) Render(w io.Writer) {
	for _, f := range r.Files {
		r.renderFile(w, f)
	}

	if len(r.Files) == 0 {
		return
	}

	if r.OK() {
		okColor.Fprintf(w, "%d migration(s) checked, no problems\n", len(r.Files))
		return
	}

	badColor.Fprintf(w, "%d migration(s) checked, %d with problems\n", len(r.Files), r.ProblemCount())
}

func (r *Report) renderFile(w io.Writer, f *FileResult) {
	switch f.Status {
	case StatusSkippedMerge, StatusSkippedOutsideDir:
		skipColor.Fprintf(w, "%s: %s\n", f.Path, f.Status)
		return
	case StatusSkippedOnBranch:
		skipColor.Fprintf(w, "%s: skipped: already on %s\n", f.Path, r.DiffBranch)
		return
	}

	for _, v := range f.Violations() {
		badColor.Fprintf(w, "%s:%d: %s: CONCURRENTLY operation outside autocommit_block()\n", f.Path, v.Line, v.Call)
	}

	if f.Err != nil {
		badColor.Fprintf(w, "%s: %v\n", f.Path, f.Err)
		return
	}

	if f.LintExitCode != 0 {
		badColor.Fprintf(w, "%s: squawk exited %d\n", f.Path, f.LintExitCode)
		if out := strings.TrimSpace(f.LintOutput); out != "" {
			fmt.Fprintln(w, out)
		}
		return
	}

	if len(f.Violations()) == 0 {
		okColor.Fprintf(w, "%s: ok\n", f.Path)
	}
}
