package alembic

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/birdwatch/pkg/pyscan"
)

type (
	// Finding records one concurrent-index operation discovered in a
	// migration script. An unwrapped finding is a hard violation: CREATE/DROP
	// INDEX CONCURRENTLY cannot run inside the implicit transaction Alembic
	// opens around a migration, so the call must be lexically enclosed in a
	// with op.get_context().autocommit_block() scope.
	Finding struct {
		// Line is the 1-based source line of the offending call
		Line int

		// Call names the triggering operation, e.g. "op.execute" or
		// "op.create_index"
		Call string

		// Wrapped reports whether the call site is lexically inside an
		// autocommit block, at any nesting depth
		Wrapped bool
	}
)

// Unwrapped filters findings down to the violations.
func Unwrapped(findings []Finding) []Finding {
	var out []Finding
	for _, f := range findings {
		if !f.Wrapped {
			out = append(out, f)
		}
	}
	return out
}

// CheckAutocommitFile reads and checks a migration script.
func CheckAutocommitFile(path string) ([]Finding, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &MalformedMigrationError{Path: path, Err: errors.Wrap(err, "failed to read file")}
	}

	return CheckAutocommit(path, string(src))
}

// CheckAutocommit scans migration source for concurrent-index operations and
// reports, per occurrence, whether the call is wrapped in an autocommit
// block.
//
// Two shapes trigger a finding:
//
//   - op.execute(...) whose statically-resolvable string argument contains
//     CONCURRENTLY (case-insensitive), including text(...)/sa.text(...)
//     wrappers and implicit literal concatenation
//   - op.create_index(...)/op.drop_index(...) with a truthy
//     postgresql_concurrently keyword
//
// Enclosure is lexical: a "with ... autocommit_block():" statement wraps
// every statement indented under it, through any intervening conditionals or
// loops. SQL the scanner cannot resolve statically is not matched at all;
// see the package documentation for why.
func CheckAutocommit(path, src string) ([]Finding, error) {
	script, err := pyscan.Parse(path, src)
	if err != nil {
		return nil, &MalformedMigrationError{Path: path, Err: err}
	}

	var (
		findings []Finding
		wrapCols []int // indent columns of the open autocommit blocks
	)

	for _, stmt := range script.Stmts() {
		// Close any blocks this statement has dedented out of.
		for len(wrapCols) > 0 && stmt.Col <= wrapCols[len(wrapCols)-1] {
			wrapCols = wrapCols[:len(wrapCols)-1]
		}

		// Push before inspecting calls so a one-liner body
		// ("with ...autocommit_block(): op.execute(...)") counts as wrapped.
		if stmt.Keyword() == "with" && stmt.HasCall("autocommit_block") {
			wrapCols = append(wrapCols, stmt.Col)
		}

		wrapped := len(wrapCols) > 0

		for _, call := range stmt.Calls("op", "execute") {
			sql, ok := pyscan.StringArg(call.Args)
			if !ok || !strings.Contains(strings.ToLower(sql), "concurrently") {
				continue
			}
			findings = append(findings, Finding{Line: call.Line, Call: "op.execute", Wrapped: wrapped})
		}

		for _, name := range []string{"create_index", "drop_index"} {
			for _, call := range stmt.Calls("op", name) {
				if !pyscan.TruthyKeyword(call.Args, "postgresql_concurrently") {
					continue
				}
				findings = append(findings, Finding{Line: call.Line, Call: "op." + name, Wrapped: wrapped})
			}
		}
	}

	return findings, nil
}
