package alembic

import (
	"os"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
	"github.com/pseudomuto/birdwatch/pkg/pyscan"
)

type (
	// Migration identifies one migration script by the revision metadata
	// Alembic embeds as module-level assignments:
	//
	//	revision = "abc123"
	//	down_revision = "def456"          # or None, or ("a", "b") for merges
	//
	// Both the classic form and the type-annotated template form
	// ("revision: str = ...") are recognized.
	Migration struct {
		// Path is the migration script's filesystem path
		Path string

		// Revision is the script's revision identifier
		Revision string

		// DownRevisions holds the parent revision identifiers. Empty for a
		// root migration, one element normally, and multiple elements for a
		// merge migration.
		DownRevisions []string
	}
)

// IsMerge reports whether the migration reconciles multiple histories. Merge
// migrations execute no DDL of their own, so there is nothing to materialize
// or lint.
func (m *Migration) IsMerge() bool {
	return len(m.DownRevisions) > 1
}

// IsRoot reports whether the migration has no parent (down_revision = None).
func (m *Migration) IsRoot() bool {
	return len(m.DownRevisions) == 0
}

// ScanRevisionFile reads and scans a migration script for revision metadata.
func ScanRevisionFile(path string) (*Migration, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &MalformedMigrationError{Path: path, Err: errors.Wrap(err, "failed to read file")}
	}

	return ScanRevision(path, string(src))
}

// ScanRevision scans migration source for the module-level revision and
// down_revision assignments. A script without a revision identifier returns
// a *MalformedMigrationError; a missing down_revision is treated as a root
// migration.
func ScanRevision(path, src string) (*Migration, error) {
	script, err := pyscan.Parse(path, src)
	if err != nil {
		return nil, &MalformedMigrationError{Path: path, Err: err}
	}

	m := &Migration{Path: path}

	for _, stmt := range script.Stmts() {
		if stmt.Col != 1 {
			continue
		}

		name, value := splitAssignment(stmt.Tokens)
		switch name {
		case "revision":
			if id, ok := singleString(value); ok {
				m.Revision = id
			}
		case "down_revision":
			downs, ok := downRevisions(value)
			if !ok {
				return nil, &MalformedMigrationError{Path: path, Err: errors.New("unreadable down_revision value")}
			}
			m.DownRevisions = downs
		}
	}

	if m.Revision == "" {
		return nil, &MalformedMigrationError{Path: path, Err: errors.New("no revision identifier")}
	}

	return m, nil
}

// splitAssignment recognizes "name = value" and the annotated
// "name: Annotation = value" form, returning the value's token span. Any
// other statement shape returns an empty name.
func splitAssignment(toks []lexer.Token) (string, []lexer.Token) {
	if len(toks) < 3 || !pyscan.IsIdent(toks[0]) {
		return "", nil
	}

	eq := -1
	switch toks[1].Value {
	case "=":
		eq = 1
	case ":":
		// Skip the annotation, which may itself contain brackets
		// (Union[str, None]).
		depth := 0
		for i := 2; i < len(toks); i++ {
			switch toks[i].Value {
			case "[", "(":
				depth++
			case "]", ")":
				depth--
			case "=":
				if depth == 0 {
					eq = i
				}
			}
			if eq != -1 {
				break
			}
		}
	}

	if eq == -1 || eq+1 >= len(toks) {
		return "", nil
	}

	return toks[0].Value, toks[eq+1:]
}

// singleString resolves a value span to one static string literal.
func singleString(toks []lexer.Token) (string, bool) {
	if len(toks) == 0 || !pyscan.IsStringLit(toks[0]) {
		return "", false
	}
	return pyscan.Unquote(toks[0].Value)
}

// downRevisions interprets a down_revision value: None, a single string, or
// a tuple/list of strings for merge migrations.
func downRevisions(toks []lexer.Token) ([]string, bool) {
	if len(toks) == 0 {
		return nil, false
	}

	switch {
	case pyscan.IsIdent(toks[0]) && toks[0].Value == "None":
		return nil, true

	case pyscan.IsStringLit(toks[0]):
		id, ok := pyscan.Unquote(toks[0].Value)
		if !ok {
			return nil, false
		}
		return []string{id}, true

	case toks[0].Value == "(" || toks[0].Value == "[":
		var ids []string
		for _, tok := range toks[1:] {
			if tok.Value == ")" || tok.Value == "]" {
				break
			}
			if pyscan.IsStringLit(tok) {
				id, ok := pyscan.Unquote(tok.Value)
				if !ok {
					return nil, false
				}
				ids = append(ids, id)
			}
		}
		return ids, true
	}

	return nil, false
}
