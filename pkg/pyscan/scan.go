package pyscan

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

var (
	// pyLexer tokenizes the Python subset we care about. Prefixed string
	// literals (r"", b"", f"", and two-letter combinations) are captured as a
	// single token so the prefix survives into Unquote.
	pyLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Comment", Pattern: `#[^\n]*`},
		{Name: "TripleString", Pattern: `[rRbBuUfF]{0,2}("""(?:[^"]|"[^"]|""[^"])*"""|'''(?:[^']|'[^']|''[^'])*''')`},
		{Name: "String", Pattern: `[rRbBuUfF]{0,2}("(?:[^"\\\n]|\\.)*"|'(?:[^'\\\n]|\\.)*')`},
		{Name: "Number", Pattern: `\d+(?:\.\d*)?`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
		{Name: "LineCont", Pattern: `\\\r?\n`},
		{Name: "Op", Pattern: `\*\*|//|<<|>>|<=|>=|==|!=|->|[-+*/%@&|^~<>=(){}\[\]:,.;]`},
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	})

	symbols     = pyLexer.Symbols()
	tokComment  = symbols["Comment"]
	tokTriple   = symbols["TripleString"]
	tokString   = symbols["String"]
	tokIdent    = symbols["Ident"]
	tokNumber   = symbols["Number"]
	tokLineCont = symbols["LineCont"]
	tokSpace    = symbols["Whitespace"]
)

type (
	// Stmt is one logical statement: every token from the first token on a
	// physical line through the end of any bracketed or backslash-continued
	// span. Compound one-liners (e.g. "if x: op.execute(...)") remain a
	// single Stmt, which is fine for lexical enclosure checks.
	Stmt struct {
		// Line is the 1-based source line of the statement's first token
		Line int

		// Col is the 1-based column of the statement's first token. Because
		// Python blocks are indentation-delimited, Col doubles as the lexical
		// nesting position of the statement.
		Col int

		// Tokens holds the statement's token stream (comments and whitespace
		// removed)
		Tokens []lexer.Token
	}

	// CallRef is a located call site within a statement. Args contains the
	// tokens between the call's parentheses, including any nested brackets.
	CallRef struct {
		// Line is the 1-based source line of the call's receiver token
		Line int

		// Args holds the tokens inside the call's argument list
		Args []lexer.Token
	}

	// Script is a scanned source file.
	Script struct {
		stmts []Stmt
	}
)

// Parse scans src into a Script. It fails only on input the lexer cannot
// tokenize at all (e.g. an unterminated string literal); structurally invalid
// Python that still tokenizes is accepted, since downstream checks are purely
// lexical.
func Parse(filename, src string) (*Script, error) {
	lx, err := pyLexer.LexString(filename, src)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan %s", filename)
	}

	var toks []lexer.Token
	joins := make(map[int]bool) // indexes in toks preceded by a line continuation

	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to scan %s", filename)
		}
		if tok.EOF() {
			break
		}

		switch tok.Type {
		case tokComment, tokSpace:
			continue
		case tokLineCont:
			joins[len(toks)] = true
			continue
		}

		toks = append(toks, tok)
	}

	return &Script{stmts: groupStmts(toks, joins)}, nil
}

// Stmts returns the script's logical statements in source order.
func (s *Script) Stmts() []Stmt {
	return s.stmts
}

// groupStmts splits a token stream into logical statements. A new statement
// begins at bracket depth zero when a token starts a new physical line that
// is not a backslash continuation. Semicolons at depth zero also terminate a
// statement.
func groupStmts(toks []lexer.Token, joins map[int]bool) []Stmt {
	var (
		stmts []Stmt
		cur   *Stmt
		depth int
	)

	flush := func() {
		if cur != nil && len(cur.Tokens) > 0 {
			stmts = append(stmts, *cur)
		}
		cur = nil
	}

	for i, tok := range toks {
		if depth == 0 && tok.Value == ";" {
			flush()
			continue
		}

		if cur == nil {
			cur = &Stmt{Line: tok.Pos.Line, Col: tok.Pos.Column}
		} else if depth == 0 && !joins[i] {
			last := cur.Tokens[len(cur.Tokens)-1]
			if tok.Pos.Line > last.Pos.Line {
				flush()
				cur = &Stmt{Line: tok.Pos.Line, Col: tok.Pos.Column}
			}
		}

		switch tok.Value {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			if depth > 0 {
				depth--
			}
		}

		cur.Tokens = append(cur.Tokens, tok)
	}
	flush()

	return stmts
}

// Keyword returns the statement's leading identifier ("with", "def",
// "revision", ...) or an empty string when the statement does not start with
// one.
func (s Stmt) Keyword() string {
	if len(s.Tokens) > 0 && s.Tokens[0].Type == tokIdent {
		return s.Tokens[0].Value
	}
	return ""
}

// Calls locates every "recv.name(...)" call site in the statement, at any
// position, and returns the argument token span for each.
func (s Stmt) Calls(recv, name string) []CallRef {
	var calls []CallRef

	for i := 0; i+3 < len(s.Tokens); i++ {
		if s.Tokens[i].Type != tokIdent || s.Tokens[i].Value != recv {
			continue
		}
		if s.Tokens[i+1].Value != "." {
			continue
		}
		if s.Tokens[i+2].Type != tokIdent || s.Tokens[i+2].Value != name {
			continue
		}
		if s.Tokens[i+3].Value != "(" {
			continue
		}

		end := matchParen(s.Tokens, i+3)
		calls = append(calls, CallRef{
			Line: s.Tokens[i].Pos.Line,
			Args: s.Tokens[i+4 : end],
		})
	}

	return calls
}

// HasCall reports whether the statement contains a call to name, regardless
// of receiver (covers both "autocommit_block()" and
// "op.get_context().autocommit_block()").
func (s Stmt) HasCall(name string) bool {
	for i := 0; i+1 < len(s.Tokens); i++ {
		if s.Tokens[i].Type == tokIdent && s.Tokens[i].Value == name && s.Tokens[i+1].Value == "(" {
			return true
		}
	}
	return false
}

// IsIdent reports whether tok is an identifier token.
func IsIdent(tok lexer.Token) bool {
	return tok.Type == tokIdent
}

// IsStringLit reports whether tok is a string literal token (single or
// triple quoted, with or without a prefix).
func IsStringLit(tok lexer.Token) bool {
	return tok.Type == tokString || tok.Type == tokTriple
}

// matchParen returns the index of the closing paren matching the opener at
// open, or len(toks) when unbalanced.
func matchParen(toks []lexer.Token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].Value {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(toks)
}

// StringArg resolves the leading argument of a call to a static string
// literal. It unwraps text(...) and sa.text(...), and joins implicitly
// concatenated literals ("a " "b"). It reports ok=false for anything
// dynamic: f-strings, variables, %-interpolation, .format, or concatenation
// involving a non-literal.
func StringArg(args []lexer.Token) (string, bool) {
	// Unwrap text("...") / sa.text("...")
	if len(args) > 1 && args[0].Type == tokIdent && args[0].Value == "text" && args[1].Value == "(" {
		end := matchParen(args, 1)
		return StringArg(args[2:end])
	}
	if len(args) > 3 && args[0].Type == tokIdent && args[0].Value == "sa" &&
		args[1].Value == "." && args[2].Value == "text" && args[3].Value == "(" {
		end := matchParen(args, 3)
		return StringArg(args[4:end])
	}

	var parts []string
	i := 0
	for ; i < len(args) && (args[i].Type == tokString || args[i].Type == tokTriple); i++ {
		part, ok := Unquote(args[i].Value)
		if !ok {
			return "", false
		}
		parts = append(parts, part)
	}

	if len(parts) == 0 {
		return "", false
	}

	// Literals followed by an operator ("..." % x, "...".format(...),
	// "..." + var) are dynamically computed; don't guess at their value.
	if i < len(args) && args[i].Value != "," {
		return "", false
	}

	return strings.Join(parts, ""), true
}

// TruthyKeyword reports whether the argument list contains keyword=name with
// a statically truthy value (True, a non-zero number, or a non-empty string
// literal). Only top-level keywords count; the same name inside a nested call
// does not.
func TruthyKeyword(args []lexer.Token, name string) bool {
	depth := 0
	for i := 0; i+2 < len(args); i++ {
		switch args[i].Value {
		case "(", "[", "{":
			depth++
			continue
		case ")", "]", "}":
			depth--
			continue
		}

		if depth != 0 || args[i].Type != tokIdent || args[i].Value != name || args[i+1].Value != "=" {
			continue
		}

		v := args[i+2]
		switch v.Type {
		case tokIdent:
			return v.Value == "True"
		case tokNumber:
			return v.Value != "0" && v.Value != "0.0"
		case tokString, tokTriple:
			s, ok := Unquote(v.Value)
			return ok && s != ""
		}
		return false
	}
	return false
}

// Unquote decodes a Python string literal token, including prefixed and
// triple-quoted forms. f-strings report ok=false since their value is not
// static. Raw strings keep their backslashes verbatim.
func Unquote(lit string) (string, bool) {
	raw := false

	// Strip up to two prefix letters (r, b, u, f in either case).
	for len(lit) > 0 && lit[0] != '"' && lit[0] != '\'' {
		switch lit[0] {
		case 'f', 'F':
			return "", false
		case 'r', 'R':
			raw = true
		}
		lit = lit[1:]
	}

	switch {
	case strings.HasPrefix(lit, `"""`) || strings.HasPrefix(lit, "'''"):
		lit = lit[3 : len(lit)-3]
	case len(lit) >= 2:
		lit = lit[1 : len(lit)-1]
	default:
		return "", false
	}

	if raw || !strings.Contains(lit, `\`) {
		return lit, true
	}

	var b strings.Builder
	for i := 0; i < len(lit); i++ {
		if lit[i] != '\\' || i+1 == len(lit) {
			b.WriteByte(lit[i])
			continue
		}

		i++
		switch lit[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\', '\'', '"':
			b.WriteByte(lit[i])
		default:
			// Python leaves unrecognized escapes intact
			b.WriteByte('\\')
			b.WriteByte(lit[i])
		}
	}

	return b.String(), true
}
