// Package pyscan provides a lexical scanner for Python migration sources.
//
// The scanner is deliberately not a Python parser. It tokenizes a source file
// and groups tokens into logical statements (a physical line plus any bracket
// or backslash continuations), exposing just enough structure for static
// inspection: statement indentation, leading keyword, call sites by
// receiver/method name, and statically-resolvable string arguments.
//
// Anything the scanner cannot resolve statically (f-strings, variables,
// str.format, % interpolation, concatenation with non-literals) is reported
// as "no literal" rather than guessed at. Callers that match on string
// content therefore favor false negatives over false positives.
//
// # Core Types
//
//   - Script: a scanned source file as an ordered list of statements
//   - Stmt: one logical statement with its line, column and token stream
//   - CallRef: a call site located within a statement
//
// # Usage Example
//
//	script, err := pyscan.Parse("0001_add_users.py", src)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, stmt := range script.Stmts() {
//		for _, call := range stmt.Calls("op", "execute") {
//			if sql, ok := pyscan.StringArg(call.Args); ok {
//				fmt.Printf("%d: %s\n", call.Line, sql)
//			}
//		}
//	}
package pyscan
