// Package alembic understands just enough of an Alembic project to lint it:
// the alembic.ini configuration file, the revision metadata embedded in
// migration scripts, and the autocommit discipline required around
// concurrent index operations.
//
// # Core Components
//
//   - ScriptConfig: parsed alembic.ini with the resolved versions directory
//   - Migration: one migration script's revision identifiers
//   - Finding: one concurrent-index operation and whether it is wrapped in
//     an autocommit block
//
// Migration sources are inspected lexically via pyscan; nothing is ever
// imported or executed. The package deliberately refuses to resolve
// dynamically built SQL (f-strings, .format, %-interpolation) when looking
// for CONCURRENTLY operations. That trades false negatives for a check that
// never cries wolf on computed statements it cannot read.
package alembic
