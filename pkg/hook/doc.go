// Package hook orchestrates the pre-commit pipeline: scope filtering of the
// staged file set, the optional diff-branch narrowing, the autocommit safety
// check, offline SQL materialization, and linting — aggregated into an
// ordered, reproducible report.
//
// External tools are consumed through small capability interfaces
// (Materializer, Linter, RefOracle) so tests can substitute fakes without
// spawning processes. Files flow through the pipeline independently:
// per-file failures are recorded and surfaced together rather than aborting
// the run, so one invocation reports everything it can find. Only two
// conditions abort early — an unreadable project configuration and an
// unresolvable diff branch — because neither leaves the pipeline anything
// safe to decide.
package hook
