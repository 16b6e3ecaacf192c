// Package cmd provides the birdwatch CLI commands and their fx wiring.
//
// Commands are provided into the "commands" value group and assembled into
// the root application by Run. The lint command is the pre-commit entry
// point; extract exists for debugging failed hook runs.
package cmd
