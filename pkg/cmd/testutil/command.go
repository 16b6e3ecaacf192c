// Package testutil provides helpers for exercising CLI commands in tests
// without the fx application wiring.
package testutil

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/urfave/cli/v3"
)

// RunCommand executes a command inside a minimal test app, discarding its
// output.
func RunCommand(t *testing.T, command *cli.Command, args []string) error {
	t.Helper()

	_, err := RunCommandOutput(t, command, args)
	return err
}

// RunCommandOutput executes a command inside a minimal test app and returns
// everything it wrote to stdout.
func RunCommandOutput(t *testing.T, command *cli.Command, args []string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	app := &cli.Command{
		Name:      "test",
		Commands:  []*cli.Command{command},
		Writer:    &out,
		ErrWriter: io.Discard,
	}

	fullArgs := append([]string{"test", command.Name}, args...)
	err := app.Run(context.Background(), fullArgs)

	return out.String(), err
}
