// Package squawk drives the external squawk linter as a subprocess, feeding
// it SQL on stdin and capturing its findings. The linter's own configuration
// (.squawk.toml in the working directory) is discovered by squawk itself and
// deliberately not interpreted here.
package squawk

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

type (
	// Linter invokes the squawk binary. The zero value is not usable; use
	// New.
	Linter struct {
		bin  string
		args []string
	}
)

// New creates a Linter for the given binary and extra arguments. Extra
// arguments are passed through verbatim, ahead of stdin.
func New(bin string, args ...string) *Linter {
	return &Linter{bin: bin, args: args}
}

// Lint pipes sql to squawk on stdin and returns its combined human-readable
// output and exit code. Exit code 0 means clean; non-zero means findings (or
// a squawk-internal error, which squawk reports the same way). A missing
// binary is a tool error, returned as err.
func (l *Linter) Lint(ctx context.Context, sql string) (string, int, error) {
	var out bytes.Buffer

	cmd := exec.CommandContext(ctx, l.bin, l.args...)
	cmd.Stdin = strings.NewReader(sql)
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out.String(), exitErr.ExitCode(), nil
		}
		return "", 0, errors.Wrapf(err, "failed to run %s", l.bin)
	}

	return out.String(), 0, nil
}
