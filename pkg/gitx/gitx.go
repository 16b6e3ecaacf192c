// Package gitx answers the one version-control question the hook needs:
// does a file exist at a reference branch's tip? Queries shell out to git so
// the behavior matches whatever the host repository is configured to do.
package gitx

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

type (
	// Repo runs git queries against the repository rooted at Dir.
	Repo struct {
		// Dir is the working directory for git invocations. Empty means the
		// current directory.
		Dir string
	}

	// ReferenceError indicates a reference branch could not be resolved. It
	// is fatal: treating an unresolvable ref as "file not present" would
	// silently widen the lint scope decision in the wrong direction.
	ReferenceError struct {
		// Ref is the reference that failed to resolve
		Ref string

		// Err is the underlying cause
		Err error
	}
)

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("reference %s: %v", e.Ref, e.Err)
}

func (e *ReferenceError) Unwrap() error { return e.Err }

// VerifyRef confirms that ref resolves to a commit, returning a
// *ReferenceError otherwise. Called once up front so per-file existence
// queries can trust the ref.
func (r *Repo) VerifyRef(ctx context.Context, ref string) error {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	cmd.Dir = r.Dir

	if err := cmd.Run(); err != nil {
		return &ReferenceError{Ref: ref, Err: errors.Wrap(err, "not a resolvable commit")}
	}

	return nil
}

// FileExistsAt reports whether path exists in the tree at ref. The path is
// interpreted relative to the repository root, which is how the pre-commit
// framework hands paths to hooks.
func (r *Repo) FileExistsAt(ctx context.Context, ref, path string) (bool, error) {
	var out bytes.Buffer

	cmd := exec.CommandContext(ctx, "git", "ls-tree", "--name-only", ref, "--", path)
	cmd.Dir = r.Dir
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return false, &ReferenceError{Ref: ref, Err: errors.Wrapf(err, "failed to query %s", path)}
	}

	return strings.TrimSpace(out.String()) != "", nil
}
