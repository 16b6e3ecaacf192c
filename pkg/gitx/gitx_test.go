package gitx_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/birdwatch/pkg/consts"
	. "github.com/pseudomuto/birdwatch/pkg/gitx"
	"github.com/stretchr/testify/require"
)

// initRepo creates a repository with one committed file on branch "main" and
// returns its directory.
func initRepo(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()

		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}

	run("init", "-b", "main")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "migrations", "versions"), consts.ModeDir))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "migrations", "versions", "0001_add_users.py"),
		[]byte("revision = '0001'\ndown_revision = None\n"),
		consts.ModeFile,
	))

	run("add", ".")
	run("commit", "-m", "add first migration")

	return dir
}

func TestVerifyRef(t *testing.T) {
	repo := &Repo{Dir: initRepo(t)}
	ctx := context.Background()

	require.NoError(t, repo.VerifyRef(ctx, "main"))

	err := repo.VerifyRef(ctx, "does-not-exist")
	require.Error(t, err)

	var refErr *ReferenceError
	require.ErrorAs(t, err, &refErr)
	require.Equal(t, "does-not-exist", refErr.Ref)
}

func TestFileExistsAt(t *testing.T) {
	repo := &Repo{Dir: initRepo(t)}
	ctx := context.Background()

	exists, err := repo.FileExistsAt(ctx, "main", "migrations/versions/0001_add_users.py")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.FileExistsAt(ctx, "main", "migrations/versions/0002_not_yet.py")
	require.NoError(t, err)
	require.False(t, exists)
}
