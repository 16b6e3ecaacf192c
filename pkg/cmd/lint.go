package cmd

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/pseudomuto/birdwatch/pkg/alembic"
	"github.com/pseudomuto/birdwatch/pkg/config"
	"github.com/pseudomuto/birdwatch/pkg/gitx"
	"github.com/pseudomuto/birdwatch/pkg/hook"
	"github.com/pseudomuto/birdwatch/pkg/offline"
	"github.com/pseudomuto/birdwatch/pkg/squawk"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type lintParams struct {
	fx.In

	Config *config.Config
}

// lint creates the lint command, the hook's main entry point.
//
// Command flags:
//   - --diff-branch: only lint migrations not already present on this branch
//   - --alembic-config: alternate alembic.ini path
//
// Example usage:
//
//	# Lint the staged migrations pre-commit handed us
//	birdwatch lint migrations/versions/0001_add_users.py
//
//	# Only migrations new relative to main
//	birdwatch lint --diff-branch main migrations/versions/0001_add_users.py
func lint(p lintParams) *cli.Command {
	return &cli.Command{
		Name:      "lint",
		Usage:     "Check staged migrations and lint their SQL with squawk",
		ArgsUsage: "[files...]",
		Description: `Check the given migration files and lint the SQL they would execute.

For each file inside the Alembic versions directory, the command:

- Skips merge migrations (they execute no DDL of their own)
- Verifies CONCURRENTLY operations are wrapped in autocommit blocks
- Generates the migration's SQL with "alembic upgrade <down>:<rev> --sql"
- Pipes that SQL to squawk and records its findings

Per-file failures don't stop the remaining files; everything is reported at
the end in input order. With --diff-branch, migrations that already exist on
the named branch are skipped so a newly adopted rule set doesn't flag
history that has already shipped.

Squawk reads its own .squawk.toml from the working directory as usual;
birdwatch does not interpret it.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "diff-branch",
				Usage: "Only lint migrations not present on this branch",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.StringFlag{
				Name:  "alembic-config",
				Usage: "Path to alembic.ini",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runLint(ctx, cmd, p)
		},
	}
}

func runLint(ctx context.Context, cmd *cli.Command, p lintParams) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return nil
	}

	iniPath := cmd.String("alembic-config")
	if iniPath == "" {
		iniPath = p.Config.AlembicConfig
	}

	diffBranch := cmd.String("diff-branch")
	if diffBranch == "" {
		diffBranch = p.Config.DiffBranch
	}

	scriptCfg, err := alembic.LoadScriptConfigFile(iniPath)
	if err != nil {
		return err
	}

	slog.Debug("Linting staged migrations",
		"files", len(files),
		"versions_dir", scriptCfg.VersionsDir(),
		"diff_branch", diffBranch,
	)

	pipeline := hook.New(hook.Config{
		VersionsDir: scriptCfg.VersionsDir(),
		Materializer: offline.New(offline.Config{
			Alembic:        p.Config.Alembic,
			ConfigPath:     iniPath,
			DatabaseURLVar: p.Config.DatabaseURLVar,
			DatabaseURL:    p.Config.ResolveDatabaseURL(),
		}),
		Linter:     squawk.New(p.Config.Squawk, p.Config.SquawkArgs...),
		Oracle:     &gitx.Repo{},
		DiffBranch: diffBranch,
	})

	report, err := pipeline.Run(ctx, files)
	if err != nil {
		return err
	}

	report.Render(cmd.Root().Writer)

	if !report.OK() {
		return errors.Errorf("%d migration(s) with problems", report.ProblemCount())
	}

	return nil
}
