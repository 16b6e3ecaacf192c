package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/pseudomuto/birdwatch/pkg/alembic"
	"github.com/pseudomuto/birdwatch/pkg/hook"
	"github.com/pseudomuto/birdwatch/pkg/offline"
	"github.com/urfave/cli/v3"
)

// extract creates the extract command, a debugging aid that prints the SQL
// the given migrations would execute without invoking the linter. Useful for
// answering "what did squawk actually see?" when a hook run fails.
func extract(p lintParams) *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Print the SQL the given migrations would execute",
		ArgsUsage: "[files...]",
		Description: `Materialize each migration's SQL via alembic's offline mode and print it
to stdout, prefixed with the source file. Scope filtering matches the lint
command: files outside the versions directory and merge migrations are
skipped.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "alembic-config",
				Usage: "Path to alembic.ini",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runExtract(ctx, cmd, p)
		},
	}
}

func runExtract(ctx context.Context, cmd *cli.Command, p lintParams) error {
	files := cmd.Args().Slice()
	if len(files) == 0 {
		return nil
	}

	iniPath := cmd.String("alembic-config")
	if iniPath == "" {
		iniPath = p.Config.AlembicConfig
	}

	scriptCfg, err := alembic.LoadScriptConfigFile(iniPath)
	if err != nil {
		return err
	}

	mat := offline.New(offline.Config{
		Alembic:        p.Config.Alembic,
		ConfigPath:     iniPath,
		DatabaseURLVar: p.Config.DatabaseURLVar,
		DatabaseURL:    p.Config.ResolveDatabaseURL(),
	})

	failed := 0

	for _, c := range hook.FilterScope(scriptCfg.VersionsDir(), files) {
		if c.Status != hook.StatusInScope {
			continue
		}

		if c.Err != nil {
			fmt.Fprintf(cmd.Root().ErrWriter, "%v\n", c.Err)
			failed++
			continue
		}

		sql, err := mat.MaterializeSQL(ctx, c.Migration)
		if err != nil {
			fmt.Fprintf(cmd.Root().ErrWriter, "%v\n", err)
			failed++
			continue
		}

		fmt.Fprintf(cmd.Root().Writer, "-- %s\n%s\n", c.Path, sql)
	}

	if failed > 0 {
		return errors.Errorf("%d migration(s) failed to materialize", failed)
	}

	return nil
}
