package hook_test

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/pseudomuto/birdwatch/pkg/alembic"
	. "github.com/pseudomuto/birdwatch/pkg/hook"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/golden"
)

func TestReportOK(t *testing.T) {
	report := &Report{Files: []*FileResult{
		{Path: "a.py", Status: StatusInScope},
		{Path: "b.py", Status: StatusSkippedMerge},
	}}
	require.True(t, report.OK())
	require.Equal(t, 0, report.ProblemCount())

	report.Files = append(report.Files, &FileResult{
		Path:   "c.py",
		Status: StatusInScope,
		Findings: []alembic.Finding{
			{Line: 10, Call: "op.execute", Wrapped: false},
		},
	})
	require.False(t, report.OK())
	require.Equal(t, 1, report.ProblemCount())
}

func TestReportWrappedFindingsAreFine(t *testing.T) {
	report := &Report{Files: []*FileResult{
		{
			Path:   "a.py",
			Status: StatusInScope,
			Findings: []alembic.Finding{
				{Line: 5, Call: "op.execute", Wrapped: true},
			},
		},
	}}
	require.True(t, report.OK())
}

func TestReportRender(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	report := &Report{
		DiffBranch: "main",
		Files: []*FileResult{
			{
				Path:   "migrations/versions/0001_add_email.py",
				Status: StatusInScope,
			},
			{
				Path:   "migrations/versions/0002_merge.py",
				Status: StatusSkippedMerge,
			},
			{
				Path:   "migrations/versions/0003_shipped.py",
				Status: StatusSkippedOnBranch,
			},
			{
				Path:   "migrations/versions/0004_concurrent.py",
				Status: StatusInScope,
				Findings: []alembic.Finding{
					{Line: 7, Call: "op.execute", Wrapped: false},
				},
			},
			{
				Path:   "migrations/versions/0005_broken.py",
				Status: StatusInScope,
				Err:    errors.New("failed to materialize 0005: Can't locate revision"),
			},
			{
				Path:         "migrations/versions/0006_risky.py",
				Status:       StatusInScope,
				LintOutput:   "warning: prefer-robust-stmts\n",
				LintExitCode: 1,
			},
		},
	}

	var buf bytes.Buffer
	report.Render(&buf)

	golden.Assert(t, buf.String(), "report.golden")
}

func TestReportRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	(&Report{}).Render(&buf)
	require.Empty(t, buf.String())
}
