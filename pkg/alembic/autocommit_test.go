package alembic_test

import (
	"testing"

	. "github.com/pseudomuto/birdwatch/pkg/alembic"
	"github.com/stretchr/testify/require"
)

func check(t *testing.T, src string) []Finding {
	t.Helper()

	findings, err := CheckAutocommit("migration.py", src)
	require.NoError(t, err)
	return findings
}

func TestCheckAutocommitExecute(t *testing.T) {
	t.Run("wrapped create index", func(t *testing.T) {
		findings := check(t, `
from alembic import op

def upgrade():
    with op.get_context().autocommit_block():
        op.execute("CREATE INDEX CONCURRENTLY ix_foo ON bar (baz)")
`)
		require.Len(t, findings, 1)
		require.True(t, findings[0].Wrapped)
		require.Empty(t, Unwrapped(findings))
	})

	t.Run("wrapped drop index", func(t *testing.T) {
		findings := check(t, `
def upgrade():
    with op.get_context().autocommit_block():
        op.execute("DROP INDEX CONCURRENTLY ix_foo")
`)
		require.Empty(t, Unwrapped(findings))
	})

	t.Run("multiple wrapped ops", func(t *testing.T) {
		findings := check(t, `
def upgrade():
    with op.get_context().autocommit_block():
        op.execute("DROP INDEX CONCURRENTLY IF EXISTS ix_old")
        op.execute("CREATE INDEX CONCURRENTLY ix_new ON bar (baz)")
`)
		require.Len(t, findings, 2)
		require.Empty(t, Unwrapped(findings))
	})

	t.Run("unwrapped create index", func(t *testing.T) {
		findings := check(t, `
def upgrade():
    op.execute("CREATE INDEX CONCURRENTLY ix_foo ON bar (baz)")
`)
		require.Len(t, Unwrapped(findings), 1)
		require.Equal(t, "op.execute", findings[0].Call)
		require.Equal(t, 3, findings[0].Line)
	})

	t.Run("case insensitive", func(t *testing.T) {
		findings := check(t, `
def upgrade():
    op.execute("create index concurrently ix_foo on bar (baz)")
`)
		require.Len(t, Unwrapped(findings), 1)
	})

	t.Run("mixed inside and outside", func(t *testing.T) {
		findings := check(t, `
def upgrade():
    op.execute("CREATE INDEX CONCURRENTLY ix_bad ON bar (baz)")
    with op.get_context().autocommit_block():
        op.execute("CREATE INDEX CONCURRENTLY ix_good ON bar (qux)")
`)
		violations := Unwrapped(findings)
		require.Len(t, violations, 1)
		require.Equal(t, 3, violations[0].Line)
	})

	t.Run("wrap survives intervening conditionals and loops", func(t *testing.T) {
		findings := check(t, `
def upgrade():
    with op.get_context().autocommit_block():
        if should_index:
            for name in names:
                op.execute("CREATE INDEX CONCURRENTLY ix ON t (c)")
`)
		require.Len(t, findings, 1)
		require.True(t, findings[0].Wrapped)
	})

	t.Run("dedent closes the block", func(t *testing.T) {
		findings := check(t, `
def upgrade():
    with op.get_context().autocommit_block():
        op.execute("CREATE INDEX CONCURRENTLY ix_a ON t (c)")
    op.execute("CREATE INDEX CONCURRENTLY ix_b ON t (c)")
`)
		violations := Unwrapped(findings)
		require.Len(t, violations, 1)
		require.Equal(t, 5, violations[0].Line)
	})

	t.Run("text wrapper and concatenation", func(t *testing.T) {
		findings := check(t, `
def upgrade():
    op.execute(sa.text("CREATE INDEX CONCURRENTLY ix_foo " "ON bar (baz)"))
`)
		require.Len(t, Unwrapped(findings), 1)
	})
}

func TestCheckAutocommitIndexCalls(t *testing.T) {
	t.Run("wrapped create_index", func(t *testing.T) {
		findings := check(t, `
def upgrade():
    with op.get_context().autocommit_block():
        op.create_index("ix_foo", "bar", ["baz"], postgresql_concurrently=True)
`)
		require.Len(t, findings, 1)
		require.Empty(t, Unwrapped(findings))
	})

	t.Run("unwrapped create_index", func(t *testing.T) {
		findings := check(t, `
def upgrade():
    op.create_index("ix_foo", "bar", ["baz"], postgresql_concurrently=True)
`)
		violations := Unwrapped(findings)
		require.Len(t, violations, 1)
		require.Equal(t, "op.create_index", violations[0].Call)
	})

	t.Run("unwrapped drop_index", func(t *testing.T) {
		findings := check(t, `
def upgrade():
    op.drop_index("ix_foo", postgresql_concurrently=True)
`)
		require.Len(t, Unwrapped(findings), 1)
	})

	t.Run("non-concurrent create_index", func(t *testing.T) {
		require.Empty(t, check(t, `
def upgrade():
    op.create_index("ix_foo", "bar", ["baz"])
`))
	})
}

func TestCheckAutocommitNoFalsePositives(t *testing.T) {
	t.Run("plain index", func(t *testing.T) {
		require.Empty(t, check(t, `
def upgrade():
    op.execute("CREATE INDEX ix_foo ON bar (baz)")
`))
	})

	t.Run("no execute calls", func(t *testing.T) {
		require.Empty(t, check(t, `
def upgrade():
    op.add_column('users', sa.Column('email', sa.String(255)))
`))
	})

	t.Run("unrelated string", func(t *testing.T) {
		require.Empty(t, check(t, `
def upgrade():
    op.execute("SET lock_timeout = '10s'")
`))
	})

	t.Run("dynamically built sql is not matched", func(t *testing.T) {
		// Known limitation, by contract: values the scanner can't resolve
		// statically are never flagged.
		require.Empty(t, check(t, `
def upgrade():
    op.execute(f"CREATE INDEX CONCURRENTLY {name} ON bar (baz)")
`))
	})
}
