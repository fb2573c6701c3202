package weave

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosixQuote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"/usr/local/bin/git-loom", "/usr/local/bin/git-loom"},
		{"", "''"},
		{"/tmp/dir with space/todo", "'/tmp/dir with space/todo'"},
		{"/tmp/it's", `'/tmp/it'\''s'`},
		{"C:/Users/dev/todo.txt", "'C:/Users/dev/todo.txt'"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, posixQuote(tt.in), "posixQuote(%q)", tt.in)
	}
}

func TestCleanRebaseOutput(t *testing.T) {
	t.Parallel()

	in := `error: could not apply deadbee... change things
hint: Resolve all conflicts manually, mark them as resolved with
hint: "git add/rm <conflicted_files>", then run "git rebase --continue".
hint: You can instead skip this commit: run "git rebase --skip".
CONFLICT (content): Merge conflict in a.txt
When you have resolved this problem, run "git rebase --continue".
`
	got := CleanRebaseOutput(in)
	assert.Contains(t, got, "could not apply")
	assert.Contains(t, got, "CONFLICT (content): Merge conflict in a.txt")
	assert.NotContains(t, got, "hint:")
	assert.NotContains(t, got, "git rebase --continue")
}

func TestIsConflict(t *testing.T) {
	t.Parallel()

	assert.True(t, isConflict("CONFLICT (content): Merge conflict in a.txt"))
	assert.True(t, isConflict("error: could not apply abc123"))
	assert.False(t, isConflict("fatal: invalid upstream"))
}

func TestWriteTodo(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := filepath.Join(dir, "source")
	todoFile := filepath.Join(dir, "git-rebase-todo")

	content := "pick abc123 message\nlabel onto\n"
	require.NoError(t, os.WriteFile(source, []byte(content), 0o644))
	require.NoError(t, os.WriteFile(todoFile, []byte("pick someother todo\n"), 0o644))

	require.NoError(t, WriteTodo(source, todoFile))

	got, err := os.ReadFile(todoFile)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))

	assert.Error(t, WriteTodo(filepath.Join(dir, "missing"), todoFile))
}
