package log

import (
	"bytes"
	"context"
	"testing"
)

func TestPrintf(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(&buf, false)
	l.Printf("hello %s %d", "world", 42)
	if got := buf.String(); got != "hello world 42" {
		t.Errorf("Printf output = %q, want %q", got, "hello world 42")
	}
}

func TestCommand(t *testing.T) {
	t.Parallel()

	t.Run("silent by default", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		l := New(&buf, false)
		l.Command("git", "status")
		if buf.Len() != 0 {
			t.Errorf("Command wrote %q without verbose", buf.String())
		}
	})

	t.Run("verbose echoes the command", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		l := New(&buf, true)
		l.Command("git", "rebase", "--abort")
		if got := buf.String(); got != "$ git rebase --abort\n" {
			t.Errorf("Command output = %q", got)
		}
	})
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		l := New(&buf, true)
		ctx := WithLogger(context.Background(), l)
		if got := FromContext(ctx); got != l {
			t.Error("FromContext did not return the attached logger")
		}
	})

	t.Run("missing logger is a no-op", func(t *testing.T) {
		t.Parallel()
		l := FromContext(context.Background())
		l.Println("discarded")
		if l.Verbose() {
			t.Error("default logger should not be verbose")
		}
	})
}
