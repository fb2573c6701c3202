package main

import (
	"reflect"
	"testing"
)

func TestParseHunkHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line  string
		start int
		ok    bool
	}{
		{"@@ -12,4 +12,6 @@ func main() {", 12, true},
		{"@@ -1 +1,2 @@", 1, true},
		{"+++ b/file.go", 0, false},
		{"context line", 0, false},
		{"@@ -x,4 +1,2 @@", 0, false},
	}
	for _, tt := range tests {
		start, ok := parseHunkHeader(tt.line)
		if ok != tt.ok || start != tt.start {
			t.Errorf("parseHunkHeader(%q) = (%d, %v), want (%d, %v)", tt.line, start, ok, tt.start, tt.ok)
		}
	}
}

func TestParseModifiedLines(t *testing.T) {
	t.Parallel()

	t.Run("modified lines map to original numbers", func(t *testing.T) {
		t.Parallel()
		diff := `diff --git a/f.txt b/f.txt
--- a/f.txt
+++ b/f.txt
@@ -2,3 +2,3 @@
 context
-old line three
+new line three
 context
`
		got := parseModifiedLines(diff)
		want := []int{3}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("parseModifiedLines = %v, want %v", got, want)
		}
	})

	t.Run("pure addition yields nothing", func(t *testing.T) {
		t.Parallel()
		diff := `--- a/f.txt
+++ b/f.txt
@@ -5,0 +6,2 @@
+added one
+added two
`
		if got := parseModifiedLines(diff); len(got) != 0 {
			t.Errorf("parseModifiedLines = %v, want empty", got)
		}
	})

	t.Run("multiple hunks", func(t *testing.T) {
		t.Parallel()
		diff := `--- a/f.txt
+++ b/f.txt
@@ -1,2 +1,2 @@
-first
+First
 keep
@@ -10,3 +10,2 @@
 keep
-eleventh
 keep
`
		got := parseModifiedLines(diff)
		want := []int{1, 11}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("parseModifiedLines = %v, want %v", got, want)
		}
	})

	t.Run("deletion run counts every line", func(t *testing.T) {
		t.Parallel()
		diff := `@@ -4,3 +4,0 @@
-four
-five
-six
`
		got := parseModifiedLines(diff)
		want := []int{4, 5, 6}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("parseModifiedLines = %v, want %v", got, want)
		}
	})
}
