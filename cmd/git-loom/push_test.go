package main

import "testing"

func TestGithubNewPRURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url    string
		branch string
		want   string
	}{
		{"https://github.com/acme/widgets.git", "fx", "https://github.com/acme/widgets/pull/new/fx"},
		{"git@github.com:acme/widgets.git", "feature-auth", "https://github.com/acme/widgets/pull/new/feature-auth"},
		{"https://github.com/acme/widgets", "fx", "https://github.com/acme/widgets/pull/new/fx"},
		{"https://gitlab.com/acme/widgets.git", "fx", ""},
	}
	for _, tt := range tests {
		if got := githubNewPRURL(tt.url, tt.branch); got != tt.want {
			t.Errorf("githubNewPRURL(%q, %q) = %q, want %q", tt.url, tt.branch, got, tt.want)
		}
	}
}
