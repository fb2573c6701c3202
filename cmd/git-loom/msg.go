package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/loomkit/git-loom/internal/output"
	"github.com/loomkit/git-loom/internal/ui/styles"
)

// success prints a message with a green checkmark to stdout.
func success(ctx context.Context, format string, args ...any) {
	p := output.FromContext(ctx)
	p.Printf("%s %s\n", styles.Render(styles.Success, "✓"), fmt.Sprintf(format, args...))
}

// printError prints an error with a red cross to stderr. Additional lines
// are treated as hints and prefixed with a blue arrow.
func printError(err error) {
	lines := strings.Split(err.Error(), "\n")
	fmt.Fprintf(os.Stderr, "%s %s\n", styles.Render(styles.Error, "×"), lines[0])
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		fmt.Fprintf(os.Stderr, "  %s %s\n", styles.Render(styles.Hint, "›"), line)
	}
}
