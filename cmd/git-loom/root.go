package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/loomkit/git-loom/internal/config"
	"github.com/loomkit/git-loom/internal/git"
	"github.com/loomkit/git-loom/internal/log"
	"github.com/loomkit/git-loom/internal/output"
	"github.com/loomkit/git-loom/internal/ui/styles"
)

var (
	// Global flags
	noColor bool
	verbose bool

	// Shared state injected into commands
	cfg *config.Config
)

// Command group IDs for organizing help output
const (
	GroupCore    = "core"
	GroupHistory = "history"
	GroupRemote  = "remote"
)

// rootCmd represents the base command. Without a subcommand it shows the
// branch-aware status, like the original `git status` habit.
var rootCmd = &cobra.Command{
	Use:   "git-loom",
	Short: "Work on several feature branches as one integration branch",
	Long: `git-loom weaves feature branches into a single integration branch joined
by merge commits, and rewrites that topology safely: move commits between
branches, fold changes into earlier commits, split, drop, absorb.

Every rewrite runs as one atomic interactive rebase; on failure the
repository is restored to its previous state.`,
	SilenceUsage:               true,
	SilenceErrors:              true,
	SuggestionsMinimumDistance: 2,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "completion", "__complete", "help", "internal-write-todo":
			return nil
		}

		setupColor()

		// Flags are parsed by now; the logger attached in Execute predates them.
		if verbose {
			cmd.SetContext(log.WithLogger(cmd.Context(), log.New(os.Stderr, true)))
		}

		if err := git.CheckGit(); err != nil {
			return err
		}
		return git.CheckVersion(cmd.Context())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd.Context(), statusOptions{})
	},
}

// setupColor decides color once at startup: flag, config, environment, TTY.
func setupColor() {
	enabled := true
	switch {
	case noColor:
		enabled = false
	case cfg != nil && cfg.Color == "never":
		enabled = false
	case cfg != nil && cfg.Color == "always":
		enabled = true
	case os.Getenv("NO_COLOR") != "":
		enabled = false
	case os.Getenv("TERM") == "dumb":
		enabled = false
	default:
		enabled = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}
	styles.SetEnabled(enabled)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	loadedCfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	cfg = &loadedCfg

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := log.New(os.Stderr, verbose)
	ctx = log.WithLogger(ctx, logger)
	ctx = output.WithPrinter(ctx, os.Stdout)

	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show external commands being executed")

	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.AddGroup(
		&cobra.Group{ID: GroupCore, Title: "Core Commands:"},
		&cobra.Group{ID: GroupHistory, Title: "History Commands:"},
		&cobra.Group{ID: GroupRemote, Title: "Remote Commands:"},
	)
}
