// Package cmd provides helpers for executing external commands with proper
// error handling.
//
// This package wraps [os/exec.Cmd] to capture stderr and include it in error
// messages, making command failures more informative for users.
//
// # Design Notes
//
// git-loom shells out to the git CLI for every history rewrite rather than
// reimplementing rebase semantics. This keeps the tool compatible with user
// configuration (hooks, GPG signing, credential helpers) and with whatever
// git version the user runs.
package cmd
