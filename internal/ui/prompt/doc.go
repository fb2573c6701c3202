// Package prompt provides the interactive prompts git-loom falls back to
// when a flag does not supply the value: yes/no confirmation, free text
// input, list selection and multi-file selection.
//
// Prompts render on stderr so stdout stays clean for primary output.
package prompt
