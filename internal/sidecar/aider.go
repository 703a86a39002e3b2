package sidecar

import "strings"

// AiderOptions names the files an aider invocation is assembled from
type AiderOptions struct {
	Provider        string // Model prefix understood by aider, groq when empty
	Model           string
	FilesPath       string
	SensitivePath   string
	MessagePath     string
	ConventionsPath string
}

// AiderCommand formats the shell command that hands the run over to aider. The command is only printed, never run.
func AiderCommand(opts AiderOptions) string {
	prefix := orDefault(opts.Provider, "groq") + "/"
	model := prefix + strings.TrimPrefix(opts.Model, prefix)
	parts := []string{
		"aider",
		"$(cat " + orDefault(opts.FilesPath, "files.txt") + ")",
		"--architect",
		"--model", model,
		"--editor-model", model,
		"--message-file", orDefault(opts.MessagePath, "prompt.txt"),
		"--read", orDefault(opts.ConventionsPath, "CONVENTIONS.md"),
		"$(cat " + orDefault(opts.SensitivePath, "sensitive_files.txt") + ")",
	}
	return strings.Join(parts, " ")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
