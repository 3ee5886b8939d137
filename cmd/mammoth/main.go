// ABOUTME: CLI entry point for patchwright: partial-edit, patch HTTP server, TUI reviewer, MCP server.
// ABOUTME: Dispatches to the "setup" subcommand or the default partial-edit operation based on flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/2389-research/patchwright/llm"
	"github.com/2389-research/patchwright/mcpserver"
	"github.com/2389-research/patchwright/patch"
	"github.com/2389-research/patchwright/patchcfg"
	"github.com/2389-research/patchwright/tui"
	"github.com/2389-research/patchwright/web"
)

const version = "0.1.0"

// cliConfig holds the parsed command-line configuration for a partial-edit run.
type cliConfig struct {
	file    string
	task    string
	model   string
	profile string
	tuiMode bool

	serverMode bool
	port       int

	mcpMode bool

	verbose     bool
	showVersion bool
	showHelp    bool
}

func main() {
	loadDotEnvAuto()
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if setupCfg, ok := parseSetupArgs(args); ok {
		return runSetup(setupCfg)
	}

	cfg, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if cfg.showVersion {
		fmt.Printf("patchwright %s\n", version)
		return 0
	}
	if cfg.showHelp {
		printHelp(os.Stdout, version)
		return 0
	}

	if cfg.serverMode {
		return runServer(cfg)
	}
	if cfg.mcpMode {
		return runMCPServer()
	}

	return runPartialEdit(cfg)
}

// parseFlags parses the CLI flags, leaving the first two non-flag arguments
// as file and task for the default partial-edit operation.
func parseFlags(args []string) (cliConfig, error) {
	var cfg cliConfig

	fs := flag.NewFlagSet("patchwright", flag.ContinueOnError)
	fs.StringVar(&cfg.model, "model", "", "LLM model to use for partial-edit (default: profile default)")
	fs.StringVar(&cfg.profile, "profile", "", "Path to a YAML profile (max_auto_fuzz, default_model, provider)")
	fs.BoolVar(&cfg.tuiMode, "tui", false, "Review the drafted patch interactively before applying it")
	fs.BoolVar(&cfg.serverMode, "server", false, "Start the patch HTTP API server")
	fs.IntVar(&cfg.port, "port", 2389, "Server port (with -server)")
	fs.BoolVar(&cfg.mcpMode, "mcp", false, "Serve apply_patch/files_needed/files_added as MCP tools over stdio")
	fs.BoolVar(&cfg.verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&cfg.showHelp, "help", false, "Show help")

	fs.Usage = func() {
		printHelp(os.Stderr, version)
	}

	if err := fs.Parse(args); err != nil {
		return cliConfig{}, err
	}

	rest := fs.Args()
	if cfg.serverMode || cfg.mcpMode || cfg.showVersion || cfg.showHelp {
		return cfg, nil
	}

	if len(rest) < 1 {
		return cliConfig{}, fmt.Errorf("usage: patchwright <file> <task>")
	}
	cfg.file = rest[0]
	if len(rest) >= 2 {
		cfg.task = rest[1]
	}

	return cfg, nil
}

// editDestination reports where the edited file's new content lands after
// parsed is applied, and whether file was deleted outright. ApplyCommit
// keys its output by destination path, not by the path an action was
// declared against, so a Move changes where the result has to be read from
// and a Delete means there is no new content to read at all.
func editDestination(parsed patch.Patch, file string) (dest string, isDelete bool) {
	action, hasAction := parsed.Actions[file]
	if !hasAction {
		return file, false
	}
	if action.Type == patch.ActionDelete {
		return file, true
	}
	if action.Type == patch.ActionUpdate && action.MovePath != "" {
		return action.MovePath, false
	}
	return file, false
}

// runPartialEdit reads cfg.file, asks the LLM collaborator to draft a patch
// for cfg.task, applies it, and leaves the original content at
// "<file>.old" and the raw patch text at "<file>.patch".
func runPartialEdit(cfg cliConfig) int {
	if cfg.file == "" {
		fmt.Fprintln(os.Stderr, "error: missing file argument")
		return 2
	}
	if cfg.task == "" {
		fmt.Fprintln(os.Stderr, "error: missing task argument")
		return 2
	}

	profile := patchcfg.DefaultConfig()
	if cfg.profile != "" {
		loaded, err := patchcfg.Load(cfg.profile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: loading profile %s: %v\n", cfg.profile, err)
			return 2
		}
		profile = loaded
	}

	model := cfg.model
	if model == "" {
		model = profile.DefaultModel
	}

	original, err := os.ReadFile(cfg.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: reading %s: %v\n", cfg.file, err)
		return 2
	}

	patchText, err := draftPatch(context.Background(), cfg.file, string(original), cfg.task, model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: drafting patch: %v\n", err)
		return 1
	}

	files := patch.Files{cfg.file: string(original)}
	parsed, fuzz, err := patch.TextToPatch(patchText, files)
	if err != nil {
		return reportDiffError(err)
	}
	if cfg.verbose {
		fmt.Fprintf(os.Stderr, "component=partialedit action=parse fuzz=%d\n", fuzz)
	}

	if cfg.tuiMode || profile.NeedsConfirmation(fuzz) {
		confirmed, err := tui.RunReview(parsed, fuzz)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: reviewing patch: %v\n", err)
			return 1
		}
		if !confirmed {
			fmt.Fprintln(os.Stderr, "patch discarded")
			return 1
		}
	}

	commit, err := patch.PatchToCommit(parsed, files)
	if err != nil {
		return reportDiffError(err)
	}

	destFile, isDelete := editDestination(parsed, cfg.file)

	result := patch.ApplyCommit(commit)
	var newContent string
	if !isDelete {
		content, ok := result[destFile]
		if !ok {
			fmt.Fprintf(os.Stderr, "error: drafted patch produced no content for %s\n", destFile)
			return 1
		}
		newContent = content
	}

	if err := os.Rename(cfg.file, cfg.file+".old"); err != nil {
		fmt.Fprintf(os.Stderr, "error: preserving original as %s.old: %v\n", cfg.file, err)
		return 1
	}
	if !isDelete {
		if err := os.WriteFile(destFile, []byte(newContent), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "error: writing %s: %v\n", destFile, err)
			return 1
		}
	}
	if err := os.WriteFile(cfg.file+".patch", []byte(patchText), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error: writing %s.patch: %v\n", cfg.file, err)
		return 1
	}

	fmt.Printf("component=partialedit action=apply file=%s dest=%s fuzz=%d\n", cfg.file, destFile, fuzz)
	return 0
}

// reportDiffError prints a *patch.DiffError (or any other error) to stderr
// and returns the process exit code for it.
func reportDiffError(err error) int {
	var diffErr *patch.DiffError
	if errors.As(err, &diffErr) {
		fmt.Fprintf(os.Stderr, "error: %s\n", diffErr.Error())
		return 1
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return 1
}

// draftPatch asks the LLM collaborator mux for a pseudo-diff patch that
// performs task against the named file's current content.
func draftPatch(ctx context.Context, path, content, task, model string) (string, error) {
	client, err := llm.FromEnv()
	if err != nil {
		return "", fmt.Errorf("no LLM provider configured: %w", err)
	}

	if model == "" {
		model = "claude-sonnet-4-5"
	}

	prompt := fmt.Sprintf(
		"You are editing a single file, %s. Current content:\n\n%s\n\n"+
			"Task: %s\n\n"+
			"Respond with ONLY a pseudo-diff patch in the *** Begin Patch / *** End Patch "+
			"format: *** Update File:, @@ hunk anchors, space/-/+ prefixed lines. "+
			"No commentary, no markdown fences.",
		path, content, task,
	)

	result, err := llm.Generate(ctx, llm.GenerateOptions{
		Model:  model,
		Prompt: prompt,
		Client: client,
	})
	if err != nil {
		return "", fmt.Errorf("generate patch: %w", err)
	}

	return result.Text, nil
}

// runServer starts the patch HTTP API server.
func runServer(cfg cliConfig) int {
	dataDir, err := defaultDataDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: resolving data directory: %v\n", err)
		return 1
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error: creating data directory: %v\n", err)
		return 1
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:    fmt.Sprintf("127.0.0.1:%d", cfg.port),
		AuditDB: filepath.Join(dataDir, "patchlog.db"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: starting server: %v\n", err)
		return 1
	}
	defer server.Close()

	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// runMCPServer serves the patch engine's MCP tools over stdio until EOF.
func runMCPServer() int {
	if err := mcpserver.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
