// ABOUTME: Help display for the mammoth CLI with grouped flags, examples, and environment status.
// ABOUTME: Provides printHelp for polished usage output and envStatus for API key detection.
package main

import (
	"fmt"
	"io"
	"os"
)

const patchwrightASCII = `
                             _.-----.._____,-~~~~-._...__
                          ,-'            /         ` + "`" + `....
                        ,'             ,'      .  .  \::.
                      ,'        . ''    :     . \  ` + "`" + `./::..
                    ,'    ..   .     .      .  . : ;':::.
                   /     :go. :       . :    \ : ;'.::.
                   |     ' .o8)     .  :|    : ,'. .
                  /     :   ~:'  . '   :/  . :/. .
                 /       ,  '          |   : /. .
                /       ,              |   ./.
                L._    .       ,' .:.  /  ,'.
               /-.     :.--._,-'~~~~~~| ,'|:
              ,--.    /   .:/         |/::| ` + "`" + `.
              |-.    /   .;'      .-__)::/    \
 ...._____...-|-.  ,'  .;'      .' '.'|;'      |
   ~--..._____\-_-'  .:'      .'   /  '
    ___....--~~   _.-' ` + "`" + `.___.'   ./
      ~~------+~~_. .    ~~    .,'
                  ~:_.' . . ._:'
                     ~~-+-+~~
`

// printHelp writes a formatted help message to w, including usage patterns,
// grouped flags, examples, environment status, and a docs link.
func printHelp(w io.Writer, ver string) {
	fmt.Fprint(w, patchwrightASCII)
	fmt.Fprintf(w, "patchwright %s: context-anchored patch engine for LLM-drafted edits\n", ver)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  patchwright <file> <task>           Draft and apply a patch for <file>")
	fmt.Fprintln(w, "  patchwright -tui <file> <task>       ...and review hunks before applying")
	fmt.Fprintln(w, "  patchwright -server [-port 2389]    Start the patch HTTP API server")
	fmt.Fprintln(w, "  patchwright -mcp                     Serve patch tools over stdio (MCP)")
	fmt.Fprintln(w, "  patchwright setup                    Interactive setup wizard")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Partial-edit Flags:")
	fmt.Fprintln(w, "  -model <name>         LLM model to draft the patch with (default: profile default)")
	fmt.Fprintln(w, "  -profile <path>       YAML profile (max_auto_fuzz, default_model, provider)")
	fmt.Fprintln(w, "  -tui                  Review the drafted patch's hunks before applying")
	fmt.Fprintln(w, "  -verbose              Verbose output")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Server Flags:")
	fmt.Fprintln(w, "  -server               Start HTTP server mode")
	fmt.Fprintln(w, "  -port <port>          Server port (default: 2389)")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Other:")
	fmt.Fprintln(w, "  -mcp                  Serve apply_patch/files_needed/files_added over stdio")
	fmt.Fprintln(w, "  -version              Print version and exit")
	fmt.Fprintln(w, "  -help                 Show this help")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  patchwright main.go \"add a nil check before the lookup\"")
	fmt.Fprintln(w, "  patchwright -tui main.go \"rename Foo to Bar\"")
	fmt.Fprintln(w, "  patchwright -server -port 8080")
	fmt.Fprintln(w, "  patchwright -mcp")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  ANTHROPIC_API_KEY     %s\n", envStatus("ANTHROPIC_API_KEY"))
	fmt.Fprintf(w, "  OPENAI_API_KEY        %s\n", envStatus("OPENAI_API_KEY"))
	fmt.Fprintf(w, "  GEMINI_API_KEY        %s\n", envStatus("GEMINI_API_KEY"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  At least one API key is required to draft a patch.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Docs: https://github.com/2389-research/patchwright")
}

// envStatus returns "[set]" if the named environment variable is non-empty,
// or "[not set]" otherwise.
func envStatus(key string) string {
	if os.Getenv(key) != "" {
		return "[set]"
	}
	return "[not set]"
}
