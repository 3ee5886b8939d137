// ABOUTME: Exposes the patch engine as MCP tools (apply_patch, files_needed, files_added) over stdio.
// ABOUTME: Thin adapter: tool handlers call straight into the patch package, no state of their own.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/patchwright/patch"
)

// ApplyPatchInput is the argument shape for the apply_patch tool.
type ApplyPatchInput struct {
	Files map[string]string `json:"files" jsonschema:"current content of every file the patch may touch, keyed by path"`
	Patch string            `json:"patch" jsonschema:"the pseudo-diff patch text"`
}

// ApplyPatchOutput is the result of applying a patch: the new file set and
// the fuzz score the Locator assigned while resolving context.
type ApplyPatchOutput struct {
	Files map[string]string `json:"files"`
	Fuzz  int               `json:"fuzz"`
}

// PathsInput is the argument shape for files_needed and files_added.
type PathsInput struct {
	Patch string `json:"patch" jsonschema:"the pseudo-diff patch text"`
}

// PathsOutput is a list of file paths a scan identified.
type PathsOutput struct {
	Paths []string `json:"paths"`
}

func applyPatchHandler(_ context.Context, _ *mcp.CallToolRequest, in ApplyPatchInput) (*mcp.CallToolResult, ApplyPatchOutput, error) {
	if !patch.WellFormed(in.Patch) {
		return nil, ApplyPatchOutput{}, fmt.Errorf("patch is not well-formed: missing Begin/End Patch markers")
	}

	files := patch.Files(in.Files)
	parsed, fuzz, err := patch.TextToPatch(in.Patch, files)
	if err != nil {
		return nil, ApplyPatchOutput{}, err
	}

	commit, err := patch.PatchToCommit(parsed, files)
	if err != nil {
		return nil, ApplyPatchOutput{}, err
	}

	result := patch.ApplyCommit(commit)
	return nil, ApplyPatchOutput{Files: map[string]string(result), Fuzz: fuzz}, nil
}

func filesNeededHandler(_ context.Context, _ *mcp.CallToolRequest, in PathsInput) (*mcp.CallToolResult, PathsOutput, error) {
	return nil, PathsOutput{Paths: patch.FilesNeeded(in.Patch)}, nil
}

func filesAddedHandler(_ context.Context, _ *mcp.CallToolRequest, in PathsInput) (*mcp.CallToolResult, PathsOutput, error) {
	return nil, PathsOutput{Paths: patch.FilesAdded(in.Patch)}, nil
}

// NewServer builds an MCP server exposing the patch engine's operations as
// tools: apply_patch runs the full ProcessPatch pipeline over a supplied
// file set, files_needed and files_added expose the framing scans so a
// client can gather file content before calling apply_patch.
func NewServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "patchwright", Version: "0.1.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "apply_patch",
		Description: "Apply a context-anchored pseudo-diff patch to a set of in-memory files and return the result.",
	}, applyPatchHandler)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "files_needed",
		Description: "List the paths an Update or Delete action in a patch expects to already exist.",
	}, filesNeededHandler)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "files_added",
		Description: "List the paths an Add action in a patch will create.",
	}, filesAddedHandler)

	return server
}

// Run serves the MCP tools over stdio until ctx is canceled or the client
// disconnects.
func Run(ctx context.Context) error {
	server := NewServer()
	return server.Run(ctx, &mcp.StdioTransport{})
}
