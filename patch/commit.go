package patch

import "strings"

// PatchToCommit resolves a parsed Patch against the original file
// collection, synthesizing the post-patch content of every Update action
// and carrying forward the old content of every Delete for audit purposes.
// It validates the per-update chunk invariants (non-overlapping,
// non-decreasing, in-range) that the Parser cannot check on its own, since
// chunks are only fully positioned once the Locator has run for the whole
// action.
func PatchToCommit(p Patch, files Files) (Commit, error) {
	commit := Commit{Changes: make(map[string]FileChange)}

	// Every Add and Update action (moved or not) claims exactly one output
	// path. Collect them all up front, including destinations that don't
	// exist yet in files or Actions, so two actions claiming the same new
	// path are caught here rather than racing in ApplyCommit's map range.
	outputs := make(map[string]string, len(p.Paths))
	for _, path := range p.Paths {
		action := p.Actions[path]
		if action.Type == ActionDelete {
			continue
		}
		dest := path
		if action.Type == ActionUpdate && action.MovePath != "" {
			dest = action.MovePath
		}
		if _, claimed := outputs[dest]; claimed {
			return Commit{}, errOverlappingChunks(dest)
		}
		outputs[dest] = path
	}

	for dest, src := range outputs {
		if dest == src {
			continue
		}
		if _, exists := files[dest]; exists {
			if _, touched := p.Actions[dest]; !touched {
				return Commit{}, errOverlappingChunks(dest)
			}
		}
	}

	for _, path := range p.Paths {
		action := p.Actions[path]
		switch action.Type {
		case ActionDelete:
			commit.Changes[path] = FileChange{
				Type:       ActionDelete,
				OldContent: files[path],
			}

		case ActionAdd:
			commit.Changes[path] = FileChange{
				Type:       ActionAdd,
				NewContent: action.NewFile,
			}

		case ActionUpdate:
			newContent, err := applyChunks(files[path], action.Chunks)
			if err != nil {
				return Commit{}, &DiffError{Reason: err.Reason, Message: err.Message, Path: path}
			}
			commit.Changes[path] = FileChange{
				Type:       ActionUpdate,
				OldContent: files[path],
				NewContent: newContent,
				MovePath:   action.MovePath,
			}
		}
	}

	return commit, nil
}

// applyChunks synthesizes post-patch content by walking chunks in order,
// copying untouched lines, splicing in insertions, and skipping deletions.
// It rejects chunks whose orig_index would make the cursor regress
// (overlap) or that reach past the end of the file (range exceeded).
func applyChunks(content string, chunks []Chunk) (string, *DiffError) {
	lines := strings.Split(content, "\n")
	var out []string
	cursor := 0

	for _, chunk := range chunks {
		if chunk.OrigIndex > len(lines) {
			return "", errRangeExceeded("")
		}
		if chunk.OrigIndex < cursor {
			return "", errOverlappingChunks("")
		}
		out = append(out, lines[cursor:chunk.OrigIndex]...)
		out = append(out, chunk.InsLines...)
		cursor = chunk.OrigIndex + len(chunk.DelLines)
		if cursor > len(lines) {
			return "", errRangeExceeded("")
		}
	}
	out = append(out, lines[cursor:]...)

	return strings.Join(out, "\n"), nil
}

// ApplyCommit materializes a Commit into an output file collection. Add
// and Update write new content under their (possibly moved) path; Delete
// and the source path of a move are simply absent from the result. The
// caller is responsible for carrying forward any path the patch never
// mentioned.
func ApplyCommit(c Commit) Files {
	out := make(Files, len(c.Changes))
	for path, change := range c.Changes {
		switch change.Type {
		case ActionDelete:
			// omitted from output
		case ActionAdd:
			out[path] = change.NewContent
		case ActionUpdate:
			dest := path
			if change.MovePath != "" {
				dest = change.MovePath
			}
			out[dest] = change.NewContent
		}
	}
	return out
}
