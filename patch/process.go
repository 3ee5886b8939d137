package patch

// ProcessPatch validates the outer framing, parses patch text against
// files, resolves it into a Commit, and materializes the result. It is the
// single entry point most callers need; TextToPatch, PatchToCommit, and
// ApplyCommit exist separately for callers that want the fuzz total or the
// intermediate Commit (e.g. to render a preview before writing anything).
func ProcessPatch(text string, files Files) (Files, error) {
	if !WellFormed(text) {
		return nil, errFraming("patch must begin with %q and end with %q", beginPatchMarker, endPatchMarker)
	}

	p, _, err := TextToPatch(text, files)
	if err != nil {
		return nil, err
	}

	commit, err := PatchToCommit(p, files)
	if err != nil {
		return nil, err
	}

	return ApplyCommit(commit), nil
}
