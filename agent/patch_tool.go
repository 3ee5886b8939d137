// ABOUTME: Adapter wiring the pseudo-diff patch engine into the coding agent's tool surface.
// ABOUTME: Reads the files a patch names, parses and commits it with patch.TextToPatch/PatchToCommit, and writes each change back.

package agent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/2389-research/patchwright/patch"
)

var lineNumberPattern = regexp.MustCompile(`^\s*\d+\t`)

// stripLineNumbers removes the "%4d\t" prefix ReadFile prepends to each
// line, recovering the file's raw content. A blank split element is kept
// as "" rather than dropped, so the split/join round trip preserves the
// trailing newline ReadFile's numbered output always carries.
func stripLineNumbers(numbered string) string {
	lines := strings.Split(numbered, "\n")
	stripped := make([]string, 0, len(lines))
	for _, l := range lines {
		if l == "" {
			stripped = append(stripped, "")
			continue
		}
		if loc := lineNumberPattern.FindStringIndex(l); loc != nil {
			stripped = append(stripped, l[loc[1]:])
		} else {
			stripped = append(stripped, l)
		}
	}
	return strings.Join(stripped, "\n")
}

// loadPatchFiles reads every path a patch's update/delete actions reference
// into a patch.Files map, ready for patch.TextToPatch and patch.PatchToCommit.
func loadPatchFiles(patchText string, env ExecutionEnvironment) (patch.Files, error) {
	files := make(patch.Files)
	for _, path := range patch.FilesNeeded(patchText) {
		numbered, err := env.ReadFile(path, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("read file %s: %w", path, err)
		}
		files[path] = stripLineNumbers(numbered)
	}
	return files, nil
}

// appliedOp records one write or delete already committed to the
// environment, in application order, so a later failure can be unwound.
type appliedOp struct {
	path     string
	wasWrite bool
}

// applyPatchToEnvironment runs the patch engine against the files an
// ExecutionEnvironment holds and writes the resulting changes back. Deleted
// and moved-from paths are removed via DeleteFile; everything else in the
// output mapping is written via WriteFile. If a write or delete partway
// through a multi-file patch fails, every change already applied is undone
// in reverse order before the error is returned, so a patch's actions land
// all-or-nothing rather than leaving the environment half-patched.
func applyPatchToEnvironment(patchText string, env ExecutionEnvironment) (string, error) {
	files, err := loadPatchFiles(patchText, env)
	if err != nil {
		return "", err
	}

	parsed, fuzz, err := patch.TextToPatch(patchText, files)
	if err != nil {
		return "", err
	}

	commit, err := patch.PatchToCommit(parsed, files)
	if err != nil {
		return "", err
	}

	var applied []appliedOp
	fail := func(cause error) (string, error) {
		for i := len(applied) - 1; i >= 0; i-- {
			op := applied[i]
			var undoErr error
			if op.wasWrite {
				if original, existed := files[op.path]; existed {
					undoErr = env.WriteFile(op.path, original)
				} else {
					undoErr = env.DeleteFile(op.path)
				}
			} else {
				undoErr = env.WriteFile(op.path, files[op.path])
			}
			if undoErr != nil {
				return "", fmt.Errorf("%w (rollback failed restoring %s: %v)", cause, op.path, undoErr)
			}
		}
		return "", cause
	}

	var created, deleted, modified, moved int
	for _, path := range parsed.Paths {
		action := parsed.Actions[path]
		change := commit.Changes[path]

		switch action.Type {
		case patch.ActionAdd:
			if err := env.WriteFile(path, change.NewContent); err != nil {
				return fail(fmt.Errorf("write new file %s: %w", path, err))
			}
			applied = append(applied, appliedOp{path: path, wasWrite: true})
			created++

		case patch.ActionDelete:
			if err := env.DeleteFile(path); err != nil {
				return fail(fmt.Errorf("delete file %s: %w", path, err))
			}
			applied = append(applied, appliedOp{path: path, wasWrite: false})
			deleted++

		case patch.ActionUpdate:
			dest := path
			if action.MovePath != "" {
				dest = action.MovePath
			}
			if err := env.WriteFile(dest, change.NewContent); err != nil {
				return fail(fmt.Errorf("write updated file %s: %w", dest, err))
			}
			applied = append(applied, appliedOp{path: dest, wasWrite: true})
			if dest != path {
				if err := env.DeleteFile(path); err != nil {
					return fail(fmt.Errorf("delete moved-from file %s: %w", path, err))
				}
				applied = append(applied, appliedOp{path: path, wasWrite: false})
				moved++
			} else {
				modified++
			}
		}
	}

	summary := fmt.Sprintf("applied patch: %d created, %d deleted, %d modified, %d moved",
		created, deleted, modified, moved)
	if fuzz > 0 {
		summary += fmt.Sprintf(" (fuzz=%d)", fuzz)
	}
	return summary, nil
}
