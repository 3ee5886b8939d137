package patch

import "strings"

const (
	beginPatchMarker = "*** Begin Patch"
	endPatchMarker   = "*** End Patch"
	updateFilePrefix = "*** Update File: "
	addFilePrefix    = "*** Add File: "
	deleteFilePrefix = "*** Delete File: "
	moveToPrefix     = "*** Move to: "
	endOfFileMarker  = "*** End of File"
	sectionDivider   = "***"
)

// splitLines splits patch text into lines, trimming a trailing carriage
// return from each so that CRLF-framed patches parse identically to LF ones.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// WellFormed reports whether text is framed correctly: after trimming
// surrounding blank lines it begins with "*** Begin Patch" and ends with
// "*** End Patch" on their own lines. It performs no further validation —
// the Parser is responsible for everything inside the frame.
func WellFormed(text string) bool {
	lines := splitLines(strings.Trim(text, "\n"))
	if len(lines) < 2 {
		return false
	}
	return strings.TrimSpace(lines[0]) == beginPatchMarker &&
		strings.TrimSpace(lines[len(lines)-1]) == endPatchMarker
}

// FilesNeeded scans patch text for every path an Update or Delete action
// references, without otherwise validating the patch. It never fails: a
// malformed patch simply yields whatever paths it can find before the
// Parser would later reject it.
func FilesNeeded(text string) []string {
	return scanPaths(text, updateFilePrefix, deleteFilePrefix)
}

// FilesAdded scans patch text for every path an Add action declares.
func FilesAdded(text string) []string {
	return scanPaths(text, addFilePrefix)
}

func scanPaths(text string, prefixes ...string) []string {
	var paths []string
	seen := make(map[string]bool)
	for _, line := range splitLines(text) {
		for _, prefix := range prefixes {
			if strings.HasPrefix(line, prefix) {
				path := strings.TrimPrefix(line, prefix)
				if !seen[path] {
					seen[path] = true
					paths = append(paths, path)
				}
				break
			}
		}
	}
	return paths
}
