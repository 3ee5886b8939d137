package patch

import "strings"

// locateContext finds the best match for context within lines starting the
// search no earlier than start. It tries three equality tiers in order —
// exact, trailing-whitespace-trimmed, fully-trimmed — and returns the index
// of the first line of the match together with the fuzz score of the tier
// that matched (0, 1, or 100). It returns (-1, 0) if no tier matches
// anywhere in the remainder of the file.
//
// When eof is true the hunk ended on an "*** End of File" marker, so the
// context is expected to be a suffix of the file: the search tries the
// file's trailing len(context) lines first, and only falls back to a
// forward scan from start — with a flat +10000 fuzz penalty — if the
// suffix itself doesn't match any tier.
func locateContext(lines, context []string, start int, eof bool) (int, int) {
	if len(context) == 0 {
		return start, 0
	}

	if eof {
		if len(lines) >= len(context) {
			if idx, fuzz := locateContextForward(lines, context, len(lines)-len(context)); idx != -1 {
				return idx, fuzz
			}
		}
		if idx, fuzz := locateContextForward(lines, context, start); idx != -1 {
			return idx, fuzz + 10000
		}
		return -1, 0
	}

	return locateContextForward(lines, context, start)
}

// locateContextForward scans forward from start, one equality tier at a
// time across the whole remaining range before escalating to the next
// tier — matching the spec's requirement that an earlier, exact match
// anywhere in the file is always preferred over a later, fuzzier one.
func locateContextForward(lines, context []string, start int) (int, int) {
	if start < 0 {
		start = 0
	}
	last := len(lines) - len(context)
	if last < start {
		return -1, 0
	}

	for i := start; i <= last; i++ {
		if linesEqual(lines, context, i, func(a, b string) bool { return a == b }) {
			return i, 0
		}
	}
	for i := start; i <= last; i++ {
		if linesEqual(lines, context, i, func(a, b string) bool {
			return strings.TrimRight(a, " \t") == strings.TrimRight(b, " \t")
		}) {
			return i, 1
		}
	}
	for i := start; i <= last; i++ {
		if linesEqual(lines, context, i, func(a, b string) bool {
			return strings.TrimSpace(a) == strings.TrimSpace(b)
		}) {
			return i, 100
		}
	}
	return -1, 0
}

func linesEqual(lines, context []string, offset int, eq func(a, b string) bool) bool {
	for j, c := range context {
		if !eq(lines[offset+j], c) {
			return false
		}
	}
	return true
}

// locateAnchor resolves an "@@ anchor" line against fileLines, searching no
// earlier than start. It is a coarser, two-tier pass (exact, then fully
// trimmed) used only to reposition the per-file cursor before the Locator's
// full-context search runs over the hunk body; an anchor that cannot be
// found at all is reported by the caller as ReasonInvalidContext. Returns
// -1 if anchor is empty, since an anchor-less "@@" line doesn't move the
// cursor.
func locateAnchor(fileLines []string, anchor string, start int) (int, int) {
	if anchor == "" {
		return -1, 0
	}
	if start < 0 {
		start = 0
	}
	for i := start; i < len(fileLines); i++ {
		if fileLines[i] == anchor {
			return i, 0
		}
	}
	for i := start; i < len(fileLines); i++ {
		if strings.TrimSpace(fileLines[i]) == strings.TrimSpace(anchor) {
			return i, 1
		}
	}
	return -1, 0
}
