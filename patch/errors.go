package patch

import "fmt"

// Reason is the closed set of ways a patch can be malformed or fail to
// apply. It mirrors the category table carried by the distilled spec's
// error-handling section; callers switch on it instead of matching error
// text.
type Reason int

const (
	ReasonFraming Reason = iota
	ReasonUnknownLine
	ReasonDuplicateAction
	ReasonMissingFile
	ReasonFileExists
	ReasonBadAddLine
	ReasonBadSectionLine
	ReasonInvalidContext
	ReasonOverlappingChunks
	ReasonRangeExceeded
	ReasonEmptySection
	ReasonUnexpectedEOF
)

func (r Reason) String() string {
	switch r {
	case ReasonFraming:
		return "framing"
	case ReasonUnknownLine:
		return "unknown_line"
	case ReasonDuplicateAction:
		return "duplicate_action"
	case ReasonMissingFile:
		return "missing_file"
	case ReasonFileExists:
		return "file_exists"
	case ReasonBadAddLine:
		return "bad_add_line"
	case ReasonBadSectionLine:
		return "bad_section_line"
	case ReasonInvalidContext:
		return "invalid_context"
	case ReasonOverlappingChunks:
		return "overlapping_chunks"
	case ReasonRangeExceeded:
		return "range_exceeded"
	case ReasonEmptySection:
		return "empty_section"
	case ReasonUnexpectedEOF:
		return "unexpected_eof"
	default:
		return "unknown"
	}
}

// DiffError is the single error kind the patch package raises. Every
// failure mode — malformed framing, an unresolvable hunk, a structural
// invariant violation — is reported through it rather than through a
// hierarchy of wrapper types, since callers only ever need the Reason and
// the offending path/line to act on a failure.
type DiffError struct {
	Reason  Reason
	Message string
	Path    string
	Line    string
	// Context is the assembled old-context lines the Locator failed to
	// find, set only for ReasonInvalidContext.
	Context []string
	// EOF records whether the failed search was an end-of-file search,
	// set only for ReasonInvalidContext.
	EOF   bool
	Cause error
}

func (e *DiffError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *DiffError) Unwrap() error {
	return e.Cause
}

func errFraming(format string, args ...any) *DiffError {
	return &DiffError{Reason: ReasonFraming, Message: fmt.Sprintf(format, args...)}
}

func errUnknownLine(line string) *DiffError {
	return &DiffError{Reason: ReasonUnknownLine, Message: "unrecognized line", Line: line}
}

func errDuplicateAction(path string) *DiffError {
	return &DiffError{Reason: ReasonDuplicateAction, Message: "duplicate action for path", Path: path}
}

func errMissingFile(path string) *DiffError {
	return &DiffError{Reason: ReasonMissingFile, Message: "file not found in collection", Path: path}
}

func errFileExists(path string) *DiffError {
	return &DiffError{Reason: ReasonFileExists, Message: "file already exists", Path: path}
}

func errBadAddLine(path, line string) *DiffError {
	return &DiffError{Reason: ReasonBadAddLine, Message: "add file line missing '+' prefix", Path: path, Line: line}
}

func errBadSectionLine(path, line string) *DiffError {
	return &DiffError{Reason: ReasonBadSectionLine, Message: "unrecognized section line", Path: path, Line: line}
}

func errInvalidContext(path string, context []string, eof bool) *DiffError {
	return &DiffError{
		Reason:  ReasonInvalidContext,
		Message: "could not locate context in file",
		Path:    path,
		Context: context,
		EOF:     eof,
	}
}

func errOverlappingChunks(path string) *DiffError {
	return &DiffError{Reason: ReasonOverlappingChunks, Message: "chunks overlap", Path: path}
}

func errRangeExceeded(path string) *DiffError {
	return &DiffError{Reason: ReasonRangeExceeded, Message: "chunk range exceeds file length", Path: path}
}

func errEmptySection(path string) *DiffError {
	return &DiffError{Reason: ReasonEmptySection, Message: "section has no context or changes", Path: path}
}

func errUnexpectedEOF() *DiffError {
	return &DiffError{Reason: ReasonUnexpectedEOF, Message: "unexpected end of patch"}
}
