package patch

import "strings"

// Parser is a cursor-driven recursive-descent recognizer over a patch's
// line stream. It consumes lines forward only — there is no backtracking —
// and drives the Locator once per hunk to resolve context against the
// current content of the file named by the enclosing Update action.
type Parser struct {
	files Files
	lines []string
	index int
	patch Patch
	fuzz  int
}

func newParser(files Files, lines []string) *Parser {
	return &Parser{
		files: files,
		lines: lines,
		patch: Patch{Actions: make(map[string]PatchAction)},
	}
}

// TextToPatch parses patch text against the current file collection,
// returning the parsed Patch and the total fuzz accumulated while
// resolving its hunks. It performs no application — see PatchToCommit and
// ApplyCommit for that.
func TextToPatch(text string, files Files) (Patch, int, error) {
	lines := splitLines(strings.Trim(text, "\n"))
	if len(lines) < 2 ||
		strings.TrimSpace(lines[0]) != beginPatchMarker ||
		strings.TrimSpace(lines[len(lines)-1]) != endPatchMarker {
		return Patch{}, 0, errFraming("patch must begin with %q and end with %q", beginPatchMarker, endPatchMarker)
	}

	p := newParser(files, lines)
	p.index = 1
	if err := p.parse(); err != nil {
		return Patch{}, 0, err
	}
	return p.patch, p.fuzz, nil
}

func (p *Parser) noteFuzz(f int) {
	p.fuzz += f
}

// isDone reports whether the cursor has run off the end of the input or
// sits on a line beginning with one of prefixes.
func (p *Parser) isDone(prefixes ...string) bool {
	if p.index >= len(p.lines) {
		return true
	}
	line := p.lines[p.index]
	for _, prefix := range prefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// readPrefixed consumes the current line and returns its payload if it
// begins with prefix, leaving the cursor untouched otherwise.
func (p *Parser) readPrefixed(prefix string) (string, bool) {
	if p.index >= len(p.lines) {
		return "", false
	}
	line := p.lines[p.index]
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	p.index++
	return strings.TrimPrefix(line, prefix), true
}

func (p *Parser) parse() error {
	for !p.isDone(endPatchMarker) {
		if path, ok := p.readPrefixed(updateFilePrefix); ok {
			if _, exists := p.patch.action(path); exists {
				return errDuplicateAction(path)
			}
			moveTo, _ := p.readPrefixed(moveToPrefix)
			content, exists := p.files[path]
			if !exists {
				return errMissingFile(path)
			}
			action, err := p.parseUpdateFile(path, content)
			if err != nil {
				return err
			}
			action.FilePath = path
			action.MovePath = moveTo
			p.patch.addAction(path, action)
			continue
		}

		if path, ok := p.readPrefixed(deleteFilePrefix); ok {
			if _, exists := p.patch.action(path); exists {
				return errDuplicateAction(path)
			}
			if _, exists := p.files[path]; !exists {
				return errMissingFile(path)
			}
			p.patch.addAction(path, PatchAction{Type: ActionDelete, FilePath: path})
			continue
		}

		if path, ok := p.readPrefixed(addFilePrefix); ok {
			if _, exists := p.patch.action(path); exists {
				return errDuplicateAction(path)
			}
			if _, exists := p.files[path]; exists {
				return errFileExists(path)
			}
			action, err := p.parseAddFile(path)
			if err != nil {
				return err
			}
			action.FilePath = path
			p.patch.addAction(path, action)
			continue
		}

		if p.index >= len(p.lines) {
			return errUnexpectedEOF()
		}
		return errUnknownLine(p.lines[p.index])
	}

	if p.index >= len(p.lines) || p.lines[p.index] != endPatchMarker {
		return errUnexpectedEOF()
	}
	p.index++
	return nil
}

// parseUpdateFile parses the Hunk+ body of an Update action, resolving
// each hunk's context against fileContent and rebasing its chunks onto the
// resolved offset.
func (p *Parser) parseUpdateFile(path, fileContent string) (PatchAction, error) {
	action := PatchAction{Type: ActionUpdate}
	fileLines := strings.Split(fileContent, "\n")
	cursor := 0

	for !p.isDone(endPatchMarker, updateFilePrefix, deleteFilePrefix, addFilePrefix, endOfFileMarker) {
		if anchor, hasHeader := p.readHunkHeader(); hasHeader && anchor != "" {
			idx, afuzz := locateAnchor(fileLines, anchor, cursor)
			if idx == -1 {
				return action, errInvalidContext(path, []string{anchor}, false)
			}
			p.noteFuzz(afuzz)
			cursor = idx + 1
		}

		context, chunks, eof, err := p.peekSection(path)
		if err != nil {
			return action, err
		}
		if len(context) == 0 && len(chunks) == 0 {
			return action, errEmptySection(path)
		}

		idx, fuzz := locateContext(fileLines, context, cursor, eof)
		if idx == -1 {
			return action, errInvalidContext(path, context, eof)
		}
		p.noteFuzz(fuzz)

		for i := range chunks {
			chunks[i].OrigIndex += idx
		}
		action.Chunks = append(action.Chunks, chunks...)
		cursor = idx + len(context)
	}

	if p.index < len(p.lines) && p.lines[p.index] == endOfFileMarker {
		p.index++
	}

	return action, nil
}

// readHunkHeader consumes a leading "@@ <anchor>" or bare "@@" line if
// present. The second return value reports whether a header line was
// consumed at all; an empty anchor with a true header means "@@" alone,
// which does not reposition the cursor.
func (p *Parser) readHunkHeader() (string, bool) {
	if p.index >= len(p.lines) {
		return "", false
	}
	line := p.lines[p.index]
	if line == "@@" {
		p.index++
		return "", true
	}
	if strings.HasPrefix(line, "@@ ") {
		p.index++
		return strings.TrimPrefix(line, "@@ "), true
	}
	return "", false
}

// peekSection collects one hunk's section lines starting at the parser's
// current cursor, returning the assembled old-context, the chunks carved
// out of add/delete runs, and whether the section was terminated by
// "*** End of File". It does not consult the Locator; that happens in
// parseUpdateFile once the full context is known.
func (p *Parser) peekSection(path string) ([]string, []Chunk, bool, error) {
	index := p.index
	var context, del, ins []string
	var chunks []Chunk
	mode := "keep"

	for index < len(p.lines) {
		s := p.lines[index]

		if strings.HasPrefix(s, "@@") ||
			s == endPatchMarker ||
			strings.HasPrefix(s, updateFilePrefix) ||
			strings.HasPrefix(s, deleteFilePrefix) ||
			strings.HasPrefix(s, addFilePrefix) ||
			strings.HasPrefix(s, endOfFileMarker) {
			break
		}

		if s == sectionDivider {
			index++
			break
		}

		if strings.HasPrefix(s, "***") {
			return nil, nil, false, errBadSectionLine(path, s)
		}

		index++
		lastMode := mode
		var content string

		switch {
		case s == "":
			mode = "keep"
			content = ""
		case s[0] == '+':
			mode = "add"
			content = s[1:]
		case s[0] == '-':
			mode = "delete"
			content = s[1:]
		case s[0] == ' ':
			mode = "keep"
			content = s[1:]
		default:
			return nil, nil, false, errBadSectionLine(path, s)
		}

		if mode == "keep" && lastMode != mode {
			if len(ins) > 0 || len(del) > 0 {
				chunks = append(chunks, Chunk{
					OrigIndex: len(context) - len(del),
					DelLines:  del,
					InsLines:  ins,
				})
				del, ins = nil, nil
			}
		}

		switch mode {
		case "delete":
			del = append(del, content)
			context = append(context, content)
		case "add":
			ins = append(ins, content)
		default:
			context = append(context, content)
		}
	}

	if len(ins) > 0 || len(del) > 0 {
		chunks = append(chunks, Chunk{
			OrigIndex: len(context) - len(del),
			DelLines:  del,
			InsLines:  ins,
		})
	}

	eof := false
	if index < len(p.lines) && p.lines[index] == endOfFileMarker {
		index++
		eof = true
	}

	p.index = index
	return context, chunks, eof, nil
}

// parseAddFile parses the AddLine+ body of an Add action.
func (p *Parser) parseAddFile(path string) (PatchAction, error) {
	var lines []string

	for !p.isDone(endPatchMarker, updateFilePrefix, deleteFilePrefix, addFilePrefix) {
		line := p.lines[p.index]
		if !strings.HasPrefix(line, "+") {
			return PatchAction{}, errBadAddLine(path, line)
		}
		lines = append(lines, line[1:])
		p.index++
	}

	return PatchAction{Type: ActionAdd, NewFile: strings.Join(lines, "\n")}, nil
}
