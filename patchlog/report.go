// ABOUTME: Renders a Markdown summary of a patch application to HTML.
// ABOUTME: Summarizes files added/removed/updated/moved and flags fuzz warnings.
package patchlog

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/2389-research/patchwright/patch"
)

// RenderReport builds a Markdown report of a Commit plus the fuzz score the
// Locator assigned while parsing it, then converts it to HTML with goldmark.
func RenderReport(c patch.Commit, fuzz int) template.HTML {
	return template.HTML(markdownToHTML(reportMarkdown(c, fuzz)))
}

// reportMarkdown builds the Markdown source for a patch application report.
func reportMarkdown(c patch.Commit, fuzz int) string {
	var added, removed, updated, moved []string

	paths := make([]string, 0, len(c.Changes))
	for path := range c.Changes {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		change := c.Changes[path]
		switch change.Type {
		case patch.ActionAdd:
			added = append(added, path)
		case patch.ActionDelete:
			removed = append(removed, path)
		case patch.ActionUpdate:
			if change.MovePath != "" {
				moved = append(moved, fmt.Sprintf("%s -> %s", path, change.MovePath))
			} else {
				updated = append(updated, path)
			}
		}
	}

	var b strings.Builder
	b.WriteString("# Patch report\n\n")

	writeSection(&b, "Added", added)
	writeSection(&b, "Removed", removed)
	writeSection(&b, "Updated", updated)
	writeSection(&b, "Moved", moved)

	if fuzz > 0 {
		b.WriteString(fmt.Sprintf("\n**Fuzz score: %d.** ", fuzz))
		if fuzz >= 10000 {
			b.WriteString("Context was matched only at end of file, review carefully.\n")
		} else {
			b.WriteString("Context matched with whitespace differences, review recommended.\n")
		}
	}

	return b.String()
}

func writeSection(b *strings.Builder, title string, paths []string) {
	if len(paths) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("## %s\n\n", title))
	for _, p := range paths {
		b.WriteString(fmt.Sprintf("- %s\n", p))
	}
	b.WriteString("\n")
}

// markdownToHTML converts Markdown to HTML using goldmark.
func markdownToHTML(input string) string {
	var buf bytes.Buffer
	md := goldmark.New()
	if err := md.Convert([]byte(input), &buf); err != nil {
		return template.HTMLEscapeString(input)
	}
	return buf.String()
}
