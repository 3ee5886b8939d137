// ABOUTME: Interactive reviewer for a parsed Patch, letting a human confirm before ApplyCommit runs.
// ABOUTME: Lists one row per file action, colored by the fuzz tier the Locator assigned.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/patchwright/patch"
)

// FuzzTier buckets a fuzz score into the three bands a reviewer cares about:
// exact context match, whitespace-drifted match, and end-of-file fallback.
type FuzzTier int

const (
	TierExact FuzzTier = iota
	TierDrifted
	TierEOF
)

// TierForFuzz maps a raw fuzz score (as returned by patch.TextToPatch) to its
// review tier.
func TierForFuzz(fuzz int) FuzzTier {
	switch {
	case fuzz >= 10000:
		return TierEOF
	case fuzz > 0:
		return TierDrifted
	default:
		return TierExact
	}
}

// StyleForTier returns the lipgloss style used to render a row at the given
// fuzz tier.
func StyleForTier(tier FuzzTier) lipgloss.Style {
	switch tier {
	case TierExact:
		return CompletedStyle
	case TierDrifted:
		return RunningStyle
	case TierEOF:
		return FailedStyle
	default:
		return PendingStyle
	}
}

// ActionRow is one reviewable row: a single file action from a parsed Patch.
type ActionRow struct {
	Path    string
	Kind    patch.ActionKind
	Summary string
}

// RowsFromPatch builds the review rows for p, in the order the actions
// appeared in the patch text.
func RowsFromPatch(p patch.Patch) []ActionRow {
	rows := make([]ActionRow, 0, len(p.Paths))
	for _, path := range p.Paths {
		action := p.Actions[path]
		rows = append(rows, ActionRow{
			Path:    path,
			Kind:    action.Type,
			Summary: summarizeAction(action),
		})
	}
	return rows
}

func summarizeAction(a patch.PatchAction) string {
	switch a.Type {
	case patch.ActionAdd:
		lines := strings.Count(a.NewFile, "\n") + 1
		return fmt.Sprintf("add, %d line(s)", lines)
	case patch.ActionDelete:
		return "delete"
	case patch.ActionUpdate:
		if a.MovePath != "" {
			return fmt.Sprintf("update + move to %s, %d hunk(s)", a.MovePath, len(a.Chunks))
		}
		return fmt.Sprintf("update, %d hunk(s)", len(a.Chunks))
	default:
		return "unknown"
	}
}

// ReviewModel is a bubbletea Model that lets a human step through a patch's
// actions and confirm or reject the whole thing before ApplyCommit runs.
type ReviewModel struct {
	rows      []ActionRow
	tier      FuzzTier
	cursor    int
	confirmed bool
	rejected  bool
}

// NewReviewModel builds a ReviewModel for the given parsed patch and the
// overall fuzz score TextToPatch reported for it.
func NewReviewModel(p patch.Patch, fuzz int) ReviewModel {
	return ReviewModel{
		rows: RowsFromPatch(p),
		tier: TierForFuzz(fuzz),
	}
}

// Init implements tea.Model.
func (m ReviewModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model. Up/down move the cursor; "y" confirms the
// whole patch; "n"/"q"/Esc rejects it; either choice quits the program.
func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "y":
		m.confirmed = true
		return m, tea.Quit
	case "n", "q", "esc":
		m.rejected = true
		return m, tea.Quit
	case "ctrl+c":
		m.rejected = true
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model.
func (m ReviewModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Patch review"))
	b.WriteString("\n\n")

	tierStyle := StyleForTier(m.tier)
	b.WriteString(tierStyle.Render(fmt.Sprintf("overall tier: %s", tierName(m.tier))))
	b.WriteString("\n\n")

	for i, row := range m.rows {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%-8s %-30s %s", cursor, row.Kind, row.Path, row.Summary)
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("y"))
	b.WriteString(" apply   ")
	b.WriteString(LabelStyle.Render("n/q"))
	b.WriteString(" discard\n")

	return b.String()
}

// Confirmed reports whether the user approved applying the patch.
func (m ReviewModel) Confirmed() bool {
	return m.confirmed
}

func tierName(t FuzzTier) string {
	switch t {
	case TierExact:
		return "exact"
	case TierDrifted:
		return "drifted"
	case TierEOF:
		return "end-of-file fallback"
	default:
		return "unknown"
	}
}

// RunReview runs the interactive reviewer for p/fuzz to completion and
// reports whether the human approved applying it.
func RunReview(p patch.Patch, fuzz int) (bool, error) {
	model := NewReviewModel(p, fuzz)
	program := tea.NewProgram(model)
	final, err := program.Run()
	if err != nil {
		return false, fmt.Errorf("run patch review: %w", err)
	}
	return final.(ReviewModel).Confirmed(), nil
}
