// Package stat renders patch.FileStat rows into the textual/graphical
// output formats of --stat, --numstat, and --summary. It is a pure
// presentation layer: every number it prints comes from internal/patch,
// and nothing here changes session state.
package stat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ximory/xgit-apply/internal/patch"
)

var (
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	barWidth = 50
)

// Numstat renders the --numstat line for one file: "<added>\t<deleted>\t<path>",
// with "-" in place of counts for a binary file, matching git apply's
// convention.
func Numstat(fs patch.FileStat) string {
	if fs.Binary {
		return fmt.Sprintf("-\t-\t%s", fs.Path)
	}
	return fmt.Sprintf("%d\t%d\t%s", fs.Added, fs.Deleted, fs.Path)
}

// Bar renders one --stat row: the path, the total count of added plus
// removed lines, and a proportional bar of '+'/'-' glyphs scaled to maxChanges across the whole
// patch set.
func Bar(fs patch.FileStat, maxChanges int) string {
	total := fs.Added + fs.Deleted
	if fs.Binary {
		return fmt.Sprintf("%s | %s", pathStyle.Render(fs.Path), dimStyle.Render("Bin"))
	}

	width := barWidth
	if maxChanges > 0 && total > 0 {
		width = total * barWidth / maxChanges
		if width == 0 {
			width = 1
		}
	} else {
		width = 0
	}
	addedChars := 0
	if total > 0 {
		addedChars = width * fs.Added / total
	}
	removedChars := width - addedChars

	bar := addedStyle.Render(strings.Repeat("+", addedChars)) +
		removedStyle.Render(strings.Repeat("-", removedChars))

	return fmt.Sprintf("%s | %-4d %s", pathStyle.Render(fs.Path), total, bar)
}

// Summary renders the " N files changed, X insertions(+), Y deletions(-)"
// trailer line git prints after a --stat table.
func Summary(stats []patch.FileStat) string {
	var files, ins, del int
	for _, fs := range stats {
		files++
		ins += fs.Added
		del += fs.Deleted
	}
	parts := []string{fmt.Sprintf("%d file", files)}
	if files != 1 {
		parts[0] += "s"
	}
	parts[0] += " changed"
	if ins > 0 {
		s := fmt.Sprintf("%d insertion", ins)
		if ins != 1 {
			s += "s"
		}
		parts = append(parts, s+"(+)")
	}
	if del > 0 {
		s := fmt.Sprintf("%d deletion", del)
		if del != 1 {
			s += "s"
		}
		parts = append(parts, s+"(-)")
	}
	return " " + strings.Join(parts, ", ")
}

// RenderStat renders a full --stat table: one Bar row per file, sized
// against the largest single-file change count, followed by the summary
// trailer.
func RenderStat(stats []patch.FileStat) string {
	maxChanges := 0
	for _, fs := range stats {
		if c := fs.Added + fs.Deleted; c > maxChanges {
			maxChanges = c
		}
	}
	var b strings.Builder
	for _, fs := range stats {
		b.WriteString(" " + Bar(fs, maxChanges) + "\n")
	}
	b.WriteString(Summary(stats) + "\n")
	return b.String()
}
