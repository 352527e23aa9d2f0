package reader

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"hakayat/internal/domain/story"
)

// Palette is the colour set of a reading theme.
type Palette struct {
	Text      lipgloss.Color
	Dim       lipgloss.Color
	Accent    lipgloss.Color
	Highlight lipgloss.Color
	Paper     lipgloss.Color
}

var palettes = map[story.Theme]Palette{
	story.ThemeLight: {
		Text:      lipgloss.Color("#1f2328"),
		Dim:       lipgloss.Color("#6e7681"),
		Accent:    lipgloss.Color("#4f46e5"),
		Highlight: lipgloss.Color("#fef3c7"),
		Paper:     lipgloss.Color("#ffffff"),
	},
	story.ThemeSepia: {
		Text:      lipgloss.Color("#433422"),
		Dim:       lipgloss.Color("#8a7356"),
		Accent:    lipgloss.Color("#b45309"),
		Highlight: lipgloss.Color("#f3e1b6"),
		Paper:     lipgloss.Color("#f4ecd8"),
	},
	story.ThemeDark: {
		Text:      lipgloss.Color("#e6edf3"),
		Dim:       lipgloss.Color("#8b949e"),
		Accent:    lipgloss.Color("#a5b4fc"),
		Highlight: lipgloss.Color("#3b2f63"),
		Paper:     lipgloss.Color("#0d1117"),
	},
}

// Styles holds the styles derived from a palette.
type Styles struct {
	Title     lipgloss.Style
	Summary   lipgloss.Style
	Paragraph lipgloss.Style
	Active    lipgloss.Style
	Bookmark  lipgloss.Style
	Moral     lipgloss.Style
	Help      lipgloss.Style
	Border    lipgloss.Style
}

func NewStyles(theme story.Theme) Styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[story.DefaultTheme]
	}
	base := lipgloss.NewStyle().Foreground(p.Text)
	return Styles{
		Title:     base.Bold(true).Foreground(p.Accent),
		Summary:   base.Italic(true).Foreground(p.Dim),
		Paragraph: base,
		Active:    base.Background(p.Highlight).Bold(true),
		Bookmark:  lipgloss.NewStyle().Foreground(p.Accent),
		Moral:     base.Italic(true).Foreground(p.Accent),
		Help:      lipgloss.NewStyle().Foreground(p.Dim),
		Border:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.Accent).Padding(0, 1),
	}
}

// View is everything the reading surface shows for one frame.
type View struct {
	Story           *story.Saved
	Paragraphs      []string
	Pager           *Pager
	ActiveParagraph int
	Status          string
	Width           int
}

// Render draws the current page.
func Render(v View, s Styles) string {
	width := v.Width
	if width <= 0 {
		width = 80
	}
	textWidth := width - 4

	var lines []string
	lines = append(lines, s.Title.Render(v.Story.Story.Title))
	if v.Pager.CurrentPage() == 0 {
		lines = append(lines, s.Summary.Width(textWidth).Render(v.Story.Story.Summary), "")
	}

	start, end := v.Pager.Window()
	for i := start; i < end; i++ {
		style := s.Paragraph
		if i == v.ActiveParagraph {
			style = s.Active
		}
		mark := "  "
		if v.Story.Bookmarked(i) {
			mark = s.Bookmark.Render("🔖")
		}
		lines = append(lines, mark+style.Width(textWidth-2).Render(v.Paragraphs[i]), "")
	}

	pages := v.Pager.PageCount()
	if v.Pager.CurrentPage() == pages-1 && v.Story.Story.Moral != "" {
		lines = append(lines, s.Moral.Width(textWidth).Render("💡 "+v.Story.Story.Moral), "")
	}

	footer := fmt.Sprintf("page %d/%d", v.Pager.CurrentPage()+1, max(pages, 1))
	if v.Status != "" {
		footer += " · " + v.Status
	}
	lines = append(lines, s.Help.Render(footer))

	return s.Border.Width(width - 2).Render(strings.Join(lines, "\n"))
}

// Help is the key legend shown under the page.
func Help(s Styles) string {
	return s.Help.Render("[p] play/pause  [s] stop  [n/b] next/prev page  [v name] voice  [r rate] speed  [m n] bookmark  [q] quit")
}
