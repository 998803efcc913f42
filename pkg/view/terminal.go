package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"superhero/pkg/diff"
	"superhero/pkg/screen"
)

// Terminal prints the hero screen as a card each time it changes. Lines that
// changed since the previous card are highlighted.
//
// Render is only ever called from the controller loop, so Terminal keeps its
// previous frame without locking.
type Terminal struct {
	w    io.Writer
	prev *screen.Screen

	frame   lipgloss.Style
	title   lipgloss.Style
	heading lipgloss.Style
	changed lipgloss.Style
	faint   lipgloss.Style
	column  lipgloss.Style
}

func NewTerminal(w io.Writer) *Terminal {
	r := lipgloss.NewRenderer(w)
	return &Terminal{
		w:       w,
		frame:   r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		title:   r.NewStyle().Bold(true),
		heading: r.NewStyle().Underline(true),
		changed: r.NewStyle().Foreground(lipgloss.Color("10")),
		faint:   r.NewStyle().Faint(true),
		column:  r.NewStyle().MarginRight(4),
	}
}

func (t *Terminal) Render(s screen.Screen) {
	changed := make(map[string]bool)
	if t.prev != nil {
		diffs := diff.Screens(*t.prev, s)
		for _, d := range diffs {
			changed[d.Path] = true
			log.Debug("screen field changed", "field", d.Path, "diff", d.Str.Plain())
		}
		if len(diffs) == 0 {
			return
		}
	}
	t.prev = &s

	fmt.Fprintln(t.w, t.Card(s, changed))
}

// Card renders s. Fields named in changed are highlighted.
func (t *Terminal) Card(s screen.Screen, changed map[string]bool) string {
	line := func(l screen.Line) string {
		if changed[l.Label] {
			return t.changed.Render(l.String())
		}
		return l.String()
	}

	stats := []string{t.heading.Render("Powerstats")}
	for _, l := range s.Stats {
		stats = append(stats, line(l))
	}
	bio := []string{t.heading.Render("Biography")}
	for _, l := range s.Bio {
		bio = append(bio, line(l))
	}

	name := t.title.Render(s.Name)
	if changed["Name"] {
		name = t.changed.Bold(true).Render(s.Name)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		name,
		t.faint.Render(t.portraitLine(s)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top,
			t.column.Render(strings.Join(stats, "\n")),
			strings.Join(bio, "\n"),
		),
	)
	return t.frame.Render(body)
}

func (t *Terminal) portraitLine(s screen.Screen) string {
	switch {
	case s.PortraitPending:
		return "portrait: loading " + s.PortraitURL
	case s.Portrait.Empty():
		return "portrait: none"
	case s.Portrait.Placeholder:
		return "portrait: placeholder"
	}
	return fmt.Sprintf("portrait: %s (%d bytes webp)", s.Portrait.URL, len(s.Portrait.Data))
}
