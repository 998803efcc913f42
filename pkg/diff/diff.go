package diff

import (
	"fmt"
	"io"
	"strings"

	"github.com/aryann/difflib"

	"superhero/pkg/screen"
	"superhero/pkg/utils"
)

type Op int

const (
	Equal Op = iota
	Insert
	Delete
)

type WordDelta struct {
	Op   Op
	Text string
}

type StringDiff struct {
	Old    string
	New    string
	Deltas []WordDelta
}

type FieldDiff struct {
	Path string
	Str  StringDiff
}

// Screens lists the fields that differ between two renders of the hero
// screen, in display order: name, stats, biography, portrait.
func Screens(oldS, newS screen.Screen) []FieldDiff {
	var fd []FieldDiff
	add := func(path, a, b string) {
		if a == b {
			return
		}
		fd = append(fd, FieldDiff{Path: path, Str: strDiff(a, b)})
	}

	add("Name", oldS.Name, newS.Name)
	for i := range newS.Stats {
		add(newS.Stats[i].Label, oldS.Stats[i].Value, newS.Stats[i].Value)
	}
	for i := range newS.Bio {
		add(newS.Bio[i].Label, oldS.Bio[i].Value, newS.Bio[i].Value)
	}
	add("Portrait", portraitText(oldS), portraitText(newS))
	return fd
}

func portraitText(s screen.Screen) string {
	switch {
	case s.PortraitPending:
		return "loading " + s.PortraitURL
	case s.Portrait.Empty():
		return "none"
	case s.Portrait.Placeholder:
		return "placeholder"
	}
	return s.Portrait.URL
}

func strDiff(a, b string) StringDiff {
	if a == b {
		return StringDiff{Old: a, New: b, Deltas: []WordDelta{{Op: Equal, Text: a}}}
	}
	at := utils.TokenizeWords(a)
	bt := utils.TokenizeWords(b)
	recs := difflib.Diff(at, bt)
	deltas := make([]WordDelta, 0, len(recs))
	for _, r := range recs {
		switch r.Delta {
		case difflib.Common:
			deltas = append(deltas, WordDelta{Op: Equal, Text: r.Payload})
		case difflib.LeftOnly:
			deltas = append(deltas, WordDelta{Op: Delete, Text: r.Payload})
		case difflib.RightOnly:
			deltas = append(deltas, WordDelta{Op: Insert, Text: r.Payload})
		}
	}
	return StringDiff{Old: a, New: b, Deltas: coalesceSpaces(deltas)}
}

func coalesceSpaces(in []WordDelta) []WordDelta {
	out := make([]WordDelta, 0, len(in))
	flush := func(op Op, buf *strings.Builder) {
		if buf.Len() == 0 {
			return
		}
		out = append(out, WordDelta{Op: op, Text: buf.String()})
		buf.Reset()
	}
	var curOp Op = -1
	var buf strings.Builder
	for _, d := range in {
		if strings.TrimSpace(d.Text) == "" && d.Op == Equal {
			buf.WriteString(d.Text)
			continue
		}
		if curOp != d.Op && curOp != -1 {
			flush(curOp, &buf)
		}
		if curOp != d.Op {
			curOp = d.Op
		}
		buf.WriteString(d.Text)
	}
	flush(curOp, &buf)
	return out
}

const (
	ansiReset = "\x1b[0m"
	fgGreen   = "\x1b[32m"
	fgRed     = "\x1b[31m"
	uline     = "\x1b[4m"
	strike    = "\x1b[9m"
)

// Plain renders sd with [-deleted-] and {+inserted+} markers.
func (sd StringDiff) Plain() string {
	var b strings.Builder
	for _, d := range sd.Deltas {
		switch d.Op {
		case Equal:
			b.WriteString(d.Text)
		case Insert:
			fmt.Fprintf(&b, "{+%s+}", d.Text)
		case Delete:
			fmt.Fprintf(&b, "[-%s-]", d.Text)
		}
	}
	return b.String()
}

// ANSI renders sd for a terminal: insertions green and underlined,
// deletions red and struck through.
func (sd StringDiff) ANSI() string {
	var b strings.Builder
	for _, d := range sd.Deltas {
		switch d.Op {
		case Equal:
			b.WriteString(d.Text)
		case Insert:
			fmt.Fprintf(&b, "%s%s%s%s", fgGreen, uline, d.Text, ansiReset)
		case Delete:
			fmt.Fprintf(&b, "%s%s%s%s", fgRed, strike, d.Text, ansiReset)
		}
	}
	return b.String()
}

// Print writes one line per changed field.
func Print(w io.Writer, diffs []FieldDiff) {
	for _, f := range diffs {
		fmt.Fprintf(w, "  %s: %s\n", f.Path, f.Str.ANSI())
	}
}
