package screen

import (
	"strconv"

	"superhero/pkg/portrait"
	"superhero/pkg/schema"
)

type State int

const (
	Idle State = iota
	Displayed
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Displayed:
		return "displayed"
	case Errored:
		return "errored"
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

const (
	IdleText    = "Roll to get a hero!"
	Placeholder = "-"
)

var (
	StatLabels = [6]string{"Intelligence", "Strength", "Speed", "Durability", "Power", "Combat"}
	BioLabels  = [6]string{"Full Name", "Alter Egos", "Publisher", "First Appearance", "Place of Birth", "Alignment"}
)

// Line is one labelled text field, shown as "<Label>: <Value>".
type Line struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

func (l Line) String() string { return l.Label + ": " + l.Value }

// Screen is everything the hero screen shows. The Controller's loop owns the
// live copy; everyone else gets snapshots.
type Screen struct {
	State State
	Name  string
	Stats [6]Line
	Bio   [6]Line

	// Hero is the record on display, nil unless State is Displayed.
	Hero *schema.Hero

	Portrait        portrait.Image
	PortraitURL     string
	PortraitPending bool

	// Seq and RequestID identify the request whose result is on screen.
	Seq       uint64
	RequestID string

	// Pending counts requests in flight. Labels do not change while loading.
	Pending int
}

// New returns the idle screen.
func New() Screen {
	s := Screen{State: Idle, Name: IdleText}
	s.resetLines()
	return s
}

// Lines returns the twelve stat and biography lines, stats first.
func (s Screen) Lines() []Line {
	out := make([]Line, 0, len(s.Stats)+len(s.Bio))
	out = append(out, s.Stats[:]...)
	return append(out, s.Bio[:]...)
}

func (s *Screen) resetLines() {
	for i, label := range StatLabels {
		s.Stats[i] = Line{Label: label, Value: Placeholder}
	}
	for i, label := range BioLabels {
		s.Bio[i] = Line{Label: label, Value: Placeholder}
	}
}

func (s *Screen) display(h schema.Hero) {
	s.State = Displayed
	s.Hero = &h
	s.Name = h.Name

	stats := [6]int{
		h.Powerstats.Intelligence,
		h.Powerstats.Strength,
		h.Powerstats.Speed,
		h.Powerstats.Durability,
		h.Powerstats.Power,
		h.Powerstats.Combat,
	}
	for i, v := range stats {
		s.Stats[i] = Line{Label: StatLabels[i], Value: strconv.Itoa(v)}
	}

	bio := [6]string{
		h.Biography.FullName,
		h.Biography.AlterEgos,
		h.Biography.Publisher,
		h.Biography.FirstAppearance,
		h.Biography.PlaceOfBirth,
		h.Biography.Alignment,
	}
	for i, v := range bio {
		s.Bio[i] = Line{Label: BioLabels[i], Value: v}
	}
	s.PortraitURL = h.Images.MD
}

func (s *Screen) fail(err error) {
	s.State = Errored
	s.Hero = nil
	s.Name = "Error: " + err.Error() + "\nTry rolling again!"
	s.resetLines()
	s.Portrait = portrait.Image{}
	s.PortraitURL = ""
	s.PortraitPending = false
}
