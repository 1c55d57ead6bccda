package model

import "sort"

// Duration is the duration class read from a note head glyph.
type Duration string

const (
	Whole           Duration = "1"
	Half            Duration = "2"
	QuarterEighth   Duration = "4,8"
	UnknownDuration Duration = ""
)

func DurationFor(c Category) Duration {
	switch c {
	case WholeNote:
		return Whole
	case HalfNote:
		return Half
	case QuarterOrEighth:
		return QuarterEighth
	}
	return UnknownDuration
}

// StaffSystem is one full-width staff band on a page.
type StaffSystem struct {
	Rect
}

type NoteSymbol struct {
	Pitch    uint8
	Duration Duration
	Rect     Rect
	System   StaffSystem
}

// NoteGroup holds the notes between two staff separators, ordered by x.
type NoteGroup []NoteSymbol

// Note is a timed note event. Start and Duration are in beats when produced
// from a page and in seconds when read from a MIDI file.
type Note struct {
	Pitch    uint8   `json:"pitch"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

func (n Note) End() float64 {
	return n.Start + n.Duration
}

type Timeline = []Note

// SortTimeline orders notes by start, then pitch.
func SortTimeline(t Timeline) {
	sort.SliceStable(t, func(i, j int) bool {
		if t[i].Start != t[j].Start {
			return t[i].Start < t[j].Start
		}
		return t[i].Pitch < t[j].Pitch
	})
}
