// Package timeline turns classified notes into timed note events.
package timeline

import (
	"github.com/jsphweid/scoretrack/midi"
	"github.com/jsphweid/scoretrack/model"
)

// ShortNotePolicy decides how several quarter-or-eighth heads sharing one
// group are played.
type ShortNotePolicy int

const (
	// Sequential plays them one after another as eighths.
	Sequential ShortNotePolicy = iota
	// Chord sounds them together for one beat.
	Chord
)

// Group splits notes of one system into groups at the separators. Both inputs
// must be sorted by x. Empty groups are never emitted.
func Group(notes []model.NoteSymbol, separators []model.Rect) []model.NoteGroup {
	var res []model.NoteGroup
	var group model.NoteGroup
	i, j := 0, 0
	for i < len(notes) {
		if j < len(separators) && notes[i].Rect.X > separators[j].X {
			j++
			if len(group) > 0 {
				res = append(res, group)
				group = nil
			}
		} else {
			group = append(group, notes[i])
			i++
		}
	}
	if len(group) > 0 {
		res = append(res, group)
	}
	return res
}

// Beats is the length of a note inside a group of size groupLen.
func Beats(d model.Duration, groupLen int) float64 {
	switch d {
	case model.Whole:
		return 4
	case model.Half:
		return 2
	case model.QuarterEighth:
		if groupLen == 1 {
			return 1
		}
		return 0.5
	}
	return 0
}

// Assemble lays the groups out on one monotonic beat cursor starting at 0.
func Assemble(groups []model.NoteGroup, policy ShortNotePolicy) model.Timeline {
	var res model.Timeline
	var cursor float64
	for _, group := range groups {
		chordOpen := false
		for _, n := range group {
			if policy == Chord && n.Duration == model.QuarterEighth && len(group) > 1 {
				if !chordOpen {
					chordOpen = true
					cursor++
				}
				res = append(res, model.Note{Pitch: n.Pitch, Start: cursor - 1, Duration: 1})
				continue
			}
			chordOpen = false

			d := Beats(n.Duration, len(group))
			res = append(res, model.Note{Pitch: n.Pitch, Start: cursor, Duration: d})
			cursor += d
		}
	}
	return res
}

// TotalBeats is where the cursor ends after laying out notes.
func TotalBeats(notes model.Timeline) float64 {
	var end float64
	for _, n := range notes {
		end = max(end, n.End())
	}
	return end
}

// Encode writes the timeline as a single track MIDI file.
func Encode(notes model.Timeline) ([]byte, error) {
	return midi.WriteTimeline(notes)
}
