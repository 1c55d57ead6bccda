// Package symbol turns located glyphs into pitched notes belonging to a staff
// system.
package symbol

import (
	"math"
	"sort"

	"github.com/jsphweid/scoretrack/model"
)

type AccidentalPolicy int

const (
	// Nearest pairs each note with the closest unclaimed accidental in front
	// of it.
	Nearest AccidentalPolicy = iota
	// KeySignature applies every accidental of a system to all notes that
	// share its letter name.
	KeySignature
)

type Options struct {
	Clef        Clef
	Accidentals AccidentalPolicy
	// Reach, when positive, only pairs accidentals sitting left of a note
	// head, at most Reach head widths away and within one head height.
	// Zero pairs the closest unclaimed accidental of the system.
	Reach float64
}

func DefaultOptions() Options {
	return Options{Clef: Treble, Accidentals: Nearest}
}

// Glyph is a merged duration glyph waiting for classification.
type Glyph struct {
	model.Rect
	Duration model.Duration
}

type accidental struct {
	model.Rect
	shift int
	taken bool
}

// InSystem reports whether r is close enough to the system center to belong
// to it. 5/7 of the height keeps ledger-line notes.
func InSystem(r model.Rect, system model.StaffSystem) bool {
	return math.Abs(r.CenterY()-system.CenterY()) < float64(system.H)*5.0/7.0
}

// Classify pitches every glyph belonging to system. Glyphs outside the
// system or off the readable step range are dropped. The result is ordered
// by x.
func Classify(system model.StaffSystem, sharps, flats []model.Rect, glyphs []Glyph, opts Options) []model.NoteSymbol {
	var accs []*accidental
	for _, r := range sharps {
		if InSystem(r, system) {
			accs = append(accs, &accidental{Rect: r, shift: 1})
		}
	}
	for _, r := range flats {
		if InSystem(r, system) {
			accs = append(accs, &accidental{Rect: r, shift: -1})
		}
	}

	var mine []Glyph
	for _, g := range glyphs {
		if InSystem(g.Rect, system) {
			mine = append(mine, g)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool {
		return mine[i].X < mine[j].X
	})

	var res []model.NoteSymbol
	for _, g := range mine {
		step := Step(g.CenterY(), system.Y, system.H)
		if step < MinStep || step > MaxStep {
			continue
		}
		pitch := opts.Clef.Pitch(step)

		switch opts.Accidentals {
		case KeySignature:
			pitch += keySignatureShift(opts.Clef, step, system, accs)
		default:
			if a := nearestAccidental(g.Rect, accs, opts.Reach); a != nil {
				a.taken = true
				pitch += a.shift
			}
		}

		if pitch < 0 || pitch > 127 {
			continue
		}
		res = append(res, model.NoteSymbol{
			Pitch:    uint8(pitch),
			Duration: g.Duration,
			Rect:     g.Rect,
			System:   system,
		})
	}
	return res
}

func nearestAccidental(note model.Rect, accs []*accidental, reach float64) *accidental {
	var best *accidental
	bestDist := math.Inf(1)
	for _, a := range accs {
		if a.taken {
			continue
		}
		if reach > 0 && !inReach(note, a.Rect, reach) {
			continue
		}
		if d := a.Distance(note); d < bestDist {
			best = a
			bestDist = d
		}
	}
	return best
}

func inReach(note, acc model.Rect, reach float64) bool {
	noteX, noteY := note.Center()
	ax, ay := acc.Center()
	dx := noteX - ax
	return dx > 0 && dx <= reach*float64(note.W) && math.Abs(noteY-ay) <= float64(note.H)
}

func keySignatureShift(clef Clef, step int, system model.StaffSystem, accs []*accidental) int {
	letter := clef.Letter(step)
	var shift int
	sharp, flat := false, false
	for _, a := range accs {
		if clef.Letter(Step(a.CenterY(), system.Y, system.H)) != letter {
			continue
		}
		if a.shift > 0 {
			sharp = true
		} else {
			flat = true
		}
	}
	if sharp {
		shift++
	}
	if flat {
		shift--
	}
	return shift
}
