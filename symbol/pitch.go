package symbol

import "math"

// StepRatio is one diatonic step expressed as a fraction of the system height.
const StepRatio = 0.0625

// Steps outside this range fall beyond the ledger lines we read.
const (
	MinStep = -4
	MaxStep = 17
)

var semitones = [7]int{0, 2, 4, 5, 7, 9, 11}

var letters = [7]byte{'C', 'D', 'E', 'F', 'G', 'A', 'B'}

// Clef anchors step 0 (the top of a staff system) on the diatonic scale.
// Clefs are never detected; the configured one applies to every system.
type Clef struct {
	Name string
	// Zero is the diatonic index (octave*7 + letter) at step 0.
	Zero int
}

var (
	Treble = Clef{Name: "treble", Zero: 5*7 + 0} // C5
	Bass   = Clef{Name: "bass", Zero: 3*7 + 2}   // E3
)

// Step quantizes a vertical position inside a system to a diatonic step,
// counting downwards from the top of the system.
func Step(centerY float64, systemY, systemH int) int {
	offset := (centerY - float64(systemY)) / float64(systemH)
	return int(math.Floor(offset/StepRatio + 0.5))
}

func (c Clef) diatonic(step int) int {
	return c.Zero - step
}

// Pitch maps a step to a MIDI pitch with no accidental applied.
func (c Clef) Pitch(step int) int {
	d := c.diatonic(step)
	octave := floorDiv(d, 7)
	letter := d - octave*7
	return 12*(octave+1) + semitones[letter]
}

// Letter is the note name at step, e.g. 'F'.
func (c Clef) Letter(step int) byte {
	d := c.diatonic(step)
	return letters[d-floorDiv(d, 7)*7]
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
