package timeline

import (
	"fmt"
	"testing"

	"github.com/jsphweid/scoretrack/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func note(x int, pitch uint8, d model.Duration) model.NoteSymbol {
	return model.NoteSymbol{Pitch: pitch, Duration: d, Rect: model.Rect{X: x, Y: 100, W: 20, H: 20}}
}

func sep(x int) model.Rect {
	return model.Rect{X: x, Y: 80, W: 6, H: 170}
}

func TestGroupSplitsAtSeparators(t *testing.T) {
	notes := []model.NoteSymbol{
		note(150, 60, model.QuarterEighth),
		note(250, 62, model.QuarterEighth),
		note(450, 64, model.Half),
		note(900, 65, model.Whole),
	}
	separators := []model.Rect{sep(100), sep(400), sep(600), sep(800), sep(1000)}
	groups := Group(notes, separators)

	assert := assert.New(t)
	assert.Len(groups, 3)
	assert.Len(groups[0], 2)
	assert.Equal(uint8(64), groups[1][0].Pitch)
	assert.Equal(uint8(65), groups[2][0].Pitch)
}

func TestGroupWithoutSeparators(t *testing.T) {
	notes := []model.NoteSymbol{note(10, 60, model.Half), note(20, 62, model.Half)}
	groups := Group(notes, nil)
	assert.Len(t, groups, 1)
	assert.Len(t, groups[0], 2)
	assert.Empty(t, Group(nil, []model.Rect{sep(5)}))
}

func TestDurationLaw(t *testing.T) {
	for n := 1; n <= 6; n++ {
		t.Run(fmt.Sprintf("%d quarter notes", n), func(t *testing.T) {
			var notes []model.NoteSymbol
			for i := 0; i < n; i++ {
				notes = append(notes, note(200+i*40, 60, model.QuarterEighth))
			}
			groups := Group(notes, []model.Rect{sep(100), sep(1000)})
			require.Len(t, groups, 1)

			events := Assemble(groups, Sequential)
			want := float64(n) * 0.5
			if n == 1 {
				want = 1
			}
			assert.Equal(t, want, TotalBeats(events))
			assert.Len(t, events, n)
		})
	}
}

func TestAssembleCursorAcrossGroups(t *testing.T) {
	groups := []model.NoteGroup{
		{note(0, 60, model.Whole)},
		{note(0, 62, model.Half), note(10, 64, model.QuarterEighth)},
		{note(0, 65, model.QuarterEighth)},
	}
	events := Assemble(groups, Sequential)

	assert.Equal(t, model.Timeline{
		{Pitch: 60, Start: 0, Duration: 4},
		{Pitch: 62, Start: 4, Duration: 2},
		{Pitch: 64, Start: 6, Duration: 0.5},
		{Pitch: 65, Start: 6.5, Duration: 1},
	}, events)
}

func TestAssembleChordPolicy(t *testing.T) {
	groups := []model.NoteGroup{
		{note(0, 60, model.QuarterEighth), note(0, 64, model.QuarterEighth), note(10, 67, model.Half)},
	}
	events := Assemble(groups, Chord)

	assert.Equal(t, model.Timeline{
		{Pitch: 60, Start: 0, Duration: 1},
		{Pitch: 64, Start: 0, Duration: 1},
		{Pitch: 67, Start: 1, Duration: 2},
	}, events)
}

func TestEncodeEmpty(t *testing.T) {
	dat, err := Encode(Assemble(nil, Sequential))
	assert.NoError(t, err)
	assert.NotEmpty(t, dat)
}
