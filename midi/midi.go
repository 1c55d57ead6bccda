package midi

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/jsphweid/scoretrack/constants"
	"github.com/jsphweid/scoretrack/model"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

type reducedEvent struct {
	tick      int64
	isNoteOff bool
	key       uint8
}

func ReadMidiFile(filepath string) (model.Timeline, error) {
	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("Error reading midi file... %w", err)
	}
	return ReadTimeline(dat)
}

// ReadTimeline decodes a standard MIDI file into notes timed in seconds,
// sorted by start then pitch.
func ReadTimeline(dat []byte) (t model.Timeline, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r, ok := recover().(string); ok {
			t = nil
			e = errors.New(r)
		}
	}()

	s, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return nil, fmt.Errorf("Error parsing midi file... %w", err)
	}

	var res model.Timeline
	for _, events := range s.Tracks {
		type key struct{ channel, key uint8 }
		pressed := make(map[key][]int64)

		var absTicks int64
		for _, event := range events {
			absTicks += int64(event.Delta)
			var channel, k, velocity uint8
			switch {
			case event.Message.GetNoteOn(&channel, &k, &velocity) && velocity > 0:
				pressed[key{channel, k}] = append(pressed[key{channel, k}], absTicks)
			case event.Message.GetNoteOn(&channel, &k, &velocity),
				event.Message.GetNoteOff(&channel, &k, &velocity):
				starts := pressed[key{channel, k}]
				if len(starts) == 0 {
					continue
				}
				startTick := starts[0]
				pressed[key{channel, k}] = starts[1:]

				start := float64(s.TimeAt(startTick)) / 1e6
				end := float64(s.TimeAt(absTicks)) / 1e6
				res = append(res, model.Note{Pitch: k, Start: start, Duration: end - start})
			}
		}
	}

	model.SortTimeline(res)
	return res, nil
}

// WriteTimeline encodes notes timed in beats as a single track MIDI file with
// a fixed tempo. An empty timeline still yields a valid file carrying the
// track name and tempo.
func WriteTimeline(notes model.Timeline) ([]byte, error) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(constants.TicksPerQuarter)

	var reduced []reducedEvent
	for _, n := range notes {
		on := beatsToTicks(n.Start)
		off := beatsToTicks(n.End())
		reduced = append(reduced,
			reducedEvent{tick: on, key: n.Pitch},
			reducedEvent{tick: off, key: n.Pitch, isNoteOff: true},
		)
	}

	// prioritize smaller offset values then note off
	sort.SliceStable(reduced, func(i, j int) bool {
		if reduced[i].tick != reduced[j].tick {
			return reduced[i].tick < reduced[j].tick
		}
		return reduced[i].isNoteOff && !reduced[j].isNoteOff
	})

	var track smf.Track
	track.Add(0, smf.MetaTrackSequenceName(constants.TrackName))
	track.Add(0, smf.MetaTempo(constants.Tempo))

	var last int64
	for _, evt := range reduced {
		delta := uint32(evt.tick - last)
		last = evt.tick
		if evt.isNoteOff {
			track.Add(delta, midi.NoteOff(0, evt.key))
		} else {
			track.Add(delta, midi.NoteOn(0, evt.key, constants.Velocity))
		}
	}
	track.Close(0)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("Error adding track... %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("Error writing midi file... %w", err)
	}
	return buf.Bytes(), nil
}

func beatsToTicks(beats float64) int64 {
	return int64(math.Round(beats * constants.TicksPerQuarter))
}

// BeatsToSeconds converts a timeline produced at the fixed tempo into
// seconds, the unit reference timelines read from MIDI files use.
func BeatsToSeconds(notes model.Timeline) model.Timeline {
	perBeat := 60.0 / constants.Tempo
	res := make(model.Timeline, len(notes))
	for i, n := range notes {
		res[i] = model.Note{Pitch: n.Pitch, Start: n.Start * perBeat, Duration: n.Duration * perBeat}
	}
	return res
}
