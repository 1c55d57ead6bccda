package cmd

import (
	"context"
	"fmt"

	"github.com/jsphweid/scoretrack/constants"
	"github.com/jsphweid/scoretrack/db"
	"github.com/jsphweid/scoretrack/midi"
	"github.com/jsphweid/scoretrack/model"
	"github.com/jsphweid/scoretrack/omr"
	"github.com/jsphweid/scoretrack/symbol"
	"github.com/jsphweid/scoretrack/timeline"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// flags shared by the commands that run the recognizer
var (
	workers   int
	clefName  string
	keySig    bool
	chordMode bool
	reach     float64
)

func addOMRFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&workers, "workers", omr.DefaultOptions().Workers, "pages processed in parallel")
	cmd.Flags().StringVar(&clefName, "clef", "treble", "clef assumed for every staff (treble|bass)")
	cmd.Flags().BoolVar(&keySig, "key-signature", false, "apply accidentals to every note of the same letter")
	cmd.Flags().Float64Var(&reach, "accidental-reach", 0, "only pair accidentals left of a head within this many head widths (0 pairs the nearest)")
	cmd.Flags().BoolVar(&chordMode, "chords", false, "start runs of short notes in a measure together")
}

func omrOptions() omr.Options {
	opts := omr.DefaultOptions()
	opts.Workers = workers
	if clefName == "bass" {
		opts.Symbols.Clef = symbol.Bass
	}
	opts.Symbols.Reach = reach
	if keySig {
		opts.Symbols.Accidentals = symbol.KeySignature
	}
	if chordMode {
		opts.ShortNotes = timeline.Chord
	}
	return opts
}

func loadConverterOrPanic() (*omr.Converter, *omr.SymbolLibrary) {
	lib, err := omr.LoadLibrary(constants.GetTemplateDir(), constants.DefaultTemplateClasses())
	if err != nil {
		panic("Could not load symbol templates: " + err.Error())
	}
	return omr.NewConverter(lib, omrOptions()), lib
}

func openStoreOrPanic() db.Store {
	store, err := db.Open()
	if err != nil {
		panic("Could not open score store: " + err.Error())
	}
	return store
}

// loadReference reads the reference timeline either from a MIDI file or from
// the store.
func loadReference(ctx context.Context, path, sheet string, page int) (model.Timeline, error) {
	if path != "" {
		return midi.ReadMidiFile(path)
	}
	if sheet == "" {
		return nil, errors.New("need --reference or --sheet")
	}
	store := openStoreOrPanic()
	defer store.Close()
	score, err := store.GetScore(ctx, model.ScoreKey{Sheet: sheet, Page: page})
	if err != nil {
		return nil, err
	}
	return midi.ReadTimeline(score.Midi)
}

func printNotes(notes model.Timeline) {
	for i, n := range notes {
		fmt.Printf("%4d  pitch %3d  start %8.3f  duration %6.3f\n", i, n.Pitch, n.Start, n.Duration)
	}
}
