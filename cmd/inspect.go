package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jsphweid/scoretrack/constants"
	"github.com/jsphweid/scoretrack/midi"
	"github.com/jsphweid/scoretrack/omr"
	"github.com/jsphweid/scoretrack/util"
	"github.com/spf13/cobra"
)

func init() {
	addOMRFlags(inspectCmd)
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.mid | page image>",
	Short: "Inspects a MIDI file or a page",
	Long: `Prints the notes of a MIDI file, or the staff systems and measures the
recognizer finds on a page image.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		inspect(args[0])
	},
}

func inspect(path string) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi":
		notes, err := midi.ReadMidiFile(path)
		cobra.CheckErr(err)
		printNotes(notes)
	default:
		inspectPage(path)
	}
}

func inspectPage(path string) {
	page, err := omr.Decode(util.ReadFileOrPanic(path))
	cobra.CheckErr(err)
	defer page.Close()

	converter, lib := loadConverterOrPanic()
	defer lib.Close()

	ctx, cancel := context.WithTimeout(context.Background(), constants.ConvertTimeout)
	defer cancel()
	p, err := converter.ProcessPage(ctx, page)
	cobra.CheckErr(err)

	for i, s := range p.Systems {
		fmt.Printf("system %d: %+v\n", i, s.Rect)
	}
	for i, g := range p.Groups {
		fmt.Printf("measure %d:\n", i)
		for _, n := range g {
			fmt.Printf("  pitch %3d  %-4s  at %+v\n", n.Pitch, n.Duration, n.Rect)
		}
	}
}
