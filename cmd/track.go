package cmd

import (
	"context"
	"fmt"

	"github.com/jsphweid/scoretrack/constants"
	"github.com/jsphweid/scoretrack/follow"
	"github.com/jsphweid/scoretrack/midi"
	"github.com/jsphweid/scoretrack/sample"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// reference selection shared by track and listen
var (
	referencePath  string
	referenceSheet string
	referencePage  int
	lookAhead      float64
)

var roundSize int

func addReferenceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&referencePath, "reference", "", "reference MIDI file")
	cmd.Flags().StringVar(&referenceSheet, "sheet", "", "stored sheet to use as reference")
	cmd.Flags().IntVar(&referencePage, "page", 1, "page of --sheet")
	cmd.Flags().Float64Var(&lookAhead, "lookahead", constants.LookAhead, "seconds past the cursor to search, 0 for all")
}

func init() {
	addReferenceFlags(trackCmd)
	trackCmd.Flags().IntVar(&roundSize, "round", 8, "notes per round")
	rootCmd.AddCommand(trackCmd)
}

var trackCmd = &cobra.Command{
	Use:   "track <performance.mid>",
	Short: "Follows a recorded performance through a reference",
	Long: `Cuts a performance MIDI file into rounds and aligns each against the
reference, printing where in the reference the performer is.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		track(args[0])
	},
}

func track(path string) {
	ctx := context.Background()
	reference, err := loadReference(ctx, referencePath, referenceSheet, referencePage)
	cobra.CheckErr(err)
	performance, err := midi.ReadMidiFile(path)
	cobra.CheckErr(err)

	session := follow.NewSession(reference, follow.Options{LookAhead: lookAhead})
	defer session.Close()

	for i, round := range sample.Rounds(performance, roundSize) {
		query := follow.MergeOnsets(round, constants.OnsetMergeWindow)
		alignCtx, cancel := context.WithTimeout(ctx, constants.AlignTimeout)
		res, err := session.Align(alignCtx, query)
		cancel()
		if errors.Is(err, follow.ErrInsufficientReference) {
			fmt.Printf("round %d: reference exhausted at %.3fs\n", i, session.Progress())
			return
		}
		cobra.CheckErr(err)
		fmt.Printf("round %d: events %d-%d  play time %.3fs  distance %.2f\n",
			i, res.BestStart, res.BestEnd, res.PlayTime, res.Distance)
	}
}
