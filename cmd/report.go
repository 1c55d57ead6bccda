package cmd

import (
	"context"
	"fmt"

	"github.com/jsphweid/scoretrack/midi"
	"github.com/jsphweid/scoretrack/model"
	"github.com/jsphweid/scoretrack/util"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Reports on the stored scores",
	Long:  `Reports on the stored scores`,
	Run: func(cmd *cobra.Command, args []string) {
		report()
	},
}

type scoreReport struct {
	key      model.ScoreKey
	numNotes int
	seconds  float64
	err      error
}

func analyzeScore(notes model.Timeline) (int, float64) {
	var end float64
	for _, n := range notes {
		end = max(end, n.End())
	}
	return len(notes), end
}

func report() {
	ctx := context.Background()
	store := openStoreOrPanic()
	defer store.Close()

	keys, err := store.ListScores(ctx)
	cobra.CheckErr(err)

	var reports []scoreReport
	sheets := make(map[string]int)
	for _, key := range keys {
		r := scoreReport{key: key}
		score, err := store.GetScore(ctx, key)
		if err == nil {
			var notes model.Timeline
			notes, err = midi.ReadTimeline(score.Midi)
			r.numNotes, r.seconds = analyzeScore(notes)
		}
		r.err = err
		sheets[key.Sheet]++
		reports = append(reports, r)
	}

	var numNotes []int
	var seconds []float64
	for _, r := range reports {
		if r.err != nil {
			fmt.Printf("%v page %d: unreadable: %v\n", r.key.Sheet, r.key.Page, r.err)
			continue
		}
		fmt.Printf("%v page %d: %d notes, %.1fs\n", r.key.Sheet, r.key.Page, r.numNotes, r.seconds)
		numNotes = append(numNotes, r.numNotes)
		seconds = append(seconds, r.seconds)
	}

	fmt.Printf("sheets: %v\n", len(util.GetKeys(sheets)))
	fmt.Printf("pages: %v\n", len(reports))
	fmt.Printf("notes: %v\n", util.Sum(numNotes))
	fmt.Printf("seconds: %.1f\n", util.Sum(seconds))
}
