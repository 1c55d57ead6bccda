package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jsphweid/scoretrack/db"
	"github.com/jsphweid/scoretrack/midi"
	"github.com/jsphweid/scoretrack/model"
	"github.com/jsphweid/scoretrack/util"
	"github.com/spf13/cobra"
)

func init() {
	scoresCmd.AddCommand(scoresPutCmd)
	scoresCmd.AddCommand(scoresListCmd)
	rootCmd.AddCommand(scoresCmd)
}

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Manages stored reference scores",
	Long:  `Manages stored reference scores`,
}

var scoresPutCmd = &cobra.Command{
	Use:   "put <sheet> <page> <file.mid>",
	Short: "Stores a reference MIDI file for a page",
	Long:  `Stores a reference MIDI file for a page`,
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		page, err := strconv.Atoi(args[1])
		if err != nil || page < 1 {
			panic("page has to be a number from 1")
		}
		putScore(args[0], page, args[2])
	},
}

var scoresListCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "Lists stored scores, optionally close to a sheet name",
	Long:  `Lists stored scores, optionally close to a sheet name`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var query string
		if len(args) == 1 {
			query = args[0]
		}
		listScores(query)
	},
}

func putScore(sheet string, page int, path string) {
	dat := util.ReadFileOrPanic(path)
	notes, err := midi.ReadTimeline(dat)
	cobra.CheckErr(err)

	store := openStoreOrPanic()
	defer store.Close()
	cobra.CheckErr(store.PutScore(context.Background(), model.Score{Sheet: sheet, Page: page, Midi: dat}))
	fmt.Printf("stored %q page %d (%d notes)\n", sheet, page, len(notes))
}

func listScores(query string) {
	store := openStoreOrPanic()
	defer store.Close()
	keys, err := store.ListScores(context.Background())
	cobra.CheckErr(err)

	for _, m := range db.MatchSheet(keys, query) {
		fmt.Printf("%-40s pages %v  similarity %.2f\n", m.Sheet, m.Pages, m.Similarity)
	}
}
