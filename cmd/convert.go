package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/jsphweid/scoretrack/constants"
	"github.com/jsphweid/scoretrack/model"
	"github.com/jsphweid/scoretrack/omr"
	"github.com/jsphweid/scoretrack/util"
	"github.com/spf13/cobra"
)

var (
	convertOut   string
	convertSheet string
)

func init() {
	addOMRFlags(convertCmd)
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", "out.mid", "where to write the MIDI file")
	convertCmd.Flags().StringVar(&convertSheet, "sheet", "", "also store each page's MIDI under this sheet name")
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert <image or dir>...",
	Short: "Converts sheet music pages to MIDI",
	Long: `Converts binarized or scanned sheet music pages (png/jpg) to a MIDI
file. Directories are searched for images, which are taken in name order.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		convert(args)
	},
}

func gatherPages(args []string) [][]byte {
	var pages [][]byte
	for _, arg := range args {
		paths, err := util.GatherImagePaths(arg)
		if err != nil {
			panic("Could not read " + arg + ": " + err.Error())
		}
		for _, p := range paths {
			pages = append(pages, util.ReadFileOrPanic(p))
		}
	}
	return pages
}

func convert(args []string) {
	pages := gatherPages(args)
	if len(pages) == 0 {
		panic("No images found")
	}

	converter, lib := loadConverterOrPanic()
	defer lib.Close()

	ctx, cancel := context.WithTimeout(context.Background(), constants.ConvertTimeout)
	defer cancel()
	res, err := converter.Convert(ctx, pages)
	cobra.CheckErr(err)

	for _, p := range res.Pages {
		if p.Err != nil {
			fmt.Printf("page %d: %v\n", p.Index, p.Err)
			continue
		}
		fmt.Printf("page %d: %d systems, %d notes\n", p.Index, len(p.Systems), p.NumNotes())
	}

	cobra.CheckErr(os.WriteFile(convertOut, res.Midi, 0644))
	fmt.Printf("wrote %d notes to %v\n", len(res.Notes), convertOut)

	if convertSheet != "" {
		store := openStoreOrPanic()
		defer store.Close()
		for _, p := range res.Pages {
			if p.Err != nil {
				continue
			}
			single, err := converter.Assemble([]omr.Page{p})
			cobra.CheckErr(err)
			cobra.CheckErr(store.PutScore(ctx, model.Score{Sheet: convertSheet, Page: p.Index + 1, Midi: single.Midi}))
		}
		fmt.Printf("stored pages of %q\n", convertSheet)
	}
}
