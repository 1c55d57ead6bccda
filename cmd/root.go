package cmd

import (
	"log/slog"

	"github.com/jsphweid/scoretrack/util"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var debugLogging bool

var rootCmd = &cobra.Command{
	Use:   "scoretrack",
	Short: "Sheet music recognition and score following",
	Long: `scoretrack reads scanned sheet music into MIDI and follows a
performance through a stored score.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		envErr := godotenv.Load()
		util.InitLogger(debugLogging)
		if envErr != nil {
			slog.Debug("no .env loaded", "err", envErr)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "verbose logging")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
