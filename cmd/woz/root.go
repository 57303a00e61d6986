// Package cmd implements the woz CLI: verify, dump, export, import, edit,
// and remove subcommands over WOZ1/WOZ2/MOOF disk images.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	debugCount int
	creator    string
	logger     *slog.Logger
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "woz",
	Short: "Read, validate, edit, and re-serialize WOZ/MOOF disk images",
	Long: `woz operates on WOZ1/WOZ2/MOOF floppy disk image containers: the
chunked format Applesauce and friends use to preserve Apple II and
Macintosh floppy media bit-for-bit.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = newLogger(debugCount)
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and runs it. Called
// by main.main(); only needs to happen once.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(-1)
	}
}

func init() {
	RootCmd.PersistentFlags().CountVarP(&debugCount, "debug", "d", "increase logging verbosity (repeatable)")
	RootCmd.PersistentFlags().StringVar(&creator, "creator", "", "creator string written by edit (default: $WOZ_CREATOR, else the image's existing creator)")

	viper.BindPFlag("creator", RootCmd.PersistentFlags().Lookup("creator"))
	viper.SetEnvPrefix("woz")
	viper.BindEnv("creator", "WOZ_CREATOR")
}

// creatorOrDefault returns the configured creator string, falling back to
// fallback when neither --creator nor WOZ_CREATOR was set.
func creatorOrDefault(fallback string) string {
	if v := viper.GetString("creator"); v != "" {
		return v
	}
	return fallback
}

// newLogger builds a *slog.Logger writing to stderr; debugCount raises the
// minimum level the same way the teacher's types.Globals.Debug count does
// for its own verbosity checks.
func newLogger(debugCount int) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case debugCount >= 2:
		level = slog.LevelDebug
	case debugCount == 1:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
