package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/woztool/woz/woz"
	"github.com/woztool/woz/wozfile"
)

var importCmd = &cobra.Command{
	Use:   "import <image>",
	Short: "update a disk image's metadata from JSON read on stdin",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runImport(args); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(-1)
		}
	},
}

func init() {
	RootCmd.AddCommand(importCmd)
}

func runImport(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("import expects a single disk image filename, modified in place")
	}
	contents, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	img, err := woz.Load(bytes.NewReader(contents))
	if err != nil {
		return err
	}
	jsonBytes, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	if err := woz.FromJSON(img, string(jsonBytes)); err != nil {
		return err
	}
	out, err := woz.DumpChecked(img)
	if err != nil {
		return err
	}
	if err := wozfile.WriteAtomic(args[0], out); err != nil {
		return err
	}
	logger.Info("image updated from JSON", "file", args[0])
	return nil
}
