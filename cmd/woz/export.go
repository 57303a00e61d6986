package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/woztool/woz/woz"
	"github.com/woztool/woz/wozfile"
)

var exportCmd = &cobra.Command{
	Use:   "export <image>",
	Short: "export a disk image's info and metadata as JSON",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runExport(args); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(-1)
		}
	},
}

func init() {
	RootCmd.AddCommand(exportCmd)
}

func runExport(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("export expects a single disk image filename (or - for stdin)")
	}
	contents, err := wozfile.ContentsOrStdin(args[0])
	if err != nil {
		return err
	}
	img, err := woz.Load(bytes.NewReader(contents))
	if err != nil {
		return err
	}
	out, err := woz.ToJSON(img)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
