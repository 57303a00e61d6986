package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/woztool/woz/woz"
	"github.com/woztool/woz/wozfile"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <image>",
	Short: "validate a WOZ/MOOF image's container structure and checksums",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runVerify(args); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(-1)
		}
	},
}

func init() {
	RootCmd.AddCommand(verifyCmd)
}

func runVerify(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("verify expects a single disk image filename (or - for stdin)")
	}
	contents, err := wozfile.ContentsOrStdin(args[0])
	if err != nil {
		return err
	}
	img, err := woz.Load(bytes.NewReader(contents))
	if err != nil {
		return err
	}
	logger.Info("image verified",
		"image_type", string(img.ImageType),
		"tracks", len(img.Tracks),
	)
	fmt.Printf("%s: OK (%d tracks)\n", args[0], len(img.Tracks))
	return nil
}
