package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/woztool/woz/woz"
	"github.com/woztool/woz/wozfile"
)

var removeTrackFlags []string

var removeCmd = &cobra.Command{
	Use:   "remove <image>",
	Short: "remove tracks from a 5.25-inch disk image",
	Long: `remove deletes the given quarter-tracks (0..40 in steps of 0.25)
from a 5.25-inch disk image. It is harmless to remove a track that
doesn't exist.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRemove(args); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(-1)
		}
	},
}

func init() {
	RootCmd.AddCommand(removeCmd)
	removeCmd.Flags().StringArrayVarP(&removeTrackFlags, "track", "t", nil, "quarter-track to remove (repeatable)")
}

func runRemove(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("remove expects a single disk image filename, modified in place")
	}
	contents, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	img, err := woz.Load(bytes.NewReader(contents))
	if err != nil {
		return err
	}
	if img.Info.DiskType != woz.DiskType525 {
		return fmt.Errorf("BadDiskType: can not remove tracks from non-5.25-inch disks")
	}
	for _, t := range removeTrackFlags {
		n, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return fmt.Errorf("bad track %q: %w", t, err)
		}
		if _, err := img.RemoveTrack(n); err != nil {
			return err
		}
	}
	out, err := woz.DumpChecked(img)
	if err != nil {
		return err
	}
	if err := wozfile.WriteAtomic(args[0], out); err != nil {
		return err
	}
	logger.Info("tracks removed", "file", args[0], "count", len(removeTrackFlags))
	return nil
}
