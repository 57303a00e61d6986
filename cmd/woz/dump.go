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

const reportWidth = 30

var dumpCmd = &cobra.Command{
	Use:   "dump <image>",
	Short: "print all available information and metadata in a disk image",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDump(args); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(-1)
		}
	},
}

func init() {
	RootCmd.AddCommand(dumpCmd)
}

func runDump(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("dump expects a single disk image filename (or - for stdin)")
	}
	contents, err := wozfile.ContentsOrStdin(args[0])
	if err != nil {
		return err
	}
	img, err := woz.Load(bytes.NewReader(contents))
	if err != nil {
		return err
	}
	printTMap(img)
	printMeta(img)
	printInfo(img)
	return nil
}

func printField(label string, value ...interface{}) {
	parts := make([]string, len(value))
	for i, v := range value {
		parts[i] = fmt.Sprint(v)
	}
	line := padLabel(label)
	for _, p := range parts {
		line += " " + p
	}
	fmt.Println(line)
}

func padLabel(label string) string {
	for len(label) < reportWidth {
		label += " "
	}
	return label
}

func printInfo(img *woz.DiskImage) {
	printField("INFO:  File format:", string(img.ImageType))
	info := img.Info
	printField("INFO:  File format version:", info.Version)

	if img.ImageType == woz.ImageTypeMOOF {
		printField("INFO:  Disk type:", moofDiskTypeName(info.DiskType))
	} else {
		printField("INFO:  Disk type:", wozDiskTypeName(info.DiskType, info.DiskSides))
	}
	printField("INFO:  Write protected:", yesNo(info.WriteProtected))
	printField("INFO:  Tracks synchronized:", yesNo(info.Synchronized))
	if img.ImageType != woz.ImageTypeMOOF {
		printField("INFO:  Weakbits cleaned:", yesNo(info.Cleaned))
	}
	printField("INFO:  Creator:", info.Creator)
	if img.ImageType == woz.ImageTypeWOZ1 {
		return
	}
	if img.ImageType == woz.ImageTypeWOZ2 {
		if info.DiskType == woz.DiskType525 {
			printField("INFO:  Boot sector format:", info.BootSectorFormat)
		} else {
			printField("INFO:  Disk sides:", info.DiskSides)
		}
	}
	defaultTiming := defaultBitTimingFor(img, info)
	speed := "(standard)"
	switch {
	case info.OptimalBitTiming < defaultTiming:
		speed = "(fast)"
	case info.OptimalBitTiming > defaultTiming:
		speed = "(slow)"
	}
	printField("INFO:  Optimal bit timing:", info.OptimalBitTiming, speed)
	if img.ImageType == woz.ImageTypeMOOF {
		return
	}
	if len(info.CompatibleHardware) == 0 {
		printField("INFO:  Compatible hardware:", "unknown")
	} else {
		printField("INFO:  Compatible hardware:", info.CompatibleHardware[0])
		for _, v := range info.CompatibleHardware[1:] {
			printField("INFO:  ", v)
		}
	}
	if info.RequiredRAM == 0 {
		printField("INFO:  Required RAM:", "unknown")
	} else {
		printField("INFO:  Required RAM:", strconv.Itoa(int(info.RequiredRAM))+"K")
	}
	printField("INFO:  Largest track:", info.LargestTrack, "blocks")
}

// defaultBitTimingFor mirrors wozardry.py's mixed MOOF/non-MOOF rule: on
// MOOF, the "default" is whatever's set (no deviation is ever flagged).
func defaultBitTimingFor(img *woz.DiskImage, info woz.Info) uint8 {
	if img.ImageType == woz.ImageTypeMOOF {
		return info.OptimalBitTiming
	}
	return map[woz.DiskType]uint8{woz.DiskType525: 32, woz.DiskType35: 16}[info.DiskType]
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func moofDiskTypeName(dt woz.DiskType) string {
	switch dt {
	case woz.MoofDisk400K:
		return "3.5-inch 400K"
	case woz.MoofDisk800K:
		return "3.5-inch 800K"
	case woz.MoofDisk144M:
		return "3.5-inch 1.44M"
	default:
		return "unknown"
	}
}

func wozDiskTypeName(dt woz.DiskType, sides uint8) string {
	if dt == woz.DiskType525 {
		return "5.25-inch (single-sided)"
	}
	if sides == 2 {
		return "3.5-inch (double-sided)"
	}
	return "3.5-inch (single-sided)"
}

var tQuarters = [4]string{".00", ".25", ".50", ".75"}

func printTMap(img *woz.DiskImage) {
	if img.ImageType != woz.ImageTypeMOOF && img.Info.DiskType == woz.DiskType525 {
		printTMap525(img)
		return
	}
	printTMap35(img)
}

func printTMap525(img *woz.DiskImage) {
	for i, trk := range img.TMap {
		switch {
		case trk != 0xFF:
			printField(fmt.Sprintf("TMAP:  Track %d%s", i/4, tQuarters[i%4]), fmt.Sprintf("TRKS %d", trk))
		case img.FluxPresent && img.Flux[i] != 0xFF:
			printField(fmt.Sprintf("FLUX:  Track %d%s", i/4, tQuarters[i%4]), fmt.Sprintf("TRKS %d", img.Flux[i]))
		}
	}
}

func printTMap35(img *woz.DiskImage) {
	trackNum, sideNum := 0, 0
	for _, trk := range img.TMap {
		if trk != 0xFF {
			printField(fmt.Sprintf("TMAP:  Track %d, Side %d", trackNum, sideNum), fmt.Sprintf("TRKS %d", trk))
		}
		sideNum = 1 - sideNum
		if sideNum == 0 {
			trackNum++
		}
	}
}

func printMeta(img *woz.DiskImage) {
	if img.Meta == nil || img.Meta.Empty() {
		return
	}
	for _, key := range img.Meta.Keys() {
		values, _ := img.Meta.Get(key)
		if len(values) == 0 {
			continue
		}
		printField("META:  "+key+":", values[0])
		for _, v := range values[1:] {
			printField("META:  ", v)
		}
	}
}
