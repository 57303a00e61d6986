package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/woztool/woz/woz"
	"github.com/woztool/woz/wozfile"
)

var (
	editInfoFlags []string
	editMetaFlags []string
)

var editCmd = &cobra.Command{
	Use:   "edit <image>",
	Short: "edit information and metadata in a disk image",
	Long: `edit changes INFO and META fields in a .woz or .moof disk image,
modified in place via a sibling temporary file and atomic rename.

Use repeated --info/--meta flags to edit multiple fields at once. Use
"key:" with no value to delete a metadata field. Keys are case-sensitive.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runEdit(args); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(-1)
		}
	},
}

func init() {
	RootCmd.AddCommand(editCmd)
	editCmd.Flags().StringArrayVarP(&editInfoFlags, "info", "i", nil, `change an information field, "key:value"`)
	editCmd.Flags().StringArrayVarP(&editMetaFlags, "meta", "m", nil, `change a metadata field, "key:value" (repeat "|" for multiple values)`)
}

func runEdit(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("edit expects a single disk image filename, modified in place")
	}
	contents, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	img, err := woz.Load(bytes.NewReader(contents))
	if err != nil {
		return err
	}

	if err := applyEdits(img, editInfoFlags, editMetaFlags); err != nil {
		return err
	}
	if !hasInfoKey(editInfoFlags, "creator") {
		img.Info.Creator = creatorOrDefault(img.Info.Creator)
	}

	out, err := woz.DumpChecked(img)
	if err != nil {
		return err
	}
	if err := wozfile.WriteAtomic(args[0], out); err != nil {
		return err
	}
	logger.Info("image edited", "file", args[0])
	return nil
}

// applyEdits processes --info flags in three passes (version, then
// disk_type, then everything else) because later fields' valid ranges
// depend on disk_type, and disk_type's own default bit timing reset
// depends on the image not yet having an explicit override. --meta flags
// are applied last, in order given.
func applyEdits(img *woz.DiskImage, infoFlags, metaFlags []string) error {
	pairs := make([][2]string, 0, len(infoFlags))
	for _, f := range infoFlags {
		k, v, ok := splitKV(f)
		if !ok {
			return fmt.Errorf("malformed --info flag %q (expected key:value)", f)
		}
		pairs = append(pairs, [2]string{k, v})
	}

	for _, kv := range pairs {
		if kv[0] == "version" {
			if err := editVersion(img, kv[1]); err != nil {
				return err
			}
		}
	}
	for _, kv := range pairs {
		if kv[0] == "disk_type" {
			if err := editDiskType(img, kv[1]); err != nil {
				return err
			}
		}
	}
	for _, kv := range pairs {
		switch kv[0] {
		case "version", "disk_type":
			continue
		default:
			if err := editOtherInfo(img, kv[0], kv[1]); err != nil {
				return err
			}
		}
	}

	for _, f := range metaFlags {
		k, v, ok := splitKV(f)
		if !ok {
			return fmt.Errorf("malformed --meta flag %q (expected key:value)", f)
		}
		if v == "" {
			img.Meta.Delete(k)
			continue
		}
		img.Meta.Set(k, strings.Split(v, "|"))
	}

	return nil
}

func splitKV(s string) (key, value string, ok bool) {
	i := strings.Index(s, ":")
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// hasInfoKey reports whether any --info flag explicitly targets key, so
// runEdit knows whether to fall back to --creator/$WOZ_CREATOR.
func hasInfoKey(infoFlags []string, key string) bool {
	for _, f := range infoFlags {
		if k, _, ok := splitKV(f); ok && k == key {
			return true
		}
	}
	return false
}

func editVersion(img *woz.DiskImage, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("bad version %q: %w", v, err)
	}
	if n < 1 {
		return fmt.Errorf("unknown version (expected 1, 2, or 3, found %d)", n)
	}
	if n == 1 {
		img.ImageType = woz.ImageTypeWOZ1
	} else {
		img.ImageType = woz.ImageTypeWOZ2
	}
	img.Info.Version = uint8(n)
	return nil
}

func editDiskType(img *woz.DiskImage, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("bad disk_type %q: %w", v, err)
	}
	newType := woz.DiskType(n)
	if img.Info.DiskType != newType {
		img.Info.DiskType = newType
		switch newType {
		case woz.DiskType525:
			img.Info.OptimalBitTiming = 32
		case woz.DiskType35:
			img.Info.OptimalBitTiming = 16
		}
	}
	return nil
}

func editOtherInfo(img *woz.DiskImage, key, value string) error {
	info := &img.Info
	switch key {
	case "write_protected":
		b, ok := parseEditBool(value)
		if !ok {
			return fmt.Errorf("bad write_protected value %q", value)
		}
		info.WriteProtected = b
	case "synchronized":
		b, ok := parseEditBool(value)
		if !ok {
			return fmt.Errorf("bad synchronized value %q", value)
		}
		info.Synchronized = b
	case "cleaned":
		b, ok := parseEditBool(value)
		if !ok {
			return fmt.Errorf("bad cleaned value %q", value)
		}
		info.Cleaned = b
	case "creator":
		info.Creator = value
	}
	if info.Version == 1 {
		return nil
	}
	switch key {
	case "disk_sides":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("bad disk_sides %q: %w", value, err)
		}
		info.DiskSides = uint8(n)
	case "boot_sector_format":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("bad boot_sector_format %q: %w", value, err)
		}
		info.BootSectorFormat = uint8(n)
	case "optimal_bit_timing":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("bad optimal_bit_timing %q: %w", value, err)
		}
		info.OptimalBitTiming = uint8(n)
	case "required_ram":
		v := value
		if len(v) > 0 && (v[len(v)-1] == 'k' || v[len(v)-1] == 'K') {
			v = v[:len(v)-1]
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("bad required_ram %q: %w", value, err)
		}
		info.RequiredRAM = uint16(n)
	case "compatible_hardware":
		info.CompatibleHardware = strings.Split(value, "|")
	}
	return nil
}

func parseEditBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true, true
	case "0", "false", "no":
		return false, true
	default:
		return false, false
	}
}
