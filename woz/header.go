package woz

// ImageType identifies which of the three container variants a DiskImage
// was loaded from, or will be serialized as.
type ImageType string

const (
	ImageTypeWOZ1 ImageType = "WOZ1"
	ImageTypeWOZ2 ImageType = "WOZ2"
	ImageTypeMOOF ImageType = "MOOF"
)

// headerTail is the fixed four bytes following the 4-byte magic.
var headerTail = [4]byte{0xFF, 0x0A, 0x0D, 0x0A}

func parseMagic(b [4]byte) (ImageType, error) {
	switch string(b[:]) {
	case string(ImageTypeWOZ1):
		return ImageTypeWOZ1, nil
	case string(ImageTypeWOZ2):
		return ImageTypeWOZ2, nil
	case string(ImageTypeMOOF):
		return ImageTypeMOOF, nil
	default:
		return "", errf(KindNoWOZMarker, "magic string %q not present at offset 0", b[:])
	}
}
