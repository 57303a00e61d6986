package woz

// Languages is the fixed enumeration META's "language" key validates
// against (spec Glossary).
var Languages = []string{
	"English", "Spanish", "French", "German", "Chinese", "Japanese", "Italian", "Dutch",
	"Portuguese", "Danish", "Finnish", "Norwegian", "Swedish", "Russian", "Polish", "Turkish",
	"Arabic", "Thai", "Czech", "Hungarian", "Catalan", "Croatian", "Greek", "Hebrew",
	"Romanian", "Slovak", "Ukrainian", "Indonesian", "Malay", "Vietnamese", "Other",
}

// RequiredRAMValues is the fixed enumeration META's "requires_ram" key
// validates against.
var RequiredRAMValues = []string{
	"16K", "24K", "32K", "48K", "64K", "128K", "256K", "512K", "768K", "1M", "1.25M", "1.5M+", "Unknown",
}

// RequiredMachines is the fixed enumeration both META's "requires_machine"
// key and INFO's compatible_hardware bitfield validate against; the
// index in this slice is the bit position in compatible_hardware.
var RequiredMachines = []string{
	"2", "2+", "2e", "2c", "2e+", "2gs", "2c+", "3", "3+",
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
