// Package wozfile contains helper routines for reading and writing disk
// image files: "-" meaning stdin/stdout, and atomic write-then-rename for
// anything that mutates a .woz/.moof file on disk.
package wozfile

import (
	"io"
	"os"

	"github.com/google/renameio"
)

// ContentsOrStdin returns the contents of a file, unless the file is "-",
// in which case it reads from stdin.
func ContentsOrStdin(s string) ([]byte, error) {
	if s == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(s)
}

// WriteAtomic writes contents to filename via a sibling temporary file
// (traditionally filename+".ardry") and an atomic rename, so a reader never
// observes a half-written disk image.
func WriteAtomic(filename string, contents []byte) error {
	t, err := renameio.TempFile("", filename)
	if err != nil {
		return err
	}
	defer t.Cleanup()
	if _, err := t.Write(contents); err != nil {
		return err
	}
	return t.CloseAtomicallyReplace()
}
