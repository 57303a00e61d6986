package cmd

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
	"github.com/woztool/woz/woz"
)

func testscriptMain() int {
	Execute()
	return 0
}

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"woz": testscriptMain,
	}))
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			return writeFixture(env.WorkDir + "/disk.woz")
		},
	})
}

// writeFixture builds a minimal, valid WOZ2 image with one track and a
// title/language metadata pair, the same way a real Applesauce dump would
// arrive, so the scripts exercise verify/dump/edit/export/import/remove
// against something Load actually accepts.
func writeFixture(path string) error {
	d := woz.New()
	d.Info.Creator = "fixture"
	d.Meta.Set("title", []string{"Script Fixture"})
	d.Meta.Set("language", []string{"English"})
	if err := d.AddTrack(0, woz.NewTrack([]byte{0x96, 0x96, 0x96, 0x96}, 32)); err != nil {
		return err
	}
	out, err := woz.Dump(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
