package main

import "github.com/woztool/woz/cmd/woz"

func main() {
	cmd.Execute()
}
