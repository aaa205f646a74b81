package main

import "github.com/gostdlib/futures/tools/futures-cli/cmd"

func main() {
	cmd.Execute()
}
