package main

import (
	"os"

	"github.com/ngld/tabpack/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
