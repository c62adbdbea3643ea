package main

import (
	"os"

	"github.com/scan-io-git/remedy/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
