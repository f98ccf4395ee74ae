package main

import (
	"os"

	"lavinder/cmd"
)

func main() {
	if err := cmd.New().Execute(); err != nil {
		cmd.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
