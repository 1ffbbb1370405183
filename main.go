package main

import (
	"os"

	"github.com/sangar-bot/sangar/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
