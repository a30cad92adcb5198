package main

import (
	"fmt"
	"os"

	"github.com/wordpick/wordpick/cmd/wordpick/commands"
)

func main() {
	if err := commands.NewCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
