package main

import (
	"fmt"
	"os"

	"github.com/mcao2/prompt-digest/internal/command"
)

func main() {
	if err := command.App().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
