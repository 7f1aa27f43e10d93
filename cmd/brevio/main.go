package main

import (
	"fmt"
	"os"

	"brevio/web/cmd/brevio/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
