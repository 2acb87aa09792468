package main

import (
	"os"

	"github.com/rustyeddy/stockledger/cmd/stockledger/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
