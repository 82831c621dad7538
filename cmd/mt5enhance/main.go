package main

import (
	"os"

	"github.com/csvk/MT5Enhance/cmd/mt5enhance/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
