package main

import (
	"os"

	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/logging"
)

func main() {
	logging.ConfigureRuntime()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
