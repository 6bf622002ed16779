package main

import (
	"github.com/spf13/cobra"

	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/config"
)

var (
	configPath string
	traceFlag  string
	bothDirs   bool
	jsonOut    bool
)

var rootCmd = &cobra.Command{
	Use:   "mdfutrace",
	Short: "Decode MDFU firmware-update traffic from logic analyzer captures",
	Long: `mdfutrace reconstructs Microchip Device Firmware Update packets from
UART, SPI and I2C bus captures and prints them as an annotated timeline.

Each invocation decodes one direction of the link; pass --both to run a
second instance over the opposite direction and merge the two timelines.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	rootCmd.PersistentFlags().StringVar(&traceFlag, "trace", "", "direction to decode (host or client), overrides config")
	rootCmd.PersistentFlags().BoolVar(&bothDirs, "both", false, "decode both directions and merge by timestamp")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "emit records as JSON lines instead of a table")
}

// loadConfig resolves the effective settings: file, then defaults, then the
// --trace override across every section.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if traceFlag != "" {
		cfg.UART.Trace = traceFlag
		cfg.SPI.Trace = traceFlag
		cfg.I2C.Trace = traceFlag
		if err := config.Validate(cfg); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}
