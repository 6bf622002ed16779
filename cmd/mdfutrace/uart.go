package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/capture"
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/config"
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/trace"
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/transport/uart"
)

var gapTimeoutFlag float64

var uartCmd = &cobra.Command{
	Use:   "uart <export.csv>",
	Short: "Decode a serial analyzer CSV export",
	Args:  cobra.ExactArgs(1),
	RunE:  runUART,
}

func init() {
	uartCmd.Flags().Float64Var(&gapTimeoutFlag, "gap-timeout", -1,
		"inter-byte gap in seconds that aborts a frame, overrides config (0 disables)")
	rootCmd.AddCommand(uartCmd)
}

func runUART(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if gapTimeoutFlag >= 0 {
		cfg.UART.GapTimeout = gapTimeoutFlag
	}

	events, err := capture.LoadUARTCSV(args[0])
	if err != nil {
		return err
	}
	log.Debug().Int("events", len(events)).Str("capture", args[0]).Msg("uart capture loaded")

	var merged []trace.Record
	for _, dir := range traceSettings(cfg.UART.Trace) {
		section := cfg.UART
		section.Trace = dir
		opts, err := config.UARTOptions(section)
		if err != nil {
			return err
		}
		f := uart.New(opts)
		var recs []trace.Record
		for _, ev := range events {
			recs = append(recs, f.Push(ev)...)
		}
		recs = append(recs, f.Flush()...)
		merged = trace.MergeByTime(merged, recs)
	}

	log.Info().Int("records", len(merged)).Msg("uart decode complete")
	return writeRecords(cmd.OutOrStdout(), merged, jsonOut)
}

// traceSettings expands the configured direction to both when --both is set.
func traceSettings(configured string) []string {
	if bothDirs {
		return []string{"host", "client"}
	}
	return []string{configured}
}
