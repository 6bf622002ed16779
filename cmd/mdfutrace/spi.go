package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/capture"
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/config"
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/trace"
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/transport/spi"
)

var spiCmd = &cobra.Command{
	Use:   "spi <export.csv> | <clock.bin> <enable.bin> <mosi.bin> <miso.bin>",
	Short: "Decode an SPI capture",
	Long: `Decode an SPI analyzer CSV export, or run the stock SPI analyzer over
four raw digital channel exports (clock, chip select, MOSI, MISO).`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 && len(args) != 4 {
			return fmt.Errorf("expected one CSV export or four digital channel exports, got %d args", len(args))
		}
		return nil
	},
	RunE: runSPI,
}

func init() {
	rootCmd.AddCommand(spiCmd)
}

func runSPI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var windows []capture.Window
	if len(args) == 4 {
		windows, err = capture.LoadSPIDigital(args[0], args[1], args[2], args[3])
	} else {
		windows, err = capture.LoadSPICSV(args[0])
	}
	if err != nil {
		return err
	}
	log.Debug().Int("windows", len(windows)).Msg("spi capture loaded")

	var merged []trace.Record
	for _, dir := range traceSettings(cfg.SPI.Trace) {
		section := cfg.SPI
		section.Trace = dir
		opts, err := config.SPIOptions(section)
		if err != nil {
			return err
		}
		f := spi.New(opts)
		var recs []trace.Record
		for _, w := range windows {
			f.Begin(w.Span.Start)
			for _, ev := range w.Bytes {
				f.Byte(ev)
			}
			recs = append(recs, f.End(w.Span.End)...)
		}
		recs = append(recs, f.Flush()...)
		merged = trace.MergeByTime(merged, recs)
	}

	log.Info().Int("records", len(merged)).Msg("spi decode complete")
	return writeRecords(cmd.OutOrStdout(), merged, jsonOut)
}
