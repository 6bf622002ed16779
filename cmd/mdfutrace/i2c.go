package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/capture"
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/config"
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/trace"
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/transport/i2c"
)

var debugFlag bool

var i2cCmd = &cobra.Command{
	Use:   "i2c <export.csv>",
	Short: "Decode an I2C analyzer CSV export",
	Args:  cobra.ExactArgs(1),
	RunE:  runI2C,
}

func init() {
	i2cCmd.Flags().BoolVar(&debugFlag, "debug", false,
		"surface client-busy and retry polls as annotations")
	rootCmd.AddCommand(i2cCmd)
}

func runI2C(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if debugFlag {
		cfg.I2C.Debug = true
	}

	txs, err := capture.LoadI2CCSV(args[0])
	if err != nil {
		return err
	}
	log.Debug().Int("transactions", len(txs)).Msg("i2c capture loaded")

	var merged []trace.Record
	for _, dir := range traceSettings(cfg.I2C.Trace) {
		section := cfg.I2C
		section.Trace = dir
		opts, err := config.I2COptions(section)
		if err != nil {
			return err
		}
		f := i2c.New(opts)
		var recs []trace.Record
		for _, tx := range txs {
			f.Start(tx.Span.Start)
			f.Address(tx.Address)
			for _, ev := range tx.Data {
				f.Data(ev)
			}
			recs = append(recs, f.Stop(tx.Span.End)...)
		}
		recs = append(recs, f.Flush()...)
		merged = trace.MergeByTime(merged, recs)
	}

	log.Info().Int("records", len(merged)).Msg("i2c decode complete")
	return writeRecords(cmd.OutOrStdout(), merged, jsonOut)
}
