package config

import (
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/mdfu"
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/trace"
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/transport/i2c"
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/transport/spi"
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/transport/uart"
)

// UARTOptions maps a validated section onto the framer's settings. The
// max_payload key bounds the payload; the framer caps the whole frame.
func UARTOptions(cfg UARTConfig) (uart.Config, error) {
	dir, err := trace.ParseDirection(cfg.Trace)
	if err != nil {
		return uart.Config{}, err
	}
	return uart.Config{
		Trace:         dir,
		GapTimeout:    cfg.GapTimeout,
		MaxFrameBytes: frameBound(cfg.MaxPayload),
	}, nil
}

func SPIOptions(cfg SPIConfig) (spi.Config, error) {
	dir, err := trace.ParseDirection(cfg.Trace)
	if err != nil {
		return spi.Config{}, err
	}
	return spi.Config{Trace: dir, MaxFrameBytes: frameBound(cfg.MaxPayload)}, nil
}

func I2COptions(cfg I2CConfig) (i2c.Config, error) {
	dir, err := trace.ParseDirection(cfg.Trace)
	if err != nil {
		return i2c.Config{}, err
	}
	return i2c.Config{Trace: dir, Debug: cfg.Debug, MaxFrameBytes: frameBound(cfg.MaxPayload)}, nil
}

func frameBound(maxPayload int) int {
	if maxPayload <= 0 {
		return 0 // framer default
	}
	return maxPayload + mdfu.MinFrameSize
}
