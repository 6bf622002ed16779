package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/mdfu"
	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/trace"
)

// Config holds the per-transport analyzer settings. Each section configures
// one framer instance; a bidirectional view needs two instances with
// opposite trace settings.
type Config struct {
	UART UARTConfig `toml:"uart"`
	SPI  SPIConfig  `toml:"spi"`
	I2C  I2CConfig  `toml:"i2c"`
}

type UARTConfig struct {
	Trace      string  `toml:"trace"`
	GapTimeout float64 `toml:"gap_timeout"`
	MaxPayload int     `toml:"max_payload"`
}

type SPIConfig struct {
	Trace      string `toml:"trace"`
	MaxPayload int    `toml:"max_payload"`
}

type I2CConfig struct {
	Trace      string `toml:"trace"`
	Debug      bool   `toml:"debug"`
	MaxPayload int    `toml:"max_payload"`
}

// Default returns the settings used when no config file is given: decode the
// host-to-client direction, no gap timeout, protocol-maximum payloads.
func Default() Config {
	return Config{
		UART: UARTConfig{Trace: "host"},
		SPI:  SPIConfig{Trace: "host"},
		I2C:  I2CConfig{Trace: "host"},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()
	if err := loadToml(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func Validate(cfg Config) error {
	if err := validateCommon("uart", cfg.UART.Trace, cfg.UART.MaxPayload); err != nil {
		return err
	}
	if cfg.UART.GapTimeout < 0 {
		return fmt.Errorf("uart config gap_timeout must not be negative")
	}
	if err := validateCommon("spi", cfg.SPI.Trace, cfg.SPI.MaxPayload); err != nil {
		return err
	}
	return validateCommon("i2c", cfg.I2C.Trace, cfg.I2C.MaxPayload)
}

func validateCommon(section, traceSetting string, maxPayload int) error {
	if strings.TrimSpace(traceSetting) == "" {
		return fmt.Errorf("%s config missing trace", section)
	}
	if _, err := trace.ParseDirection(traceSetting); err != nil {
		return fmt.Errorf("%s config invalid: %w", section, err)
	}
	if maxPayload < 0 || maxPayload > mdfu.MaxPayloadLength {
		return fmt.Errorf("%s config max_payload out of range", section)
	}
	return nil
}
