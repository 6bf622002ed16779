package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "uart":
		return uartTemplate, nil
	case "spi":
		return spiTemplate, nil
	case "i2c":
		return i2cTemplate, nil
	case "all":
		return uartTemplate + "\n" + spiTemplate + "\n" + i2cTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const uartTemplate = `[uart]
trace = "host"
gap_timeout = 0.01
max_payload = 1024
`

const spiTemplate = `[spi]
trace = "host"
max_payload = 1024
`

const i2cTemplate = `[i2c]
trace = "host"
debug = false
max_payload = 1024
`
