package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/mdfu"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mdfutrace.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "[i2c]\ntrace = \"client\"\ndebug = true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UART.Trace != "host" || cfg.SPI.Trace != "host" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.I2C.Trace != "client" || !cfg.I2C.Debug {
		t.Fatalf("i2c section: %+v", cfg.I2C)
	}
}

func TestLoadRejectsBadDirection(t *testing.T) {
	path := writeConfig(t, "[uart]\ntrace = \"sideways\"\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for bad trace direction")
	}
}

func TestLoadRejectsNegativeGapTimeout(t *testing.T) {
	path := writeConfig(t, "[uart]\ngap_timeout = -1.0\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for negative gap_timeout")
	}
}

func TestLoadRejectsOversizePayload(t *testing.T) {
	path := writeConfig(t, "[spi]\nmax_payload = 100000\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for max_payload above protocol limit")
	}
}

func TestOptionsConversion(t *testing.T) {
	ucfg, err := UARTOptions(UARTConfig{Trace: "rx", GapTimeout: 0.05, MaxPayload: 512})
	if err != nil {
		t.Fatalf("uart options: %v", err)
	}
	if ucfg.Trace != mdfu.ClientToHost || ucfg.GapTimeout != 0.05 {
		t.Fatalf("uart config: %+v", ucfg)
	}
	if ucfg.MaxFrameBytes != 512+mdfu.MinFrameSize {
		t.Fatalf("frame bound: %d", ucfg.MaxFrameBytes)
	}

	icfg, err := I2COptions(I2CConfig{Trace: "host", Debug: true})
	if err != nil {
		t.Fatalf("i2c options: %v", err)
	}
	if icfg.Trace != mdfu.HostToClient || !icfg.Debug || icfg.MaxFrameBytes != 0 {
		t.Fatalf("i2c config: %+v", icfg)
	}
}

func TestTemplatesRoundTrip(t *testing.T) {
	for _, kind := range []string{"uart", "spi", "i2c", "all"} {
		path := filepath.Join(t.TempDir(), kind+".toml")
		if err := WriteTemplate(path, kind, false); err != nil {
			t.Fatalf("write %s template: %v", kind, err)
		}
		if _, err := Load(path); err != nil {
			t.Fatalf("load %s template: %v", kind, err)
		}
	}
	if _, err := Template("ghost"); err == nil {
		t.Fatal("expected error for unknown template kind")
	}
}
