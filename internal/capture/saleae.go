package capture

import (
	"fmt"
	"os"

	"github.com/soypat/saleae"
	"github.com/soypat/saleae/analyzers"

	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/trace"
)

// LoadSPIDigital runs the stock SPI analyzer over four raw digital channel
// exports (clock, chip select, MOSI, MISO) and returns the resulting
// chip-select windows.
//
// The analyzer reports byte values per window but no per-byte timestamps, so
// spans are synthesized from transaction order: window i occupies [i, i+1)
// and its bytes are spaced a microsecond apart. Records built from these
// windows order correctly but do not carry wall-clock times.
func LoadSPIDigital(clockPath, enablePath, mosiPath, misoPath string) ([]Window, error) {
	fp, err := os.Open(clockPath)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	clock, err := saleae.ReadDigitalFile(fp)
	fp.Close()
	if err != nil {
		return nil, fmt.Errorf("capture: clock channel: %w", err)
	}

	fp, err = os.Open(enablePath)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	enable, err := saleae.ReadDigitalFile(fp)
	fp.Close()
	if err != nil {
		return nil, fmt.Errorf("capture: enable channel: %w", err)
	}

	fp, err = os.Open(mosiPath)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	mosi, err := saleae.ReadDigitalFile(fp)
	fp.Close()
	if err != nil {
		return nil, fmt.Errorf("capture: mosi channel: %w", err)
	}

	fp, err = os.Open(misoPath)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	miso, err := saleae.ReadDigitalFile(fp)
	fp.Close()
	if err != nil {
		return nil, fmt.Errorf("capture: miso channel: %w", err)
	}

	spi := analyzers.SPI{}
	txs, err := spi.Scan(clock, enable, mosi, miso)
	if err != nil {
		return nil, fmt.Errorf("capture: spi analyzer: %w", err)
	}

	windows := make([]Window, 0, len(txs))
	for i, tx := range txs {
		n := len(tx.SDO)
		if len(tx.SDI) < n {
			n = len(tx.SDI)
		}
		w := Window{Span: trace.Span{Start: float64(i), End: float64(i) + 1}}
		for j := 0; j < n; j++ {
			start := float64(i) + float64(j)*1e-6
			w.Bytes = append(w.Bytes, trace.DuplexEvent{
				MOSI: tx.SDO[j],
				MISO: tx.SDI[j],
				Span: trace.Span{Start: start, End: start + 1e-6},
			})
		}
		windows = append(windows, w)
	}
	return windows, nil
}
