// Package capture loads logic-analyzer exports and turns them into the
// bus-level events the transport framers consume.
//
// Ownership boundary:
//   - CSV exports of the stock UART, SPI and I2C low-level analyzers
//   - raw Saleae digital channel exports (binary v0 format)
//   - nothing protocol-specific: capture never inspects byte values
package capture
