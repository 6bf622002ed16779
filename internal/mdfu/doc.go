// Package mdfu owns the transport-agnostic MDFU protocol contract.
//
// Ownership boundary:
// - packet layout and sequence-field bit split
// - frame check sequence computation and verification
// - command/status descriptor tables
// - client-info payload decoding
package mdfu
