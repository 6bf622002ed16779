// Package trace owns the capture-side event model and the annotated output
// records the framers emit.
//
// Ownership boundary:
// - byte/duplex event and span primitives
// - output record shape
// - rendering packets and decode failures into records
package trace
