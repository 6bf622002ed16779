package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/MicrochipTech/mdfu-saleae-analyzers/internal/trace"
)

// writeRecords renders the decoded timeline: JSON lines for machine
// consumption, or a fixed-width table for reading.
func writeRecords(w io.Writer, recs []trace.Record, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		for _, r := range recs {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range recs {
		if _, err := fmt.Fprintf(w, "%12.6f %-7s %-32s %s\n",
			r.Start, r.Type, r.Label, fieldSummary(r.Fields)); err != nil {
			return err
		}
	}
	return nil
}

func fieldSummary(fields map[string]string) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+fields[k])
	}
	return strings.Join(parts, " ")
}
