package trace

import "sort"

// Record kinds.
const (
	RecordPacket  = "packet"
	RecordError   = "error"
	RecordBusy    = "busy"
	RecordLength  = "length"
	RecordControl = "control"
)

// Record is one annotated output event: a display label over a byte span,
// plus a machine-readable field table for tabular display or export.
type Record struct {
	Type   string            `json:"type"`
	Start  float64           `json:"start"`
	End    float64           `json:"end"`
	Label  string            `json:"label"`
	Fields map[string]string `json:"fields,omitempty"`
}

// MergeByTime interleaves two record streams by span start. The two
// directions of a link are decoded by independent instances; a merged
// timeline is re-derived from their outputs, never from shared state.
func MergeByTime(a, b []Record) []Record {
	out := make([]Record, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
