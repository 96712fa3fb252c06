package data

// Timers holds the total and average elapsed time (in nanoseconds)
// of every timer group
type Timers struct {
	Totals   map[string]int64 `json:"totals,omitempty"`
	Averages map[string]int64 `json:"averages,omitempty"`
}
