package music

import "fmt"

// TicksPerWhole is the grid resolution: one tick is an eighth note.
const TicksPerWhole = 8

// MeasureTicks is the capacity of one measure column (a double whole).
const MeasureTicks = 2 * TicksPerWhole

// Duration is one of the supported note values.
type Duration int

const (
	Eighth Duration = iota + 1
	Quarter
	DottedQuarter
	Half
	DottedHalf
	Whole
	DottedWhole
	DoubleWhole
)

var durationTable = []struct {
	d     Duration
	ticks int
	name  string
}{
	{Eighth, 1, "eighth"},
	{Quarter, 2, "quarter"},
	{DottedQuarter, 3, "dotted-quarter"},
	{Half, 4, "half"},
	{DottedHalf, 6, "dotted-half"},
	{Whole, 8, "whole"},
	{DottedWhole, 12, "dotted-whole"},
	{DoubleWhole, 16, "double-whole"},
}

// Durations returns the supported durations, shortest first.
func Durations() []Duration {
	out := make([]Duration, len(durationTable))
	for i, e := range durationTable {
		out[i] = e.d
	}
	return out
}

// Ticks returns the length in eighth-note ticks, or 0 for an unknown value.
func (d Duration) Ticks() int {
	for _, e := range durationTable {
		if e.d == d {
			return e.ticks
		}
	}
	return 0
}

// Whole returns the length in whole notes.
func (d Duration) Whole() float64 {
	return float64(d.Ticks()) / TicksPerWhole
}

// Valid reports whether d is one of the supported durations.
func (d Duration) Valid() bool { return d.Ticks() > 0 }

func (d Duration) String() string {
	for _, e := range durationTable {
		if e.d == d {
			return e.name
		}
	}
	return fmt.Sprintf("Duration(%d)", int(d))
}

// DurationFromTicks returns the duration with exactly the given tick count.
func DurationFromTicks(ticks int) (Duration, bool) {
	for _, e := range durationTable {
		if e.ticks == ticks {
			return e.d, true
		}
	}
	return 0, false
}

// ParseDuration parses the name produced by Duration.String.
func ParseDuration(s string) (Duration, error) {
	for _, e := range durationTable {
		if e.name == s {
			return e.d, nil
		}
	}
	return 0, fmt.Errorf("music: unknown duration %q", s)
}
