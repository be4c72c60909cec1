// Package music defines the score model: parts, measures and notes with exact
// durations and spelled pitches. Values are treated as immutable; helpers that
// change a score return a new value.
package music

// Note is one of Pitched, Chord, Rest or Unpitched.
type Note interface {
	Length() Duration
	isNote()
}

// Pitched is a single sounding note.
type Pitched struct {
	Duration Duration
	Pitch    Pitch
}

// Chord sounds Root and every entry of Pitches for the same duration.
type Chord struct {
	Root     Pitch
	Duration Duration
	Pitches  []Pitch
}

// Rest is silence.
type Rest struct {
	Duration Duration
}

// Unpitched is a percussive note with no pitch.
type Unpitched struct {
	Duration Duration
}

func (n Pitched) Length() Duration   { return n.Duration }
func (n Chord) Length() Duration     { return n.Duration }
func (n Rest) Length() Duration      { return n.Duration }
func (n Unpitched) Length() Duration { return n.Duration }

func (Pitched) isNote()   {}
func (Chord) isNote()     {}
func (Rest) isNote()      {}
func (Unpitched) isNote() {}

// AllPitches returns the root followed by the extra pitches.
func (n Chord) AllPitches() []Pitch {
	out := make([]Pitch, 0, len(n.Pitches)+1)
	out = append(out, n.Root)
	return append(out, n.Pitches...)
}

// Measure is an ordered list of notes; order is performance order.
type Measure struct {
	Notes []Note
}

// Ticks returns the summed length of the notes in eighth-note ticks.
func (m Measure) Ticks() int {
	total := 0
	for _, n := range m.Notes {
		total += n.Length().Ticks()
	}
	return total
}

// Part is one instrument line.
type Part struct {
	Name     string
	Measures []Measure
}

// Score is an ordered list of parts.
type Score struct {
	Title string
	Parts []Part
}

// MeasureCount returns the length of the longest part.
func (s Score) MeasureCount() int {
	n := 0
	for _, p := range s.Parts {
		if len(p.Measures) > n {
			n = len(p.Measures)
		}
	}
	return n
}

// ReplaceLeading returns a copy of p whose first n measures are replaced by
// measures, keeping every measure after n. When measures is longer than n the
// extra measures are inserted before the kept tail.
func (p Part) ReplaceLeading(measures []Measure, n int) Part {
	if n < 0 {
		n = 0
	}
	if n > len(p.Measures) {
		n = len(p.Measures)
	}
	out := make([]Measure, 0, len(measures)+len(p.Measures)-n)
	out = append(out, measures...)
	out = append(out, p.Measures[n:]...)
	return Part{Name: p.Name, Measures: out}
}

// WithPart returns a copy of s with part i replaced.
func (s Score) WithPart(i int, p Part) Score {
	parts := make([]Part, len(s.Parts))
	copy(parts, s.Parts)
	if i >= 0 && i < len(parts) {
		parts[i] = p
	}
	return Score{Title: s.Title, Parts: parts}
}
