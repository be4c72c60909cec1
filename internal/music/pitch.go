package music

import (
	"fmt"
	"strconv"
	"strings"
)

// Step is a diatonic note letter.
type Step int

const (
	C Step = iota
	D
	E
	F
	G
	A
	B
)

var stepNames = "CDEFGAB"

// semitones above C for each step
var stepSemitones = [7]int{0, 2, 4, 5, 7, 9, 11}

func (s Step) String() string {
	if s < C || s > B {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return string(stepNames[s])
}

// Alteration values.
const (
	Flat    = -1
	Natural = 0
	Sharp   = 1
)

// Pitch is a spelled pitch in scientific octave numbering (C4 is middle C).
type Pitch struct {
	Step   Step
	Alter  int
	Octave int
}

// MIDI returns the MIDI key number, C4 = 60.
func (p Pitch) MIDI() int {
	return 12*(p.Octave+1) + stepSemitones[p.Step] + p.Alter
}

// Valid reports whether p names a key on the MIDI keyboard.
func (p Pitch) Valid() bool {
	if p.Step < C || p.Step > B || p.Alter < Flat || p.Alter > Sharp {
		return false
	}
	m := p.MIDI()
	return m >= 0 && m <= 127
}

func (p Pitch) String() string {
	var acc string
	switch p.Alter {
	case Flat:
		acc = "b"
	case Sharp:
		acc = "#"
	}
	return fmt.Sprintf("%s%s%d", p.Step, acc, p.Octave)
}

// ParsePitch parses "Bb4", "C#3", "A♭2" or "G-1".
func ParsePitch(s string) (Pitch, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Pitch{}, fmt.Errorf("music: empty pitch")
	}
	idx := strings.IndexByte(stepNames, strings.ToUpper(s[:1])[0])
	if idx < 0 {
		return Pitch{}, fmt.Errorf("music: invalid pitch step in %q", s)
	}
	p := Pitch{Step: Step(idx)}
	rest := s[1:]
	switch {
	case strings.HasPrefix(rest, "♭"):
		p.Alter, rest = Flat, strings.TrimPrefix(rest, "♭")
	case strings.HasPrefix(rest, "♯"):
		p.Alter, rest = Sharp, strings.TrimPrefix(rest, "♯")
	case strings.HasPrefix(rest, "b"):
		p.Alter, rest = Flat, rest[1:]
	case strings.HasPrefix(rest, "#"):
		p.Alter, rest = Sharp, rest[1:]
	}
	oct, err := strconv.Atoi(rest)
	if err != nil {
		return Pitch{}, fmt.Errorf("music: invalid octave in %q", s)
	}
	p.Octave = oct
	if !p.Valid() {
		return Pitch{}, fmt.Errorf("music: pitch %q out of range", s)
	}
	return p, nil
}

// MustPitch is ParsePitch for literals; it panics on error.
func MustPitch(s string) Pitch {
	p, err := ParsePitch(s)
	if err != nil {
		panic(err)
	}
	return p
}
