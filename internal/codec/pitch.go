package codec

import (
	"math"

	"github.com/starford/staffline/internal/music"
)

// OctaveHeight is one octave in whole-step units.
const OctaveHeight = 6.0

// baseMIDI is the key at height 0 (A♭3).
const baseMIDI = 56

// tolerance for matching heights and widths against the tables
const epsilon = 1e-9

// spelling is one entry of the remainder table.
type spelling struct {
	step        music.Step
	alter       int
	octaveShift int
}

// remainderTable is indexed by remainder*2. Flats are preferred.
var remainderTable = [12]spelling{
	{music.A, music.Flat, 0},
	{music.A, music.Natural, 0},
	{music.B, music.Flat, 0},
	{music.B, music.Natural, 0},
	{music.C, music.Natural, 1},
	{music.D, music.Flat, 1},
	{music.D, music.Natural, 1},
	{music.E, music.Flat, 1},
	{music.E, music.Natural, 1},
	{music.F, music.Natural, 1},
	{music.G, music.Flat, 1},
	{music.G, music.Natural, 1},
}

// SplitHeight returns the octave offset and the floored remainder of height,
// so that height = octave*OctaveHeight + remainder and remainder is in [0, 6).
func SplitHeight(height float64) (octave int, remainder float64) {
	rem := math.Mod(height, OctaveHeight)
	if rem < 0 {
		rem += OctaveHeight
	}
	// a remainder within epsilon of the next octave belongs to it
	if OctaveHeight-rem < epsilon {
		rem = 0
	}
	return int(math.Round((height - rem) / OctaveHeight)), rem
}

// spellRemainder looks up a remainder in the table. Only the twelve half-step
// values 0, 0.5, ..., 5.5 are accepted.
func spellRemainder(remainder float64) (spelling, bool) {
	if remainder < -epsilon || remainder >= OctaveHeight-epsilon {
		return spelling{}, false
	}
	idx := math.Round(remainder * 2)
	if math.Abs(remainder*2-idx) > epsilon*2 {
		return spelling{}, false
	}
	i := int(idx)
	if i < 0 || i >= len(remainderTable) {
		return spelling{}, false
	}
	return remainderTable[i], true
}

// PitchAt returns the table spelling of the pitch at height.
func PitchAt(height float64) (music.Pitch, bool) {
	octave, rem := SplitHeight(height)
	sp, ok := spellRemainder(rem)
	if !ok {
		return music.Pitch{}, false
	}
	p := music.Pitch{Step: sp.step, Alter: sp.alter, Octave: 3 + octave + sp.octaveShift}
	if !p.Valid() {
		return music.Pitch{}, false
	}
	return p, true
}

// HeightOf returns the logical height of p. Enharmonic spellings share a
// height.
func HeightOf(p music.Pitch) float64 {
	return float64(p.MIDI()-baseMIDI) / 2
}
