// Package midiexport renders scores as Standard MIDI Files.
package midiexport

import (
	"fmt"
	"io"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/starford/staffline/internal/music"
)

const (
	// TicksPerQuarter is the file resolution.
	TicksPerQuarter = 960
	// DefaultTempo in quarter notes per minute.
	DefaultTempo = 120.0
	// DefaultVelocity for every sounding note.
	DefaultVelocity = 100

	percussionChannel = 9 // GM channel 10
	sideStickKey      = 37
)

// ticksPerEighth converts a music tick to file ticks.
const ticksPerEighth = TicksPerQuarter / 2

// Options tune the export.
type Options struct {
	Tempo    float64
	Velocity uint8
}

// DefaultOptions returns tempo 120 and velocity 100.
func DefaultOptions() Options {
	return Options{Tempo: DefaultTempo, Velocity: DefaultVelocity}
}

type event struct {
	tick    uint32
	on      bool
	channel uint8
	key     uint8
}

// Build converts s into an SMF with one track per part. Every measure starts
// on its own bar line; rests and short measures leave silence.
func Build(s music.Score, opts Options) (*smf.SMF, error) {
	if opts.Tempo <= 0 {
		opts.Tempo = DefaultTempo
	}
	if opts.Velocity == 0 {
		opts.Velocity = DefaultVelocity
	}

	file := smf.New()
	file.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	for i, p := range s.Parts {
		var tr smf.Track
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("Part %d", i+1)
		}
		tr.Add(0, smf.MetaTrackSequenceName(name))
		if i == 0 {
			// a measure holds two whole notes
			tr.Add(0, smf.MetaMeter(4, 2))
			tr.Add(0, smf.MetaTempo(opts.Tempo))
		}

		events, err := partEvents(p, uint8(i%16))
		if err != nil {
			return nil, fmt.Errorf("midiexport: part %d: %w", i, err)
		}
		var last uint32
		for _, ev := range events {
			delta := ev.tick - last
			last = ev.tick
			if ev.on {
				tr.Add(delta, midi.NoteOn(ev.channel, ev.key, opts.Velocity))
			} else {
				tr.Add(delta, midi.NoteOff(ev.channel, ev.key))
			}
		}
		tr.Close(0)
		if err := file.Add(tr); err != nil {
			return nil, fmt.Errorf("midiexport: add track: %w", err)
		}
	}
	return file, nil
}

// Write encodes s as a Standard MIDI File to w.
func Write(w io.Writer, s music.Score, opts Options) error {
	file, err := Build(s, opts)
	if err != nil {
		return err
	}
	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("midiexport: write: %w", err)
	}
	return nil
}

func partEvents(p music.Part, channel uint8) ([]event, error) {
	// skip the percussion channel for pitched parts
	if channel >= percussionChannel {
		channel++
	}
	channel %= 16

	var events []event
	for mi, m := range p.Measures {
		cursor := uint32(mi * music.MeasureTicks * ticksPerEighth)
		for _, n := range m.Notes {
			length := uint32(n.Length().Ticks() * ticksPerEighth)
			if length == 0 {
				return nil, fmt.Errorf("measure %d: note without duration", mi+1)
			}
			ch, keys, err := noteKeys(n, channel)
			if err != nil {
				return nil, fmt.Errorf("measure %d: %w", mi+1, err)
			}
			for _, k := range keys {
				events = append(events,
					event{tick: cursor, on: true, channel: ch, key: k},
					event{tick: cursor + length, on: false, channel: ch, key: k})
			}
			cursor += length
		}
	}
	// note-offs sort before note-ons on the same tick so repeated keys retrigger
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return !events[i].on && events[j].on
	})
	return events, nil
}

func noteKeys(n music.Note, channel uint8) (uint8, []uint8, error) {
	var pitches []music.Pitch
	switch n := n.(type) {
	case music.Pitched:
		pitches = []music.Pitch{n.Pitch}
	case music.Chord:
		pitches = n.AllPitches()
	case music.Unpitched:
		return percussionChannel, []uint8{sideStickKey}, nil
	case music.Rest:
		return channel, nil, nil
	}
	keys := make([]uint8, 0, len(pitches))
	for _, p := range pitches {
		if !p.Valid() {
			return 0, nil, fmt.Errorf("pitch %s is outside the MIDI range", p)
		}
		keys = append(keys, uint8(p.MIDI()))
	}
	return channel, keys, nil
}
