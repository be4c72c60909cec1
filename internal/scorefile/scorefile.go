// Package scorefile reads and writes YAML score documents.
package scorefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/staffline/internal/apperr"
	"github.com/starford/staffline/internal/music"
)

// Note kinds as written in score files.
const (
	KindPitched   = "pitched"
	KindChord     = "chord"
	KindRest      = "rest"
	KindUnpitched = "unpitched"
)

// Document is the on-disk shape of a score.
type Document struct {
	Title string         `yaml:"title" json:"title"`
	Parts []PartDocument `yaml:"parts" json:"parts"`
}

// PartDocument is one part of a Document.
type PartDocument struct {
	Name     string            `yaml:"name" json:"name"`
	Measures []MeasureDocument `yaml:"measures" json:"measures"`
}

// MeasureDocument is one measure of a part.
type MeasureDocument struct {
	Notes []NoteDocument `yaml:"notes" json:"notes"`
}

// NoteDocument is the flat form of every note kind.
type NoteDocument struct {
	Kind     string   `yaml:"kind" json:"kind"`
	Duration string   `yaml:"duration" json:"duration"`
	Pitch    string   `yaml:"pitch,omitempty" json:"pitch,omitempty"`
	Pitches  []string `yaml:"pitches,omitempty,flow" json:"pitches,omitempty"`
}

// Result holds a parsed score and the metadata derived from it.
type Result struct {
	Score     music.Score
	Title     string
	PartNames []string
	Measures  int
}

// Parse decodes a YAML (or JSON) score document.
func Parse(data []byte) (*Result, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("scorefile: decode: %v: %w", err, apperr.ErrInvalidInput)
	}
	score, err := doc.Score()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(score.Parts))
	for i, p := range score.Parts {
		names[i] = p.Name
	}
	return &Result{
		Score:     score,
		Title:     deriveTitle(doc),
		PartNames: names,
		Measures:  score.MeasureCount(),
	}, nil
}

// deriveTitle returns the document title, or the first part name when the
// title is empty.
func deriveTitle(doc Document) string {
	if t := strings.TrimSpace(doc.Title); t != "" {
		return t
	}
	for _, p := range doc.Parts {
		if p.Name != "" {
			return p.Name
		}
	}
	return ""
}

// Marshal encodes a score as a YAML document.
func Marshal(s music.Score) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(FromScore(s)); err != nil {
		return nil, fmt.Errorf("scorefile: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("scorefile: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// MarshalMeasures encodes a bare measure list, as printed by the decoder
// tools.
func MarshalMeasures(ms []music.Measure) ([]byte, error) {
	out, err := yaml.Marshal(FromMeasures(ms))
	if err != nil {
		return nil, fmt.Errorf("scorefile: encode measures: %w", err)
	}
	return out, nil
}

// Score converts the document into the music model.
func (d Document) Score() (music.Score, error) {
	s := music.Score{Title: d.Title, Parts: make([]music.Part, 0, len(d.Parts))}
	for i, pd := range d.Parts {
		ms, err := ToMeasures(pd.Measures)
		if err != nil {
			return music.Score{}, fmt.Errorf("scorefile: part %d: %w", i, err)
		}
		s.Parts = append(s.Parts, music.Part{Name: pd.Name, Measures: ms})
	}
	return s, nil
}

// ToMeasures converts measure documents into the music model.
func ToMeasures(docs []MeasureDocument) ([]music.Measure, error) {
	out := make([]music.Measure, 0, len(docs))
	for i, md := range docs {
		m := music.Measure{Notes: make([]music.Note, 0, len(md.Notes))}
		for j, nd := range md.Notes {
			n, err := nd.Note()
			if err != nil {
				return nil, fmt.Errorf("measure %d note %d: %w", i+1, j+1, err)
			}
			m.Notes = append(m.Notes, n)
		}
		if m.Ticks() > music.MeasureTicks {
			return nil, fmt.Errorf("measure %d holds %d ticks, more than %d: %w",
				i+1, m.Ticks(), music.MeasureTicks, apperr.ErrInvalidInput)
		}
		out = append(out, m)
	}
	return out, nil
}

// Note converts a single note document.
func (nd NoteDocument) Note() (music.Note, error) {
	d, err := music.ParseDuration(nd.Duration)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperr.ErrInvalidInput)
	}
	switch nd.Kind {
	case KindPitched, "":
		p, err := parsePitch(nd.Pitch)
		if err != nil {
			return nil, err
		}
		return music.Pitched{Duration: d, Pitch: p}, nil
	case KindChord:
		root, err := parsePitch(nd.Pitch)
		if err != nil {
			return nil, err
		}
		if len(nd.Pitches) == 0 {
			return nil, fmt.Errorf("chord without extra pitches: %w", apperr.ErrInvalidInput)
		}
		ps := make([]music.Pitch, 0, len(nd.Pitches))
		for _, s := range nd.Pitches {
			p, err := parsePitch(s)
			if err != nil {
				return nil, err
			}
			ps = append(ps, p)
		}
		return music.Chord{Root: root, Duration: d, Pitches: ps}, nil
	case KindRest:
		return music.Rest{Duration: d}, nil
	case KindUnpitched:
		return music.Unpitched{Duration: d}, nil
	default:
		return nil, fmt.Errorf("unknown note kind %q: %w", nd.Kind, apperr.ErrInvalidInput)
	}
}

func parsePitch(s string) (music.Pitch, error) {
	p, err := music.ParsePitch(s)
	if err != nil {
		return music.Pitch{}, fmt.Errorf("%v: %w", err, apperr.ErrInvalidInput)
	}
	return p, nil
}

// FromScore converts a score into its document form.
func FromScore(s music.Score) Document {
	doc := Document{Title: s.Title, Parts: make([]PartDocument, 0, len(s.Parts))}
	for _, p := range s.Parts {
		doc.Parts = append(doc.Parts, PartDocument{Name: p.Name, Measures: FromMeasures(p.Measures)})
	}
	return doc
}

// FromMeasures converts measures into their document form.
func FromMeasures(ms []music.Measure) []MeasureDocument {
	out := make([]MeasureDocument, 0, len(ms))
	for _, m := range ms {
		md := MeasureDocument{Notes: make([]NoteDocument, 0, len(m.Notes))}
		for _, n := range m.Notes {
			md.Notes = append(md.Notes, FromNote(n))
		}
		out = append(out, md)
	}
	return out
}

// FromNote converts one note into its document form.
func FromNote(n music.Note) NoteDocument {
	switch n := n.(type) {
	case music.Pitched:
		return NoteDocument{Kind: KindPitched, Duration: n.Duration.String(), Pitch: n.Pitch.String()}
	case music.Chord:
		ps := make([]string, len(n.Pitches))
		for i, p := range n.Pitches {
			ps[i] = p.String()
		}
		return NoteDocument{Kind: KindChord, Duration: n.Duration.String(), Pitch: n.Root.String(), Pitches: ps}
	case music.Rest:
		return NoteDocument{Kind: KindRest, Duration: n.Duration.String()}
	case music.Unpitched:
		return NoteDocument{Kind: KindUnpitched, Duration: n.Duration.String()}
	}
	return NoteDocument{}
}
