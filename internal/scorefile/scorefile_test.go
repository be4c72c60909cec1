package scorefile

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/staffline/internal/apperr"
	"github.com/starford/staffline/internal/music"
)

const etude = `title: Etude
parts:
  - name: Melody
    measures:
      - notes:
          - {kind: pitched, duration: whole, pitch: Bb4}
          - {kind: chord, duration: half, pitch: C4, pitches: [E4, G4]}
          - {kind: rest, duration: quarter}
          - {kind: unpitched, duration: eighth}
  - name: Bass
    measures:
      - notes:
          - {kind: pitched, duration: double-whole, pitch: C#2}
      - notes: []
`

func TestParse(t *testing.T) {
	r, err := Parse([]byte(etude))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Title != "Etude" {
		t.Errorf("title = %q", r.Title)
	}
	if diff := cmp.Diff([]string{"Melody", "Bass"}, r.PartNames); diff != "" {
		t.Errorf("part names (-want +got):\n%s", diff)
	}
	if r.Measures != 2 {
		t.Errorf("measures = %d, want 2", r.Measures)
	}
	want := music.Measure{Notes: []music.Note{
		music.Pitched{Duration: music.Whole, Pitch: music.MustPitch("Bb4")},
		music.Chord{Root: music.MustPitch("C4"), Duration: music.Half,
			Pitches: []music.Pitch{music.MustPitch("E4"), music.MustPitch("G4")}},
		music.Rest{Duration: music.Quarter},
		music.Unpitched{Duration: music.Eighth},
	}}
	if diff := cmp.Diff(want, r.Score.Parts[0].Measures[0]); diff != "" {
		t.Errorf("measure mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_JSON(t *testing.T) {
	r, err := Parse([]byte(`{"title":"J","parts":[{"name":"P","measures":[{"notes":[{"kind":"rest","duration":"half"}]}]}]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Score.Parts[0].Measures[0].Notes[0] != (music.Rest{Duration: music.Half}) {
		t.Errorf("note = %#v", r.Score.Parts[0].Measures[0].Notes[0])
	}
}

func TestParse_Empty(t *testing.T) {
	r, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(r.Score.Parts) != 0 || r.Title != "" {
		t.Errorf("result = %+v", r)
	}
}

func TestParse_TitleFallsBackToPart(t *testing.T) {
	r, err := Parse([]byte("parts:\n  - name: Lead\n    measures: []\n"))
	if err != nil {
		t.Fatal(err)
	}
	if r.Title != "Lead" {
		t.Errorf("title = %q", r.Title)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"bad duration": "parts:\n  - measures:\n      - notes: [{kind: pitched, duration: triplet, pitch: C4}]\n",
		"bad pitch":    "parts:\n  - measures:\n      - notes: [{kind: pitched, duration: half, pitch: H4}]\n",
		"bad kind":     "parts:\n  - measures:\n      - notes: [{kind: trill, duration: half}]\n",
		"empty chord":  "parts:\n  - measures:\n      - notes: [{kind: chord, duration: half, pitch: C4}]\n",
		"unknown key":  "title: x\ncomposer: y\n",
		"not yaml":     "title: [",
		"overfull":     "parts:\n  - measures:\n      - notes: [{duration: double-whole, pitch: C4}, {duration: quarter, pitch: E4}]\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(in))
			if !errors.Is(err, apperr.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	r, err := Parse([]byte(etude))
	if err != nil {
		t.Fatal(err)
	}
	out, err := Marshal(r.Score)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(out), "pitches: [E4, G4]") {
		t.Errorf("chord pitches not in flow style:\n%s", out)
	}
	again, err := Parse(out)
	if err != nil {
		t.Fatalf("re-Parse: %v", err)
	}
	if diff := cmp.Diff(r.Score, again.Score); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalMeasures(t *testing.T) {
	out, err := MarshalMeasures([]music.Measure{{Notes: []music.Note{
		music.Pitched{Duration: music.Whole, Pitch: music.MustPitch("Bb4")},
	}}})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"kind: pitched", "duration: whole", "pitch: Bb4"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestToMeasures_Overfull(t *testing.T) {
	docs := []MeasureDocument{
		{Notes: []NoteDocument{{Kind: KindPitched, Duration: "whole", Pitch: "G4"}}},
		{Notes: []NoteDocument{
			{Kind: KindPitched, Duration: "double-whole", Pitch: "C4"},
			{Kind: KindPitched, Duration: "double-whole", Pitch: "D4"},
			{Kind: KindPitched, Duration: "quarter", Pitch: "E4"},
		}},
	}
	_, err := ToMeasures(docs)
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if !strings.Contains(err.Error(), "measure 2") {
		t.Errorf("err = %v, want it to name measure 2", err)
	}

	full := []MeasureDocument{{Notes: []NoteDocument{{Kind: KindPitched, Duration: "double-whole", Pitch: "C4"}}}}
	if _, err := ToMeasures(full); err != nil {
		t.Errorf("full measure rejected: %v", err)
	}
}
