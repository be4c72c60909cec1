// Package path defines the pixel-space path segments drawn on the canvas and
// their SVG path-data text form.
package path

import (
	"encoding/json"
	"fmt"
)

// Kind tags a Segment.
type Kind int

const (
	KindMoveTo Kind = iota + 1
	KindHorizontalLineTo
	KindLineTo
	// KindVerticalLineTo and KindClosePath are accepted by the parser so that
	// callers get a precise error from the grid instead of a parse failure.
	KindVerticalLineTo
	KindClosePath
)

var kindLetters = map[Kind]string{
	KindMoveTo:           "M",
	KindHorizontalLineTo: "H",
	KindLineTo:           "L",
	KindVerticalLineTo:   "V",
	KindClosePath:        "Z",
}

func (k Kind) String() string {
	if s, ok := kindLetters[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	s, ok := kindLetters[k]
	if !ok {
		return nil, fmt.Errorf("path: unknown segment kind %d", int(k))
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	for kind, s := range kindLetters {
		if s == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("path: unknown segment kind %q", b)
}

// Segment is one path primitive in pixel space. Y is unused for
// HorizontalLineTo and X for VerticalLineTo; ClosePath uses neither.
type Segment struct {
	Kind Kind    `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// MoveTo starts a note.
func MoveTo(x, y float64) Segment { return Segment{Kind: KindMoveTo, X: x, Y: y} }

// HorizontalLineTo ends a note at the height of its MoveTo.
func HorizontalLineTo(x float64) Segment { return Segment{Kind: KindHorizontalLineTo, X: x} }

// LineTo ends a note at an explicit point.
func LineTo(x, y float64) Segment { return Segment{Kind: KindLineTo, X: x, Y: y} }

// IsStart reports whether s begins a note.
func (s Segment) IsStart() bool { return s.Kind == KindMoveTo }

// IsContinuation reports whether s terminates a note.
func (s Segment) IsContinuation() bool {
	return s.Kind == KindHorizontalLineTo || s.Kind == KindLineTo
}

func (s Segment) String() string {
	switch s.Kind {
	case KindMoveTo, KindLineTo:
		return fmt.Sprintf("%s %s %s", s.Kind, formatFloat(s.X), formatFloat(s.Y))
	case KindHorizontalLineTo:
		return fmt.Sprintf("H %s", formatFloat(s.X))
	case KindVerticalLineTo:
		return fmt.Sprintf("V %s", formatFloat(s.Y))
	default:
		return s.Kind.String()
	}
}

// MarshalJSON omits coordinates a kind does not use.
func (s Segment) MarshalJSON() ([]byte, error) {
	type wire struct {
		Kind Kind     `json:"kind"`
		X    *float64 `json:"x,omitempty"`
		Y    *float64 `json:"y,omitempty"`
	}
	w := wire{Kind: s.Kind}
	switch s.Kind {
	case KindMoveTo, KindLineTo:
		w.X, w.Y = &s.X, &s.Y
	case KindHorizontalLineTo:
		w.X = &s.X
	case KindVerticalLineTo:
		w.Y = &s.Y
	}
	return json.Marshal(w)
}
