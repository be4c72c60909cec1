// Package codec converts between measures of notes and the pixel path
// segments drawn on the canvas.
//
// Logical space has its origin at the bottom left of a measure column. X is
// measured in whole notes (a column spans MeasureSpan of them) and Y in whole
// steps, so 0.5 is a half step. Pixel space has its origin at the top left of
// the canvas.
package codec

import (
	"github.com/starford/staffline/internal/geometry"
	"github.com/starford/staffline/internal/music"
	"github.com/starford/staffline/internal/path"
)

// MeasureSpan is the logical width of one measure column, in whole notes.
const MeasureSpan = float64(music.MeasureTicks) / music.TicksPerWhole

// RestHeight is the logical height rests and unpitched notes are drawn at.
// It is deliberately off the pitch table, so decoding one reports an invalid
// height instead of inventing a pitch.
const RestHeight = -0.25

// Vector is a point in logical space.
type Vector struct {
	X float64
	Y float64
}

// NoteSpan is the logical extent of one note.
type NoteSpan struct {
	Start Vector
	End   Vector
}

// ToPathSegments draws the first visible measures. Measures after that are
// not represented; callers that need them must keep them elsewhere.
func ToPathSegments(measures []music.Measure, cfg geometry.Config, visible int) []path.Segment {
	if visible < len(measures) {
		measures = measures[:max(visible, 0)]
	}
	var out []path.Segment
	for i, m := range measures {
		offset := cfg.MeasureOffset(i)
		for _, span := range measureSpans(m) {
			out = append(out, spanSegments(span, cfg, offset)...)
		}
	}
	return out
}

// measureSpans lays the notes of m out from a cursor starting at 0.
func measureSpans(m music.Measure) []NoteSpan {
	var spans []NoteSpan
	cursor := 0.0
	for _, n := range m.Notes {
		end := cursor + n.Length().Whole()
		for _, h := range noteHeights(n) {
			spans = append(spans, NoteSpan{Start: Vector{cursor, h}, End: Vector{end, h}})
		}
		cursor = end
	}
	return spans
}

func noteHeights(n music.Note) []float64 {
	switch n := n.(type) {
	case music.Pitched:
		return []float64{HeightOf(n.Pitch)}
	case music.Chord:
		ps := n.AllPitches()
		hs := make([]float64, len(ps))
		for i, p := range ps {
			hs[i] = HeightOf(p)
		}
		return hs
	default:
		return []float64{RestHeight}
	}
}

func spanSegments(s NoteSpan, cfg geometry.Config, measureOffset float64) []path.Segment {
	x0 := pixelX(s.Start.X, cfg, measureOffset)
	x1 := pixelX(s.End.X, cfg, measureOffset) - cfg.EndCutoff
	y0 := pixelY(s.Start.Y, cfg)
	if s.End.Y == s.Start.Y {
		return []path.Segment{path.MoveTo(x0, y0), path.HorizontalLineTo(x1)}
	}
	return []path.Segment{path.MoveTo(x0, y0), path.LineTo(x1, pixelY(s.End.Y, cfg))}
}

func pixelX(logicalX float64, cfg geometry.Config, measureOffset float64) float64 {
	return (logicalX/MeasureSpan)*cfg.MeasureWidth + cfg.OffsetX + measureOffset
}

func pixelY(logicalY float64, cfg geometry.Config) float64 {
	return (cfg.FlipHeight-logicalY)*cfg.WholeStepPixelHeight + cfg.OffsetY
}

func logicalX(px float64, cfg geometry.Config, measureOffset float64) float64 {
	return (px - cfg.OffsetX - measureOffset) / cfg.MeasureWidth * MeasureSpan
}

func logicalY(py float64, cfg geometry.Config) float64 {
	return cfg.FlipHeight - (py-cfg.OffsetY)/cfg.WholeStepPixelHeight
}
