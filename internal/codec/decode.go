package codec

import (
	"fmt"
	"math"
	"sort"

	"github.com/starford/staffline/internal/geometry"
	"github.com/starford/staffline/internal/grid"
	"github.com/starford/staffline/internal/music"
	"github.com/starford/staffline/internal/path"
	"github.com/starford/staffline/internal/validation"
)

// UnknownMeasureKey names the bucket of segments outside every visible
// measure column.
const UnknownMeasureKey = "measure-unknown"

// MeasureKey returns the 1-indexed bucket key of measure i.
func MeasureKey(i int) string {
	if i == validation.UnknownIndex {
		return UnknownMeasureKey
	}
	return fmt.Sprintf("measure-%d", i+1)
}

// columnTolerance matches the snapper tolerance in package grid.
const columnTolerance = 1e-7

// MeasureIndexAt returns the visible measure whose column contains pixel x,
// or validation.UnknownIndex when x falls in a gap or outside the score.
func MeasureIndexAt(x float64, cfg geometry.Config) int {
	// starts computed as offset + k*stride may land a rounding step left
	// of their column, so each column opens columnTolerance early
	off := x - cfg.OffsetX + columnTolerance
	if off < 0 {
		return validation.UnknownIndex
	}
	stride := cfg.Stride()
	k := int(math.Floor(off / stride))
	if off >= float64(k+1)*stride {
		k++
	} else if k > 0 && off < float64(k)*stride {
		k--
	}
	if k >= cfg.VisibleMeasures {
		return validation.UnknownIndex
	}
	if off-float64(k)*stride >= cfg.MeasureWidth+columnTolerance {
		return validation.UnknownIndex
	}
	return k
}

type bucket struct {
	index    int
	segments []path.Segment
}

// bucketize groups segments by the measure of the most recent MoveTo. The
// open bucket before any MoveTo is the unknown one.
func bucketize(segs []path.Segment, cfg geometry.Config) (known map[int]*bucket, unknown *bucket) {
	known = make(map[int]*bucket)
	unknown = &bucket{index: validation.UnknownIndex}
	current := unknown
	for _, s := range segs {
		if s.IsStart() {
			idx := MeasureIndexAt(s.X, cfg)
			if idx == validation.UnknownIndex {
				current = unknown
			} else {
				b, ok := known[idx]
				if !ok {
					b = &bucket{index: idx}
					known[idx] = b
				}
				current = b
			}
		}
		current.segments = append(current.segments, s)
	}
	return known, unknown
}

// rawSpan is a MoveTo paired with its terminator, in pixel space.
type rawSpan struct {
	start path.Segment
	end   path.Segment
}

// pairSpans pairs each MoveTo with the segment right after it. A MoveTo
// followed by another MoveTo is a drag still in progress and a terminator
// without a MoveTo has nothing to end; both are skipped.
func pairSpans(segs []path.Segment) []rawSpan {
	var out []rawSpan
	for i := 0; i < len(segs); i++ {
		if !segs[i].IsStart() || i+1 >= len(segs) || !segs[i+1].IsContinuation() {
			continue
		}
		out = append(out, rawSpan{start: segs[i], end: segs[i+1]})
		i++
	}
	return out
}

// ToMeasures decodes drawn segments into measures. Every invalid note in
// every measure is reported; on failure the returned error is a
// validation.Errors and no measures are returned. Segment kinds other than
// MoveTo, HorizontalLineTo and LineTo fail fast with
// grid.ErrUnsupportedSegmentKind.
func ToMeasures(segs []path.Segment, cfg geometry.Config) ([]music.Measure, error) {
	return DecodeUnder(validation.Root(), segs, cfg)
}

// DecodeUnder is ToMeasures with failures located below parent, e.g. a part
// identifier.
func DecodeUnder(parent *validation.Identifier, segs []path.Segment, cfg geometry.Config) ([]music.Measure, error) {
	for _, s := range segs {
		if !s.IsStart() && !s.IsContinuation() {
			return nil, fmt.Errorf("codec: decode: %w: %s", grid.ErrUnsupportedSegmentKind, s.Kind)
		}
	}

	snapper := grid.New(cfg)
	known, unknown := bucketize(segs, cfg)

	maxIndex := -1
	for idx := range known {
		maxIndex = max(maxIndex, idx)
	}
	results := make([]validation.Result[music.Measure], 0, maxIndex+1)
	for idx := 0; idx <= maxIndex; idx++ {
		id := parent.Child(validation.KindMeasure, idx).WithID(MeasureKey(idx))
		b, ok := known[idx]
		if !ok {
			results = append(results, validation.OK(music.Measure{}))
			continue
		}
		results = append(results, decodeMeasure(id, b, cfg, snapper))
	}
	if errs := unknownErrors(parent, unknown); len(errs) > 0 {
		results = append(results, validation.Fail[music.Measure](errs...))
	}
	return validation.Sequence(results).Unwrap()
}

func unknownErrors(parent *validation.Identifier, b *bucket) validation.Errors {
	id := parent.Child(validation.KindMeasure, validation.UnknownIndex).WithID(UnknownMeasureKey)
	var errs validation.Errors
	n := 0
	for _, s := range b.segments {
		if !s.IsStart() {
			continue
		}
		errs = append(errs, validation.NewError(validation.ErrUnknownMeasureBucket, validation.TagMeasure,
			id.Child(validation.KindNote, n),
			fmt.Sprintf("note starting at x=%g is outside every visible measure", s.X)))
		n++
	}
	return errs
}

func decodeMeasure(id *validation.Identifier, b *bucket, cfg geometry.Config, snapper *grid.Snapper) validation.Result[music.Measure] {
	offset := cfg.MeasureOffset(b.index)
	raws := pairSpans(b.segments)
	spans := make([]NoteSpan, len(raws))
	for i, r := range raws {
		spans[i] = toLogical(r, cfg, offset, snapper)
	}
	// process in X order; ties keep drawing order
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Start.X < spans[j].Start.X })

	notes := make([]validation.Result[music.Note], len(spans))
	for i, sp := range spans {
		noteID := id.Child(validation.KindNote, i)
		notes[i] = validation.Zip2(durationOf(sp, noteID), pitchOf(sp, noteID),
			func(d music.Duration, p music.Pitch) music.Note {
				return music.Pitched{Duration: d, Pitch: p}
			})
	}
	return validation.Map(validation.Sequence(notes), func(ns []music.Note) music.Measure {
		return music.Measure{Notes: ns}
	})
}

// toLogical inverts the pixel mapping. Both X coordinates are snapped first,
// which puts an encoded note end (shortened by EndCutoff) back on its
// boundary and leaves snapped input unchanged.
func toLogical(r rawSpan, cfg geometry.Config, offset float64, snapper *grid.Snapper) NoteSpan {
	y0 := logicalY(r.start.Y, cfg)
	y1 := y0
	if r.end.Kind == path.KindLineTo {
		y1 = logicalY(r.end.Y, cfg)
	}
	return NoteSpan{
		Start: Vector{X: logicalX(snapper.SnapX(r.start.X), cfg, offset), Y: y0},
		End:   Vector{X: logicalX(snapper.SnapX(r.end.X), cfg, offset), Y: y1},
	}
}

func durationOf(sp NoteSpan, id *validation.Identifier) validation.Result[music.Duration] {
	width := sp.End.X - sp.Start.X
	ticks := width * music.TicksPerWhole
	rounded := math.Round(ticks)
	if math.Abs(ticks-rounded) < 1e-6 {
		if d, ok := music.DurationFromTicks(int(rounded)); ok {
			return validation.OK(d)
		}
	}
	return validation.Fail[music.Duration](validation.NewError(validation.ErrInvalidNoteDuration,
		validation.TagDuration, id,
		fmt.Sprintf("length %g whole notes is not a supported duration", width)))
}

func pitchOf(sp NoteSpan, id *validation.Identifier) validation.Result[music.Pitch] {
	p, ok := PitchAt(sp.Start.Y)
	if ok {
		return validation.OK(p)
	}
	return validation.Fail[music.Pitch](validation.NewError(validation.ErrInvalidPitchHeight,
		validation.TagPitch, id,
		fmt.Sprintf("height %g is not on the pitch table", sp.Start.Y)))
}
