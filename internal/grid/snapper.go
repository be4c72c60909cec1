// Package grid snaps pointer X coordinates onto the boundaries of the
// supported note durations.
package grid

import (
	"fmt"
	"sort"

	"github.com/starford/staffline/internal/apperr"
	"github.com/starford/staffline/internal/geometry"
	"github.com/starford/staffline/internal/music"
	"github.com/starford/staffline/internal/path"
)

// ErrUnsupportedSegmentKind is returned for path primitives other than
// MoveTo and HorizontalLineTo. It signals a caller bug, not bad user input.
var ErrUnsupportedSegmentKind = fmt.Errorf("grid: unsupported segment kind: %w", apperr.ErrUnsupported)

// tolerance absorbs float rounding between the table and callers that compute
// the same boundary in a different order.
const tolerance = 1e-7

// Snapper holds the boundary table for one geometry. It is immutable and safe
// for concurrent use.
type Snapper struct {
	boundaries []float64
}

// New builds the boundary table for cfg: every multiple of every supported
// duration that fits in a measure, for each visible measure.
func New(cfg geometry.Config) *Snapper {
	ticks := make(map[int]struct{})
	for _, d := range music.Durations() {
		step := d.Ticks()
		for t := 0; t <= music.MeasureTicks; t += step {
			ticks[t] = struct{}{}
		}
	}
	offsets := make([]int, 0, len(ticks))
	for t := range ticks {
		offsets = append(offsets, t)
	}
	sort.Ints(offsets)

	// geometry.GridSteps and music.MeasureTicks describe the same grid.
	tickWidth := cfg.MeasureWidth / music.MeasureTicks
	b := make([]float64, 0, len(offsets)*cfg.VisibleMeasures)
	for i := 0; i < cfg.VisibleMeasures; i++ {
		start := cfg.MeasureStart(i)
		for _, t := range offsets {
			b = append(b, start+float64(t)*tickWidth)
		}
	}
	sort.Float64s(b)
	return &Snapper{boundaries: b}
}

// Boundaries returns a copy of the boundary table.
func (s *Snapper) Boundaries() []float64 {
	out := make([]float64, len(s.boundaries))
	copy(out, s.boundaries)
	return out
}

// SnapX returns the smallest boundary b with x <= b (within a rounding
// tolerance). Inputs below the table snap to the first boundary, inputs past
// it to the end of the score.
func (s *Snapper) SnapX(x float64) float64 {
	if len(s.boundaries) == 0 {
		return x
	}
	i := sort.SearchFloat64s(s.boundaries, x-tolerance)
	if i == len(s.boundaries) {
		return s.boundaries[len(s.boundaries)-1]
	}
	return s.boundaries[i]
}

// SnapSegment snaps the X coordinate of a MoveTo or HorizontalLineTo.
func (s *Snapper) SnapSegment(seg path.Segment) (path.Segment, error) {
	switch seg.Kind {
	case path.KindMoveTo, path.KindHorizontalLineTo:
		seg.X = s.SnapX(seg.X)
		return seg, nil
	default:
		return seg, fmt.Errorf("%w: %s", ErrUnsupportedSegmentKind, seg.Kind)
	}
}
