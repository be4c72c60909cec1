package codec

import (
	"errors"

	"github.com/starford/staffline/internal/geometry"
	"github.com/starford/staffline/internal/path"
	"github.com/starford/staffline/internal/validation"
)

// ErrorOverlay derives one marker line per failure: a horizontal line along
// the top of the offending measure column. Failures outside every visible
// measure mark the whole staff.
func ErrorOverlay(err error, cfg geometry.Config) []path.Segment {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return nil
	}
	out := make([]path.Segment, 0, 2*len(errs))
	for _, e := range errs {
		x0, x1 := cfg.OffsetX, cfg.ScoreEnd()
		if m := e.Identifier.Nearest(validation.KindMeasure); m != nil && m.Index != validation.UnknownIndex {
			if m.Index >= cfg.VisibleMeasures {
				continue
			}
			x0 = cfg.MeasureStart(m.Index)
			x1 = x0 + cfg.MeasureWidth
		}
		out = append(out, path.MoveTo(x0, cfg.OffsetY), path.HorizontalLineTo(x1))
	}
	return out
}
