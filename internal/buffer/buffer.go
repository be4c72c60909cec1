// Package buffer holds the pending notation input of one editing session.
package buffer

import (
	"fmt"

	"github.com/starford/staffline/internal/apperr"
	"github.com/starford/staffline/internal/grid"
	"github.com/starford/staffline/internal/path"
)

// ErrMalformed is returned for segment lists that do not alternate start and
// continuation.
var ErrMalformed = fmt.Errorf("buffer: segments must alternate MoveTo and a terminating segment: %w", apperr.ErrInvalidInput)

// Snapshot is a read-only copy of the buffer at one revision.
type Snapshot struct {
	Revision uint64         `json:"revision"`
	Segments []path.Segment `json:"segments"`
	Overlay  []path.Segment `json:"overlay"`
}

// Buffer is an ordered list of path segments where every note is a MoveTo
// followed by one terminating segment. After any sequence of Append calls it
// is empty, ends in a pending MoveTo, or ends in a complete pair; it never
// holds two consecutive segments of the same role.
//
// Buffer does no locking. Callers must serialise every call on one buffer.
type Buffer struct {
	snapper  *grid.Snapper
	segments []path.Segment
	overlay  []path.Segment
	revision uint64
}

// New returns an empty buffer that snaps input with s.
func New(s *grid.Snapper) *Buffer {
	return &Buffer{snapper: s}
}

// Append snaps raw and applies it:
//
//	empty        + start        -> append
//	empty        + continuation -> dropped
//	start        + start        -> replace (one pending start at most)
//	start        + continuation -> append
//	continuation + start        -> append (new note)
//	continuation + continuation -> replace (drag refinement)
//
// Segment kinds the grid cannot snap are returned as errors and leave the
// buffer unchanged.
func (b *Buffer) Append(raw path.Segment) ([]path.Segment, error) {
	seg, err := b.snapper.SnapSegment(raw)
	if err != nil {
		return b.Segments(), err
	}

	n := len(b.segments)
	switch {
	case n == 0:
		if !seg.IsStart() {
			return b.Segments(), nil
		}
		b.segments = append(b.segments, seg)
	case b.segments[n-1].IsStart() == seg.IsStart():
		if b.segments[n-1] == seg {
			return b.Segments(), nil
		}
		b.segments[n-1] = seg
	default:
		b.segments = append(b.segments, seg)
	}
	b.revision++
	return b.Segments(), nil
}

// UndoLast removes the last two segments, or fewer if the buffer is shorter.
func (b *Buffer) UndoLast() []path.Segment {
	if len(b.segments) == 0 {
		return b.Segments()
	}
	n := len(b.segments) - 2
	if n < 0 {
		n = 0
	}
	b.segments = b.segments[:n]
	b.revision++
	return b.Segments()
}

// CheckShape reports whether data is a list of start and continuation pairs,
// optionally followed by one pending start.
func CheckShape(data []path.Segment) error {
	for i, seg := range data {
		if i%2 == 0 && !seg.IsStart() {
			return fmt.Errorf("%w: segment %d is %s, want a start", ErrMalformed, i, seg.Kind)
		}
		if i%2 == 1 && !seg.IsContinuation() {
			return fmt.Errorf("%w: segment %d is %s, want a continuation", ErrMalformed, i, seg.Kind)
		}
	}
	return nil
}

// ReplaceAll swaps in data wholesale and clears the error overlay. Data is
// taken unsnapped: it comes from the encoder, which already lies on the grid
// apart from the end cutoff. Malformed data leaves the buffer unchanged.
func (b *Buffer) ReplaceAll(data []path.Segment) ([]path.Segment, error) {
	if err := CheckShape(data); err != nil {
		return b.Segments(), err
	}
	b.segments = append([]path.Segment(nil), data...)
	b.overlay = nil
	b.revision++
	return b.Segments(), nil
}

// ReplaceInput snaps raw the way Append does and then replaces the buffer
// with it. Any unsupported kind or malformed order leaves the buffer
// unchanged.
func (b *Buffer) ReplaceInput(raw []path.Segment) ([]path.Segment, error) {
	snapped := make([]path.Segment, len(raw))
	for i, seg := range raw {
		var err error
		if snapped[i], err = b.snapper.SnapSegment(seg); err != nil {
			return b.Segments(), fmt.Errorf("segment %d: %w", i, err)
		}
	}
	return b.ReplaceAll(snapped)
}

// Segments returns a copy of the buffered segments.
func (b *Buffer) Segments() []path.Segment {
	out := make([]path.Segment, len(b.segments))
	copy(out, b.segments)
	return out
}

// Overlay returns a copy of the error overlay.
func (b *Buffer) Overlay() []path.Segment {
	out := make([]path.Segment, len(b.overlay))
	copy(out, b.overlay)
	return out
}

// SetOverlay replaces the error overlay. The overlay is display output only
// and is never read back as input.
func (b *Buffer) SetOverlay(segs []path.Segment) {
	b.overlay = append([]path.Segment(nil), segs...)
	b.revision++
}

// ClearOverlay drops the error overlay.
func (b *Buffer) ClearOverlay() {
	if len(b.overlay) == 0 {
		return
	}
	b.overlay = nil
	b.revision++
}

// Revision increases on every change to segments or overlay.
func (b *Buffer) Revision() uint64 { return b.revision }

// Snapshot returns the current state with its revision.
func (b *Buffer) Snapshot() Snapshot {
	return Snapshot{Revision: b.revision, Segments: b.Segments(), Overlay: b.Overlay()}
}
