package path

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseAndFormat(t *testing.T) {
	in := "M 87.5 650 H 337.5 M 400,600 L 450 575"
	segs, err := Parse(in)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []Segment{MoveTo(87.5, 650), HorizontalLineTo(337.5), MoveTo(400, 600), LineTo(450, 575)}
	if diff := cmp.Diff(want, segs); diff != "" {
		t.Fatalf("Parse mismatch (-want +got):\n%s", diff)
	}
	if got := Format(segs); got != "M 87.5 650 H 337.5 M 400 600 L 450 575" {
		t.Errorf("Format = %q", got)
	}
}

func TestParseCompact(t *testing.T) {
	segs, err := Parse("M10,20H30V40Z")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(segs) != 4 {
		t.Fatalf("got %d segments, want 4", len(segs))
	}
	if segs[2].Kind != KindVerticalLineTo || segs[3].Kind != KindClosePath {
		t.Errorf("unexpected kinds: %v %v", segs[2].Kind, segs[3].Kind)
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"10 20", "M 10", "M 10 x", "m 10 20", "H"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) should fail", in)
		}
	}
}

func TestSegmentJSON(t *testing.T) {
	b, err := json.Marshal([]Segment{MoveTo(1, 2), HorizontalLineTo(3)})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `[{"kind":"M","x":1,"y":2},{"kind":"H","x":3}]` {
		t.Errorf("json = %s", b)
	}
	var back []Segment
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back[1] != HorizontalLineTo(3) {
		t.Errorf("decoded = %+v", back[1])
	}
}

func TestStartAndContinuation(t *testing.T) {
	if !MoveTo(0, 0).IsStart() || MoveTo(0, 0).IsContinuation() {
		t.Error("MoveTo is a start")
	}
	if !LineTo(0, 0).IsContinuation() || !HorizontalLineTo(0).IsContinuation() {
		t.Error("line segments are continuations")
	}
	if (Segment{Kind: KindClosePath}).IsContinuation() {
		t.Error("close path is neither")
	}
}
