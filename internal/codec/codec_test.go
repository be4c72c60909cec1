package codec

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/staffline/internal/buffer"
	"github.com/starford/staffline/internal/geometry"
	"github.com/starford/staffline/internal/grid"
	"github.com/starford/staffline/internal/music"
	"github.com/starford/staffline/internal/path"
	"github.com/starford/staffline/internal/validation"
)

func testConfig(t *testing.T) geometry.Config {
	t.Helper()
	cfg := geometry.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func pitched(d music.Duration, p string) music.Note {
	return music.Pitched{Duration: d, Pitch: music.MustPitch(p)}
}

func validationErrors(t *testing.T, err error) validation.Errors {
	t.Helper()
	var errs validation.Errors
	if !errors.As(err, &errs) {
		t.Fatalf("error %v is not validation.Errors", err)
	}
	return errs
}

func TestDrawnWholeNote(t *testing.T) {
	cfg := testConfig(t)
	buf := buffer.New(grid.New(cfg))
	buf.Append(path.MoveTo(87.5, 650))
	segs, err := buf.Append(path.HorizontalLineTo(337.5))
	if err != nil {
		t.Fatal(err)
	}
	if segs[1].X != 337.5 {
		t.Fatalf("end snapped to %v, want 337.5", segs[1].X)
	}

	got, err := ToMeasures(segs, cfg)
	if err != nil {
		t.Fatalf("ToMeasures: %v", err)
	}
	want := []music.Measure{{Notes: []music.Note{pitched(music.Whole, "Bb4")}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("measures mismatch (-want +got):\n%s", diff)
	}
}

func TestMeasureKeyIsOneIndexed(t *testing.T) {
	cfg := testConfig(t)
	x := cfg.OffsetX + 2*(cfg.MeasureWidth+cfg.SpaceBetweenMeasures) + 10
	if got := MeasureKey(MeasureIndexAt(x, cfg)); got != "measure-3" {
		t.Errorf("key = %q, want measure-3", got)
	}
}

func TestMeasureIndexAt(t *testing.T) {
	cfg := testConfig(t)
	cases := []struct {
		x    float64
		want int
	}{
		{cfg.OffsetX, 0},
		{cfg.OffsetX + cfg.MeasureWidth - 0.01, 0},
		{cfg.OffsetX + cfg.MeasureWidth, validation.UnknownIndex},
		{cfg.MeasureStart(1), 1},
		{cfg.MeasureStart(3) + 499, 3},
		{cfg.MeasureStart(4), validation.UnknownIndex},
		{cfg.OffsetX - 1, validation.UnknownIndex},
	}
	for _, c := range cases {
		if got := MeasureIndexAt(c.x, cfg); got != c.want {
			t.Errorf("MeasureIndexAt(%v) = %d, want %d", c.x, got, c.want)
		}
	}
	if MeasureKey(validation.UnknownIndex) != UnknownMeasureKey {
		t.Error("unknown index should map to the unknown key")
	}
}

func TestPitchTable(t *testing.T) {
	sp, ok := spellRemainder(0.0)
	if !ok || sp.step != music.A || sp.alter != music.Flat {
		t.Errorf("remainder 0 = %+v, %v; want A flat", sp, ok)
	}
	for _, bad := range []float64{6.0, 0.25, 5.75, -0.5} {
		if _, ok := spellRemainder(bad); ok {
			t.Errorf("remainder %v should be off the table", bad)
		}
	}
	names := []string{"Ab3", "A3", "Bb3", "B3", "C4", "Db4", "D4", "Eb4", "E4", "F4", "Gb4", "G4", "Ab4"}
	for i, want := range names {
		p, ok := PitchAt(float64(i) / 2)
		if !ok || p.String() != want {
			t.Errorf("PitchAt(%v) = %v, %v; want %s", float64(i)/2, p, ok, want)
		}
	}
	if p, ok := PitchAt(-1); !ok || p.String() != "Gb3" {
		t.Errorf("PitchAt(-1) = %v, %v", p, ok)
	}
	if _, ok := PitchAt(100); ok {
		t.Error("height 100 is above the MIDI range")
	}
}

func TestSplitHeight(t *testing.T) {
	oct, rem := SplitHeight(7)
	if oct != 1 || rem != 1 {
		t.Errorf("SplitHeight(7) = %d, %v", oct, rem)
	}
	oct, rem = SplitHeight(-0.5)
	if oct != -1 || rem != 5.5 {
		t.Errorf("SplitHeight(-0.5) = %d, %v", oct, rem)
	}
}

func TestToPathSegments(t *testing.T) {
	cfg := testConfig(t)
	measures := []music.Measure{
		{Notes: []music.Note{pitched(music.Whole, "Bb4"), pitched(music.Half, "C4")}},
		{Notes: []music.Note{music.Rest{Duration: music.Quarter}}},
	}
	got := ToPathSegments(measures, cfg, 4)
	want := []path.Segment{
		path.MoveTo(87.5, 650), path.HorizontalLineTo(337.5 - cfg.EndCutoff),
		path.MoveTo(337.5, 900), path.HorizontalLineTo(462.5 - cfg.EndCutoff),
		path.MoveTo(637.5, 400+(12-RestHeight)*50), path.HorizontalLineTo(700 - cfg.EndCutoff),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
}

func TestToPathSegments_TruncatesToVisible(t *testing.T) {
	cfg := testConfig(t)
	m := music.Measure{Notes: []music.Note{pitched(music.Whole, "C4")}}
	got := ToPathSegments([]music.Measure{m, m, m}, cfg, 2)
	if len(got) != 4 {
		t.Errorf("got %d segments, want 4", len(got))
	}
	if got := ToPathSegments([]music.Measure{m}, cfg, 0); len(got) != 0 {
		t.Errorf("visible 0 should draw nothing, got %v", got)
	}
}

func TestToPathSegments_ChordSharesRange(t *testing.T) {
	cfg := testConfig(t)
	chord := music.Chord{Root: music.MustPitch("C4"), Duration: music.Half,
		Pitches: []music.Pitch{music.MustPitch("E4"), music.MustPitch("G4")}}
	got := ToPathSegments([]music.Measure{{Notes: []music.Note{chord}}}, cfg, 4)
	if len(got) != 6 {
		t.Fatalf("got %d segments, want 6", len(got))
	}
	for i := 0; i < 6; i += 2 {
		if got[i].X != 87.5 || got[i+1].X != 337.5-cfg.EndCutoff {
			t.Errorf("span %d = %v %v", i/2, got[i], got[i+1])
		}
	}
}

// randomMeasures fills n measures with random pitched notes, none overfull.
func randomMeasures(t *testing.T, r *rand.Rand, n int) []music.Measure {
	t.Helper()
	durations := music.Durations()
	measures := make([]music.Measure, n)
	for i := range measures {
		used := 0
		for {
			d := durations[r.Intn(len(durations))]
			if used+d.Ticks() > music.MeasureTicks {
				break
			}
			p, ok := PitchAt(float64(r.Intn(60)-20) / 2)
			if !ok {
				t.Fatal("generated pitch off the table")
			}
			measures[i].Notes = append(measures[i].Notes, music.Pitched{Duration: d, Pitch: p})
			used += d.Ticks()
		}
		if len(measures[i].Notes) == 0 {
			measures[i].Notes = []music.Note{pitched(music.Eighth, "C4")}
		}
	}
	return measures
}

func TestRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	r := rand.New(rand.NewSource(3))
	for iter := 0; iter < 200; iter++ {
		measures := randomMeasures(t, r, 1+r.Intn(cfg.VisibleMeasures))

		got, err := ToMeasures(ToPathSegments(measures, cfg, cfg.VisibleMeasures), cfg)
		if err != nil {
			t.Fatalf("iteration %d: ToMeasures: %v", iter, err)
		}
		if diff := cmp.Diff(measures, got); diff != "" {
			t.Fatalf("iteration %d: round trip mismatch (-want +got):\n%s", iter, diff)
		}
	}
}

func TestRoundTrip_RandomGeometry(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	between := func(lo, hi float64) float64 { return lo + r.Float64()*(hi-lo) }
	for iter := 0; iter < 3000; iter++ {
		cfg := geometry.Config{
			OffsetX:              between(0.1, 250),
			OffsetY:              between(1, 600),
			MeasureWidth:         between(40, 900),
			SpaceBetweenMeasures: between(0.1, 120),
			WholeStepPixelHeight: between(2, 90),
			FlipHeight:           between(0.5, 24),
			VisibleMeasures:      1 + r.Intn(6),
		}
		cfg.EndCutoff = cfg.StepWidth() * between(0.05, 0.95)
		if err := cfg.Validate(); err != nil {
			t.Fatalf("iteration %d: generated geometry %+v: %v", iter, cfg, err)
		}
		measures := randomMeasures(t, r, cfg.VisibleMeasures)

		got, err := ToMeasures(ToPathSegments(measures, cfg, cfg.VisibleMeasures), cfg)
		if err != nil {
			t.Fatalf("iteration %d: geometry %+v: ToMeasures: %v", iter, cfg, err)
		}
		if diff := cmp.Diff(measures, got); diff != "" {
			t.Fatalf("iteration %d: geometry %+v: round trip mismatch (-want +got):\n%s", iter, cfg, diff)
		}
	}
}

func TestMeasureIndexAt_ColumnStarts(t *testing.T) {
	cfg := geometry.Config{
		OffsetX: 0.3, OffsetY: 10, MeasureWidth: 0.7, SpaceBetweenMeasures: 0.1,
		EndCutoff: 0.01, WholeStepPixelHeight: 1, FlipHeight: 1, VisibleMeasures: 8,
	}
	for k := 0; k < cfg.VisibleMeasures; k++ {
		x := cfg.OffsetX + float64(k)*cfg.Stride()
		if got := MeasureIndexAt(x, cfg); got != k {
			t.Errorf("column %d start %v: got %d", k, x, got)
		}
		if got := MeasureIndexAt(x-1e-12, cfg); got != k {
			t.Errorf("column %d start %v minus rounding: got %d", k, x, got)
		}
	}
	if got := MeasureIndexAt(cfg.OffsetX+cfg.MeasureWidth+0.05, cfg); got != validation.UnknownIndex {
		t.Errorf("gap: got %d, want unknown", got)
	}
}

func TestRoundTrip_OddGeometry(t *testing.T) {
	cfg := geometry.Config{
		OffsetX: 13.3, OffsetY: 71.7, MeasureWidth: 333.3, SpaceBetweenMeasures: 17.1,
		EndCutoff: 3.7, WholeStepPixelHeight: 21.9, FlipHeight: 9.5, VisibleMeasures: 3,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	measures := []music.Measure{
		{Notes: []music.Note{pitched(music.DottedQuarter, "Eb4"), pitched(music.Eighth, "Gb2"), pitched(music.DottedWhole, "A5")}},
		{Notes: []music.Note{pitched(music.DoubleWhole, "Db3")}},
		{Notes: []music.Note{pitched(music.DottedHalf, "B4"), pitched(music.Quarter, "F3")}},
	}
	got, err := ToMeasures(ToPathSegments(measures, cfg, 3), cfg)
	if err != nil {
		t.Fatalf("ToMeasures: %v", err)
	}
	if diff := cmp.Diff(measures, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestToMeasures_AccumulatesAcrossMeasures(t *testing.T) {
	cfg := testConfig(t)
	segs := []path.Segment{
		// measure 1: five eighths long
		path.MoveTo(87.5, 650), path.HorizontalLineTo(87.5 + 5*31.25),
		// measure 2: height 0.25, between two pitches
		path.MoveTo(637.5, 400+11.75*50), path.HorizontalLineTo(762.5),
	}
	_, err := ToMeasures(segs, cfg)
	errs := validationErrors(t, err)
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), errs)
	}
	if !errors.Is(errs[0], validation.ErrInvalidNoteDuration) {
		t.Errorf("first error = %v", errs[0])
	}
	if !errors.Is(errs[1], validation.ErrInvalidPitchHeight) {
		t.Errorf("second error = %v", errs[1])
	}
	if m := errs[1].Identifier.Nearest(validation.KindMeasure); m == nil || m.ID != "measure-2" {
		t.Errorf("second error located at %v", errs[1].Identifier)
	}
}

func TestToMeasures_BothErrorsOnOneNote(t *testing.T) {
	cfg := testConfig(t)
	segs := []path.Segment{
		path.MoveTo(87.5, 400+11.75*50), path.HorizontalLineTo(87.5 + 7*31.25),
		path.MoveTo(337.5, 650), path.HorizontalLineTo(400),
	}
	_, err := ToMeasures(segs, cfg)
	errs := validationErrors(t, err)
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), errs)
	}
	for _, e := range errs {
		if e.Identifier.Index != 0 {
			t.Errorf("error on note %d, want note 0", e.Identifier.Index)
		}
	}
}

func TestToMeasures_XOrderNotDrawOrder(t *testing.T) {
	cfg := testConfig(t)
	segs := []path.Segment{
		path.MoveTo(337.5, 900), path.HorizontalLineTo(462.5),
		path.MoveTo(87.5, 650), path.HorizontalLineTo(337.5),
	}
	got, err := ToMeasures(segs, cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := []music.Measure{{Notes: []music.Note{pitched(music.Whole, "Bb4"), pitched(music.Half, "C4")}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("measures mismatch (-want +got):\n%s", diff)
	}
}

func TestToMeasures_UnknownBucket(t *testing.T) {
	cfg := testConfig(t)
	segs := []path.Segment{
		path.MoveTo(87.5, 650), path.HorizontalLineTo(337.5),
		// inside the gap between measure 1 and 2
		path.MoveTo(600, 650), path.HorizontalLineTo(637.5),
	}
	_, err := ToMeasures(segs, cfg)
	errs := validationErrors(t, err)
	if len(errs) != 1 || !errors.Is(errs[0], validation.ErrUnknownMeasureBucket) {
		t.Fatalf("errors = %v", errs)
	}
	m := errs[0].Identifier.Nearest(validation.KindMeasure)
	if m == nil || m.ID != UnknownMeasureKey {
		t.Errorf("identifier = %v", errs[0].Identifier)
	}
}

func TestToMeasures_FillsEmptyMeasures(t *testing.T) {
	cfg := testConfig(t)
	segs := []path.Segment{path.MoveTo(cfg.MeasureStart(2), 650), path.HorizontalLineTo(cfg.MeasureStart(2) + 250)}
	got, err := ToMeasures(segs, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || len(got[0].Notes) != 0 || len(got[1].Notes) != 0 || len(got[2].Notes) != 1 {
		t.Errorf("measures = %+v", got)
	}
}

func TestToMeasures_PendingStartIgnored(t *testing.T) {
	cfg := testConfig(t)
	segs := []path.Segment{path.MoveTo(87.5, 650), path.HorizontalLineTo(337.5), path.MoveTo(337.5, 650)}
	got, err := ToMeasures(segs, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || len(got[0].Notes) != 1 {
		t.Errorf("measures = %+v", got)
	}
}

func TestToMeasures_Empty(t *testing.T) {
	got, err := ToMeasures(nil, testConfig(t))
	if err != nil || len(got) != 0 {
		t.Errorf("ToMeasures(nil) = %v, %v", got, err)
	}
}

func TestToMeasures_UnsupportedKindIsFatal(t *testing.T) {
	cfg := testConfig(t)
	segs := []path.Segment{path.MoveTo(87.5, 650), {Kind: path.KindClosePath}}
	_, err := ToMeasures(segs, cfg)
	if !errors.Is(err, grid.ErrUnsupportedSegmentKind) {
		t.Fatalf("err = %v, want ErrUnsupportedSegmentKind", err)
	}
	var errs validation.Errors
	if errors.As(err, &errs) {
		t.Error("fatal error must not be a validation list")
	}
}

func TestChordDecodesAsSequence(t *testing.T) {
	cfg := testConfig(t)
	chord := music.Chord{Root: music.MustPitch("C4"), Duration: music.Quarter,
		Pitches: []music.Pitch{music.MustPitch("E4")}}
	segs := ToPathSegments([]music.Measure{{Notes: []music.Note{chord}}}, cfg, 4)
	got, err := ToMeasures(segs, cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := []music.Measure{{Notes: []music.Note{pitched(music.Quarter, "C4"), pitched(music.Quarter, "E4")}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("chord decode mismatch (-want +got):\n%s", diff)
	}
}

func TestRestDoesNotDecodeAsPitch(t *testing.T) {
	cfg := testConfig(t)
	segs := ToPathSegments([]music.Measure{{Notes: []music.Note{music.Rest{Duration: music.Half}}}}, cfg, 4)
	_, err := ToMeasures(segs, cfg)
	errs := validationErrors(t, err)
	if len(errs) != 1 || !errors.Is(errs[0], validation.ErrInvalidPitchHeight) {
		t.Errorf("errors = %v", errs)
	}
}

func TestErrorOverlay(t *testing.T) {
	cfg := testConfig(t)
	segs := []path.Segment{
		path.MoveTo(637.5, 400+11.75*50), path.HorizontalLineTo(762.5),
		path.MoveTo(5000, 650), path.HorizontalLineTo(5100),
	}
	_, err := ToMeasures(segs, cfg)
	got := ErrorOverlay(err, cfg)
	want := []path.Segment{
		path.MoveTo(637.5, 400), path.HorizontalLineTo(1137.5),
		path.MoveTo(87.5, 400), path.HorizontalLineTo(cfg.ScoreEnd()),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("overlay mismatch (-want +got):\n%s", diff)
	}
	if ErrorOverlay(errors.New("boom"), cfg) != nil {
		t.Error("non-validation errors have no overlay")
	}
}
