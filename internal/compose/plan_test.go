package compose

import (
	"math/rand"
	"strings"
	"testing"
	"time"
)

func testSources() []ClipSource {
	return []ClipSource{
		{Path: "a.mp4", Duration: 30 * time.Second},
		{Path: "b.mp4", Duration: 12 * time.Second},
		{Path: "c.mp4", Duration: 45 * time.Second},
	}
}

func TestPlanSegmentsCoversTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	total := 90 * time.Second
	maxSeg := 8 * time.Second

	segments, err := PlanSegments(testSources(), total, maxSeg, rng)
	if err != nil {
		t.Fatalf("PlanSegments error: %v", err)
	}

	var covered time.Duration
	for _, seg := range segments {
		covered += seg.Length
	}
	if covered != total {
		t.Errorf("covered %v, want %v", covered, total)
	}
}

func TestPlanSegmentsRespectsMaxLength(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	maxSeg := 8 * time.Second

	segments, err := PlanSegments(testSources(), time.Minute, maxSeg, rng)
	if err != nil {
		t.Fatalf("PlanSegments error: %v", err)
	}
	for i, seg := range segments {
		if seg.Length > maxSeg {
			t.Errorf("segment %d length %v exceeds max %v", i, seg.Length, maxSeg)
		}
		if seg.Length <= 0 {
			t.Errorf("segment %d has non-positive length", i)
		}
	}
}

func TestPlanSegmentsOffsetsWithinSource(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	sources := testSources()
	byPath := make(map[string]time.Duration)
	for _, s := range sources {
		byPath[s.Path] = s.Duration
	}

	segments, err := PlanSegments(sources, 2*time.Minute, 8*time.Second, rng)
	if err != nil {
		t.Fatalf("PlanSegments error: %v", err)
	}
	for i, seg := range segments {
		limit, ok := byPath[seg.Source]
		if !ok {
			t.Fatalf("segment %d uses unknown source %q", i, seg.Source)
		}
		if seg.Offset+seg.Length > limit {
			t.Errorf(
				"segment %d reads past the end of %s: offset %v + length %v > %v",
				i, seg.Source, seg.Offset, seg.Length, limit,
			)
		}
	}
}

func TestPlanSegmentsShortSourceUsesFullLength(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	sources := []ClipSource{{Path: "short.mp4", Duration: 3 * time.Second}}

	segments, err := PlanSegments(sources, 10*time.Second, 8*time.Second, rng)
	if err != nil {
		t.Fatalf("PlanSegments error: %v", err)
	}
	for i, seg := range segments {
		if seg.Offset != 0 {
			t.Errorf("segment %d offset = %v, want 0 for short source", i, seg.Offset)
		}
		if seg.Length > 3*time.Second {
			t.Errorf("segment %d length %v exceeds source duration", i, seg.Length)
		}
	}
}

func TestPlanSegmentsRejectsEmptySources(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	if _, err := PlanSegments(nil, time.Minute, 8*time.Second, rng); err == nil {
		t.Error("expected error for no sources")
	}
	zero := []ClipSource{{Path: "z.mp4", Duration: 0}}
	if _, err := PlanSegments(zero, time.Minute, 8*time.Second, rng); err == nil {
		t.Error("expected error for zero duration sources")
	}
}

func TestPlanSegmentsDeterministicWithSeed(t *testing.T) {
	a, err := PlanSegments(testSources(), time.Minute, 8*time.Second, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatal(err)
	}
	b, err := PlanSegments(testSources(), time.Minute, 8*time.Second, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != len(b) {
		t.Fatalf("plans differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("segment %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestOverlayChainComposition(t *testing.T) {
	in := BuildInput{
		CaptionsPath:  "/tmp/captions.srt",
		Title:         "Night Harvest",
		TitleDuration: 3 * time.Second,
		Fade:          time.Second,
	}
	chain := overlayChain(in, 60*time.Second)

	if !strings.Contains(chain, "subtitles=") {
		t.Error("chain missing caption burn-in")
	}
	if !strings.Contains(chain, "force_style=") {
		t.Error("chain missing caption style")
	}
	if !strings.Contains(chain, "drawtext=") {
		t.Error("chain missing title overlay")
	}
	if !strings.Contains(chain, "fade=t=in:st=0:d=1") {
		t.Error("chain missing fade in")
	}
	if !strings.Contains(chain, "fade=t=out:st=59:d=1") {
		t.Errorf("chain missing fade out: %s", chain)
	}
}

func TestOverlayChainEmpty(t *testing.T) {
	if chain := overlayChain(BuildInput{}, time.Minute); chain != "null" {
		t.Errorf("empty chain = %q, want null", chain)
	}
}

func TestEscapeDrawtext(t *testing.T) {
	got := escapeDrawtext("It's 100%: fine")
	if strings.Contains(got, "'") && !strings.Contains(got, `\'`) {
		t.Errorf("unescaped quote in %q", got)
	}
	if !strings.Contains(got, `\:`) {
		t.Errorf("unescaped colon in %q", got)
	}
	if !strings.Contains(got, `\%`) {
		t.Errorf("unescaped percent in %q", got)
	}
}

func TestTitleFilterEnableWindow(t *testing.T) {
	f := titleFilter("My Movie", 3*time.Second)
	if !strings.Contains(f, "enable='lt(t,3)'") {
		t.Errorf("title filter missing enable window: %s", f)
	}
}
