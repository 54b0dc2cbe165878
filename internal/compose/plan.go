package compose

import (
	"fmt"
	"math/rand"
	"time"
)

// ClipSource is a background clip available for tiling.
type ClipSource struct {
	Path     string
	Duration time.Duration
}

// Segment is one scheduled slice of a source clip.
type Segment struct {
	Source string
	Offset time.Duration
	Length time.Duration
}

// PlanSegments tiles the background clips to cover total runtime.
// Each segment is at most maxSegment long, drawn from a randomly
// chosen source at a random offset. Sources shorter than the segment
// budget contribute their full length.
func PlanSegments(
	sources []ClipSource,
	total, maxSegment time.Duration,
	rng *rand.Rand,
) ([]Segment, error) {
	if total <= 0 {
		return nil, fmt.Errorf("total duration must be positive, got %v", total)
	}
	if maxSegment <= 0 {
		return nil, fmt.Errorf("max segment duration must be positive, got %v", maxSegment)
	}

	var usable []ClipSource
	for _, s := range sources {
		if s.Duration > 0 {
			usable = append(usable, s)
		}
	}
	if len(usable) == 0 {
		return nil, fmt.Errorf("no usable background clips")
	}

	var (
		segments  []Segment
		remaining = total
	)

	for remaining > 0 {
		length := maxSegment
		if remaining < length {
			length = remaining
		}

		src := usable[rng.Intn(len(usable))]

		var offset time.Duration
		if src.Duration <= length {
			length = src.Duration
		} else {
			offset = time.Duration(rng.Int63n(int64(src.Duration - length)))
		}

		segments = append(segments, Segment{
			Source: src.Path,
			Offset: offset,
			Length: length,
		})
		remaining -= length
	}

	return segments, nil
}
