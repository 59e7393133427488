package chapters

import "fmt"

// Range is the [StartSec, EndSec) interval to cut for one marker.
type Range struct {
	StartSec    int
	EndSec      int
	MarkerIndex int
}

func (r Range) DurationSec() int { return r.EndSec - r.StartSec }

// Selection picks which markers of a list to resolve.
type Selection struct {
	All   bool
	First bool
	Index int // used when neither All nor First is set
}

func SelectAll() Selection        { return Selection{All: true} }
func SelectFirst() Selection      { return Selection{First: true} }
func SelectIndex(i int) Selection { return Selection{Index: i} }

// ResolveOptions carry the deployment limits that bound a range.
// MediaDurationSec and MaxSegmentSec of 0 mean unknown/unlimited.
type ResolveOptions struct {
	FallbackWindowSec int // window after the last marker; defaults to 60
	MaxSegmentSec     int
	MediaDurationSec  int
}

// Skip records a marker whose range collapsed under clamping. It is a
// per-chapter outcome, not a batch failure.
type Skip struct {
	MarkerIndex int
	Err         error
}

// Resolve turns selected markers into extraction ranges. A marker ends where
// the next one starts; the last marker gets a fixed fallback window since
// nothing bounds it. Ranges are clamped to the configured segment limit and
// the media duration, and anything that collapses to start >= end is skipped.
func Resolve(list List, sel Selection, opts ResolveOptions) ([]Range, []Skip) {
	if len(list) == 0 {
		return nil, nil
	}

	window := opts.FallbackWindowSec
	if window <= 0 {
		window = 60
	}

	var indexes []int
	switch {
	case sel.All:
		for i := range list {
			indexes = append(indexes, i)
		}
	case sel.First:
		indexes = []int{0}
	default:
		if sel.Index < 0 || sel.Index >= len(list) {
			return nil, []Skip{{MarkerIndex: sel.Index, Err: fmt.Errorf("chapter index %d out of range (have %d)", sel.Index, len(list))}}
		}
		indexes = []int{sel.Index}
	}

	var (
		ranges  []Range
		skipped []Skip
	)
	for _, i := range indexes {
		start := list[i].Time.Seconds()
		var end int
		if i+1 < len(list) {
			end = list[i+1].Time.Seconds()
		} else {
			end = start + window
		}
		if opts.MaxSegmentSec > 0 && end > start+opts.MaxSegmentSec {
			end = start + opts.MaxSegmentSec
		}
		if opts.MediaDurationSec > 0 && end > opts.MediaDurationSec {
			end = opts.MediaDurationSec
		}
		if start >= end {
			skipped = append(skipped, Skip{
				MarkerIndex: i,
				Err:         fmt.Errorf("chapter %q: empty range at %d-%ds", list[i].Title, start, end),
			})
			continue
		}
		ranges = append(ranges, Range{StartSec: start, EndSec: end, MarkerIndex: i})
	}
	return ranges, skipped
}
