// Package progress infers a bounded, monotonic completion percentage from the
// unstructured log lines an encode process writes while it works. There is no
// structured progress channel to rely on: the estimator scrapes stage markers
// ("building", "writing audio", "done") and whatever chunk/frame/percent
// tokens happen to appear, and falls back to elapsed-time guessing so the
// caller's display never looks frozen.
package progress

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Stage is where the encode process currently is.
type Stage int

const (
	StageInit Stage = iota
	StageBuilding
	StageAudio
	StageVideoPrep
	StageVideo
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageInit:
		return "init"
	case StageBuilding:
		return "building"
	case StageAudio:
		return "audio"
	case StageVideoPrep:
		return "video_prep"
	case StageVideo:
		return "video"
	case StageComplete:
		return "complete"
	}
	return "unknown"
}

// Sink receives each progress update. Percent never decreases across calls
// within one Estimator.
type Sink func(percent float64, message string)

// DefaultBase is where the encode step sits in the surrounding pipeline's
// percent map: the whole encode occupies [base, base+10].
const DefaultBase = 75

const (
	// sub-ranges within [base, base+10]
	audioSpan = 2  // audio occupies [base+1, base+3]
	videoSpan = 6  // video occupies [base+4, base+10]
	wholeSpan = 10 // generic signals outside a known stage

	// elapsed-time fallback: a rough linear rate per stage, capped well
	// below the stage ceiling so a real signal can still move the bar
	audioRatePerSec = 12
	videoRatePerSec = 6
	fallbackCapPct  = 85
	fallbackDelay   = 500 * time.Millisecond
)

var (
	chunkRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)chunk[:\s]*(\d+)\s*/\s*(\d+)`),
		regexp.MustCompile(`(?i)(\d+)\s*/\s*(\d+)\s*chunk`),
	}
	frameRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)frame[:\s]*(\d+)\s*/\s*(\d+)`),
		regexp.MustCompile(`(?i)(\d+)\s*/\s*(\d+)\s*frame`),
	}
	percentRe = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)
)

// Estimator is single-invocation state: create one per encode run, feed it
// lines as they arrive, discard it when the run ends. Not safe for sharing
// across concurrent runs.
type Estimator struct {
	base float64
	sink Sink
	now  func() time.Time

	stage      Stage
	stageStart time.Time
	lastPct    float64
	emitted    bool
}

func NewEstimator(base float64, sink Sink) *Estimator {
	return &Estimator{base: base, sink: sink, now: time.Now, stage: StageInit}
}

func (e *Estimator) Stage() Stage { return e.stage }

// Feed consumes one log line. Stage transitions take priority; otherwise the
// line is mined for a fine-grained signal. Lines carrying no recognizable
// pattern outside an active stage are silently ignored.
func (e *Estimator) Feed(line string) {
	low := strings.ToLower(strings.TrimSpace(line))
	if low == "" || e.stage == StageComplete {
		return
	}

	switch {
	case strings.Contains(low, "writing audio"):
		e.stage = StageAudio
		e.stageStart = e.now()
		e.emit(e.base+1, "Processing audio track...")
	case strings.Contains(low, "writing video"):
		e.stage = StageVideo
		e.stageStart = e.now()
		e.emit(e.base+4, "Writing video data...")
	case strings.Contains(low, "building"):
		e.stage = StageBuilding
		e.emit(e.base, "Building video structure...")
	case strings.Contains(low, "done"):
		switch e.stage {
		case StageAudio:
			e.emit(e.base+1+audioSpan, fmt.Sprintf("Audio processing completed (%.1fs)", e.elapsed()))
			e.stage = StageVideoPrep
		case StageVideo:
			e.emit(e.base+4+videoSpan, fmt.Sprintf("Video processing completed (%.1fs)", e.elapsed()))
			e.stage = StageComplete
		}
	default:
		e.fineGrained(low)
	}
}

// fineGrained tries, in priority order: chunk K/N, frame K/N, a bare NN%
// token, then an elapsed-time estimate when nothing parseable showed up.
func (e *Estimator) fineGrained(low string) {
	if cur, total, ok := firstRatio(chunkRes, low); ok {
		frac := ratio(cur, total)
		e.emit(e.project(frac), fmt.Sprintf("%s: chunk %d/%d (%.0f%%)", e.stageVerb(), cur, total, frac*100))
		return
	}
	if cur, total, ok := firstRatio(frameRes, low); ok {
		frac := ratio(cur, total)
		e.emit(e.project(frac), fmt.Sprintf("%s: frame %d/%d (%.0f%%)", e.stageVerb(), cur, total, frac*100))
		return
	}
	if m := percentRe.FindStringSubmatch(low); m != nil {
		if pct, err := strconv.ParseFloat(m[1], 64); err == nil && pct <= 100 {
			frac := pct / 100
			e.emit(e.project(frac), fmt.Sprintf("%s: %.0f%%", e.stageVerb(), pct))
			return
		}
	}
	e.elapsedFallback()
}

// elapsedFallback keeps the bar moving through audio/video stages that emit
// nothing parseable, at a stage-specific rate capped below the ceiling.
func (e *Estimator) elapsedFallback() {
	var rate float64
	switch e.stage {
	case StageAudio:
		rate = audioRatePerSec
	case StageVideo:
		rate = videoRatePerSec
	default:
		return
	}
	elapsed := e.elapsed()
	if elapsed < fallbackDelay.Seconds() {
		return
	}
	est := elapsed * rate
	if est > fallbackCapPct {
		est = fallbackCapPct
	}
	e.emit(e.project(est/100), fmt.Sprintf("%s (%.0f%%)...", e.stageVerb(), est))
}

// project maps a 0..1 fraction into the active stage's slice of the overall
// percent range.
func (e *Estimator) project(frac float64) float64 {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	switch e.stage {
	case StageAudio:
		return e.base + 1 + frac*audioSpan
	case StageVideo:
		return e.base + 4 + frac*videoSpan
	default:
		return e.base + frac*wholeSpan
	}
}

func (e *Estimator) stageVerb() string {
	switch e.stage {
	case StageAudio:
		return "Processing audio"
	case StageVideo:
		return "Writing video"
	default:
		return "Processing"
	}
}

func (e *Estimator) elapsed() float64 {
	if e.stageStart.IsZero() {
		return 0
	}
	return e.now().Sub(e.stageStart).Seconds()
}

// emit reports to the sink unless the value would move the bar backwards.
func (e *Estimator) emit(pct float64, msg string) {
	if e.sink == nil {
		return
	}
	if e.emitted && pct < e.lastPct {
		return
	}
	e.lastPct = pct
	e.emitted = true
	e.sink(pct, msg)
}

func firstRatio(res []*regexp.Regexp, s string) (cur, total int, ok bool) {
	for _, re := range res {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		cur, err1 := strconv.Atoi(m[1])
		total, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil || total <= 0 {
			continue
		}
		return cur, total, true
	}
	return 0, 0, false
}

func ratio(cur, total int) float64 {
	f := float64(cur) / float64(total)
	if f > 1 {
		f = 1
	}
	return f
}
