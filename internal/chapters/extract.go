package chapters

import (
	"regexp"
	"sort"
	"strings"

	"github.com/cutplane/chaptercut/internal/timecode"
)

// Marker is one chapter boundary recovered from a description: where it
// starts and what it is called. Markers are never mutated after extraction.
type Marker struct {
	Time  timecode.TimeCode
	Title string
}

// List is an ordered, deduplicated chapter sequence sorted by start offset.
type List []Marker

// Options bound the work the extractor does on untrusted description text.
// Zero values mean uncapped.
type Options struct {
	MaxChapters int
	MaxLines    int
}

var (
	// strict form: a timecode token at the start of the line, whitespace, title.
	strictRe = regexp.MustCompile(`^(\d{1,2}:\d{2}(?::\d{2})?)\s+(.+)$`)
	// permissive form: any timecode-shaped token anywhere in the line.
	looseRe = regexp.MustCompile(`\d{1,2}:\d{2}(?::\d{2})?`)
	// a following timecode (preceded by whitespace) ends a fallback title.
	nextTsRe = regexp.MustCompile(`\s+\d{1,2}:\d{2}(?::\d{2})?`)
	digitsRe = regexp.MustCompile(`^\d+$`)
)

const (
	leadingSeps  = "-–—:[]()• \t"
	trailingSeps = ", \t[]()"
)

// Extract scans description text for chapter markers. Each line gets a strict
// pass first ("00:00 Intro"); only if that yields nothing does the fallback
// pass look for looser conventions ("Intro - 0:00", "[0:00] Intro"). The
// result is deduplicated, sorted and capped. An empty result is normal, not
// an error: plenty of descriptions simply have no chapter list.
func Extract(description string, opts Options) List {
	var found []Marker

	lines := strings.Split(description, "\n")
	if opts.MaxLines > 0 && len(lines) > opts.MaxLines {
		lines = lines[:opts.MaxLines]
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) < 4 {
			// cannot hold "M:SS" plus any title
			continue
		}

		if m, ok := strictLine(line); ok {
			found = append(found, m)
			continue
		}
		found = append(found, fallbackLine(line)...)
	}

	out := dedupe(found)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Seconds() < out[j].Time.Seconds()
	})
	if opts.MaxChapters > 0 && len(out) > opts.MaxChapters {
		out = out[:opts.MaxChapters]
	}
	return out
}

// strictLine handles the dominant "00:00 Title" convention.
func strictLine(line string) (Marker, bool) {
	m := strictRe.FindStringSubmatch(line)
	if m == nil {
		return Marker{}, false
	}
	tc, err := timecode.Parse(m[1])
	if err != nil {
		return Marker{}, false
	}
	title, ok := cleanTitle(m[2])
	if !ok {
		return Marker{}, false
	}
	return Marker{Time: tc, Title: title}, true
}

// fallbackLine scans left to right for every valid timecode occurrence and
// pairs each with the nearest usable text: after the token first, before it
// as a last resort. One line can yield several markers.
func fallbackLine(line string) []Marker {
	var out []Marker
	for _, loc := range looseRe.FindAllStringIndex(line, -1) {
		tc, err := timecode.Parse(line[loc[0]:loc[1]])
		if err != nil {
			continue
		}

		raw := titleAfter(line[loc[1]:])
		if raw == "" && loc[0] > 0 {
			raw = titleBefore(line[:loc[0]])
		}
		title, ok := cleanTitle(raw)
		if !ok {
			continue
		}
		out = append(out, Marker{Time: tc, Title: title})
	}
	return out
}

// titleAfter takes the text following a timecode, strips leading separator
// glyphs and cuts it off at the next timecode-shaped token on the line.
func titleAfter(s string) string {
	s = strings.TrimLeft(strings.TrimSpace(s), leadingSeps)
	if s == "" {
		return ""
	}
	if loc := nextTsRe.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	return strings.TrimSpace(s)
}

// titleBefore takes the text preceding a timecode with trailing separators
// stripped.
func titleBefore(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), leadingSeps)
}

// cleanTitle applies the shared title rules: strip separator runs at both
// ends, then reject URLs, bare numbers and anything too short to be a name.
func cleanTitle(s string) (string, bool) {
	s = strings.TrimLeft(strings.TrimSpace(s), leadingSeps)
	s = strings.TrimRight(s, trailingSeps)
	if len(s) <= 1 {
		return "", false
	}
	if strings.HasPrefix(s, "http") {
		return "", false
	}
	if digitsRe.MatchString(s) {
		return "", false
	}
	return s, true
}

// dedupe drops markers that repeat an earlier one. Identity is the second
// offset plus the first three lowercased words of the title, so trailing
// noise or casing differences still collapse to one chapter. First
// occurrence wins.
func dedupe(in []Marker) []Marker {
	type key struct {
		sec   int
		words string
	}
	seen := make(map[key]struct{}, len(in))
	out := make([]Marker, 0, len(in))
	for _, m := range in {
		words := strings.Fields(strings.ToLower(m.Title))
		if len(words) > 3 {
			words = words[:3]
		}
		k := key{sec: m.Time.Seconds(), words: strings.Join(words, " ")}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, m)
	}
	return out
}
