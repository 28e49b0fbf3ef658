// Package study turns marker-delimited explanation text into ordered sections.
// It is independent of both the Gemini client and the HTTP layer so that
// streamed partial responses can be re-parsed on every chunk.
package study

import "strings"

// Markers the explanation prompt asks the model to emit, in order.
const (
	MarkerVerse       = "VERSE"
	MarkerContext     = "CONTEXT"
	MarkerMeaning     = "MEANING"
	MarkerApplication = "APPLICATION"
	MarkerPrayer      = "PRAYER"
)

var knownMarkers = []string{MarkerVerse, MarkerContext, MarkerMeaning, MarkerApplication, MarkerPrayer}

// Display headings for each marker, as shown in the reader.
var markerTitles = map[string]string{
	MarkerVerse:       "পদ",
	MarkerContext:     "প্রেক্ষাপট",
	MarkerMeaning:     "গভীর অর্থ",
	MarkerApplication: "জীবনের প্রয়োগ",
	MarkerPrayer:      "প্রার্থনা",
}

type Section struct {
	Marker string `json:"marker"` // empty for raw/preamble text
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Parse splits text on [[MARKER]] tokens into ordered sections. Text before
// the first marker becomes an untitled preamble section. Text containing no
// recognized marker is returned verbatim as a single section, never dropped.
func Parse(text string) []Section {
	type hit struct {
		marker     string
		start, end int // token bounds within text
	}

	var hits []hit
	for _, marker := range knownMarkers {
		token := "[[" + marker + "]]"
		from := 0
		for {
			idx := strings.Index(text[from:], token)
			if idx < 0 {
				break
			}
			start := from + idx
			hits = append(hits, hit{marker: marker, start: start, end: start + len(token)})
			from = start + len(token)
		}
	}

	if len(hits) == 0 {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []Section{{Body: strings.TrimSpace(text)}}
	}

	// Order hits by position; markers may arrive in any order mid-stream.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].start < hits[j-1].start; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	var sections []Section
	if pre := strings.TrimSpace(text[:hits[0].start]); pre != "" {
		sections = append(sections, Section{Body: pre})
	}
	for i, h := range hits {
		bodyEnd := len(text)
		if i+1 < len(hits) {
			bodyEnd = hits[i+1].start
		}
		sections = append(sections, Section{
			Marker: h.marker,
			Title:  markerTitles[h.marker],
			Body:   strings.TrimSpace(text[h.end:bodyEnd]),
		})
	}
	return sections
}

// Source is a grounding citation attached to an AI explanation.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

// Accumulator collects streamed explanation chunks and grounding sources.
// Append chunk, re-derive sections: the zero value is ready to use.
type Accumulator struct {
	text    strings.Builder
	sources []Source
	seen    map[string]bool
}

func (a *Accumulator) Append(chunk string) {
	a.text.WriteString(chunk)
}

// AddSource records a grounding source, deduplicated by URI.
func (a *Accumulator) AddSource(src Source) {
	if src.URI == "" {
		return
	}
	if a.seen == nil {
		a.seen = make(map[string]bool)
	}
	if a.seen[src.URI] {
		return
	}
	a.seen[src.URI] = true
	a.sources = append(a.sources, src)
}

func (a *Accumulator) Text() string { return a.text.String() }

func (a *Accumulator) Sources() []Source { return a.sources }

func (a *Accumulator) Sections() []Section { return Parse(a.text.String()) }
