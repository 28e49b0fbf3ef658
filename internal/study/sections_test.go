package study

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAllMarkersInOrder(t *testing.T) {
	text := "[[VERSE]]\nverse text here\n" +
		"[[CONTEXT]]\ncontext text here\n" +
		"[[MEANING]]\nmeaning text here\n" +
		"[[APPLICATION]]\napplication text here\n" +
		"[[PRAYER]]\nprayer text here"

	sections := Parse(text)
	require.Len(t, sections, 5)

	wantMarkers := []string{MarkerVerse, MarkerContext, MarkerMeaning, MarkerApplication, MarkerPrayer}
	wantBodies := []string{"verse text here", "context text here", "meaning text here", "application text here", "prayer text here"}
	for i, section := range sections {
		assert.Equal(t, wantMarkers[i], section.Marker)
		assert.Equal(t, wantBodies[i], section.Body)
		assert.NotEmpty(t, section.Title)
	}
}

func TestParseNoLeakageBetweenSections(t *testing.T) {
	text := "[[VERSE]]only verse[[CONTEXT]]only context[[MEANING]]only meaning[[APPLICATION]]only application[[PRAYER]]only prayer"

	sections := Parse(text)
	require.Len(t, sections, 5)
	for _, section := range sections {
		assert.NotContains(t, section.Body, "[[")
		for _, other := range sections {
			if other.Marker != section.Marker {
				assert.NotContains(t, section.Body, other.Body)
			}
		}
	}
}

func TestParseNoMarkersReturnsRawText(t *testing.T) {
	text := "A plain explanation with no structure at all."

	sections := Parse(text)
	require.Len(t, sections, 1)
	assert.Empty(t, sections[0].Marker)
	assert.Equal(t, text, sections[0].Body)
}

func TestParsePreambleBeforeFirstMarker(t *testing.T) {
	sections := Parse("Some introduction.\n[[VERSE]]the verse")
	require.Len(t, sections, 2)
	assert.Empty(t, sections[0].Marker)
	assert.Equal(t, "Some introduction.", sections[0].Body)
	assert.Equal(t, MarkerVerse, sections[1].Marker)
	assert.Equal(t, "the verse", sections[1].Body)
}

func TestParseEmptyText(t *testing.T) {
	assert.Nil(t, Parse(""))
	assert.Nil(t, Parse("   \n\t"))
}

func TestParsePartialStream(t *testing.T) {
	// Mid-stream a marker may have arrived without its body yet.
	sections := Parse("[[VERSE]]the verse\n[[CONT")
	require.NotEmpty(t, sections)
	assert.Equal(t, MarkerVerse, sections[0].Marker)
	assert.Equal(t, "the verse\n[[CONT", sections[0].Body)
}

func TestAccumulatorReDerivesSectionsPerChunk(t *testing.T) {
	var acc Accumulator

	acc.Append("[[VERSE]]in the beg")
	sections := acc.Sections()
	require.Len(t, sections, 1)
	assert.Equal(t, "in the beg", sections[0].Body)

	acc.Append("inning\n[[CONTEXT]]genesis")
	sections = acc.Sections()
	require.Len(t, sections, 2)
	assert.Equal(t, "in the beginning", sections[0].Body)
	assert.Equal(t, "genesis", sections[1].Body)
}

func TestAccumulatorDeduplicatesSources(t *testing.T) {
	var acc Accumulator

	acc.AddSource(Source{URI: "https://example.com/a", Title: "A"})
	acc.AddSource(Source{URI: "https://example.com/a", Title: "A again"})
	acc.AddSource(Source{URI: "https://example.com/b"})
	acc.AddSource(Source{}) // no URI, ignored

	require.Len(t, acc.Sources(), 2)
	assert.Equal(t, "https://example.com/a", acc.Sources()[0].URI)
	assert.Equal(t, "https://example.com/b", acc.Sources()[1].URI)
}
