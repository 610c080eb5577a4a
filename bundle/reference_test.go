package bundle

import (
	"strings"
	"testing"

	"github.com/manualsvc/bundler/store"
	"github.com/stretchr/testify/assert"
)

func TestParseReferencesAutoNumbering(t *testing.T) {
	assert := assert.New(t)

	step := store.MasterDataStep{
		StepKey:  "REG-140",
		StepName: "Register device",
		LinkUrls: "https://docs.example.com/a;https://docs.example.com/b,https://docs.example.com/c",
	}

	// when
	entries := ParseReferences(step)

	// then
	assert.Len(entries, 3)
	assert.Equal("Register device (1)", entries[0].Title)
	assert.Equal("Register device (2)", entries[1].Title)
	assert.Equal("Register device (3)", entries[2].Title)
	assert.Equal("https://docs.example.com/a", entries[0].Url)
}

func TestParseReferencesSingleUrl(t *testing.T) {
	assert := assert.New(t)

	step := store.MasterDataStep{
		StepName: "Register device",
		LinkUrls: "https://docs.example.com/a",
	}

	// when
	entries := ParseReferences(step)

	// then no suffix is appended
	assert.Len(entries, 1)
	assert.Equal("Register device", entries[0].Title)
}

func TestParseReferencesTitlesTakePrecedence(t *testing.T) {
	assert := assert.New(t)

	step := store.MasterDataStep{
		StepName:   "Register device",
		LinkUrls:   "https://docs.example.com/a; https://docs.example.com/b",
		LinkTitles: "Handbook",
	}

	// when
	entries := ParseReferences(step)

	// then the untitled second URL is auto-numbered
	assert.Len(entries, 2)
	assert.Equal("Handbook", entries[0].Title)
	assert.Equal("Register device (2)", entries[1].Title)
}

func TestParseReferencesEmpty(t *testing.T) {
	assert := assert.New(t)

	assert.Empty(ParseReferences(store.MasterDataStep{StepName: "Register device"}))
	assert.Empty(ParseReferences(store.MasterDataStep{LinkUrls: " ; , "}))
}

func TestDedupeReferences(t *testing.T) {
	assert := assert.New(t)

	entries := []ReferenceEntry{
		{Title: "A", Url: "https://docs.example.com/a"},
		{Title: "B", Url: "https://docs.example.com/b"},
		{Title: "A again", Url: "https://docs.example.com/a"},
	}

	// when
	deduped := DedupeReferences(entries)

	// then the first entry per URL wins
	assert.Len(deduped, 2)
	assert.Equal("A", deduped[0].Title)
	assert.Equal("B", deduped[1].Title)
}

func TestFormatReferences(t *testing.T) {
	assert := assert.New(t)

	entries := []ReferenceEntry{
		{Title: "Handbook", Url: "https://docs.example.com/a"},
		{Title: "Checklist", Url: "https://docs.example.com/b"},
	}

	// when
	s := FormatReferences(entries)

	// then
	assert.Equal("- [Handbook](https://docs.example.com/a)\n- [Checklist](https://docs.example.com/b)", s)

	assert.Empty(FormatReferences(nil))
}

func TestClampDescription(t *testing.T) {
	assert := assert.New(t)

	// whitespace is collapsed
	assert.Equal("One sentence.", ClampDescription("One \n\t sentence.  "))

	// truncated to the first two sentences
	assert.Equal("First. Second!", ClampDescription("First. Second! Third."))
	assert.Equal("Does it work? It does.", ClampDescription("Does it work? It does. Really."))

	// a description without sentence boundaries is kept
	assert.Equal("no terminator at all", ClampDescription("no terminator at all"))

	assert.Empty(ClampDescription("   "))
}

func TestClampDescriptionHardCap(t *testing.T) {
	assert := assert.New(t)

	// when a single sentence exceeds the cap
	clamped := ClampDescription(strings.Repeat("word ", 100) + "end.")

	// then
	assert.LessOrEqual(len([]rune(clamped)), maxDescriptionLength)
	assert.True(strings.HasSuffix(clamped, "..."))
}
