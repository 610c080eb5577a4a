package bundle

import (
	"fmt"
	"strings"

	"github.com/manualsvc/bundler/store"
)

const (
	maxDescriptionLength = 300
	maxSentences         = 2
)

// ReferenceEntry is a named link, associated with a master data step.
type ReferenceEntry struct {
	Title string `json:"title"`
	Url   string `json:"url"`
}

// ParseReferences derives reference entries from the delimited link fields of
// a master data step. URLs without an individual title are auto-numbered using
// the step's display name and a 1-based index suffix; a single untitled URL
// carries the step name without a suffix.
func ParseReferences(step store.MasterDataStep) []ReferenceEntry {
	urls := splitLinks(step.LinkUrls)
	if len(urls) == 0 {
		return nil
	}

	titles := splitLinks(step.LinkTitles)

	entries := make([]ReferenceEntry, len(urls))
	for i, url := range urls {
		var title string
		if i < len(titles) {
			title = titles[i]
		}
		if title == "" {
			if len(urls) == 1 {
				title = step.StepName
			} else {
				title = fmt.Sprintf("%s (%d)", step.StepName, i+1)
			}
		}

		entries[i] = ReferenceEntry{Title: title, Url: url}
	}

	return entries
}

// splitLinks splits a semicolon or comma delimited source field.
func splitLinks(s string) []string {
	var values []string
	for _, value := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ','
	}) {
		value = strings.TrimSpace(value)
		if value != "" {
			values = append(values, value)
		}
	}
	return values
}

// DedupeReferences keeps the first entry per URL, preserving order.
func DedupeReferences(entries []ReferenceEntry) []ReferenceEntry {
	var deduped []ReferenceEntry

	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.Url]; ok {
			continue
		}
		seen[entry.Url] = struct{}{}
		deduped = append(deduped, entry)
	}

	return deduped
}

// FormatReferences renders reference entries as form text, one link per line.
func FormatReferences(entries []ReferenceEntry) string {
	var sb strings.Builder
	for i, entry := range entries {
		if i != 0 {
			sb.WriteRune('\n')
		}
		sb.WriteString(fmt.Sprintf("- [%s](%s)", entry.Title, entry.Url))
	}
	return sb.String()
}

// ClampDescription normalizes a free-text description to collapsed whitespace,
// truncates it to the first two sentences and hard-caps the length with an
// ellipsis marker.
func ClampDescription(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	sentences := 0
	for i, r := range s {
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		sentences++
		if sentences == maxSentences {
			s = s[:i+1]
			break
		}
	}

	if runes := []rune(s); len(runes) > maxDescriptionLength {
		s = strings.TrimSpace(string(runes[:maxDescriptionLength-3])) + "..."
	}

	return s
}
