package bundle

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"unicode"
)

// Naming conventions binding diagram elements to external business keys. The
// target execution engine correlates runtime instances with upstream records
// through these ids, so they must be stable across regenerations.

const ManifestFileName = "manifest.json"

const maxSlugLength = 40

// MainProcessId returns the root process id of a service's main process.
func MainProcessId(serviceKey string) string {
	return "Process_" + serviceKey
}

// UserTaskId returns the id of a user task bound to a master data step.
func UserTaskId(stepKey string) string {
	return "Task_" + stepKey
}

// CallActivityId returns the id of a call activity bound to a subprocess step.
func CallActivityId(stepKey string) string {
	return "CallActivity_" + stepKey
}

// FormId returns the form identifier of the form bearing node at the given
// 1-based position of the fixed document order traversal.
func FormId(nodeName string, index int) string {
	return fmt.Sprintf("Form_%s_%02d", Slug(nodeName), index)
}

func FormFileName(nodeName string, index int) string {
	return fmt.Sprintf("%s-%02d.form", Slug(nodeName), index)
}

func MainFileName(serviceName string) string {
	return Slug(serviceName) + ".bpmn"
}

// SubprocessFileName disambiguates same-named subprocesses by a short suffix
// derived from the subprocess's internal identifier.
func SubprocessFileName(name string, id int64) string {
	return fmt.Sprintf("%s-%s.bpmn", Slug(name), shortId(id))
}

func shortId(id int64) string {
	h := fnv.New32a()
	h.Write([]byte(strconv.FormatInt(id, 10)))
	return fmt.Sprintf("%08x", h.Sum32())
}

// Slug sanitizes a display name for use in file names and form ids: lower
// case, letters and digits kept, everything else collapsed into dashes.
func Slug(s string) string {
	var sb strings.Builder

	dash := true // no leading dash
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			dash = false
		} else if !dash {
			sb.WriteRune('-')
			dash = true
		}
	}

	slug := strings.TrimRight(sb.String(), "-")
	if runes := []rune(slug); len(runes) > maxSlugLength {
		slug = strings.TrimRight(string(runes[:maxSlugLength]), "-")
	}
	if slug == "" {
		return "untitled"
	}
	return slug
}

// NormalizeName prepares a display name for matching against master data step
// names: case folded and whitespace collapsed. Punctuation is kept, since
// step names are authored verbatim in the upstream source.
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
