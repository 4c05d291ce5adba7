// Package extract pulls structured fields out of OCR text.
package extract

import (
	"regexp"
	"strings"
)

// NotFound is returned when the text carries no provisional diagnosis label.
const NotFound = "Not found"

// The capture stops at the first newline. Only horizontal whitespace is
// skipped after the colon, so a label followed directly by a line break
// yields an empty value instead of the next line.
var provisionalDiagnosisRe = regexp.MustCompile(`(?i)provisional diagnosis:[^\S\n]*([^\n]*)`)

// OCR reads the "RE" abbreviation that precedes the field on the scanned
// forms into the captured value.
var ocrArtifacts = []string{"RE)", "RE "}

// FindProvisionalDiagnosis returns the value after the first
// "Provisional diagnosis:" label in text, trimmed and with OCR artifacts
// removed. Case is preserved.
func FindProvisionalDiagnosis(text string) string {
	m := provisionalDiagnosisRe.FindStringSubmatch(text)
	if m == nil {
		return NotFound
	}

	diagnosis := strings.TrimSpace(m[1])
	for _, artifact := range ocrArtifacts {
		diagnosis = strings.Replace(diagnosis, artifact, "", 1)
	}
	return strings.TrimSpace(diagnosis)
}

// Normalize is applied by callers before a diagnosis is recorded.
func Normalize(diagnosis string) string {
	return strings.ToUpper(diagnosis)
}
