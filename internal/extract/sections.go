package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// SectionDetector finds headings and named sections in extracted text.
// Implementations must be safe for concurrent use.
type SectionDetector interface {
	// Headings returns detected headings in document order.
	Headings(text string) []string

	// Section returns the text of the first section whose heading or
	// body line contains one of the keywords, and whether it was found.
	Section(text string, keywords []string) (string, bool)
}

// HeuristicDetector detects structure with text heuristics tuned for
// technical documents: ALL-CAPS lines and numbered lines ("3.1 Scope")
// are headings.
type HeuristicDetector struct{}

var _ SectionDetector = HeuristicDetector{}

const (
	// maxHeadings caps how many headings are reported per document.
	maxHeadings = 20

	// maxSectionLen caps section text when no following heading bounds it.
	maxSectionLen = 1500

	// sectionScanOffset skips the section's own heading when looking
	// for the next heading that ends it.
	sectionScanOffset = 100
)

var (
	// numberedHeadingRe matches lines like "1. Introduction" or
	// "3.2.1 Test Procedure".
	numberedHeadingRe = regexp.MustCompile(`^\d+\.(\d+\.)*\s+[A-Z]`)

	// nextHeadingRe matches an ALL-CAPS line that starts the next
	// section, bounding the current one.
	nextHeadingRe = regexp.MustCompile(`\n[A-Z\d][A-Z\s]{5,}\n`)
)

// Headings scans line by line. A heading is either a short ALL-CAPS line
// or a numbered line starting with a capitalized word.
func (HeuristicDetector) Headings(text string) []string {
	var headings []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if isAllCapsHeading(line) || numberedHeadingRe.MatchString(line) {
			headings = append(headings, line)
			if len(headings) >= maxHeadings {
				break
			}
		}
	}
	return headings
}

// Section finds the first keyword occurrence (as a whole word, case
// insensitive) and returns the text from there to the next ALL-CAPS
// heading, capped at maxSectionLen when no heading follows.
func (HeuristicDetector) Section(text string, keywords []string) (string, bool) {
	lower := strings.ToLower(text)

	for _, keyword := range keywords {
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(strings.ToLower(keyword)) + `\b`)
		if err != nil {
			continue
		}

		loc := re.FindStringIndex(lower)
		if loc == nil {
			continue
		}

		remaining := text[loc[0]:]
		end := len(remaining)

		if len(remaining) > sectionScanOffset {
			if next := nextHeadingRe.FindStringIndex(remaining[sectionScanOffset:]); next != nil {
				end = sectionScanOffset + next[0]
			}
		}
		if end > maxSectionLen {
			end = maxSectionLen
		}

		return strings.TrimSpace(remaining[:end]), true
	}

	return "", false
}

// isAllCapsHeading reports whether line looks like an ALL-CAPS heading:
// more than 3 and fewer than 100 characters, containing at least one
// letter, with no lowercase letters.
func isAllCapsHeading(line string) bool {
	if len(line) <= 3 || len(line) >= 100 {
		return false
	}

	hasLetter := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
