// Package extract turns raw document bytes (PDF, DOCX, plain text) into
// structured text: full body, detected headings, and named sections.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/docsearch/internal/errors"
)

// Format identifies a supported document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatText Format = "txt"
)

// DetectFormat maps a file path to its Format based on extension.
// Returns an UnsupportedFormat error for anything else.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	case ".txt":
		return FormatText, nil
	default:
		return "", errors.New(errors.ErrCodeUnsupportedFormat,
			fmt.Sprintf("unsupported file type %q", filepath.Ext(path)), nil).
			WithDetail("path", path).
			WithSuggestion("supported formats: .pdf, .docx, .txt")
	}
}

// Document is the structured result of extracting one file.
type Document struct {
	// Title is the document title: embedded metadata if present,
	// otherwise the first detected heading, otherwise the file name.
	Title string

	// Text is the full extracted body text.
	Text string

	// Headings lists detected headings in document order (capped at 20).
	Headings []string

	// Sections maps section names ("background", "scope") to their text.
	// Absent sections are not present in the map.
	Sections map[string]string

	// Warnings records non-fatal extraction problems, e.g. PDF pages
	// whose content stream could not be decoded.
	Warnings []string
}

// Extractor turns raw file bytes into a structured Document.
type Extractor interface {
	Extract(data []byte, format Format, name string) (*Document, error)
}

// Parser is the default Extractor. The zero value is not usable; use
// NewParser.
type Parser struct {
	detector SectionDetector
}

var _ Extractor = (*Parser)(nil)

// NewParser creates a Parser with the default heuristic section detector.
func NewParser() *Parser {
	return &Parser{detector: HeuristicDetector{}}
}

// NewParserWithDetector creates a Parser with a custom section detector.
func NewParserWithDetector(d SectionDetector) *Parser {
	return &Parser{detector: d}
}

// Section keyword sets, tried in order. The first keyword found in the
// text wins for its section.
var sectionKeywords = map[string][]string{
	"background": {"background", "introduction", "overview"},
	"scope":      {"scope", "scope of work", "objectives"},
}

// Extract parses data in the given format. name is the original file
// name, used as the title fallback.
//
// A document that yields no text at all is an error; a document where
// only parts failed comes back with Warnings set.
func (p *Parser) Extract(data []byte, format Format, name string) (*Document, error) {
	var (
		text      string
		metaTitle string
		warnings  []string
		err       error
	)

	switch format {
	case FormatPDF:
		text, warnings, err = extractPDF(data)
	case FormatDOCX:
		text, metaTitle, err = extractDOCX(data)
	case FormatText:
		text = string(data)
	default:
		return nil, errors.New(errors.ErrCodeUnsupportedFormat,
			fmt.Sprintf("unsupported format %q", format), nil)
	}
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New(errors.ErrCodeFileCorrupt,
			fmt.Sprintf("no text extracted from %s", name), nil)
	}

	headings := p.detector.Headings(text)

	sections := make(map[string]string)
	for section, keywords := range sectionKeywords {
		if content, ok := p.detector.Section(text, keywords); ok {
			sections[section] = content
		}
	}

	title := metaTitle
	if title == "" && len(headings) > 0 {
		title = headings[0]
	}
	if title == "" {
		title = name
	}

	return &Document{
		Title:    title,
		Text:     text,
		Headings: headings,
		Sections: sections,
		Warnings: warnings,
	}, nil
}
