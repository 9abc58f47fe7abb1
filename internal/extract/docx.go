package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/Aman-CERP/docsearch/internal/errors"
)

// documentXML mirrors the parts of word/document.xml we read.
type documentXML struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

// coreXML mirrors docProps/core.xml, where Word stores the title.
type coreXML struct {
	Title string `xml:"title"`
}

// extractDOCX pulls plain text and the metadata title out of a DOCX file.
// A DOCX is a ZIP archive; the body lives in word/document.xml.
func extractDOCX(data []byte) (text, title string, err error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", "", errors.New(errors.ErrCodeFileCorrupt,
			fmt.Sprintf("docx open failed: %v", err), err)
	}

	content, err := readArchiveFile(reader, "word/document.xml")
	if err != nil {
		return "", "", err
	}
	if content == nil {
		return "", "", errors.New(errors.ErrCodeFileCorrupt,
			"docx archive has no word/document.xml", nil)
	}

	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", "", errors.New(errors.ErrCodeFileCorrupt,
			fmt.Sprintf("docx body parse failed: %v", err), err)
	}

	var sb strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			sb.WriteString("\n")
		}
		for _, run := range para.Runs {
			for _, t := range run.Text {
				sb.WriteString(t.Content)
			}
		}
	}

	return sb.String(), docxTitle(reader), nil
}

// docxTitle reads the title from docProps/core.xml. Missing or broken
// metadata is fine; the caller falls back to headings or the file name.
func docxTitle(reader *zip.Reader) string {
	content, err := readArchiveFile(reader, "docProps/core.xml")
	if err != nil || content == nil {
		return ""
	}

	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}

// readArchiveFile returns the named file's bytes, or nil if absent.
func readArchiveFile(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, errors.New(errors.ErrCodeFileCorrupt,
				fmt.Sprintf("docx entry %s open failed: %v", name, err), err)
		}

		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errors.New(errors.ErrCodeFileCorrupt,
				fmt.Sprintf("docx entry %s read failed: %v", name, err), err)
		}
		return content, nil
	}
	return nil, nil
}
