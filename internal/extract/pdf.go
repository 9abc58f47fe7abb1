package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/Aman-CERP/docsearch/internal/errors"
)

// extractPDF pulls plain text out of a PDF, page by page.
//
// Pages are decoded independently so one malformed content stream loses
// that page only. Per-page failures are reported as warnings.
func extractPDF(data []byte) (text string, warnings []string, err error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, errors.New(errors.ErrCodeFileCorrupt,
			fmt.Sprintf("pdf open failed: %v", err), err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		pageText, pageErr := extractPDFPage(reader, i)
		if pageErr != nil {
			warnings = append(warnings, pageWarning(i, pageErr))
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	return sb.String(), warnings, nil
}

// pageWarning tags a recoverable page failure with the partial
// extraction code so callers can tell it apart from plain notes.
func pageWarning(page int, cause error) string {
	return errors.New(errors.ErrCodePartialExtraction,
		fmt.Sprintf("page %d: %v", page, cause), cause).Error()
}

// extractPDFPage decodes one page. The pdf library panics on some
// malformed content streams, so the panic is converted to an error here.
func extractPDFPage(reader *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed content stream: %v", r)
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return "", fmt.Errorf("missing page object")
	}

	return page.GetPlainText(nil)
}
