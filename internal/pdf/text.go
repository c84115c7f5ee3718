package pdf

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	pdferrors "github.com/a3tai/pdf-form-filler/internal/pdf/errors"
)

// ExtractText returns the plain text of every page of data, one entry per
// page. Pages that fail to decode yield an empty string.
func ExtractText(data []byte) (_ []string, err error) {
	defer pdferrors.Recover(&err, "failed to extract text")

	if !IsPDF(data) {
		return nil, fmt.Errorf("data is not a PDF document")
	}

	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	pages := make([]string, 0, pdfReader.NumPage())
	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, content)
	}

	return pages, nil
}
