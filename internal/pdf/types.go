package pdf

import "github.com/a3tai/pdf-form-filler/internal/form"

// Request Types

// FillRequest asks for a form to be filled and flattened.
// Fields is left untyped so that a missing or non-object value can be
// reported as a client error.
type FillRequest struct {
	PDFBase64 string `json:"pdf_base64"`
	Fields    any    `json:"fields"`
}

// DiscoverRequest asks for the form fields of a document
type DiscoverRequest struct {
	PDFBase64 string `json:"pdf_base64"`
}

// TextRequest asks for the page text of a document
type TextRequest struct {
	PDFBase64 string `json:"pdf_base64"`
}

// Response Types

// FillResult is the outcome of a fill request
type FillResult struct {
	PDFBase64       string `json:"pdf_base64"`
	FieldsProcessed int    `json:"fields_processed"`
	FieldsSubmitted int    `json:"-"`

	// PDF holds the decoded output, Report the per-field outcomes
	PDF    []byte      `json:"-"`
	Report form.Report `json:"-"`
}

// DiscoverResult lists the fields found in a document
type DiscoverResult struct {
	Fields      []form.Field `json:"fields"`
	TotalFields int          `json:"total_fields"`
}

// TextResult holds the plain text of each page
type TextResult struct {
	Pages      []string `json:"pages"`
	TotalPages int      `json:"total_pages"`
}
