package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// PDFError is an error raised while handling a form request, classified so
// callers can map it to a response status
type PDFError struct {
	Type      ErrorType `json:"type"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Err       error     `json:"-"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorType represents the category of a PDFError
type ErrorType int

const (
	// ErrorTypeValidation covers malformed client input, detected before any
	// document parsing
	ErrorTypeValidation ErrorType = iota
	// ErrorTypeDocument covers documents the PDF library cannot load or save
	ErrorTypeDocument
	// ErrorTypeInternal covers everything unexpected
	ErrorTypeInternal
)

// Machine readable reason codes
const (
	CodeMissingPDF    = "MISSING_PDF_BASE64"
	CodeInvalidBase64 = "INVALID_BASE64"
	CodeInvalidFormat = "INVALID_PDF_FORMAT"
	CodePDFTooLarge   = "PDF_TOO_LARGE"
	CodeInvalidFields = "INVALID_FIELDS"
	CodeInvalidJSON   = "INVALID_JSON"
	CodeBodyTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeLoadFailed    = "PDF_LOAD_FAILED"
	CodeProcessFailed = "PDF_PROCESSING_FAILED"
	CodeInternal      = "INTERNAL_ERROR"
	CodeRouteNotFound = "NOT_FOUND"
)

// Error implements the error interface
func (e *PDFError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *PDFError) Unwrap() error {
	return e.Err
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeValidation:
		return "VALIDATION"
	case ErrorTypeDocument:
		return "DOCUMENT"
	default:
		return "INTERNAL"
	}
}

// NewValidationError creates a client input error
func NewValidationError(code, message string) *PDFError {
	return &PDFError{
		Type:      ErrorTypeValidation,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewDocumentError wraps a PDF library failure
func NewDocumentError(code, message string, err error) *PDFError {
	return &PDFError{
		Type:      ErrorTypeDocument,
		Code:      code,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// NewInternalError wraps an unexpected failure
func NewInternalError(err error) *PDFError {
	return &PDFError{
		Type:      ErrorTypeInternal,
		Code:      CodeInternal,
		Message:   "internal server error",
		Err:       err,
		Timestamp: time.Now(),
	}
}

// As extracts a *PDFError from err's chain
func As(err error) (*PDFError, bool) {
	var pdfErr *PDFError
	if stderrors.As(err, &pdfErr) {
		return pdfErr, true
	}
	return nil, false
}

// IsValidation reports whether err is a client input error
func IsValidation(err error) bool {
	pdfErr, ok := As(err)
	return ok && pdfErr.Type == ErrorTypeValidation
}

// IsDocument reports whether err is a PDF library failure
func IsDocument(err error) bool {
	pdfErr, ok := As(err)
	return ok && pdfErr.Type == ErrorTypeDocument
}
