package pdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	pdferrors "github.com/a3tai/pdf-form-filler/internal/pdf/errors"
)

// pdfMagic is the header every PDF file starts with
var pdfMagic = []byte("%PDF-")

var base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)

// Validator performs the cheap checks that run before a document is handed
// to the PDF library
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new validator with the specified size limit
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// DecodePDF validates a base64 payload and returns the decoded PDF bytes
func (v *Validator) DecodePDF(payload string) ([]byte, error) {
	if payload == "" {
		return nil, pdferrors.NewValidationError(pdferrors.CodeMissingPDF, "pdf_base64 is required")
	}

	// Line-wrapped base64 is common when the payload comes from mail or shell tools
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, payload)

	if cleaned == "" || len(cleaned)%4 != 0 || !base64Pattern.MatchString(cleaned) {
		return nil, pdferrors.NewValidationError(pdferrors.CodeInvalidBase64,
			"pdf_base64 is not valid base64")
	}

	if v.maxFileSize > 0 && int64(base64.StdEncoding.DecodedLen(len(cleaned))) > v.maxFileSize+2 {
		return nil, pdferrors.NewValidationError(pdferrors.CodePDFTooLarge,
			fmt.Sprintf("PDF too large (max: %d bytes)", v.maxFileSize))
	}

	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, pdferrors.NewValidationError(pdferrors.CodeInvalidBase64,
			"pdf_base64 is not valid base64")
	}

	if v.maxFileSize > 0 && int64(len(data)) > v.maxFileSize {
		return nil, pdferrors.NewValidationError(pdferrors.CodePDFTooLarge,
			fmt.Sprintf("PDF too large: %d bytes (max: %d bytes)", len(data), v.maxFileSize))
	}

	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, pdferrors.NewValidationError(pdferrors.CodeInvalidFormat,
			"decoded payload is not a PDF document (missing %PDF- header)")
	}

	return data, nil
}

// FieldValues checks that a fill request carries a JSON object of values
func (v *Validator) FieldValues(fields any) (map[string]any, error) {
	values, ok := fields.(map[string]any)
	if !ok || values == nil {
		return nil, pdferrors.NewValidationError(pdferrors.CodeInvalidFields,
			"fields must be an object mapping field names to values")
	}
	return values, nil
}

// IsPDF reports whether data starts with the PDF header
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}
