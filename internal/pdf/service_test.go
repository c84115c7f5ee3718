package pdf

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/a3tai/pdf-form-filler/internal/pdf/errors"
	"github.com/a3tai/pdf-form-filler/internal/pdf/pdftest"
)

func TestNewService(t *testing.T) {
	service := NewService(1024*1024, nil)

	require.NotNil(t, service)
	assert.Equal(t, int64(1024*1024), service.GetMaxFileSize())
}

func TestService_FillPDF_Validation(t *testing.T) {
	service := NewService(10*1024*1024, nil)

	tests := []struct {
		name     string
		req      FillRequest
		wantCode string
	}{
		{
			name:     "missing pdf",
			req:      FillRequest{Fields: map[string]any{}},
			wantCode: pdferrors.CodeMissingPDF,
		},
		{
			name:     "invalid base64",
			req:      FillRequest{PDFBase64: "%%%", Fields: map[string]any{}},
			wantCode: pdferrors.CodeInvalidBase64,
		},
		{
			name:     "wrong magic header regardless of fields",
			req:      FillRequest{PDFBase64: base64.StdEncoding.EncodeToString([]byte("GIF89a")), Fields: "oops"},
			wantCode: pdferrors.CodeInvalidFormat,
		},
		{
			name:     "missing fields",
			req:      FillRequest{PDFBase64: pdftest.Base64(pdftest.FormPDF())},
			wantCode: pdferrors.CodeInvalidFields,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := service.FillPDF(tt.req)

			require.Error(t, err)
			assert.Nil(t, result)
			pdfErr, ok := pdferrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, pdfErr.Code)
			assert.Equal(t, pdferrors.ErrorTypeValidation, pdfErr.Type)
		})
	}
}

func TestService_FillPDF(t *testing.T) {
	service := NewService(10*1024*1024, nil)

	tests := []struct {
		name          string
		fields        map[string]any
		wantProcessed int
	}{
		{name: "text field", fields: map[string]any{pdftest.TextField: "John"}, wantProcessed: 1},
		{name: "checked checkbox", fields: map[string]any{pdftest.CheckboxField: true}, wantProcessed: 1},
		{name: "unchecked checkbox is not counted", fields: map[string]any{pdftest.CheckboxField: false}, wantProcessed: 0},
		{name: "unknown field", fields: map[string]any{"ghost": "boo"}, wantProcessed: 0},
		{name: "current text value", fields: map[string]any{pdftest.TextField: "Jane"}, wantProcessed: 1},
		{name: "current dropdown value", fields: map[string]any{pdftest.DropdownField: "Paris"}, wantProcessed: 1},
		{name: "falsy checkbox and unknown field", fields: map[string]any{pdftest.CheckboxField: "no", "nope": "x"}, wantProcessed: 0},
		{name: "empty fields", fields: map[string]any{}, wantProcessed: 0},
		{
			name: "all kinds",
			fields: map[string]any{
				pdftest.TextField:     "John",
				pdftest.CheckboxField: "Yes",
				pdftest.DropdownField: "Berlin",
				pdftest.RadioField:    "female",
			},
			wantProcessed: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := service.FillPDF(FillRequest{
				PDFBase64: pdftest.Base64(pdftest.FormPDF()),
				Fields:    tt.fields,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantProcessed, result.FieldsProcessed)
			assert.Equal(t, len(tt.fields), result.FieldsSubmitted)

			decoded, err := base64.StdEncoding.DecodeString(result.PDFBase64)
			require.NoError(t, err)
			assert.Equal(t, result.PDF, decoded)

			discovered, err := service.DiscoverFields(DiscoverRequest{PDFBase64: result.PDFBase64})
			require.NoError(t, err)
			assert.Zero(t, discovered.TotalFields, "output must be flattened")
		})
	}
}

func TestService_FillPDF_CorruptDocument(t *testing.T) {
	service := NewService(10*1024*1024, nil)

	_, err := service.FillPDF(FillRequest{
		PDFBase64: base64.StdEncoding.EncodeToString([]byte("%PDF-1.7\ngarbage")),
		Fields:    map[string]any{},
	})

	require.Error(t, err)
	assert.True(t, pdferrors.IsDocument(err))
}

func TestService_DiscoverFields(t *testing.T) {
	service := NewService(10*1024*1024, nil)

	result, err := service.DiscoverFields(DiscoverRequest{PDFBase64: pdftest.Base64(pdftest.FormPDF())})
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalFields)
	assert.Len(t, result.Fields, 4)

	_, err = service.DiscoverFields(DiscoverRequest{})
	assert.True(t, pdferrors.IsValidation(err))
}

func TestService_CountUnchecked(t *testing.T) {
	service := NewService(10*1024*1024, nil)
	service.SetCountUnchecked(true)

	result, err := service.FillPDF(FillRequest{
		PDFBase64: pdftest.Base64(pdftest.FormPDF()),
		Fields:    map[string]any{pdftest.CheckboxField: false},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.FieldsProcessed)
}

func TestService_ExtractText(t *testing.T) {
	service := NewService(10*1024*1024, nil)

	result, err := service.ExtractText(TextRequest{PDFBase64: pdftest.Base64(pdftest.PlainPDF())})
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalPages)
	assert.Contains(t, result.Pages[0], "Hello")

	_, err = service.ExtractText(TextRequest{PDFBase64: "@@"})
	assert.True(t, pdferrors.IsValidation(err))
}
