package pdf

import (
	"encoding/base64"
	"io"

	"github.com/a3tai/pdf-form-filler/internal/form"
	pdferrors "github.com/a3tai/pdf-form-filler/internal/pdf/errors"
	"github.com/sirupsen/logrus"
)

// Service handles form requests by orchestrating validation, the pdfcpu
// document adapter and the filler
type Service struct {
	maxFileSize int64
	validator   *Validator
	filler      *form.Filler
	logger      logrus.FieldLogger
}

// NewService creates a new PDF form service. A nil logger discards output.
func NewService(maxFileSize int64, logger logrus.FieldLogger) *Service {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	return &Service{
		maxFileSize: maxFileSize,
		validator:   NewValidator(maxFileSize),
		filler:      form.NewFiller(logger),
		logger:      logger,
	}
}

// SetCountUnchecked controls whether unchecked checkboxes count towards
// fields_processed
func (s *Service) SetCountUnchecked(count bool) {
	s.filler.CountUnchecked = count
}

// FillPDF fills the form in req, flattens it and returns the new document
func (s *Service) FillPDF(req FillRequest) (*FillResult, error) {
	data, err := s.validator.DecodePDF(req.PDFBase64)
	if err != nil {
		return nil, err
	}

	values, err := s.validator.FieldValues(req.Fields)
	if err != nil {
		return nil, err
	}

	doc, err := Load(data, nil)
	if err != nil {
		return nil, pdferrors.NewDocumentError(pdferrors.CodeLoadFailed, "failed to load PDF", err)
	}

	report, err := s.filler.FillAndFlatten(doc, values)
	if err != nil {
		return nil, pdferrors.NewDocumentError(pdferrors.CodeProcessFailed, "failed to process PDF", err)
	}

	out, err := doc.Save()
	if err != nil {
		return nil, pdferrors.NewDocumentError(pdferrors.CodeProcessFailed, "failed to save PDF", err)
	}

	s.logger.WithFields(logrus.Fields{
		"fields_submitted": len(values),
		"fields_processed": report.Processed,
		"fields_failed":    len(report.Failed()),
		"output_bytes":     len(out),
	}).Info("PDF form filled")

	return &FillResult{
		PDFBase64:       base64.StdEncoding.EncodeToString(out),
		FieldsProcessed: report.Processed,
		FieldsSubmitted: len(values),
		PDF:             out,
		Report:          report,
	}, nil
}

// DiscoverFields lists the form fields of the document in req
func (s *Service) DiscoverFields(req DiscoverRequest) (*DiscoverResult, error) {
	data, err := s.validator.DecodePDF(req.PDFBase64)
	if err != nil {
		return nil, err
	}

	doc, err := Load(data, nil)
	if err != nil {
		return nil, pdferrors.NewDocumentError(pdferrors.CodeLoadFailed, "failed to load PDF", err)
	}

	fields := form.Discover(doc)
	if fields == nil {
		fields = []form.Field{}
	}

	s.logger.WithField("total_fields", len(fields)).Debug("PDF form fields discovered")

	return &DiscoverResult{
		Fields:      fields,
		TotalFields: len(fields),
	}, nil
}

// ExtractText returns the plain text of each page of the document in req
func (s *Service) ExtractText(req TextRequest) (*TextResult, error) {
	data, err := s.validator.DecodePDF(req.PDFBase64)
	if err != nil {
		return nil, err
	}

	pages, err := ExtractText(data)
	if err != nil {
		return nil, pdferrors.NewDocumentError(pdferrors.CodeLoadFailed, "failed to read PDF text", err)
	}

	return &TextResult{
		Pages:      pages,
		TotalPages: len(pages),
	}, nil
}

// GetMaxFileSize returns the maximum decoded PDF size
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}
