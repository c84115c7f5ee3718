package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/a3tai/pdf-form-filler/internal/form"
	"github.com/a3tai/pdf-form-filler/internal/pdf"
	pdferrors "github.com/a3tai/pdf-form-filler/internal/pdf/errors"
	"github.com/sirupsen/logrus"
)

// timestampFormat matches JavaScript's Date.toISOString
const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

func timestamp() string {
	return time.Now().UTC().Format(timestampFormat)
}

type indexResponse struct {
	Service     string     `json:"service"`
	Version     string     `json:"version"`
	Description string     `json:"description"`
	Endpoints   []Endpoint `json:"endpoints"`
	Timestamp   string     `json:"timestamp"`
}

type healthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Port        int    `json:"port"`
	Environment string `json:"environment"`
}

type fillResponse struct {
	Success         bool   `json:"success"`
	PDFBase64       string `json:"pdf_base64"`
	FieldsProcessed int    `json:"fields_processed"`
	Timestamp       string `json:"timestamp"`
}

type discoverResponse struct {
	Success     bool         `json:"success"`
	Fields      []form.Field `json:"fields"`
	TotalFields int          `json:"total_fields"`
	Timestamp   string       `json:"timestamp"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

type notFoundResponse struct {
	Error              string   `json:"error"`
	Code               string   `json:"code"`
	AvailableEndpoints []string `json:"available_endpoints"`
	Method             string   `json:"method"`
	Path               string   `json:"path"`
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, indexResponse{
		Service:     s.config.ServerName,
		Version:     s.config.Version,
		Description: "Fills, flattens and inspects PDF forms",
		Endpoints:   endpoints,
		Timestamp:   timestamp(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:      "OK",
		Timestamp:   timestamp(),
		Port:        s.config.Port,
		Environment: s.config.Environment,
	})
}

func (s *Server) handleFillPDF(w http.ResponseWriter, r *http.Request) {
	var req pdf.FillRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.service.FillPDF(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, fillResponse{
		Success:         true,
		PDFBase64:       result.PDFBase64,
		FieldsProcessed: result.FieldsProcessed,
		Timestamp:       timestamp(),
	})
}

func (s *Server) handleDiscoverFields(w http.ResponseWriter, r *http.Request) {
	var req pdf.DiscoverRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.service.DiscoverFields(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, discoverResponse{
		Success:     true,
		Fields:      result.Fields,
		TotalFields: result.TotalFields,
		Timestamp:   timestamp(),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	available := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		available = append(available, e.Method+" "+e.Path)
	}

	s.writeJSON(w, http.StatusNotFound, notFoundResponse{
		Error:              "Endpoint not found",
		Code:               pdferrors.CodeRouteNotFound,
		AvailableEndpoints: available,
		Method:             r.Method,
		Path:               r.URL.Path,
	})
}

// decodeBody reads a JSON request body into v. It writes the error
// response itself and reports whether the handler should continue.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodySize)

	err := json.NewDecoder(body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		s.writeError(w, r, &pdferrors.PDFError{
			Type:    pdferrors.ErrorTypeValidation,
			Code:    pdferrors.CodeBodyTooLarge,
			Message: "request body too large",
		})
		return false
	}

	s.writeError(w, r, pdferrors.NewValidationError(pdferrors.CodeInvalidJSON, "request body must be valid JSON"))
	return false
}

// writeError maps err onto the response status: validation errors are 400
// (413 for oversized bodies), document errors 500 with the library message,
// anything else a generic 500
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	entry := s.logger.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).WithError(err)

	pdfErr, ok := pdferrors.As(err)
	if !ok {
		entry.Error("unexpected error")
		pdfErr = pdferrors.NewInternalError(err)
	}

	status := http.StatusInternalServerError
	message := pdfErr.Error()

	switch pdfErr.Type {
	case pdferrors.ErrorTypeValidation:
		status = http.StatusBadRequest
		if pdfErr.Code == pdferrors.CodeBodyTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		entry.Info("request rejected")
	case pdferrors.ErrorTypeDocument:
		entry.Warn("document processing failed")
	default:
		message = "Internal server error"
	}

	s.writeJSON(w, status, errorResponse{
		Success: false,
		Error:   message,
		Code:    pdfErr.Code,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Warn("failed to write response")
	}
}
