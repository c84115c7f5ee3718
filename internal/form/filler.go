package form

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// Status is the outcome of filling a single field
type Status int

const (
	// StatusSkipped means no action was taken
	StatusSkipped Status = iota
	// StatusProcessed means the field was updated and counts towards the total
	StatusProcessed
	// StatusApplied means the field was updated but is not counted
	// (an unchecked checkbox)
	StatusApplied
	// StatusFailed means the field could not be updated
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusProcessed:
		return "processed"
	case StatusApplied:
		return "applied"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// FieldResult records what happened to one requested field
type FieldResult struct {
	Name   string
	Kind   Kind
	Status Status
	Reason string
	Err    error
}

// Report aggregates the per-field results of a fill
type Report struct {
	Results   []FieldResult
	Processed int
}

// Failed returns the results whose status is StatusFailed
func (r Report) Failed() []FieldResult {
	var failed []FieldResult
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Result returns the result recorded for name
func (r Report) Result(name string) (FieldResult, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return FieldResult{}, false
}

// Filler applies request values to document fields, one field at a time.
type Filler struct {
	logger logrus.FieldLogger

	// CountUnchecked makes an unchecked checkbox count as processed.
	// Off by default to keep fields_processed compatible with existing callers.
	CountUnchecked bool
}

// NewFiller creates a filler. A nil logger discards output.
func NewFiller(logger logrus.FieldLogger) *Filler {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Filler{logger: logger}
}

// Fill applies every value to the field of the same name. A field that is
// missing or rejects its value is recorded as failed and never stops the
// remaining fields from being filled.
func (f *Filler) Fill(doc Document, values map[string]any) Report {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	report := Report{Results: make([]FieldResult, 0, len(names))}
	for _, name := range names {
		res := f.fillField(doc, name, values[name])
		if res.Status == StatusProcessed {
			report.Processed++
		}
		if res.Status == StatusFailed {
			f.logger.WithFields(logrus.Fields{
				"field": name,
				"kind":  res.Kind.String(),
			}).WithError(res.Err).Warn("field not filled")
		}
		report.Results = append(report.Results, res)
	}
	return report
}

// FillAndFlatten fills the document and then flattens it. Flattening always
// happens, even when values is empty.
func (f *Filler) FillAndFlatten(doc Document, values map[string]any) (Report, error) {
	report := f.Fill(doc, values)
	if err := doc.Flatten(); err != nil {
		return report, fmt.Errorf("failed to flatten form: %w", err)
	}
	return report, nil
}

func (f *Filler) fillField(doc Document, name string, value any) FieldResult {
	res := FieldResult{Name: name}

	if isEmpty(value) {
		res.Status = StatusSkipped
		res.Reason = "empty value"
		return res
	}

	field, err := doc.Field(name)
	if err != nil {
		return failed(res, err)
	}
	res.Kind = field.Kind

	switch field.Kind {
	case KindText:
		text, err := cast.ToStringE(value)
		if err != nil {
			return failed(res, err)
		}
		if err := doc.SetText(name, text); err != nil {
			return failed(res, err)
		}
		res.Status = StatusProcessed

	case KindCheckbox:
		if isChecked(value) {
			if err := doc.Check(name); err != nil {
				return failed(res, err)
			}
			res.Status = StatusProcessed
			return res
		}
		if err := doc.Uncheck(name); err != nil {
			return failed(res, err)
		}
		res.Status = StatusApplied
		if f.CountUnchecked {
			res.Status = StatusProcessed
		}

	case KindDropdown, KindRadioGroup:
		option, err := cast.ToStringE(value)
		if err != nil {
			return failed(res, err)
		}
		if err := doc.Select(name, option); err != nil {
			return failed(res, err)
		}
		res.Status = StatusProcessed

	case KindUnknown:
		res.Status = StatusSkipped
		res.Reason = fmt.Sprintf("unsupported field type %q", field.Subtype)

	default:
		res.Status = StatusSkipped
		res.Reason = fmt.Sprintf("unsupported field kind %d", int(field.Kind))
	}

	return res
}

func failed(res FieldResult, err error) FieldResult {
	res.Status = StatusFailed
	res.Err = err
	res.Reason = err.Error()
	if errors.Is(err, ErrFieldNotFound) {
		res.Reason = "field not found"
	}
	return res
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

// isChecked accepts the boolean true and the strings "true" and "Yes"
func isChecked(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "Yes"
	default:
		return false
	}
}

// Discover returns the descriptors of every field in doc. It never mutates
// the document.
func Discover(doc Document) []Field {
	fields := doc.Fields()
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}
