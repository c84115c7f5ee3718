package pdf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/a3tai/pdf-form-filler/internal/form"
	pdferrors "github.com/a3tai/pdf-form-filler/internal/pdf/errors"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfform "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/form"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Document is a form document loaded with pdfcpu. Field changes are staged
// in memory and written out by Save.
type Document struct {
	raw  []byte
	conf *model.Configuration

	fields []fieldInfo
	index  map[string]int

	// loaded holds each field's value as read, pending only what differs
	loaded    map[string]any
	pending   map[string]any
	flattened bool
}

var _ form.Document = (*Document)(nil)

// newConfiguration returns the pdfcpu configuration used for every document
func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// readContext parses and validates PDF bytes
func readContext(data []byte, conf *model.Configuration) (*model.Context, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to validate PDF: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	return ctx, nil
}

// Load parses data and reads its form fields. pdfcpu records the running
// command in its configuration, so a nil conf gets a fresh one per document.
func Load(data []byte, conf *model.Configuration) (_ *Document, err error) {
	defer pdferrors.Recover(&err, "failed to read PDF")

	if conf == nil {
		conf = newConfiguration()
	}

	ctx, err := readContext(data, conf)
	if err != nil {
		return nil, err
	}

	fields, err := collectFields(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read form fields: %w", err)
	}

	doc := &Document{
		raw:     data,
		conf:    conf,
		fields:  fields,
		index:   make(map[string]int, len(fields)),
		loaded:  make(map[string]any, len(fields)),
		pending: make(map[string]any),
	}
	for i, f := range fields {
		doc.index[f.Name] = i
		doc.loaded[f.Name] = stagedValue(f.Field)
	}
	return doc, nil
}

// Fields lists every terminal field in document order
func (d *Document) Fields() []form.Field {
	out := make([]form.Field, len(d.fields))
	for i, f := range d.fields {
		out[i] = cloneField(f.Field)
	}
	return out
}

// Field looks a field up by its fully qualified name
func (d *Document) Field(name string) (form.Field, error) {
	info, err := d.lookup(name)
	if err != nil {
		return form.Field{}, err
	}
	return cloneField(info.Field), nil
}

func (d *Document) lookup(name string) (*fieldInfo, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", form.ErrFieldNotFound, name)
	}
	return &d.fields[i], nil
}

func (d *Document) lookupKind(name string, kinds ...form.Kind) (*fieldInfo, error) {
	info, err := d.lookup(name)
	if err != nil {
		return nil, err
	}
	for _, k := range kinds {
		if info.Kind == k {
			return info, nil
		}
	}
	return nil, fmt.Errorf("field %s is a %s field", name, info.Kind)
}

// SetText stages a new value for a text field
func (d *Document) SetText(name, value string) error {
	info, err := d.lookupKind(name, form.KindText)
	if err != nil {
		return err
	}
	if info.MaxLength > 0 && len([]rune(value)) > info.MaxLength {
		return fmt.Errorf("value for %s exceeds max length %d", name, info.MaxLength)
	}
	info.Value = value
	d.stage(name, value)
	return nil
}

// Check stages a checkbox as checked
func (d *Document) Check(name string) error {
	return d.setChecked(name, true)
}

// Uncheck stages a checkbox as unchecked
func (d *Document) Uncheck(name string) error {
	return d.setChecked(name, false)
}

func (d *Document) setChecked(name string, checked bool) error {
	info, err := d.lookupKind(name, form.KindCheckbox)
	if err != nil {
		return err
	}
	info.Checked = &checked
	d.stage(name, checked)
	return nil
}

// Select stages the option of a dropdown or radio group. Options outside
// the field's list are rejected unless the dropdown is editable.
func (d *Document) Select(name, option string) error {
	info, err := d.lookupKind(name, form.KindDropdown, form.KindRadioGroup)
	if err != nil {
		return err
	}
	if !info.editable && !contains(info.Options, option) {
		return fmt.Errorf("%w %q for field %s", form.ErrInvalidOption, option, name)
	}
	info.Selected = option
	d.stage(name, option)
	return nil
}

// stage records value for Save unless it equals the value the document
// already holds. pdfcpu refuses a fill that changes nothing.
func (d *Document) stage(name string, value any) {
	if d.loaded[name] == value {
		delete(d.pending, name)
		return
	}
	d.pending[name] = value
}

// stagedValue is the value of f in the form Save stages it
func stagedValue(f form.Field) any {
	switch f.Kind {
	case form.KindText:
		return f.Value
	case form.KindCheckbox:
		return f.Checked != nil && *f.Checked
	case form.KindDropdown, form.KindRadioGroup:
		return f.Selected
	default:
		return nil
	}
}

// Flatten marks the document to be flattened on Save
func (d *Document) Flatten() error {
	d.flattened = true
	return nil
}

// Save applies the staged changes and returns the serialized document
func (d *Document) Save() (_ []byte, err error) {
	defer pdferrors.Recover(&err, "failed to write PDF")

	src := d.raw

	if len(d.pending) > 0 {
		payload, err := json.Marshal(d.formGroup())
		if err != nil {
			return nil, fmt.Errorf("failed to encode form values: %w", err)
		}

		var filled bytes.Buffer
		err = api.FillForm(bytes.NewReader(src), bytes.NewReader(payload), &filled, d.conf)
		switch {
		case errors.Is(err, api.ErrNoFormFieldsAffected):
			// nothing changed, keep src
		case err != nil:
			return nil, fmt.Errorf("failed to fill form: %w", err)
		default:
			src = filled.Bytes()
		}
	}

	if !d.flattened {
		out := make([]byte, len(src))
		copy(out, src)
		return out, nil
	}

	ctx, err := readContext(src, d.conf)
	if err != nil {
		return nil, err
	}

	if err := flattenForm(ctx, d.changedChoices()); err != nil {
		return nil, fmt.Errorf("failed to flatten form: %w", err)
	}

	var out bytes.Buffer
	if err := api.WriteContext(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return out.Bytes(), nil
}

// formGroup renders the staged values in pdfcpu's JSON form format
func (d *Document) formGroup() pdfform.FormGroup {
	var f pdfform.Form
	for _, info := range d.fields {
		value, ok := d.pending[info.Name]
		if !ok {
			continue
		}
		switch info.Kind {
		case form.KindText:
			if info.dateFormat != "" {
				f.DateFields = append(f.DateFields, &pdfform.DateField{
					Name: info.Name, Format: info.dateFormat, Value: value.(string), Locked: info.ReadOnly,
				})
				continue
			}
			f.TextFields = append(f.TextFields, &pdfform.TextField{
				Name: info.Name, Value: value.(string), Locked: info.ReadOnly,
			})
		case form.KindCheckbox:
			f.CheckBoxes = append(f.CheckBoxes, &pdfform.CheckBox{
				Name: info.Name, Value: value.(bool), Locked: info.ReadOnly,
			})
		case form.KindRadioGroup:
			f.RadioButtonGroups = append(f.RadioButtonGroups, &pdfform.RadioButtonGroup{
				Name: info.Name, Options: info.Options, Value: value.(string), Locked: info.ReadOnly,
			})
		case form.KindDropdown:
			f.ComboBoxes = append(f.ComboBoxes, &pdfform.ComboBox{
				Name: info.Name, Editable: info.editable, Options: info.Options,
				Value: value.(string), Locked: info.ReadOnly,
			})
		}
	}

	return pdfform.FormGroup{
		Header: pdfform.Header{
			Source:   "request",
			Version:  "pdf-form-filler",
			Creation: time.Now().Format("2006-01-02 15:04:05 MST"),
		},
		Forms: []pdfform.Form{f},
	}
}

// changedChoices names the dropdowns whose value Save changes. pdfcpu
// writes their new value without an appearance.
func (d *Document) changedChoices() map[string]bool {
	names := make(map[string]bool)
	for _, info := range d.fields {
		if _, ok := d.pending[info.Name]; ok && info.Kind == form.KindDropdown {
			names[info.Name] = true
		}
	}
	return names
}

func cloneField(f form.Field) form.Field {
	if f.Options != nil {
		f.Options = append([]string(nil), f.Options...)
	}
	if f.Checked != nil {
		checked := *f.Checked
		f.Checked = &checked
	}
	return f
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
