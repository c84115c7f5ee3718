// Package form fills and inspects interactive form fields on a loaded
// document without knowing which PDF library backs it.
package form

import "errors"

// ErrFieldNotFound is returned by Document.Field when no field carries the
// requested name.
var ErrFieldNotFound = errors.New("field not found")

// ErrInvalidOption is returned by Document.Select when the value is not one
// of the field's options.
var ErrInvalidOption = errors.New("invalid option")

// Kind is the closed set of field kinds the filler knows how to handle
type Kind int

const (
	KindUnknown Kind = iota
	KindText
	KindCheckbox
	KindDropdown
	KindRadioGroup
)

// String returns the wire name of the kind
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindCheckbox:
		return "checkbox"
	case KindDropdown:
		return "dropdown"
	case KindRadioGroup:
		return "radio_group"
	default:
		return "unknown"
	}
}

// MarshalText lets Kind serialize as its wire name
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Field describes one form field as read from a document.
// Kind specific attributes are left zero for kinds they do not apply to.
type Field struct {
	Name     string `json:"name"`
	Kind     Kind   `json:"type"`
	Subtype  string `json:"subtype,omitempty"`
	ReadOnly bool   `json:"read_only"`
	Required bool   `json:"required"`

	// Text fields
	Value     string `json:"value,omitempty"`
	MaxLength int    `json:"max_length,omitempty"`

	// Checkboxes
	Checked *bool `json:"checked,omitempty"`

	// Dropdowns and radio groups
	Options  []string `json:"options,omitempty"`
	Selected string   `json:"selected,omitempty"`
}

// CurrentValue returns the value that, when filled back into the field,
// leaves it unchanged. Nil means there is nothing to fill.
func (f Field) CurrentValue() any {
	switch f.Kind {
	case KindText:
		return f.Value
	case KindCheckbox:
		if f.Checked == nil {
			return nil
		}
		return *f.Checked
	case KindDropdown, KindRadioGroup:
		return f.Selected
	default:
		return nil
	}
}

// Document is a mutable handle to a parsed form document. Its lifetime is
// a single request.
type Document interface {
	// Fields lists every terminal field in document order
	Fields() []Field
	// Field looks a field up by its fully qualified name
	Field(name string) (Field, error)

	SetText(name, value string) error
	Check(name string) error
	Uncheck(name string) error
	// Select picks an option of a dropdown or radio group
	Select(name, option string) error

	// Flatten turns every field into static page content
	Flatten() error
}
