package pdf

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/a3tai/pdf-form-filler/internal/form"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Field flag bits (PDF 32000-1, 12.7.3.1 and 12.7.4)
const (
	flagReadOnly = 1 << 0
	flagRequired = 1 << 1
	flagRadio    = 1 << 15
	flagPush     = 1 << 16
	flagCombo    = 1 << 17
	flagEdit     = 1 << 18
)

// maxFieldDepth bounds the field tree walk against reference cycles
const maxFieldDepth = 32

// fieldInfo is a discovered field plus the details needed to fill it
type fieldInfo struct {
	form.Field
	editable bool

	// dateFormat is set for text fields formatted as dates by an
	// AFDate_FormatEx action. pdfcpu fills those as date fields.
	dateFormat string
}

var dateFormatRe = regexp.MustCompile(`AFDate_Format(?:Ex)?\(\s*"([^"]*)"`)

// inherited holds the inheritable field attributes of ancestors
type inherited struct {
	ft    string
	flags int
	value types.Object
}

// fieldWalker collects terminal fields from the AcroForm field tree
type fieldWalker struct {
	ctx    *model.Context
	fields []fieldInfo
	seen   map[string]bool
}

// collectFields walks the AcroForm dictionary of ctx and returns every
// terminal field in document order
func collectFields(ctx *model.Context) ([]fieldInfo, error) {
	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return nil, nil
	}

	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroFormDict == nil {
		return nil, nil
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return nil, nil
	}

	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	w := &fieldWalker{ctx: ctx, seen: make(map[string]bool)}
	for i, fieldRef := range fieldsArray {
		w.walk(fieldRef, "", inherited{}, i, 0)
	}
	return w.fields, nil
}

func (w *fieldWalker) walk(fieldObj types.Object, parentName string, inh inherited, index, depth int) {
	if depth > maxFieldDepth {
		return
	}

	fieldDict, err := w.ctx.DereferenceDict(fieldObj)
	if err != nil || fieldDict == nil {
		return
	}

	name := w.partialName(fieldDict)
	switch {
	case name == "" && parentName == "":
		name = fmt.Sprintf("field_%d", index)
	case name == "":
		name = parentName
	case parentName != "":
		name = parentName + "." + name
	}

	if ftObj, found := fieldDict.Find("FT"); found {
		if ft, err := w.ctx.DereferenceName(ftObj, model.V10, nil); err == nil {
			inh.ft = string(ft)
		}
	}
	if flagsObj, found := fieldDict.Find("Ff"); found {
		if flags, err := w.ctx.DereferenceInteger(flagsObj); err == nil && flags != nil {
			inh.flags = int(*flags)
		}
	}
	if valueObj, found := fieldDict.Find("V"); found {
		inh.value = valueObj
	}

	// Kids carrying a T entry are child fields, the others are widgets
	var childFields []types.Object
	if kidsObj, found := fieldDict.Find("Kids"); found {
		if kids, err := w.ctx.DereferenceArray(kidsObj); err == nil {
			for _, kid := range kids {
				kidDict, err := w.ctx.DereferenceDict(kid)
				if err != nil || kidDict == nil {
					continue
				}
				if _, hasT := kidDict.Find("T"); hasT {
					childFields = append(childFields, kid)
				}
			}
		}
	}

	if len(childFields) > 0 {
		for i, kid := range childFields {
			w.walk(kid, name, inh, i, depth+1)
		}
		return
	}

	if w.seen[name] {
		return
	}
	w.seen[name] = true
	w.fields = append(w.fields, w.describe(fieldDict, name, inh))
}

func (w *fieldWalker) partialName(fieldDict types.Dict) string {
	nameObj, found := fieldDict.Find("T")
	if !found {
		return ""
	}
	name, err := w.ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil)
	if err != nil {
		return ""
	}
	return name
}

// describe builds the descriptor of a terminal field
func (w *fieldWalker) describe(fieldDict types.Dict, name string, inh inherited) fieldInfo {
	info := fieldInfo{Field: form.Field{
		Name:     name,
		ReadOnly: inh.flags&flagReadOnly != 0,
		Required: inh.flags&flagRequired != 0,
	}}

	switch inh.ft {
	case "Tx":
		info.Kind = form.KindText
		if inh.value != nil {
			if s, err := w.ctx.DereferenceStringOrHexLiteral(inh.value, model.V10, nil); err == nil {
				info.Value = s
			}
		}
		if format := w.dateFormat(fieldDict); format != "" {
			info.dateFormat = format
			info.Subtype = "date"
		}
		if maxLenObj, found := fieldDict.Find("MaxLen"); found {
			if maxLen, err := w.ctx.DereferenceInteger(maxLenObj); err == nil && maxLen != nil {
				info.MaxLength = int(*maxLen)
			}
		}

	case "Btn":
		switch {
		case inh.flags&flagPush != 0:
			info.Kind = form.KindUnknown
			info.Subtype = "pushbutton"
		case inh.flags&flagRadio != 0:
			info.Kind = form.KindRadioGroup
			info.Options = w.onStates(fieldDict)
			info.Selected = w.stateName(inh.value)
		default:
			info.Kind = form.KindCheckbox
			state := w.stateName(inh.value)
			if inh.value == nil {
				state = w.appearanceState(fieldDict)
			}
			checked := state != ""
			info.Checked = &checked
		}

	case "Ch":
		if inh.flags&flagCombo == 0 {
			info.Kind = form.KindUnknown
			info.Subtype = "listbox"
			break
		}
		info.Kind = form.KindDropdown
		info.editable = inh.flags&flagEdit != 0
		info.Options = w.choiceOptions(fieldDict)
		info.Selected = w.choiceValue(inh.value)

	case "Sig":
		info.Kind = form.KindUnknown
		info.Subtype = "signature"

	default:
		info.Kind = form.KindUnknown
		info.Subtype = inh.ft
	}

	return info
}

// stateName returns a button state name, or "" for Off and missing values
func (w *fieldWalker) stateName(obj types.Object) string {
	if obj == nil {
		return ""
	}
	name, err := w.ctx.DereferenceName(obj, model.V10, nil)
	if err != nil || name == "Off" {
		return ""
	}
	return string(name)
}

// appearanceState returns the current AS of a merged field/widget
func (w *fieldWalker) appearanceState(fieldDict types.Dict) string {
	asObj, found := fieldDict.Find("AS")
	if !found {
		return ""
	}
	return w.stateName(asObj)
}

// onStates lists the export values of a radio group, taken from the normal
// appearance states of its widgets
func (w *fieldWalker) onStates(fieldDict types.Dict) []string {
	widgets := []types.Dict{fieldDict}
	if kidsObj, found := fieldDict.Find("Kids"); found {
		if kids, err := w.ctx.DereferenceArray(kidsObj); err == nil {
			widgets = widgets[:0]
			for _, kid := range kids {
				if d, err := w.ctx.DereferenceDict(kid); err == nil && d != nil {
					widgets = append(widgets, d)
				}
			}
		}
	}

	var options []string
	seen := make(map[string]bool)
	for _, widget := range widgets {
		for _, state := range w.normalStates(widget) {
			if !seen[state] {
				seen[state] = true
				options = append(options, state)
			}
		}
	}
	return options
}

// normalStates returns the sorted non-Off keys of a widget's /AP /N dictionary
func (w *fieldWalker) normalStates(widget types.Dict) []string {
	apObj, found := widget.Find("AP")
	if !found {
		return nil
	}
	apDict, err := w.ctx.DereferenceDict(apObj)
	if err != nil || apDict == nil {
		return nil
	}
	nObj, found := apDict.Find("N")
	if !found {
		return nil
	}
	nDict, err := w.ctx.DereferenceDict(nObj)
	if err != nil || nDict == nil {
		return nil
	}

	var states []string
	for key := range nDict {
		if key != "Off" {
			states = append(states, key)
		}
	}
	sort.Strings(states)
	return states
}

// choiceOptions extracts the export values of a choice field
func (w *fieldWalker) choiceOptions(fieldDict types.Dict) []string {
	var options []string

	optObj, found := fieldDict.Find("Opt")
	if !found {
		return options
	}

	optArray, err := w.ctx.DereferenceArray(optObj)
	if err != nil {
		return options
	}

	for _, opt := range optArray {
		// Options are strings or [export_value display_value] pairs
		if str, err := w.ctx.DereferenceStringOrHexLiteral(opt, model.V10, nil); err == nil {
			options = append(options, str)
		} else if arr, err := w.ctx.DereferenceArray(opt); err == nil && len(arr) >= 1 {
			if exportVal, err := w.ctx.DereferenceStringOrHexLiteral(arr[0], model.V10, nil); err == nil {
				options = append(options, exportVal)
			}
		}
	}

	return options
}

// choiceValue returns the selected value of a choice field
func (w *fieldWalker) choiceValue(obj types.Object) string {
	if obj == nil {
		return ""
	}
	if s, err := w.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil {
		return s
	}
	if arr, err := w.ctx.DereferenceArray(obj); err == nil && len(arr) > 0 {
		if s, err := w.ctx.DereferenceStringOrHexLiteral(arr[0], model.V10, nil); err == nil {
			return s
		}
	}
	return ""
}

// dateFormat returns the date format of a text field's format action
// (/AA /F /JS), or ""
func (w *fieldWalker) dateFormat(fieldDict types.Dict) string {
	aaObj, found := fieldDict.Find("AA")
	if !found {
		return ""
	}
	aa, err := w.ctx.DereferenceDict(aaObj)
	if err != nil || aa == nil {
		return ""
	}
	fObj, found := aa.Find("F")
	if !found {
		return ""
	}
	action, err := w.ctx.DereferenceDict(fObj)
	if err != nil || action == nil {
		return ""
	}
	jsObj, found := action.Find("JS")
	if !found {
		return ""
	}

	var script string
	if s, err := w.ctx.DereferenceStringOrHexLiteral(jsObj, model.V10, nil); err == nil {
		script = s
	} else if o, err := w.ctx.Dereference(jsObj); err == nil {
		sd, ok := o.(types.StreamDict)
		if !ok || sd.Decode() != nil {
			return ""
		}
		script = string(sd.Content)
	}

	if m := dateFormatRe.FindStringSubmatch(script); m != nil {
		return m[1]
	}
	return ""
}
