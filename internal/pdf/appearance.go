package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const (
	fallbackFontName = "Helv"
	minFontSize      = 4.0
	maxFontSize      = 12.0
	textPadding      = 2.0
)

// widgetField holds the field attributes of a widget, inherited along the
// /Parent chain
type widgetField struct {
	name  string
	ft    string
	value types.Object
	da    string
}

func (fl *flattener) widgetField(annot types.Dict) widgetField {
	var (
		wf    widgetField
		parts []string
	)

	d := annot
	for depth := 0; d != nil && depth <= maxFieldDepth; depth++ {
		if obj, found := d.Find("T"); found {
			if t, err := fl.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil && t != "" {
				parts = append([]string{t}, parts...)
			}
		}
		if obj, found := d.Find("FT"); found && wf.ft == "" {
			if ft, err := fl.ctx.DereferenceName(obj, model.V10, nil); err == nil {
				wf.ft = string(ft)
			}
		}
		if obj, found := d.Find("V"); found && wf.value == nil {
			wf.value = obj
		}
		if obj, found := d.Find("DA"); found && wf.da == "" {
			if da, err := fl.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil {
				wf.da = da
			}
		}

		parentObj, found := d.Find("Parent")
		if !found {
			break
		}
		parent, err := fl.ctx.DereferenceDict(parentObj)
		if err != nil {
			break
		}
		d = parent
	}

	wf.name = strings.Join(parts, ".")
	return wf
}

// valueText returns the display text of a field value: a string, or the
// first entry of a multi-select array
func (fl *flattener) valueText(obj types.Object) string {
	if obj == nil {
		return ""
	}
	if s, err := fl.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil {
		return s
	}
	if arr, err := fl.ctx.DereferenceArray(obj); err == nil && len(arr) > 0 {
		if s, err := fl.ctx.DereferenceStringOrHexLiteral(arr[0], model.V10, nil); err == nil {
			return s
		}
	}
	return ""
}

// valueAppearance builds a form XObject that shows the value of a text or
// choice widget in its default appearance font
func (fl *flattener) valueAppearance(wf widgetField, rect [4]float64) (appearance, bool) {
	if wf.ft != "Tx" && wf.ft != "Ch" {
		return appearance{}, false
	}
	text := fl.valueText(wf.value)
	if text == "" {
		return appearance{}, false
	}

	w, h := rect[2]-rect[0], rect[3]-rect[1]
	if w <= 0 || h <= 0 {
		return appearance{}, false
	}

	da := wf.da
	if da == "" {
		da = fl.da
	}
	fontName, size, colour := parseDA(da)
	fontName, fontObj, err := fl.font(fontName)
	if err != nil {
		return appearance{}, false
	}
	if size <= 0 {
		size = autoFontSize(h)
	}

	sd, err := fl.ctx.NewStreamDictForBuf(appearanceContent(text, fontName, size, colour, h))
	if err != nil {
		return appearance{}, false
	}
	sd.Dict["Type"] = types.Name("XObject")
	sd.Dict["Subtype"] = types.Name("Form")
	sd.Dict["BBox"] = types.Array{types.Float(0), types.Float(0), types.Float(w), types.Float(h)}
	sd.Dict["Resources"] = types.Dict{
		"Font": types.Dict{fontName: fontObj},
	}
	if err := sd.Encode(); err != nil {
		return appearance{}, false
	}

	ref, err := fl.ctx.IndRefForNewObject(*sd)
	if err != nil {
		return appearance{}, false
	}
	return appearance{ref: *ref, bbox: [4]float64{0, 0, w, h}, matrix: identityMatrix}, true
}

// font resolves name in the form's default resources. Unknown fonts fall
// back to Helvetica.
func (fl *flattener) font(name string) (string, types.Object, error) {
	if name != "" && fl.fonts != nil {
		if obj, found := fl.fonts.Find(name); found {
			return name, obj, nil
		}
	}

	if fl.fallback == nil {
		ref, err := fl.ctx.IndRefForNewObject(types.Dict{
			"Type":     types.Name("Font"),
			"Subtype":  types.Name("Type1"),
			"BaseFont": types.Name("Helvetica"),
			"Encoding": types.Name("WinAnsiEncoding"),
		})
		if err != nil {
			return "", nil, fmt.Errorf("failed to add fallback font: %w", err)
		}
		fl.fallback = ref
	}
	return fallbackFontName, *fl.fallback, nil
}

// parseDA splits a default appearance string into the font name and size
// of its Tf operator and the remaining (colour) operators
func parseDA(da string) (font string, size float64, rest string) {
	var ops []string
	for _, tok := range strings.Fields(da) {
		if tok == "Tf" && len(ops) >= 2 {
			font = strings.TrimPrefix(ops[len(ops)-2], "/")
			size, _ = strconv.ParseFloat(ops[len(ops)-1], 64)
			ops = ops[:len(ops)-2]
			continue
		}
		ops = append(ops, tok)
	}
	return font, size, strings.Join(ops, " ")
}

// autoFontSize picks a font size for a zero (auto) size /DA
func autoFontSize(height float64) float64 {
	size := height * 0.7
	if size > maxFontSize {
		size = maxFontSize
	}
	if size < minFontSize {
		size = minFontSize
	}
	return size
}

// appearanceContent draws text on a single line, vertically centred in a
// box of the given height
func appearanceContent(text, font string, size float64, colour string, height float64) []byte {
	baseline := (height-size)/2 + size*0.22

	var buf bytes.Buffer
	buf.WriteString("/Tx BMC\nq\nBT\n")
	if colour != "" {
		buf.WriteString(colour)
		buf.WriteByte('\n')
	}
	fmt.Fprintf(&buf, "/%s %s Tf\n%s %s Td\n(", font, num(size), num(textPadding), num(baseline))
	writeEscaped(&buf, text)
	buf.WriteString(") Tj\nET\nQ\nEMC\n")
	return buf.Bytes()
}

// writeEscaped writes text as the body of a literal string in
// WinAnsi-compatible single bytes
func writeEscaped(buf *bytes.Buffer, text string) {
	for _, r := range text {
		switch {
		case r == '\\' || r == '(' || r == ')':
			buf.WriteByte('\\')
			buf.WriteByte(byte(r))
		case r == '\n' || r == '\r':
			buf.WriteByte(' ')
		case r < 256:
			buf.WriteByte(byte(r))
		default:
			buf.WriteByte('?')
		}
	}
}
