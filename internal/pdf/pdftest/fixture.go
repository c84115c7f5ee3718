// Package pdftest builds small PDF documents for tests.
package pdftest

import (
	"bytes"
	"encoding/base64"
	"fmt"
)

// Field names of the document returned by FormPDF
const (
	TextField     = "name"
	CheckboxField = "agree"
	DropdownField = "city"
	RadioField    = "gender"
	PageText      = "Hello Form"
	DateField     = "birthday"
)

// DropdownOptions are the options of DropdownField
var DropdownOptions = []string{"Berlin", "Paris", "Rome"}

// builder writes numbered objects and tracks their offsets for the xref table
type builder struct {
	buf     bytes.Buffer
	offsets []int
}

func (b *builder) object(body string) {
	b.offsets = append(b.offsets, b.buf.Len())
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", len(b.offsets), body)
}

func (b *builder) stream(dict, content string) {
	b.object(fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(content), content))
}

func (b *builder) finish() []byte {
	xref := b.buf.Len()
	fmt.Fprintf(&b.buf, "xref\n0 %d\n", len(b.offsets)+1)
	b.buf.WriteString("0000000000 65535 f \n")
	for _, off := range b.offsets {
		fmt.Fprintf(&b.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(b.offsets)+1, xref)
	return b.buf.Bytes()
}

// FormPDF returns a one page PDF with an AcroForm holding a text field
// ("name", value "Jane", max length 40), an unchecked checkbox ("agree"),
// a dropdown ("city", options Berlin/Paris/Rome, value Paris) and a radio
// group ("gender", options female/male, nothing selected).
func FormPDF() []byte {
	b := &builder{}
	b.buf.WriteString("%PDF-1.7\n%\xE2\xE3\xCF\xD3\n")

	// 1 catalog
	b.object("<< /Type /Catalog /Pages 2 0 R /AcroForm 3 0 R >>")
	// 2 page tree
	b.object("<< /Type /Pages /Kids [4 0 R] /Count 1 >>")
	// 3 AcroForm
	b.object("<< /Fields [8 0 R 9 0 R 10 0 R 11 0 R] " +
		"/DR << /Font << /Helv 5 0 R /ZaDb 6 0 R >> >> /DA (/Helv 0 Tf 0 g) >>")
	// 4 page
	b.object("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
		"/Resources << /Font << /F1 5 0 R >> >> /Contents 7 0 R " +
		"/Annots [8 0 R 9 0 R 10 0 R 12 0 R 13 0 R] >>")
	// 5 Helvetica
	b.object("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	// 6 ZapfDingbats
	b.object("<< /Type /Font /Subtype /Type1 /BaseFont /ZapfDingbats >>")
	// 7 page content
	b.stream("", "BT /F1 12 Tf 72 740 Td ("+PageText+") Tj ET")
	// 8 text field
	b.object("<< /Type /Annot /Subtype /Widget /FT /Tx /T (name) /V (Jane) /MaxLen 40 " +
		"/Rect [100 700 300 720] /P 4 0 R /F 4 /DA (/Helv 12 Tf 0 g) >>")
	// 9 checkbox
	b.object("<< /Type /Annot /Subtype /Widget /FT /Btn /T (agree) /V /Off /AS /Off " +
		"/Rect [100 650 115 665] /P 4 0 R /F 4 /DA (/ZaDb 0 Tf 0 g) /MK << /CA (4) >> " +
		"/AP << /N << /Yes 14 0 R /Off 15 0 R >> >> >>")
	// 10 dropdown
	b.object("<< /Type /Annot /Subtype /Widget /FT /Ch /Ff 131072 /T (city) " +
		"/Opt [(Berlin) (Paris) (Rome)] /V (Paris) " +
		"/Rect [100 600 300 620] /P 4 0 R /F 4 /DA (/Helv 12 Tf 0 g) >>")
	// 11 radio group
	b.object("<< /FT /Btn /Ff 49152 /T (gender) /V /Off /Kids [12 0 R 13 0 R] /DA (/ZaDb 0 Tf 0 g) >>")
	// 12, 13 radio widgets
	b.object("<< /Type /Annot /Subtype /Widget /Parent 11 0 R /Rect [100 550 115 565] /P 4 0 R /F 4 " +
		"/AS /Off /MK << /CA (l) >> /AP << /N << /female 14 0 R /Off 15 0 R >> >> >>")
	b.object("<< /Type /Annot /Subtype /Widget /Parent 11 0 R /Rect [130 550 145 565] /P 4 0 R /F 4 " +
		"/AS /Off /MK << /CA (l) >> /AP << /N << /male 14 0 R /Off 15 0 R >> >> >>")
	// 14 on appearance, 15 off appearance
	b.stream("/Type /XObject /Subtype /Form /BBox [0 0 15 15] /Resources << >>", "0 g 3 3 9 9 re f")
	b.stream("/Type /XObject /Subtype /Form /BBox [0 0 15 15] /Resources << >>", "")

	return b.finish()
}

// DateFormPDF returns a one page PDF with a single text field (DateField)
// formatted as dd.mm.yyyy by its format action
func DateFormPDF() []byte {
	b := &builder{}
	b.buf.WriteString("%PDF-1.7\n%\xE2\xE3\xCF\xD3\n")
	b.object("<< /Type /Catalog /Pages 2 0 R /AcroForm 3 0 R >>")
	b.object("<< /Type /Pages /Kids [4 0 R] /Count 1 >>")
	b.object("<< /Fields [6 0 R] /DR << /Font << /Helv 5 0 R >> >> /DA (/Helv 0 Tf 0 g) >>")
	b.object("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> /Annots [6 0 R] >>")
	b.object("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	b.object("<< /Type /Annot /Subtype /Widget /FT /Tx /T (" + DateField + ") " +
		"/Rect [100 700 200 720] /P 4 0 R /F 4 /DA (/Helv 12 Tf 0 g) " +
		"/AA << /F << /S /JavaScript /JS (AFDate_FormatEx\\(\"dd.mm.yyyy\"\\);) >> >> >>")
	return b.finish()
}

// PlainPDF returns a one page PDF without a form
func PlainPDF() []byte {
	b := &builder{}
	b.buf.WriteString("%PDF-1.7\n%\xE2\xE3\xCF\xD3\n")
	b.object("<< /Type /Catalog /Pages 2 0 R >>")
	b.object("<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.object("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
		"/Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>")
	b.object("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	b.stream("", "BT /F1 12 Tf 72 740 Td ("+PageText+") Tj ET")
	return b.finish()
}

// Base64 encodes data the way clients send it
func Base64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
