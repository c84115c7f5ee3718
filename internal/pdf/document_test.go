package pdf

import (
	"bytes"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-form-filler/internal/form"
	"github.com/a3tai/pdf-form-filler/internal/pdf/pdftest"
)

func loadFixture(t *testing.T) *Document {
	t.Helper()
	doc, err := Load(pdftest.FormPDF(), nil)
	require.NoError(t, err)
	return doc
}

func fieldByName(t *testing.T, fields []form.Field, name string) form.Field {
	t.Helper()
	for _, f := range fields {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("field %s not found", name)
	return form.Field{}
}

// decodedStreams concatenates the decoded content of every stream object
func decodedStreams(t *testing.T, data []byte) string {
	t.Helper()
	ctx, err := readContext(data, newConfiguration())
	require.NoError(t, err)

	var all bytes.Buffer
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Object == nil {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if err := sd.Decode(); err != nil {
			continue
		}
		all.Write(sd.Content)
		all.WriteByte('\n')
	}
	return all.String()
}

func TestLoad_DiscoversFields(t *testing.T) {
	doc := loadFixture(t)
	fields := form.Discover(doc)

	require.Len(t, fields, 4)

	text := fieldByName(t, fields, pdftest.TextField)
	assert.Equal(t, form.KindText, text.Kind)
	assert.Equal(t, "Jane", text.Value)
	assert.Equal(t, 40, text.MaxLength)

	checkbox := fieldByName(t, fields, pdftest.CheckboxField)
	assert.Equal(t, form.KindCheckbox, checkbox.Kind)
	require.NotNil(t, checkbox.Checked)
	assert.False(t, *checkbox.Checked)

	dropdown := fieldByName(t, fields, pdftest.DropdownField)
	assert.Equal(t, form.KindDropdown, dropdown.Kind)
	assert.Equal(t, pdftest.DropdownOptions, dropdown.Options)
	assert.Equal(t, "Paris", dropdown.Selected)

	radio := fieldByName(t, fields, pdftest.RadioField)
	assert.Equal(t, form.KindRadioGroup, radio.Kind)
	assert.Equal(t, []string{"female", "male"}, radio.Options)
	assert.Empty(t, radio.Selected)
}

func TestLoad_DocumentWithoutForm(t *testing.T) {
	doc, err := Load(pdftest.PlainPDF(), nil)
	require.NoError(t, err)
	assert.Empty(t, doc.Fields())
}

func TestLoad_CorruptDocument(t *testing.T) {
	_, err := Load([]byte("%PDF-1.7\nthis is not a pdf body"), nil)
	assert.Error(t, err)
}

func TestDocument_StagedChanges(t *testing.T) {
	doc := loadFixture(t)

	require.NoError(t, doc.SetText(pdftest.TextField, "John"))
	require.NoError(t, doc.Check(pdftest.CheckboxField))
	require.NoError(t, doc.Select(pdftest.DropdownField, "Rome"))
	require.NoError(t, doc.Select(pdftest.RadioField, "male"))

	text, err := doc.Field(pdftest.TextField)
	require.NoError(t, err)
	assert.Equal(t, "John", text.Value)

	checkbox, err := doc.Field(pdftest.CheckboxField)
	require.NoError(t, err)
	assert.True(t, *checkbox.Checked)
}

func TestDocument_RejectsInvalidChanges(t *testing.T) {
	doc := loadFixture(t)

	_, err := doc.Field("missing")
	assert.ErrorIs(t, err, form.ErrFieldNotFound)

	err = doc.Select(pdftest.DropdownField, "Madrid")
	assert.ErrorIs(t, err, form.ErrInvalidOption)

	err = doc.Select(pdftest.RadioField, "other")
	assert.ErrorIs(t, err, form.ErrInvalidOption)

	assert.Error(t, doc.SetText(pdftest.CheckboxField, "x"), "wrong kind")
	assert.Error(t, doc.Check(pdftest.TextField), "wrong kind")

	long := make([]byte, 41)
	for i := range long {
		long[i] = 'a'
	}
	assert.Error(t, doc.SetText(pdftest.TextField, string(long)), "exceeds max length")
}

func TestDocument_SaveFilledValues(t *testing.T) {
	doc := loadFixture(t)

	report := form.NewFiller(nil).Fill(doc, map[string]any{
		pdftest.TextField:     "John",
		pdftest.CheckboxField: true,
		pdftest.DropdownField: "Rome",
		pdftest.RadioField:    "male",
		"does-not-exist":      "x",
	})
	assert.Equal(t, 4, report.Processed)

	out, err := doc.Save()
	require.NoError(t, err)

	reloaded, err := Load(out, nil)
	require.NoError(t, err)
	fields := reloaded.Fields()

	assert.Equal(t, "John", fieldByName(t, fields, pdftest.TextField).Value)
	assert.True(t, *fieldByName(t, fields, pdftest.CheckboxField).Checked)
	assert.Equal(t, "Rome", fieldByName(t, fields, pdftest.DropdownField).Selected)
	assert.Equal(t, "male", fieldByName(t, fields, pdftest.RadioField).Selected)
}

func TestDocument_RoundTripWithCurrentValues(t *testing.T) {
	doc := loadFixture(t)
	before := form.Discover(doc)

	values := make(map[string]any)
	for _, f := range before {
		if v := f.CurrentValue(); v != nil {
			values[f.Name] = v
		}
	}
	form.NewFiller(nil).Fill(doc, values)

	out, err := doc.Save()
	require.NoError(t, err)

	reloaded, err := Load(out, nil)
	require.NoError(t, err)
	assert.Equal(t, before, form.Discover(reloaded))
}

func TestDocument_FlattenRemovesFields(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{name: "with values", values: map[string]any{pdftest.TextField: "John", pdftest.CheckboxField: true}},
		{name: "without values", values: map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := loadFixture(t)

			_, err := form.NewFiller(nil).FillAndFlatten(doc, tt.values)
			require.NoError(t, err)

			out, err := doc.Save()
			require.NoError(t, err)
			require.True(t, IsPDF(out))

			flattened, err := Load(out, nil)
			require.NoError(t, err)
			assert.Empty(t, flattened.Fields(), "no interactive field may remain")
		})
	}
}

func TestDocument_FlattenDrawsValues(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
		want   []string
	}{
		{name: "filled text", values: map[string]any{pdftest.TextField: "John"}, want: []string{"(John) Tj", "(Paris) Tj"}},
		{name: "changed dropdown", values: map[string]any{pdftest.DropdownField: "Rome"}, want: []string{"(Jane) Tj", "(Rome) Tj"}},
		{name: "existing values", values: map[string]any{}, want: []string{"(Jane) Tj", "(Paris) Tj"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := loadFixture(t)

			_, err := form.NewFiller(nil).FillAndFlatten(doc, tt.values)
			require.NoError(t, err)

			out, err := doc.Save()
			require.NoError(t, err)

			content := decodedStreams(t, out)
			for _, want := range tt.want {
				assert.Contains(t, content, want)
			}
			assert.Contains(t, content, pdftest.PageText)
			if _, changed := tt.values[pdftest.DropdownField]; changed {
				assert.NotContains(t, content, "(Paris) Tj", "previous selection must not be drawn")
			}
		})
	}
}

func TestDocument_SaveUnchangedValues(t *testing.T) {
	doc := loadFixture(t)

	require.NoError(t, doc.SetText(pdftest.TextField, "Jane"))
	require.NoError(t, doc.Uncheck(pdftest.CheckboxField))
	require.NoError(t, doc.Select(pdftest.DropdownField, "Paris"))

	out, err := doc.Save()
	require.NoError(t, err)

	reloaded, err := Load(out, nil)
	require.NoError(t, err)
	assert.Equal(t, form.Discover(loadFixture(t)), form.Discover(reloaded))
}

func TestLoad_DateField(t *testing.T) {
	doc, err := Load(pdftest.DateFormPDF(), nil)
	require.NoError(t, err)

	field, err := doc.Field(pdftest.DateField)
	require.NoError(t, err)
	assert.Equal(t, form.KindText, field.Kind)
	assert.Equal(t, "date", field.Subtype)

	require.NoError(t, doc.SetText(pdftest.DateField, "24.12.2024"))

	group := doc.formGroup()
	require.Len(t, group.Forms, 1)
	assert.Empty(t, group.Forms[0].TextFields)
	require.Len(t, group.Forms[0].DateFields, 1)
	assert.Equal(t, pdftest.DateField, group.Forms[0].DateFields[0].Name)
	assert.Equal(t, "dd.mm.yyyy", group.Forms[0].DateFields[0].Format)
	assert.Equal(t, "24.12.2024", group.Forms[0].DateFields[0].Value)
}
