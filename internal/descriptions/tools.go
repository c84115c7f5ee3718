package descriptions

// Tool descriptions with practical examples and use cases

const (
	PDFFillFormDescription = `Fill the AcroForm fields of a PDF and return the flattened result.

**When to use:** You have a PDF form (application, contract, intake sheet) and a set of values to put into it.

**Why it's useful:** Values are matched by fully qualified field name and applied according to the field type. The output is flattened, so the filled values are part of the page content and can no longer be edited.

**Input:**
• pdf_base64: the PDF document, base64 encoded
• fields: an object mapping field names to values

**Value rules:**
• Text fields take any scalar, numbers are converted to text
• Checkboxes are checked by true, "true" or "Yes" and unchecked by anything else
• Dropdowns and radio groups take one of the option names reported by pdf_discover_fields
• Unknown field names are skipped without failing the request

**Common workflows:**
1. pdf_discover_fields → pick values per field → pdf_fill_form
2. Fill a template repeatedly with different records

**Best practices:** Discover the fields first; the response reports how many fields were actually written.`

	PDFDiscoverFieldsDescription = `List the fillable form fields of a PDF.

**When to use:** Before filling a form, to learn the field names, their types, current values and the allowed options of dropdowns and radio groups.

**Why it's useful:** Field names in PDF forms are often cryptic ("topmostSubform[0].Page1[0].f1_01[0]"); this tool shows exactly what pdf_fill_form expects.

**Input:**
• pdf_base64: the PDF document, base64 encoded

**Output:** one entry per field with name, type (text, checkbox, dropdown, radio_group, unknown), read-only and required flags and the current value.

**Best practices:** A PDF without a form returns an empty list rather than an error.`

	PDFPageTextDescription = `Extract the plain text of every page of a PDF.

**When to use:** To see the labels and instructions printed next to form fields, which helps decide which value belongs in which field.

**Input:**
• pdf_base64: the PDF document, base64 encoded

**Best practices:** Scanned documents have no text layer and return empty pages.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"pdf_fill_form":       PDFFillFormDescription,
	"pdf_discover_fields": PDFDiscoverFieldsDescription,
	"pdf_page_text":       PDFPageTextDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns a list of all available tool names
func GetAllToolNames() []string {
	var names []string
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	return names
}
