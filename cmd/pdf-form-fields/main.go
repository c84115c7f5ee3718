package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/a3tai/pdf-form-filler/internal/form"
	"github.com/a3tai/pdf-form-filler/internal/pdf"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

type options struct {
	format         string
	fillPath       string
	outPath        string
	noFlatten      bool
	text           bool
	countUnchecked bool
	verbose        bool
}

// listResult is the JSON shape of a field listing
type listResult struct {
	FilePath   string       `json:"file_path"`
	FieldCount int          `json:"field_count"`
	Fields     []form.Field `json:"fields"`
	Pages      []string     `json:"pages,omitempty"`
}

// fillResult is the JSON shape of a fill run
type fillResult struct {
	FilePath        string        `json:"file_path"`
	OutputPath      string        `json:"output_path"`
	FieldsProcessed int           `json:"fields_processed"`
	Results         []fieldStatus `json:"results"`
}

type fieldStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("pdf-form-fields", pflag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	fs.StringVar(&opts.fillPath, "fill", "", "JSON file mapping field names to values")
	fs.StringVarP(&opts.outPath, "out", "o", "", "Output path for --fill (default <input>-filled.pdf)")
	fs.BoolVar(&opts.noFlatten, "no-flatten", false, "Keep the form editable after --fill")
	fs.BoolVar(&opts.text, "text", false, "Also print the text of every page")
	fs.BoolVar(&opts.countUnchecked, "count-unchecked", false, "Count unchecked checkboxes as processed")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "Log per-field details to stderr")
	fs.Usage = func() { printUsage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}

	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "Error: exactly one PDF file path required\n\n")
		printUsage(stderr, fs)
		return 2
	}
	if opts.format != "text" && opts.format != "json" {
		fmt.Fprintf(stderr, "Error: unknown format %q\n", opts.format)
		return 2
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if opts.verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}

	pdfPath := fs.Arg(0)
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if !pdf.IsPDF(data) {
		fmt.Fprintf(stderr, "Error: %s is not a PDF document\n", pdfPath)
		return 1
	}

	if opts.fillPath != "" {
		err = fillFile(pdfPath, data, opts, logger, stdout)
	} else {
		err = listFile(pdfPath, data, opts, stdout)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func listFile(pdfPath string, data []byte, opts options, w io.Writer) error {
	doc, err := pdf.Load(data, nil)
	if err != nil {
		return fmt.Errorf("failed to load PDF: %w", err)
	}

	fields := form.Discover(doc)
	result := listResult{
		FilePath:   pdfPath,
		FieldCount: len(fields),
		Fields:     fields,
	}
	if result.Fields == nil {
		result.Fields = []form.Field{}
	}

	if opts.text {
		pages, err := pdf.ExtractText(data)
		if err != nil {
			return fmt.Errorf("failed to extract text: %w", err)
		}
		result.Pages = pages
	}

	if opts.format == "json" {
		return writeJSON(w, result)
	}

	if result.FieldCount == 0 {
		fmt.Fprintf(w, "No form fields found in %s\n", pdfPath)
	} else {
		fmt.Fprintf(w, "Found %d form field(s) in %s\n\n", result.FieldCount, pdfPath)
	}
	for i, field := range result.Fields {
		fmt.Fprintf(w, "[%d] %s\n", i+1, field.Name)
		fmt.Fprintf(w, "    Type: %s\n", field.Kind)
		if field.Subtype != "" {
			fmt.Fprintf(w, "    Subtype: %s\n", field.Subtype)
		}
		if v := field.CurrentValue(); v != nil && v != "" {
			fmt.Fprintf(w, "    Value: %v\n", v)
		}
		if len(field.Options) > 0 {
			fmt.Fprintf(w, "    Options: %s\n", strings.Join(field.Options, ", "))
		}
		if field.MaxLength > 0 {
			fmt.Fprintf(w, "    Max Length: %d\n", field.MaxLength)
		}

		var props []string
		if field.ReadOnly {
			props = append(props, "read-only")
		}
		if field.Required {
			props = append(props, "required")
		}
		if len(props) > 0 {
			fmt.Fprintf(w, "    Properties: %s\n", strings.Join(props, ", "))
		}
	}

	for i, page := range result.Pages {
		fmt.Fprintf(w, "\n--- Page %d ---\n%s\n", i+1, page)
	}
	return nil
}

func fillFile(pdfPath string, data []byte, opts options, logger *logrus.Logger, w io.Writer) error {
	raw, err := os.ReadFile(opts.fillPath)
	if err != nil {
		return fmt.Errorf("failed to read values: %w", err)
	}

	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("values file must hold a JSON object: %w", err)
	}

	doc, err := pdf.Load(data, nil)
	if err != nil {
		return fmt.Errorf("failed to load PDF: %w", err)
	}

	filler := form.NewFiller(logger)
	filler.CountUnchecked = opts.countUnchecked

	var report form.Report
	if opts.noFlatten {
		report = filler.Fill(doc, values)
	} else if report, err = filler.FillAndFlatten(doc, values); err != nil {
		return fmt.Errorf("failed to flatten form: %w", err)
	}

	out, err := doc.Save()
	if err != nil {
		return fmt.Errorf("failed to save PDF: %w", err)
	}

	outPath := opts.outPath
	if outPath == "" {
		outPath = defaultOutputPath(pdfPath)
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	result := fillResult{
		FilePath:        pdfPath,
		OutputPath:      outPath,
		FieldsProcessed: report.Processed,
		Results:         make([]fieldStatus, 0, len(report.Results)),
	}
	for _, r := range report.Results {
		result.Results = append(result.Results, fieldStatus{
			Name:   r.Name,
			Status: r.Status.String(),
			Reason: r.Reason,
		})
	}

	if opts.format == "json" {
		return writeJSON(w, result)
	}

	fmt.Fprintf(w, "Filled %d of %d field(s), wrote %s\n", result.FieldsProcessed, len(values), outPath)
	for _, r := range result.Results {
		if r.Reason != "" {
			fmt.Fprintf(w, "  %-10s %s (%s)\n", r.Status, r.Name, r.Reason)
		} else {
			fmt.Fprintf(w, "  %-10s %s\n", r.Status, r.Name)
		}
	}
	return nil
}

func defaultOutputPath(pdfPath string) string {
	ext := filepath.Ext(pdfPath)
	return strings.TrimSuffix(pdfPath, ext) + "-filled.pdf"
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "PDF Form Fields - list and fill the form fields of a PDF document")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  pdf-form-fields [options] <file.pdf>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  pdf-form-fields application.pdf")
	fmt.Fprintln(w, "  pdf-form-fields --format json --text application.pdf")
	fmt.Fprintln(w, "  pdf-form-fields --fill values.json --out done.pdf application.pdf")
}
