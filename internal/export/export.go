// Package export renders tasks as JSON, CSV or a PDF report.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/nibzard/taskman/internal/todo"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

var formats = map[Format]func([]todo.Task) ([]byte, error){
	FormatJSON: todo.Encode,
	FormatCSV:  toCSV,
	FormatPDF:  toPDF,
}

// Formats lists the supported formats in sorted order.
func Formats() []Format {
	out := make([]Format, 0, len(formats))
	for f := range formats {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FormatFromPath guesses a format from a file extension. It returns "" when
// the extension is not a supported format.
func FormatFromPath(path string) Format {
	f := Format(strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")))
	if _, ok := formats[f]; !ok {
		return ""
	}
	return f
}

// Export encodes tasks in the named format. JSON output is byte-for-byte the
// data file encoding.
func Export(tasks []todo.Task, format string) ([]byte, error) {
	fn, ok := formats[Format(strings.ToLower(strings.TrimSpace(format)))]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (want json, csv or pdf)", format)
	}
	return fn(tasks)
}

var csvHeader = []string{"id", "title", "status", "created_at"}

func toCSV(tasks []todo.Task) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, t := range tasks {
		record := []string{strconv.Itoa(t.ID), t.Title, t.Status(), t.CreatedAt}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write task %d: %w", t.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Column widths in mm for the PDF table; they fill an A4 page minus margins.
var pdfColumns = []struct {
	title string
	width float64
}{
	{"ID", 15},
	{"Task", 105},
	{"Status", 25},
	{"Created", 45},
}

func toPDF(tasks []todo.Task) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Task Report", true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Task Report")
	pdf.Ln(12)

	var summary todo.Summary
	for _, t := range tasks {
		summary.Total++
		if t.Completed {
			summary.Completed++
		}
	}
	summary.Pending = summary.Total - summary.Completed
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, summary.String())
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, t := range tasks {
		if t.Completed {
			pdf.SetTextColor(136, 136, 136)
		} else {
			pdf.SetTextColor(0, 0, 0)
		}
		created := t.CreatedAt
		if len(created) > 19 {
			created = created[:19]
		}
		cells := []string{strconv.Itoa(t.ID), tr(t.Title), t.Status(), created}
		for i, col := range pdfColumns {
			pdf.CellFormat(col.width, 6, fitText(pdf, cells[i], col.width-2), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// fitText shortens s with a trailing "..." until it fits width mm.
func fitText(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
