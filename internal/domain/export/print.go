package export

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

// DefaultTitle is the heading of generated documents.
const DefaultTitle = "Raw Material Requirements Report"

//go:embed templates/*.html
var templateFS embed.FS

var printTemplate = template.Must(template.ParseFS(templateFS, "templates/print.html"))

type printData struct {
	Title string
	Meta  Meta
	Table *Table
}

// WritePrintHTML renders a print-ready HTML document of the table.
// A summary line is added when the table holds more than one row.
func WritePrintHTML(w io.Writer, table *Table, meta Meta, title string) error {
	if table == nil || table.Len() == 0 {
		return errEmpty()
	}
	if title == "" {
		title = DefaultTitle
	}
	if err := printTemplate.Execute(w, printData{Title: title, Meta: meta, Table: table}); err != nil {
		return fmt.Errorf("render print document: %w", err)
	}
	return nil
}
