// Package report renders fetched signals into a static HTML dashboard and an optional RSS feed.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"os"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/umputun/signalscope/pkg/domain"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	// DefaultTitle is the dashboard heading used when Params.Title is empty
	DefaultTitle = "BuySignal AI - Reddit Buying Intent Dashboard"
	// DefaultPageSize is the number of rows the table widget shows per page
	DefaultPageSize = 20

	updatedLayout = "2006-01-02 15:04 UTC"
)

// Params configures the renderer
type Params struct {
	Title    string
	PageSize int
	Notice   string // operator-provided html, sanitized before use
}

// Renderer builds the dashboard document
type Renderer struct {
	tmpl     *template.Template
	title    string
	pageSize int
	notice   template.HTML
}

// WriteError is returned when the output file can't be written
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write report %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// pageData is passed to the report template
type pageData struct {
	Title    string
	Updated  string
	Notice   template.HTML
	Rows     []Row
	PageSize int
}

// New makes a renderer with parsed templates
func New(params Params) (*Renderer, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	res := &Renderer{tmpl: tmpl, title: params.Title, pageSize: params.PageSize}
	if res.title == "" {
		res.title = DefaultTitle
	}
	if res.pageSize <= 0 {
		res.pageSize = DefaultPageSize
	}
	if params.Notice != "" {
		res.notice = template.HTML(bluemonday.UGCPolicy().Sanitize(params.Notice)) //nolint:gosec // sanitized by bluemonday
	}
	return res, nil
}

// Rows converts signals to display rows in input order. Rows with unparsable timestamps are kept
// and reported in the log.
func Rows(signals []domain.Signal) []Row {
	rows := make([]Row, 0, len(signals))
	for i, s := range signals {
		row, err := MakeRow(s)
		if err != nil {
			log.Printf("[WARN] signal #%d %q: %v, showing raw value", i, row.Title, err)
		}
		rows = append(rows, row)
	}
	return rows
}

// Render produces the complete html document for signals, now is shown as generation time
func (r *Renderer) Render(signals []domain.Signal, now time.Time) ([]byte, error) {
	return r.RenderRows(Rows(signals), now)
}

// RenderRows produces the document from already converted rows
func (r *Renderer) RenderRows(rows []Row, now time.Time) ([]byte, error) {
	data := pageData{
		Title:    r.title,
		Updated:  now.UTC().Format(updatedLayout),
		Notice:   r.notice,
		Rows:     rows,
		PageSize: r.pageSize,
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "report.html", data); err != nil {
		return nil, fmt.Errorf("execute report template: %w", err)
	}
	return buf.Bytes(), nil
}

// Generate renders signals and writes the document to path, replacing any previous report
func (r *Renderer) Generate(path string, signals []domain.Signal, now time.Time) error {
	return r.GenerateRows(path, Rows(signals), now)
}

// GenerateRows renders rows and writes the document to path
func (r *Renderer) GenerateRows(path string, rows []Row, now time.Time) error {
	doc, err := r.RenderRows(rows, now)
	if err != nil {
		return err
	}
	if err := WriteFile(path, doc); err != nil {
		return err
	}
	log.Printf("[INFO] report with %d signals written to %s", len(rows), path)
	return nil
}

// WriteFile overwrites path with data
func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // report is a public static page
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
