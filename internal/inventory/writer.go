package inventory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/muurk/lanprobe/internal/discovery"
)

// Output formats accepted by New
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Formats lists the supported output formats
var Formats = []string{FormatTable, FormatJSON, FormatYAML}

// Column is one table column
type Column struct {
	Title string
	Width int
}

// Columns is the table layout shared by the table writer and the TUI
var Columns = []Column{
	{Title: "Name", Width: 15},
	{Title: "MAC ID", Width: 18},
	{Title: "Address", Width: 25},
	{Title: "In Use Address", Width: 25},
	{Title: "Status", Width: 10},
}

var headerStyle = lipgloss.NewStyle().Bold(true)

// Row is the output projection of a discovery response
type Row struct {
	Name    string `json:"name" yaml:"name"`
	MACID   string `json:"mac_id" yaml:"mac_id"`
	Address string `json:"address" yaml:"address"`
	OwnerIP string `json:"owner_ip" yaml:"owner_ip"`
	Status  string `json:"status" yaml:"status"`
}

// NewRow builds a Row from a response
func NewRow(r discovery.Response) Row {
	return Row{
		Name:    r.Record.Name,
		MACID:   r.Record.MACID,
		Address: r.SourceString(),
		OwnerIP: r.Record.OwnerIP,
		Status:  r.Record.Status,
	}
}

// Cells returns the row values in column order
func (r Row) Cells() []string {
	return []string{r.Name, r.MACID, r.Address, r.OwnerIP, r.Status}
}

// Writer consumes discovery responses
type Writer interface {
	// Header is called once before the session starts
	Header() error
	// Write is called for every response in receipt order
	Write(discovery.Response) error
	// Flush is called once after the session ends
	Flush() error
}

// New returns the writer for format
func New(format string, w io.Writer) (Writer, error) {
	switch format {
	case FormatTable, "":
		return NewTableWriter(w), nil
	case FormatJSON:
		return NewJSONWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use %s)", format, strings.Join(Formats, ", "))
	}
}

// widths measures cells the same way regardless of locale variables;
// ambiguous-width characters count as one column.
var widths = &runewidth.Condition{EastAsianWidth: false, StrictEmojiNeutral: true}

// FormatRow lays cells out in the fixed-width columns, truncating long
// values. Widths are display widths, so wide characters stay aligned.
func FormatRow(cells ...string) string {
	parts := make([]string, len(Columns))
	for i, col := range Columns {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = widths.FillRight(widths.Truncate(cell, col.Width, ""), col.Width)
	}
	return strings.Join(parts, " ")
}

// HeaderRow returns the unstyled header line
func HeaderRow() string {
	titles := make([]string, len(Columns))
	for i, col := range Columns {
		titles[i] = col.Title
	}
	return FormatRow(titles...)
}

// TableWriter streams fixed-width rows
type TableWriter struct {
	w      io.Writer
	styled bool
}

// NewTableWriter returns a table writer. The header is rendered bold when
// w is a terminal.
func NewTableWriter(w io.Writer) *TableWriter {
	return &TableWriter{w: w, styled: isTerminal(w)}
}

// Header writes the column titles
func (t *TableWriter) Header() error {
	line := HeaderRow()
	if t.styled {
		line = headerStyle.Render(line)
	}
	_, err := fmt.Fprintln(t.w, line)
	return err
}

// Write writes one row
func (t *TableWriter) Write(r discovery.Response) error {
	_, err := fmt.Fprintln(t.w, FormatRow(NewRow(r).Cells()...))
	return err
}

// Flush is a no-op; rows are written as they arrive
func (t *TableWriter) Flush() error {
	return nil
}

// JSONWriter streams one JSON object per line
type JSONWriter struct {
	enc *json.Encoder
}

// NewJSONWriter returns a JSON lines writer
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{enc: json.NewEncoder(w)}
}

// Header is a no-op
func (j *JSONWriter) Header() error {
	return nil
}

// Write encodes one row
func (j *JSONWriter) Write(r discovery.Response) error {
	if err := j.enc.Encode(NewRow(r)); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// Flush is a no-op
func (j *JSONWriter) Flush() error {
	return nil
}

// YAMLWriter collects rows and writes them as one YAML document
type YAMLWriter struct {
	w    io.Writer
	rows []Row
}

// NewYAMLWriter returns a YAML writer
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{w: w, rows: make([]Row, 0)}
}

// Header is a no-op
func (y *YAMLWriter) Header() error {
	return nil
}

// Write buffers one row
func (y *YAMLWriter) Write(r discovery.Response) error {
	y.rows = append(y.rows, NewRow(r))
	return nil
}

// Flush writes the buffered rows
func (y *YAMLWriter) Flush() error {
	enc := yaml.NewEncoder(y.w)
	enc.SetIndent(2)

	if err := enc.Encode(y.rows); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
