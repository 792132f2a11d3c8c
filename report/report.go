// Package report renders ticket lists as text. Rendering is pure: the same
// tickets and type always give the same bytes.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/tulinowpavel/ticketgate"
)

const (
	TypeSummary = "summary"
	TypeCSV     = "csv"
	TypeHTML    = "html"
)

// Ticket is a backend ticket as decoded JSON. Numbers are json.Number so they
// print exactly as the backend sent them.
type Ticket map[string]any

type Options struct {
	// Extended adds the assigned_to column to CSV reports.
	Extended bool
}

var (
	csvColumns         = []string{"rfc_number", "title", "status", "priority", "category"}
	csvExtendedColumns = append(slices.Clone(csvColumns), "assigned_to")
	types              = []string{TypeSummary, TypeCSV, TypeHTML}
)

func Types() []string {
	return slices.Clone(types)
}

func Supported(reportType string) bool {
	return slices.Contains(types, reportType)
}

// Render returns a *ticketgate.UnsupportedValueError for unknown report types.
func Render(reportType string, tickets []Ticket, opts Options) (string, error) {
	switch reportType {
	case TypeSummary:
		return renderSummary(tickets), nil
	case TypeCSV:
		columns := csvColumns
		if opts.Extended {
			columns = csvExtendedColumns
		}
		return renderCSV(tickets, columns)
	case TypeHTML:
		return renderHTML(tickets), nil
	default:
		return "", &ticketgate.UnsupportedValueError{Field: "report type", Value: reportType}
	}
}

// Decode turns raw backend tickets into report rows.
func Decode(raw []json.RawMessage) ([]Ticket, error) {
	tickets := make([]Ticket, 0, len(raw))

	for i, item := range raw {
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()

		t := Ticket{}
		if err := dec.Decode(&t); err != nil {
			return nil, fmt.Errorf("failed to decode ticket %d: %w", i, err)
		}
		tickets = append(tickets, t)
	}

	return tickets, nil
}

func renderSummary(tickets []Ticket) string {
	lines := make([]string, len(tickets))
	for i, t := range tickets {
		lines[i] = fmt.Sprintf("Ticket %s: %s (%s)", t.Field("rfc_number"), t.Field("title"), t.Field("status"))
	}
	return strings.Join(lines, "\n")
}

func renderCSV(tickets []Ticket, columns []string) (string, error) {
	buf := bytes.Buffer{}

	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	if err := w.Write(columns); err != nil {
		return "", fmt.Errorf("failed to write csv header: %w", err)
	}

	row := make([]string, len(columns))
	for _, t := range tickets {
		for i, column := range columns {
			row[i] = t.Field(column)
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}

	return buf.String(), nil
}

// renderHTML does not escape field values.
func renderHTML(tickets []Ticket) string {
	sb := strings.Builder{}

	sb.WriteString("<html><body><table border='1'><tr><th>RFC</th><th>Title</th><th>Status</th></tr>")
	for _, t := range tickets {
		sb.WriteString("<tr><td>")
		sb.WriteString(t.Field("rfc_number"))
		sb.WriteString("</td><td>")
		sb.WriteString(t.Field("title"))
		sb.WriteString("</td><td>")
		sb.WriteString(t.Field("status"))
		sb.WriteString("</td></tr>")
	}
	sb.WriteString("</table></body></html>")

	return sb.String()
}

// Field renders one value as text; missing and null values are empty.
func (t Ticket) Field(name string) string {
	switch v := t[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool, float64, int, int64:
		return fmt.Sprint(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
