package reports

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/table"
	"github.com/jedib0t/go-pretty/text"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Write prints the results in order, either as tables or as JSON lines.
func Write(w io.Writer, results []*Result, format string) error {
	for i, res := range results {
		var err error
		switch format {
		case FormatTable, "":
			err = writeTable(w, i+1, res)
		case FormatJSON:
			err = writeJSON(w, res)
		default:
			return errors.Errorf("unknown output format %q", format)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func writeTable(w io.Writer, n int, res *Result) error {
	if _, err := fmt.Fprintf(w, "\n[Consulta %d: %s]\n", n, res.Report.Title); err != nil {
		return errors.Wrap(err, "write title")
	}

	if len(res.Report.Facets) == 0 {
		renderRows(w, res.Rows)
		return nil
	}

	// a $facet stage yields a single document holding one array per facet
	var doc bson.D
	if len(res.Rows) > 0 {
		doc = res.Rows[0]
	}
	for _, facet := range res.Report.Facets {
		if _, err := fmt.Fprintf(w, "%s:\n", facet); err != nil {
			return errors.Wrap(err, "write facet name")
		}
		renderRows(w, facetRows(doc, facet))
	}
	return nil
}

// facetRows extracts the rows of one facet from a $facet result document.
func facetRows(doc bson.D, facet string) []bson.D {
	rows := []bson.D{}
	for _, e := range doc {
		if e.Key != facet {
			continue
		}
		arr, ok := e.Value.(bson.A)
		if !ok {
			return rows
		}
		for _, v := range arr {
			if d, ok := v.(bson.D); ok {
				rows = append(rows, d)
			}
		}
	}
	return rows
}

func renderRows(w io.Writer, rows []bson.D) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(sem resultados)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	// Labels are already human readable.
	t.Style().Format.Header = text.FormatDefault

	header := make(table.Row, 0, len(rows[0]))
	for _, e := range rows[0] {
		header = append(header, e.Key)
	}
	t.AppendHeader(header)

	for _, doc := range rows {
		row := make(table.Row, 0, len(header))
		for _, e := range doc {
			row = append(row, FormatValue(e.Value))
		}
		t.AppendRow(row)
	}
	t.Render()
}

// FormatValue renders a decoded BSON value for the console.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case primitive.ObjectID:
		return val.Hex()
	case bson.D:
		parts := make([]string, 0, len(val))
		for _, e := range val {
			parts = append(parts, e.Key+": "+FormatValue(e.Value))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case bson.A:
		parts := make([]string, 0, len(val))
		for _, x := range val {
			parts = append(parts, FormatValue(x))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(val)
	}
}

type jsonReport struct {
	Report string          `json:"report"`
	Title  string          `json:"title"`
	Rows   json.RawMessage `json:"rows"`
}

func writeJSON(w io.Writer, res *Result) error {
	rows, err := RowsJSON(res.Rows)
	if err != nil {
		return errors.Wrapf(err, "report %s", res.Report.ID)
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return errors.Wrap(enc.Encode(jsonReport{Report: res.Report.ID, Title: res.Report.Title, Rows: rows}), "write json")
}

// RowsJSON encodes rows as a JSON array in relaxed extended JSON, keeping the
// key order of every row.
func RowsJSON(rows []bson.D) ([]byte, error) {
	var b strings.Builder
	b.WriteByte('[')
	for i, row := range rows {
		if i > 0 {
			b.WriteByte(',')
		}
		raw, err := bson.MarshalExtJSON(row, false, false)
		if err != nil {
			return nil, err
		}
		b.Write(raw)
	}
	b.WriteByte(']')
	return []byte(b.String()), nil
}
