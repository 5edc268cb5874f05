// Package export writes stored zone statistics to spreadsheet files.
package export

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/damsweep/internal/model"
)

// Format is an export file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatXLSX, FormatCSV:
		return f, nil
	default:
		return "", eris.Errorf("export: unknown format %q (want xlsx or csv)", s)
	}
}

// SheetName is the worksheet holding the results in XLSX exports.
const SheetName = "zone_stats"

// header is the key column followed by the result columns.
func header() []string {
	return append([]string{"key"}, model.Columns...)
}

// Write exports rows to path in the given format.
func Write(path string, f Format, rows []model.StoredRow) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(path, rows)
	case FormatCSV:
		return WriteCSV(path, rows)
	default:
		return eris.Errorf("export: unknown format %q", f)
	}
}

// WriteXLSX writes one sheet with a header row and one row per key. A missing
// slope is left as an empty cell.
func WriteXLSX(path string, rows []model.StoredRow) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	hr := sheet.AddRow()
	for _, h := range header() {
		hr.AddCell().SetString(h)
	}

	for _, r := range rows {
		xr := sheet.AddRow()
		xr.AddCell().SetString(r.Key)
		for _, v := range r.Row.Values() {
			c := xr.AddCell()
			switch v := v.(type) {
			case int:
				c.SetInt(v)
			case float64:
				c.SetFloat(v)
			}
		}
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

// WriteCSV writes a header line and one line per key. A missing slope is an
// empty field.
func WriteCSV(path string, rows []model.StoredRow) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(header()); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, r := range rows {
		rec := []string{r.Key}
		for _, v := range r.Row.Values() {
			rec = append(rec, formatValue(v))
		}
		if err := w.Write(rec); err != nil {
			return eris.Wrapf(err, "export: write %s", r.Key)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "export: flush")
	}
	return eris.Wrap(f.Close(), "export: close")
}

func formatValue(v any) string {
	switch v := v.(type) {
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return ""
	}
}
