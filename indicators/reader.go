package indicators

import (
	"os"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// ReadSheet loads the first worksheet of an xlsx file and drops the first
// skipRows rows (titles and multi-line headers). Cells are returned raw, so
// numbers come back unformatted ("7.4", not "7,4").
func ReadSheet(path string, skipRows int) ([][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "indicator table %s", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.Errorf("%s has no worksheets", path)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q of %s", sheet, path)
	}

	if skipRows >= len(rows) {
		return [][]string{}, nil
	}
	return rows[skipRows:], nil
}
