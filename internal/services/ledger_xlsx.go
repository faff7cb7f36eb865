package services

import (
	"context"
	"os"

	"github.com/GopalDesai123/billscan/internal/models"
	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"
)

// XLSXLedger appends billing records to a local xlsx workbook. It serves
// offline runs on a single host and doubles as the reference ledger in tests.
type XLSXLedger struct {
	file    *excelize.File
	path    string
	sheet   string
	nextRow int
}

// NewXLSXLedger opens the workbook at path, creating the file and the sheet
// when missing.
func NewXLSXLedger(path, sheet string) (*XLSXLedger, error) {
	var file *excelize.File
	if _, err := os.Stat(path); err == nil {
		file, err = excelize.OpenFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open workbook %s", path)
		}
	} else if os.IsNotExist(err) {
		file = excelize.NewFile()
	} else {
		return nil, errors.Wrapf(err, "failed to stat workbook %s", path)
	}

	idx, err := file.GetSheetIndex(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to look up sheet %s", sheet)
	}
	if idx < 0 {
		if _, err := file.NewSheet(sheet); err != nil {
			return nil, errors.Wrapf(err, "failed to create sheet %s", sheet)
		}
	}

	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheet)
	}

	return &XLSXLedger{
		file:    file,
		path:    path,
		sheet:   sheet,
		nextRow: len(rows) + 1,
	}, nil
}

// Snapshot reads the whole sheet once and projects the source identifier
// column. Rows too short to carry that column are ignored.
func (l *XLSXLedger) Snapshot(ctx context.Context) (*LedgerSnapshot, error) {
	rows, err := l.file.GetRows(l.sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", l.sheet)
	}

	empty := len(rows) == 0
	var ids []string
	for i, row := range rows {
		if i == 0 {
			continue // header row
		}
		if len(row) <= models.SourceIDColumn {
			continue
		}
		ids = append(ids, row[models.SourceIDColumn])
	}
	return NewLedgerSnapshot(ids, empty), nil
}

// Append writes one row below the current last row.
func (l *XLSXLedger) Append(ctx context.Context, row []string) error {
	values := make([]interface{}, len(row))
	for i, cell := range row {
		values[i] = cell
	}
	cell, err := excelize.CoordinatesToCellName(1, l.nextRow)
	if err != nil {
		return errors.Wrapf(err, "failed to address row %d", l.nextRow)
	}
	if err := l.file.SetSheetRow(l.sheet, cell, &values); err != nil {
		return errors.Wrapf(err, "failed to write row %d", l.nextRow)
	}
	l.nextRow++
	return nil
}

// Flush saves the workbook to disk, making every appended row durable.
func (l *XLSXLedger) Flush(ctx context.Context) error {
	if err := l.file.SaveAs(l.path); err != nil {
		return errors.Wrapf(err, "failed to save workbook %s", l.path)
	}
	return nil
}

// Close releases the workbook handle.
func (l *XLSXLedger) Close() error {
	return l.file.Close()
}
