package services

import (
	"context"
	"fmt"

	"github.com/GopalDesai123/billscan/internal/models"
	"github.com/cockroachdb/errors"
	"google.golang.org/api/sheets/v4"
)

// SheetsLedger appends billing records to a Google Sheet. Values.Append
// commits server-side before returning, so Flush has nothing left to do.
type SheetsLedger struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetsLedger creates a new SheetsLedger instance.
func NewSheetsLedger(svc *sheets.Service, spreadsheetID, sheetName string) *SheetsLedger {
	return &SheetsLedger{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

// Snapshot reads the whole sheet once and projects the source identifier
// column. Rows too short to carry that column are ignored.
func (l *SheetsLedger) Snapshot(ctx context.Context) (*LedgerSnapshot, error) {
	resp, err := l.svc.Spreadsheets.Values.Get(l.spreadsheetID, l.sheetName).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", l.sheetName)
	}

	empty := len(resp.Values) == 0
	var ids []string
	for i, row := range resp.Values {
		if i == 0 {
			continue // header row
		}
		if len(row) <= models.SourceIDColumn {
			continue
		}
		ids = append(ids, fmt.Sprint(row[models.SourceIDColumn]))
	}
	return NewLedgerSnapshot(ids, empty), nil
}

// Append adds one row after the last row of the sheet.
func (l *SheetsLedger) Append(ctx context.Context, row []string) error {
	values := make([]interface{}, len(row))
	for i, cell := range row {
		values[i] = cell
	}
	valueRange := &sheets.ValueRange{Values: [][]interface{}{values}}
	_, err := l.svc.Spreadsheets.Values.
		Append(l.spreadsheetID, l.sheetName, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return errors.Wrapf(err, "failed to append to sheet %s", l.sheetName)
	}
	return nil
}

// Flush is a no-op. Each Append is durable once the call returns.
func (l *SheetsLedger) Flush(ctx context.Context) error {
	return nil
}
