package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/GopalDesai123/billscan/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(sourceID string) models.BillingRecord {
	return models.BillingRecord{
		CorporateID:   "ABCD123456",
		AccountNumber: "7890123456",
		PrimaryNumber: "9171234567",
		BillNumber:    "0045817233",
		BillingPeriod: "01/06/24 to 30/06/24",
		DueDate:       "15/07/24",
		Subtotal:      "401.79",
		VAT:           "48.21",
		Total:         "450.00",
		Difference:    "51.00",
		SourceID:      sourceID,
	}
}

func TestXLSXLedgerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	ctx := context.Background()

	led, err := NewXLSXLedger(path, "Bills")
	require.NoError(t, err)

	snap, err := led.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Empty)

	rec := testRecord("INV-2024-001")
	require.NoError(t, led.Append(ctx, models.LedgerHeader))
	require.NoError(t, led.Append(ctx, rec.Row()))
	require.NoError(t, led.Flush(ctx))
	require.NoError(t, led.Close())

	reopened, err := NewXLSXLedger(path, "Bills")
	require.NoError(t, err)
	defer reopened.Close()

	snap, err = reopened.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, snap.Empty)
	assert.True(t, snap.Processed("INV-2024-001"))
	assert.False(t, snap.Processed("INV-2024-002"))
}

func TestXLSXLedgerAppendAfterReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	ctx := context.Background()

	led, err := NewXLSXLedger(path, "Bills")
	require.NoError(t, err)
	require.NoError(t, led.Append(ctx, models.LedgerHeader))
	rec1 := testRecord("INV-1")
	require.NoError(t, led.Append(ctx, rec1.Row()))
	require.NoError(t, led.Flush(ctx))
	require.NoError(t, led.Close())

	led, err = NewXLSXLedger(path, "Bills")
	require.NoError(t, err)
	rec2 := testRecord("INV-2")
	require.NoError(t, led.Append(ctx, rec2.Row()))
	require.NoError(t, led.Flush(ctx))
	require.NoError(t, led.Close())

	// A third open sees the header and both records, in order.
	led, err = NewXLSXLedger(path, "Bills")
	require.NoError(t, err)
	defer led.Close()

	rows, err := led.file.GetRows("Bills")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, models.LedgerHeader[0], rows[0][0])
	assert.Equal(t, "INV-1", rows[1][models.SourceIDColumn])
	assert.Equal(t, "INV-2", rows[2][models.SourceIDColumn])

	snap, err := led.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Processed("INV-1"))
	assert.True(t, snap.Processed("INV-2"))
}

func TestXLSXLedgerSnapshotIgnoresShortRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	ctx := context.Background()

	led, err := NewXLSXLedger(path, "Bills")
	require.NoError(t, err)
	defer led.Close()

	require.NoError(t, led.Append(ctx, models.LedgerHeader))
	// A stray note row that never reaches the identifier column.
	require.NoError(t, led.Append(ctx, []string{"totals checked", "2024-07-01"}))
	rec := testRecord("INV-3")
	require.NoError(t, led.Append(ctx, rec.Row()))

	snap, err := led.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Processed("INV-3"))
	assert.False(t, snap.Processed("totals checked"))
}
