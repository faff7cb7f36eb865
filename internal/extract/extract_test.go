package extract

import (
	"testing"

	"github.com/GopalDesai123/billscan/internal/models"
	"github.com/stretchr/testify/assert"
)

const sampleBillText = `GLOBE TELECOM INC.
Account Summary
Customer Account No. ABCD1234567890123456
Mobile Number 9171234567Php 0.00
Bill no. 0045817233
Billing Period Due Date01/06/24 to 30/06/2415/07/24
Monthly Plan Charges
Subtotal Php 401.79
ADD % VAT (Value Added Tax) Php 48.21
Total Php 450.00
`

func TestFields(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.BillingRecord
	}{
		{
			name: "full bill",
			text: sampleBillText,
			want: models.BillingRecord{
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
				SourceID:      "INV-2024-001",
			},
		},
		{
			name: "empty text",
			text: "",
			want: models.BillingRecord{SourceID: "INV-2024-001"},
		},
		{
			name: "unrelated text",
			text: "this scan contains no recognizable bill fields at all",
			want: models.BillingRecord{SourceID: "INV-2024-001"},
		},
		{
			name: "account number only",
			text: "ref ABCD6543217890123456 end",
			want: models.BillingRecord{
				CorporateID:   "ABCD654321",
				AccountNumber: "7890123456",
				SourceID:      "INV-2024-001",
			},
		},
		{
			name: "missing total leaves difference empty",
			text: "Subtotal Php 401.79\nADD % VAT (Value Added Tax) Php 48.21\n",
			want: models.BillingRecord{
				Subtotal:   "401.79",
				VAT:        "48.21",
				SourceID:   "INV-2024-001",
				Total:      "",
				Difference: "",
			},
		},
		{
			name: "thousands separators in amounts",
			text: "Subtotal Php 1,101.79\nADD % VAT (Value Added Tax) Php 132.21\nTotal Php 1,234.00\n",
			want: models.BillingRecord{
				Subtotal:   "1,101.79",
				VAT:        "132.21",
				Total:      "1,234.00",
				Difference: "835.00",
				SourceID:   "INV-2024-001",
			},
		},
		{
			name: "total below base charge goes negative",
			text: "Total Php 350.50\n",
			want: models.BillingRecord{
				Total:      "350.50",
				Difference: "-48.50",
				SourceID:   "INV-2024-001",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fields(tt.text, "INV-2024-001")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldsNeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"Php",
		"Total Php ",
		"ABCD",
		"Bill no. ",
		"01/06/24 to 30/06/24",
		string([]byte{0xff, 0xfe, 0x00}),
	}
	for _, text := range inputs {
		assert.NotPanics(t, func() {
			record := Fields(text, "scan")
			assert.Equal(t, "scan", record.SourceID)
		})
	}
}

func TestDifference(t *testing.T) {
	tests := []struct {
		name  string
		total string
		want  string
	}{
		{name: "round total", total: "450.00", want: "51.00"},
		{name: "integer total", total: "450", want: "51.00"},
		{name: "comma grouped total", total: "1,399.00", want: "1000.00"},
		{name: "empty total", total: "", want: ""},
		{name: "garbled total", total: "4SO.OO", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, difference(tt.total))
		})
	}
}
