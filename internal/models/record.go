package models

// LedgerHeader is the exact header row written once to an empty ledger. The
// last column holds the source identifier and is the dedup key.
var LedgerHeader = []string{
	"corp-id",
	"acc-no",
	"prim-no",
	"bill-no.",
	"bill-period",
	"due-date",
	"subtotal",
	"vat",
	"total",
	"Difference (Formula : total-399)",
	"filename",
}

// SourceIDColumn is the zero-based ledger column holding the source
// identifier of each appended row.
const SourceIDColumn = 10

// BillingRecord holds the fields parsed from one OCR'd bill. Every field is a
// plain string; an empty string means the pattern did not match anywhere in
// the text.
type BillingRecord struct {
	CorporateID   string `json:"corporateId"`
	AccountNumber string `json:"accountNumber"`
	PrimaryNumber string `json:"primaryNumber"`
	BillNumber    string `json:"billNumber"`
	BillingPeriod string `json:"billingPeriod"`
	DueDate       string `json:"dueDate"`
	Subtotal      string `json:"subtotal"`
	VAT           string `json:"vat"`
	Total         string `json:"total"`
	Difference    string `json:"difference"`
	SourceID      string `json:"sourceId"`
}

// Row returns the record as a ledger row in header column order.
func (r *BillingRecord) Row() []string {
	return []string{
		r.CorporateID,
		r.AccountNumber,
		r.PrimaryNumber,
		r.BillNumber,
		r.BillingPeriod,
		r.DueDate,
		r.Subtotal,
		r.VAT,
		r.Total,
		r.Difference,
		r.SourceID,
	}
}

// SourceDocument is one PDF pulled from the source folder, alive for a single
// ingestion pass.
type SourceDocument struct {
	// ID is the filename minus its extension. It is the dedup key.
	ID string
	// Name is the original object or file name, extension included.
	Name string
	// FileID is the backend handle (Drive file ID or GCS object name) used
	// to fetch the content.
	FileID string
	// ContentType as reported by the source backend.
	ContentType string
}
