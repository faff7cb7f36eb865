package extract

import (
	"regexp"
	"strings"

	"github.com/GopalDesai123/billscan/internal/models"
	"github.com/shopspring/decimal"
)

// The patterns below are coupled to the fixed print layout of the provider's
// scanned bills. A layout change does not raise errors; the affected fields
// simply come back empty. Keep every pattern in this file so a layout change
// is a one-file fix.
var (
	corporateIDRegex   = regexp.MustCompile(`ABCD\d{6}`)
	accountNumberRegex = regexp.MustCompile(`ABCD\d{6}(\d{10})`)
	primaryNumberRegex = regexp.MustCompile(`(\d{10})Php`)
	billNumberRegex    = regexp.MustCompile(`Bill no\. (\d+)`)

	// The OCR text runs the billing period and the due date together with no
	// separator: "(dd/mm/yy to dd/mm/yy)(dd/mm/yy)".
	billingDatesRegex = regexp.MustCompile(`(\d{2}/\d{2}/\d{2} to \d{2}/\d{2}/\d{2})(\d{2}/\d{2}/\d{2})`)

	subtotalRegex = regexp.MustCompile(`Subtotal Php (\d+(?:,\d{3})*(?:\.\d+)?)`)
	vatRegex      = regexp.MustCompile(`ADD % VAT \(Value Added Tax\) Php (\d+(?:,\d{3})*(?:\.\d+)?)`)
	totalRegex    = regexp.MustCompile(`Total Php (\d+(?:,\d{3})*(?:\.\d+)?)`)
)

// baseCharge is the fixed plan charge subtracted from the billed total.
var baseCharge = decimal.NewFromInt(399)

// Fields parses the raw OCR text of one bill into a BillingRecord. Each
// pattern is applied independently to the whole text; a field whose pattern
// does not match is left empty. Fields never fails, whatever the input.
func Fields(text, sourceID string) models.BillingRecord {
	record := models.BillingRecord{SourceID: sourceID}

	record.CorporateID = firstMatch(corporateIDRegex, text)
	record.AccountNumber = firstGroup(accountNumberRegex, text)
	record.PrimaryNumber = firstGroup(primaryNumberRegex, text)
	record.BillNumber = firstGroup(billNumberRegex, text)

	if m := billingDatesRegex.FindStringSubmatch(text); m != nil {
		record.BillingPeriod = m[1]
		record.DueDate = m[2]
	}

	record.Subtotal = firstGroup(subtotalRegex, text)
	record.VAT = firstGroup(vatRegex, text)
	record.Total = firstGroup(totalRegex, text)
	record.Difference = difference(record.Total)

	return record
}

// difference returns total minus the base charge, formatted to two decimal
// places. An absent or unparseable total yields an empty difference rather
// than an error.
func difference(total string) string {
	if total == "" {
		return ""
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(total, ",", ""))
	if err != nil {
		return ""
	}
	return amount.Sub(baseCharge).StringFixed(2)
}

func firstMatch(re *regexp.Regexp, text string) string {
	return re.FindString(text)
}

func firstGroup(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}
