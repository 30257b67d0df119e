// Package normalize turns loosely shaped extraction output into a fully
// populated, validated models.DocumentRecord.
//
// Normalize is a total function: every input, including null, primitives,
// arrays and deeply nested garbage, produces a record in which every declared
// field exists and is a string. Nothing here performs I/O or returns errors,
// so it is safe to call concurrently from any number of goroutines.
//
// Field rules:
//   - text fields are trimmed
//   - VINs are upper-cased and must be 17 characters of A-H, J-N, P, R-Z, 0-9
//     (ISO 3779, no I/O/Q); anything else is discarded, never corrected
//   - gross weight is upper-cased, trimmed, has "," replaced by "." and is then
//     reduced to its first numeric run
//
// The weight comma substitution happens before numeric extraction, so a
// thousands separator is read as a decimal point ("1,234.5" becomes "1.234").
// Downstream consumers may already compensate for this, so it is kept.
package normalize

import (
	"regexp"
	"strings"

	"cmrdocs/pkg/models"
)

var (
	vinPattern    = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)
	numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// Normalize maps a candidate onto a conformant DocumentRecord.
func Normalize(c Candidate) models.DocumentRecord {
	cmr := c.Field("cmr")
	inv := c.Field("invoice")

	return models.DocumentRecord{
		CMR: models.CMR{
			Exporter:      exporter(cmr.Field("exporter")),
			Importer:      importer(cmr.Field("importer")),
			GoodsName:     Text(cmr.Field("goods_name").Text()),
			VIN:           VIN(cmr.Field("vin").Text()),
			GrossWeightKg: Weight(cmr.Field("gross_weight_kg").Text()),
			LoadingPlace:  Text(cmr.Field("loading_place").Text()),
			DeliveryPlace: Text(cmr.Field("delivery_place").Text()),
			Date:          Text(cmr.Field("date").Text()),
		},
		Invoice: models.Invoice{
			Exporter:    exporter(inv.Field("exporter")),
			Importer:    importer(inv.Field("importer")),
			GoodsName:   Text(inv.Field("goods_name").Text()),
			VIN:         VIN(inv.Field("vin").Text()),
			InvoiceNo:   Text(inv.Field("invoice_no").Text()),
			InvoiceDate: Text(inv.Field("invoice_date").Text()),
			TotalAmount: Text(inv.Field("total_amount").Text()),
		},
	}
}

// NormalizeJSON decodes raw provider output and normalizes it.
// Malformed JSON normalizes to the empty record.
func NormalizeJSON(data []byte) models.DocumentRecord {
	return Normalize(FromJSON(data))
}

// NormalizeValue normalizes an in-memory value, see FromValue.
func NormalizeValue(v any) models.DocumentRecord {
	return Normalize(FromValue(v))
}

// Text trims leading and trailing whitespace.
func Text(s string) string {
	return strings.TrimSpace(s)
}

// VIN returns the upper-cased VIN, or "" if it is not a valid 17 character VIN.
func VIN(s string) string {
	v := strings.ToUpper(strings.TrimSpace(s))
	if !vinPattern.MatchString(v) {
		return ""
	}
	return v
}

// Weight returns the first numeric run of s after decimal comma substitution.
func Weight(s string) string {
	w := strings.ToUpper(strings.TrimSpace(s))
	w = strings.ReplaceAll(w, ",", ".")
	return numberPattern.FindString(w)
}

func exporter(c Candidate) models.Exporter {
	return models.Exporter{
		Name:    Text(c.Field("name").Text()),
		Address: Text(c.Field("address").Text()),
	}
}

func importer(c Candidate) models.Importer {
	return models.Importer{
		Name:    Text(c.Field("name").Text()),
		Address: Text(c.Field("address").Text()),
		ID:      Text(c.Field("id").Text()),
	}
}
