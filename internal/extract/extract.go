// Package extract pulls best-effort field values out of raw document text,
// typically OCR output, by scanning for labeled fields.
//
// Each field has an ordered list of rules (see Rules); the first rule that
// matches wins and its capture group, trimmed, becomes the value. A field no
// rule matches is nil, which keeps "the extractor found nothing" distinct from
// the empty string the normalizer substitutes later. Extraction output makes
// no promise about nested completeness and is meant to go through
// normalize.Normalize before it is used.
//
// All functions are pure and safe for concurrent use.
package extract

import (
	"regexp"
	"strings"
)

var (
	lineEndings   = regexp.MustCompile(`\r\n?`)
	horizontalWS  = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	extraNewlines = regexp.MustCompile(`\n{3,}`)
)

// Fields is the partial record produced from text. Nil means no match.
type Fields struct {
	VIN           *string `json:"vin"`
	Gross         *string `json:"gross"`
	InvoiceNo     *string `json:"invoiceNo"`
	InvoiceDate   *string `json:"invoiceDate"`
	Total         *string `json:"total"`
	ExporterName  *string `json:"exporterName"`
	ImporterName  *string `json:"importerName"`
	GoodsName     *string `json:"goodsName"`
	CMRDate       *string `json:"cmrDate"`
	LoadingPlace  *string `json:"loadingPlace"`
	DeliveryPlace *string `json:"deliveryPlace"`
}

// Preprocess normalizes line endings to "\n", collapses horizontal
// whitespace runs to one space and 3+ newlines to two, then trims.
func Preprocess(raw string) string {
	text := lineEndings.ReplaceAllString(raw, "\n")
	text = horizontalWS.ReplaceAllString(text, " ")
	text = extraNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// FromText preprocesses raw once and runs every field's rules against it.
func FromText(raw string) Fields {
	text := Preprocess(raw)

	var out Fields
	for _, field := range Order {
		*out.slot(field) = Match(field, text)
	}
	return out
}

// Match runs the rules of field against already preprocessed text.
func Match(field Field, text string) *string {
	value := MatchRules(Rules[field], text)
	if value == nil {
		return nil
	}
	if clean, ok := cleaners[field]; ok {
		cleaned := clean(*value)
		return &cleaned
	}
	return value
}

// MatchRules evaluates rules in order and returns the first non-empty
// trimmed capture, or nil.
func MatchRules(rules []Rule, text string) *string {
	for _, r := range rules {
		m := r.Pattern.FindStringSubmatch(text)
		if len(m) <= r.Group {
			continue
		}
		if v := strings.TrimSpace(m[r.Group]); v != "" {
			return &v
		}
	}
	return nil
}

// Get returns the value of field, or nil.
func (f Fields) Get(field Field) *string {
	return *f.slot(field)
}

// Found lists the fields that matched, in evaluation order.
func (f Fields) Found() []Field {
	var found []Field
	for _, field := range Order {
		if f.Get(field) != nil {
			found = append(found, field)
		}
	}
	return found
}

// Tree arranges the values in the candidate record shape. Unmatched fields
// are nil. Party names, goods and VIN are shared by both sections.
func (f Fields) Tree() map[string]any {
	return map[string]any{
		"cmr": map[string]any{
			"exporter":        map[string]any{"name": value(f.ExporterName)},
			"importer":        map[string]any{"name": value(f.ImporterName)},
			"goods_name":      value(f.GoodsName),
			"vin":             value(f.VIN),
			"gross_weight_kg": value(f.Gross),
			"loading_place":   value(f.LoadingPlace),
			"delivery_place":  value(f.DeliveryPlace),
			"date":            value(f.CMRDate),
		},
		"invoice": map[string]any{
			"exporter":     map[string]any{"name": value(f.ExporterName)},
			"importer":     map[string]any{"name": value(f.ImporterName)},
			"goods_name":   value(f.GoodsName),
			"vin":          value(f.VIN),
			"invoice_no":   value(f.InvoiceNo),
			"invoice_date": value(f.InvoiceDate),
			"total_amount": value(f.Total),
		},
	}
}

func (f *Fields) slot(field Field) **string {
	switch field {
	case FieldVIN:
		return &f.VIN
	case FieldGrossWeight:
		return &f.Gross
	case FieldInvoiceNo:
		return &f.InvoiceNo
	case FieldInvoiceDate:
		return &f.InvoiceDate
	case FieldTotal:
		return &f.Total
	case FieldExporterName:
		return &f.ExporterName
	case FieldImporterName:
		return &f.ImporterName
	case FieldGoodsName:
		return &f.GoodsName
	case FieldCMRDate:
		return &f.CMRDate
	case FieldLoadingPlace:
		return &f.LoadingPlace
	case FieldDeliveryPlace:
		return &f.DeliveryPlace
	}
	var discard *string
	return &discard
}

func value(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
