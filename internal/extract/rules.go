package extract

import (
	"regexp"
	"strings"
)

// Field names a logical value the extractor looks for.
type Field string

const (
	FieldVIN           Field = "vin"
	FieldGrossWeight   Field = "gross"
	FieldInvoiceNo     Field = "invoiceNo"
	FieldInvoiceDate   Field = "invoiceDate"
	FieldTotal         Field = "total"
	FieldExporterName  Field = "exporterName"
	FieldImporterName  Field = "importerName"
	FieldGoodsName     Field = "goodsName"
	FieldCMRDate       Field = "cmrDate"
	FieldLoadingPlace  Field = "loadingPlace"
	FieldDeliveryPlace Field = "deliveryPlace"
)

// Order is the sequence in which FromText evaluates fields.
var Order = []Field{
	FieldVIN,
	FieldGrossWeight,
	FieldInvoiceNo,
	FieldInvoiceDate,
	FieldTotal,
	FieldExporterName,
	FieldImporterName,
	FieldGoodsName,
	FieldCMRDate,
	FieldLoadingPlace,
	FieldDeliveryPlace,
}

// Rule is one candidate pattern for a field. Group selects the capture
// group holding the value.
type Rule struct {
	Pattern *regexp.Regexp
	Group   int
}

func rule(expr string) Rule {
	return Rule{Pattern: regexp.MustCompile(expr), Group: 1}
}

const (
	// dd.mm.yyyy, dd/mm/yy, dd-mm-yyyy or yyyy-mm-dd with any of the three separators
	datePart = `(\d{1,2}[./\-]\d{1,2}[./\-]\d{2,4}|\d{4}[./\-]\d{1,2}[./\-]\d{1,2})\b`

	// decimal amount with "," or "." separators, e.g. 12,500.00 or 1.234,56
	amountPart   = `(\d+(?:[.,]\d+)*)`
	currencyPart = `(?:eur|usd|gbp|pln|chf|€|\$|£)?`
	weightPart   = `(\d+(?:[.,]\d+)?)`

	// label separator followed by the rest of the same line
	linePart = `(?:[ \t]*:[ \t]*|[ \t]+)(\S[^\n]{2,119})`

	// optional "name" caption after a party label, as in "Exporter name:"
	namePart = `(?:[ \t]*name\b)?`

	referencePart = `([A-Z0-9][A-Z0-9\-/]{0,30})`
)

// Rules holds the ordered patterns per field. Evaluation is first match wins,
// so more specific (labeled) patterns come first.
var Rules = map[Field][]Rule{
	FieldVIN: {
		rule(`(?i)\bVIN\b(?:\s*(?:no|nr|number|code)\.?)?\s*[:#\-]?\s*([A-HJ-NPR-Z0-9]{17})\b`),
		rule(`\b([A-HJ-NPR-Z0-9]{17})\b`),
	},
	FieldGrossWeight: {
		rule(`(?i)\bgross\s*(?:weight|wt\.?|mass)\s*(?:\(?\s*kgs?\s*\)?)?\s*[:\-]?\s*` + weightPart),
		rule(`(?i)\b(?:brutto(?:gewicht)?|weight)\s*(?:\(?\s*kgs?\s*\)?)?\s*[:\-]?\s*` + weightPart),
		rule(`(?i)` + weightPart + `\s*kgs?\b`),
	},
	FieldInvoiceNo: {
		rule(`(?i)\binvoice\s*(?:number|no\b|nr\b|#)\.?\s*[:#]?\s*` + referencePart),
		rule(`(?i)\b(?:rechnungs?(?:nummer|[\s\-]*nr\.?)|faktura\s*(?:nr|no)\.?|inv\.?\s*(?:no|nr|#))\s*[:#]?\s*` + referencePart),
		rule(`(?i)\binvoice\s*[:#]\s*` + referencePart),
	},
	FieldInvoiceDate: {
		rule(`(?i)\binvoice\s*date\s*[:\-]?\s*` + datePart),
		rule(`(?i)\b(?:date\s*of\s*invoice|rechnungsdatum|data\s*faktury)\s*[:\-]?\s*` + datePart),
		rule(`(?i)\bdated?\b\s*[:\-]?\s*` + datePart),
	},
	FieldTotal: {
		rule(`(?i)\b(?:grand\s*)?total\s*(?:amount|due|sum|value)?\s*(?:\(\s*[a-z]{3}\s*\))?\s*[:\-]?\s*` + currencyPart + `\s*` + amountPart),
		rule(`(?i)\b(?:amount\s*due|invoice\s*amount|gesamtbetrag|endbetrag|summe|kwota)\s*[:\-]?\s*` + currencyPart + `\s*` + amountPart),
	},
	FieldExporterName: {
		rule(`(?i)\bexporter\b` + namePart + linePart),
		rule(`(?i)\bconsignor\b` + namePart + linePart),
		rule(`(?i)\bsender\b` + namePart + linePart),
		rule(`(?i)\b(?:shipper|seller|absender|nadawca)\b` + namePart + linePart),
	},
	FieldImporterName: {
		rule(`(?i)\bimporter\b` + namePart + linePart),
		rule(`(?i)\bconsignee\b` + namePart + linePart),
		rule(`(?i)\breceiver\b` + namePart + linePart),
		rule(`(?i)\b(?:buyer|empfänger|odbiorca)` + namePart + linePart),
	},
	FieldGoodsName: {
		rule(`(?i)\bdescription\s*of\s*(?:the\s*)?goods\b` + linePart),
		rule(`(?i)\bnature\s*of\s*(?:the\s*)?goods\b` + linePart),
		rule(`(?i)\bgoods\s*(?:description|name)\b` + linePart),
		rule(`(?i)\b(?:commodity|product|warenbezeichnung)\b` + linePart),
		rule(`(?i)\bgoods\b` + linePart),
	},
	FieldCMRDate: {
		rule(`(?i)\bcmr\s*date\s*[:\-]?\s*` + datePart),
		rule(`(?i)\b(?:date\s*of\s*(?:issue|loading|taking\s*over)|established\s*on|issued\s*on)\s*[:\-]?\s*` + datePart),
		rule(`(?i)\bdate\b\s*[:\-]?\s*` + datePart),
	},
	FieldLoadingPlace: {
		rule(`(?i)\bplace\s*of\s*loading\b` + linePart),
		rule(`(?i)\bloading\s*place\b` + linePart),
		rule(`(?i)\bplace\s*(?:and\s*date\s*)?of\s*taking\s*over(?:\s*(?:of\s*)?the\s*goods)?\b` + linePart),
		rule(`(?i)\b(?:loaded\s*(?:at|in)|beladeort|loading)\b` + linePart),
	},
	FieldDeliveryPlace: {
		rule(`(?i)\bplace\s*of\s*delivery\b` + linePart),
		rule(`(?i)\bdelivery\s*place\b` + linePart),
		rule(`(?i)\bplace\s*designated\s*for\s*delivery(?:\s*of\s*(?:the\s*)?goods)?\b` + linePart),
		rule(`(?i)\b(?:destination|delivery\s*(?:address|to)|deliver\s*to|entladeort)\b` + linePart),
	},
}

// cleaners post-process a matched value before it is returned.
var cleaners = map[Field]func(string) string{
	FieldGrossWeight: func(v string) string {
		return strings.ReplaceAll(v, ",", ".")
	},
}
