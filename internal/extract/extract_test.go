package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"horizontal runs", "a \t  b  c", "a b c"},
		{"blank lines", "a\n\n\n\n\nb", "a\n\nb"},
		{"two newlines kept", "a\n\nb", "a\n\nb"},
		{"trim", "  \n x \n  ", "x"},
		{"crlf blank lines", "a\r\n\r\n\r\nb", "a\n\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preprocess(tt.in))
		})
	}
}

func TestFromText_EndToEndFields(t *testing.T) {
	f := FromText("Exporter: ACME LLC\nVIN: 1M8GDM9AXKP042788\nGross weight: 450,5 kg")

	require.NotNil(t, f.ExporterName)
	require.NotNil(t, f.VIN)
	require.NotNil(t, f.Gross)
	assert.Equal(t, "ACME LLC", *f.ExporterName)
	assert.Equal(t, "1M8GDM9AXKP042788", *f.VIN)
	assert.Equal(t, "450.5", *f.Gross)

	assert.Nil(t, f.ImporterName)
	assert.Nil(t, f.InvoiceNo)
	assert.Nil(t, f.Total)
}

func TestFromText_NoMatchIsNil(t *testing.T) {
	f := FromText("no relevant content")

	for _, field := range Order {
		assert.Nil(t, f.Get(field), string(field))
	}
	assert.Empty(t, f.Found())
}

func TestFromText_LabeledVINWins(t *testing.T) {
	text := "Chassis ref 1HGCM82633A004352\nOther data\nVIN: 1M8GDM9AXKP042788"

	f := FromText(text)

	require.NotNil(t, f.VIN)
	assert.Equal(t, "1M8GDM9AXKP042788", *f.VIN)
}

func TestFromText_BareVINFallback(t *testing.T) {
	f := FromText("Vehicle 1HGCM82633A004352 loaded")

	require.NotNil(t, f.VIN)
	assert.Equal(t, "1HGCM82633A004352", *f.VIN)
}

func TestVINRules(t *testing.T) {
	rules := Rules[FieldVIN]

	tests := []struct {
		name string
		text string
		want string
	}{
		{"colon", "VIN: WVWZZZ1JZXW000001", "WVWZZZ1JZXW000001"},
		{"number label", "VIN No. WVWZZZ1JZXW000001", "WVWZZZ1JZXW000001"},
		{"next line", "VIN\nWVWZZZ1JZXW000001", "WVWZZZ1JZXW000001"},
		{"lower case label", "vin# WVWZZZ1JZXW000001", "WVWZZZ1JZXW000001"},
		{"too long run", "VIN: WVWZZZ1JZXW0000011", ""},
		{"contains O", "VIN: WVWZZZ1JZXWO00001", ""},
		{"inside word", "PROVINCE", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchRules(rules, tt.text)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestFieldRules(t *testing.T) {
	tests := []struct {
		field Field
		text  string
		want  string
	}{
		{FieldGrossWeight, "Gross weight (kg): 1200", "1200"},
		{FieldGrossWeight, "GROSS WT. 980.75", "980.75"},
		{FieldGrossWeight, "Bruttogewicht: 3400,5", "3400.5"},
		{FieldGrossWeight, "12 pallets, 3400 kgs", "3400"},
		{FieldGrossWeight, "Net 400\nWeight: 410,2", "410.2"},

		{FieldInvoiceNo, "Invoice No.: INV-2024/017", "INV-2024/017"},
		{FieldInvoiceNo, "INVOICE NUMBER 88123", "88123"},
		{FieldInvoiceNo, "Invoice # 5", "5"},
		{FieldInvoiceNo, "Rechnungsnummer: R-77", "R-77"},
		{FieldInvoiceNo, "Faktura nr 12/2024", "12/2024"},
		{FieldInvoiceNo, "Invoice: A-991", "A-991"},

		{FieldInvoiceDate, "Invoice date: 01/02/2024", "01/02/2024"},
		{FieldInvoiceDate, "INVOICE DATE 2024-02-01", "2024-02-01"},
		{FieldInvoiceDate, "Rechnungsdatum: 1.2.24", "1.2.24"},
		{FieldInvoiceDate, "Dated 03-04-2023", "03-04-2023"},

		{FieldTotal, "Total amount: EUR 12,500.00", "12,500.00"},
		{FieldTotal, "TOTAL: 1.234,56 €", "1.234,56"},
		{FieldTotal, "Grand total (USD) 99.90", "99.90"},
		{FieldTotal, "Amount due: $ 450", "450"},

		{FieldExporterName, "Exporter: ACME LLC", "ACME LLC"},
		{FieldExporterName, "Consignor Nordic Cars AB", "Nordic Cars AB"},
		{FieldExporterName, "Exporter name: ACME LLC", "ACME LLC"},
		{FieldExporterName, "Exporter Namely Holdings", "Namely Holdings"},
		{FieldExporterName, "Sender: Auto Export GmbH ", "Auto Export GmbH"},
		{FieldExporterName, "Shipper: Baltic Motors", "Baltic Motors"},

		{FieldImporterName, "Importer: Beta Trade Sp. z o.o.", "Beta Trade Sp. z o.o."},
		{FieldImporterName, "Consignee: Tbilisi Auto LLC", "Tbilisi Auto LLC"},
		{FieldImporterName, "Receiver Kaspi Motors", "Kaspi Motors"},
		{FieldImporterName, "Consignee name: Tbilisi Auto LLC", "Tbilisi Auto LLC"},

		{FieldGoodsName, "Description of goods: Used passenger car", "Used passenger car"},
		{FieldGoodsName, "Nature of the goods: Spare parts", "Spare parts"},
		{FieldGoodsName, "Goods: Toyota Camry 2018", "Toyota Camry 2018"},

		{FieldCMRDate, "CMR date: 05.03.2024", "05.03.2024"},
		{FieldCMRDate, "Established on 2024/03/05", "2024/03/05"},
		{FieldCMRDate, "Date: 5-3-24", "5-3-24"},

		{FieldLoadingPlace, "Place of loading: Hamburg, DE", "Hamburg, DE"},
		{FieldLoadingPlace, "Place and date of taking over the goods: Bremen", "Bremen"},
		{FieldLoadingPlace, "Loaded at: Antwerp port", "Antwerp port"},

		{FieldDeliveryPlace, "Place of delivery: Warsaw, PL", "Warsaw, PL"},
		{FieldDeliveryPlace, "Place designated for delivery of the goods: Tbilisi", "Tbilisi"},
		{FieldDeliveryPlace, "Destination: Baku", "Baku"},
	}

	for _, tt := range tests {
		t.Run(string(tt.field)+"/"+tt.text, func(t *testing.T) {
			got := Match(tt.field, Preprocess(tt.text))
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestPartyRules_LengthBounds(t *testing.T) {
	assert.Nil(t, Match(FieldExporterName, "Exporter: AB"), "values under three characters are ignored")

	long := "Exporter: "
	for i := 0; i < 30; i++ {
		long += "ACME "
	}
	got := Match(FieldExporterName, Preprocess(long))
	require.NotNil(t, got)
	assert.LessOrEqual(t, len(*got), 120)
}

func TestLineRules_StayOnLabelLine(t *testing.T) {
	f := FromText("Exporter:\n\nVIN: 1M8GDM9AXKP042788")

	assert.Nil(t, f.ExporterName)
	require.NotNil(t, f.VIN)
	assert.Equal(t, "1M8GDM9AXKP042788", *f.VIN)

	assert.Nil(t, Match(FieldImporterName, Preprocess("Receiver\nKaspi Motors")))
	assert.Nil(t, Match(FieldLoadingPlace, Preprocess("Place of loading:\nGross weight: 450 kg")))
}

func TestDateRules_RejectTrailingDigits(t *testing.T) {
	assert.Nil(t, Match(FieldCMRDate, Preprocess("CMR date: 12.03.20245")))
	assert.Nil(t, Match(FieldInvoiceDate, Preprocess("Invoice date: 2024-03-051")))

	got := Match(FieldCMRDate, Preprocess("CMR date: 12.03.2024."))
	require.NotNil(t, got)
	assert.Equal(t, "12.03.2024", *got)
}

func TestRulePrecedence(t *testing.T) {
	text := Preprocess("Sender: Second Choice\nExporter: First Choice")

	got := Match(FieldExporterName, text)

	require.NotNil(t, got)
	assert.Equal(t, "First Choice", *got, "exporter label is tried before sender")
}

func TestFields_Tree(t *testing.T) {
	f := FromText("Exporter: ACME LLC\nInvoice No: INV-7\nGross weight: 450,5 kg")
	tree := f.Tree()

	cmr := tree["cmr"].(map[string]any)
	inv := tree["invoice"].(map[string]any)

	assert.Equal(t, "ACME LLC", cmr["exporter"].(map[string]any)["name"])
	assert.Equal(t, "ACME LLC", inv["exporter"].(map[string]any)["name"])
	assert.Equal(t, "450.5", cmr["gross_weight_kg"])
	assert.Equal(t, "INV-7", inv["invoice_no"])
	assert.Nil(t, cmr["vin"])
	assert.Nil(t, inv["total_amount"])
}

func TestFields_Found(t *testing.T) {
	f := FromText("VIN: 1M8GDM9AXKP042788\nConsignee: Beta")

	assert.Equal(t, []Field{FieldVIN, FieldImporterName}, f.Found())
}

func TestRules_Declared(t *testing.T) {
	for _, field := range Order {
		rules, ok := Rules[field]
		require.True(t, ok, string(field))
		require.NotEmpty(t, rules, string(field))
		for _, r := range rules {
			assert.GreaterOrEqual(t, r.Pattern.NumSubexp(), r.Group, string(field))
		}
	}
}
