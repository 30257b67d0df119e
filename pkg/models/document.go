package models

// Exporter is the sending party (consignor) of a document.
type Exporter struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Importer is the receiving party (consignee) of a document.
type Importer struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	ID      string `json:"id"` // Tax or registration number
}

// CMR holds the fields of an international road consignment note.
type CMR struct {
	Exporter      Exporter `json:"exporter"`
	Importer      Importer `json:"importer"`
	GoodsName     string   `json:"goods_name"`
	VIN           string   `json:"vin"`
	GrossWeightKg string   `json:"gross_weight_kg"` // Numeric-looking string, e.g. "450.5"
	LoadingPlace  string   `json:"loading_place"`
	DeliveryPlace string   `json:"delivery_place"`
	Date          string   `json:"date"`
}

// Invoice holds the fields of a commercial invoice accompanying the shipment.
type Invoice struct {
	Exporter    Exporter `json:"exporter"`
	Importer    Importer `json:"importer"`
	GoodsName   string   `json:"goods_name"`
	VIN         string   `json:"vin"`
	InvoiceNo   string   `json:"invoice_no"`
	InvoiceDate string   `json:"invoice_date"`
	TotalAmount string   `json:"total_amount"`
}

// DocumentRecord is the canonical analysis result. Every leaf is a string;
// the empty string means the value was not found.
type DocumentRecord struct {
	CMR     CMR     `json:"cmr"`
	Invoice Invoice `json:"invoice"`
}

// Backfill copies every non-empty field of from into r where r is empty.
// Fields already set on r are never overwritten.
func (r *DocumentRecord) Backfill(from DocumentRecord) {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}

	fill(&r.CMR.Exporter.Name, from.CMR.Exporter.Name)
	fill(&r.CMR.Exporter.Address, from.CMR.Exporter.Address)
	fill(&r.CMR.Importer.Name, from.CMR.Importer.Name)
	fill(&r.CMR.Importer.Address, from.CMR.Importer.Address)
	fill(&r.CMR.Importer.ID, from.CMR.Importer.ID)
	fill(&r.CMR.GoodsName, from.CMR.GoodsName)
	fill(&r.CMR.VIN, from.CMR.VIN)
	fill(&r.CMR.GrossWeightKg, from.CMR.GrossWeightKg)
	fill(&r.CMR.LoadingPlace, from.CMR.LoadingPlace)
	fill(&r.CMR.DeliveryPlace, from.CMR.DeliveryPlace)
	fill(&r.CMR.Date, from.CMR.Date)

	fill(&r.Invoice.Exporter.Name, from.Invoice.Exporter.Name)
	fill(&r.Invoice.Exporter.Address, from.Invoice.Exporter.Address)
	fill(&r.Invoice.Importer.Name, from.Invoice.Importer.Name)
	fill(&r.Invoice.Importer.Address, from.Invoice.Importer.Address)
	fill(&r.Invoice.Importer.ID, from.Invoice.Importer.ID)
	fill(&r.Invoice.GoodsName, from.Invoice.GoodsName)
	fill(&r.Invoice.VIN, from.Invoice.VIN)
	fill(&r.Invoice.InvoiceNo, from.Invoice.InvoiceNo)
	fill(&r.Invoice.InvoiceDate, from.Invoice.InvoiceDate)
	fill(&r.Invoice.TotalAmount, from.Invoice.TotalAmount)
}

// IsEmpty reports whether no field of the record carries a value.
func (r DocumentRecord) IsEmpty() bool {
	return r == DocumentRecord{}
}
