// Package mapper turns an analyzed-document result into a receipt record.
// The mapping is a pure function: no I/O, no shared state, and it never
// fails — extraction ambiguity degrades to absent fields.
package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/docufield/receipt-lens/internal/docintel"
	"github.com/docufield/receipt-lens/internal/entity"
)

// Default thresholds. High and medium drive the document classification,
// min-field gates every extracted scalar. Medium and min-field are distinct
// knobs on purpose: tuning one must not move the other.
const (
	DefaultHighConfidence     = 0.85
	DefaultMediumConfidence   = 0.70
	DefaultMinFieldConfidence = 0.60

	DefaultProvider = "document-intelligence"
)

// Receipt field names as emitted by the prebuilt receipt model.
const (
	fieldMerchantName    = "MerchantName"
	fieldMerchantAddress = "MerchantAddress"
	fieldMerchantPhone   = "MerchantPhoneNumber"
	fieldTransactionDate = "TransactionDate"
	fieldTransactionTime = "TransactionTime"
	fieldSubtotal        = "Subtotal"
	fieldTax             = "TotalTax"
	fieldTotal           = "Total"
	fieldItems           = "Items"

	itemDescription = "Description"
	itemQuantity    = "Quantity"
	itemPrice       = "Price"
	itemTotalPrice  = "TotalPrice"
)

// Config tunes the mapper thresholds. Zero values fall back to the defaults,
// so Config{} reproduces the stock behavior.
type Config struct {
	HighConfidence     float64
	MediumConfidence   float64
	MinFieldConfidence float64
	Provider           string
}

// Mapper maps analyze results to receipt records.
type Mapper struct {
	cfg Config
}

func New(cfg Config) *Mapper {
	if cfg.HighConfidence <= 0 {
		cfg.HighConfidence = DefaultHighConfidence
	}
	if cfg.MediumConfidence <= 0 {
		cfg.MediumConfidence = DefaultMediumConfidence
	}
	if cfg.MinFieldConfidence <= 0 {
		cfg.MinFieldConfidence = DefaultMinFieldConfidence
	}
	if cfg.Provider == "" {
		cfg.Provider = DefaultProvider
	}
	return &Mapper{cfg: cfg}
}

// Map builds a receipt record from the first candidate document, if any.
// It always returns a fully-formed record; with zero candidate documents the
// classification is NotAReceipt and everything else stays absent.
func (m *Mapper) Map(result *docintel.AnalyzeResult, includeRawContent bool) *entity.ReceiptRecord {
	record := &entity.ReceiptRecord{
		Items: []entity.LineItem{},
		Model: entity.ModelInfo{
			Provider:     m.cfg.Provider,
			ModelID:      result.ModelID,
			ModelVersion: result.ModelVersion,
		},
	}

	if len(result.Documents) == 0 {
		record.Summary.Classification = entity.ClassificationNotAReceipt
		if includeRawContent {
			content := result.Content
			record.RawContent = &content
		}
		return record
	}

	doc := result.Documents[0]
	record.Summary = entity.Summary{
		Classification:  m.classify(doc.Confidence),
		MerchantName:    m.stringValue(doc.Fields, fieldMerchantName),
		MerchantAddress: m.stringValue(doc.Fields, fieldMerchantAddress),
		MerchantPhone:   m.stringValue(doc.Fields, fieldMerchantPhone),
		TransactionDate: m.dateValue(doc.Fields, fieldTransactionDate),
		TransactionTime: m.timeValue(doc.Fields, fieldTransactionTime),
		Subtotal:        m.amountValue(doc.Fields[fieldSubtotal]),
		Tax:             m.amountValue(doc.Fields[fieldTax]),
		Total:           m.amountValue(doc.Fields[fieldTotal]),
	}
	record.Items = m.lineItems(doc.Fields[fieldItems])

	if includeRawContent {
		content := result.Content
		conf := doc.Confidence
		record.RawContent = &content
		record.ContentConfidence = &conf
	}
	return record
}

func (m *Mapper) classify(confidence float64) entity.Classification {
	switch {
	case confidence >= m.cfg.HighConfidence:
		return entity.ClassificationLooksLikeReceipt
	case confidence >= m.cfg.MediumConfidence:
		return entity.ClassificationProbablyReceipt
	default:
		return entity.ClassificationUncertain
	}
}

// gated reports whether a field value may be surfaced at all.
func (m *Mapper) gated(f docintel.Field) bool {
	return f == nil || f.Confidence() < m.cfg.MinFieldConfidence
}

func (m *Mapper) stringValue(fields map[string]docintel.Field, name string) *string {
	f := fields[name]
	if m.gated(f) {
		return nil
	}
	if sf, ok := f.(docintel.StringField); ok {
		v := sf.Value
		return &v
	}
	return nil
}

func (m *Mapper) dateValue(fields map[string]docintel.Field, name string) *time.Time {
	f := fields[name]
	if m.gated(f) {
		return nil
	}
	if df, ok := f.(docintel.DateField); ok {
		v := df.Value
		return &v
	}
	return nil
}

func (m *Mapper) timeValue(fields map[string]docintel.Field, name string) *string {
	f := fields[name]
	if m.gated(f) {
		return nil
	}
	if tf, ok := f.(docintel.TimeField); ok {
		v := tf.Value
		return &v
	}
	return nil
}

// amountValue coerces a monetary field. The service does not always tag an
// evidently monetary field as currency, so plain numbers are accepted too:
// currency carries its code, float is rounded to 2 decimals, integer is used
// as-is. Anything else is absent.
func (m *Mapper) amountValue(f docintel.Field) *entity.Amount {
	if m.gated(f) {
		return nil
	}
	switch v := f.(type) {
	case docintel.CurrencyField:
		a := entity.Amount{Value: decimal.NewFromFloat(v.Amount).Round(2)}
		if v.Code != "" {
			code := v.Code
			a.CurrencyCode = &code
		}
		return &a
	case docintel.FloatField:
		return &entity.Amount{Value: decimal.NewFromFloat(v.Value).Round(2)}
	case docintel.IntegerField:
		return &entity.Amount{Value: decimal.NewFromInt(v.Value)}
	default:
		return nil
	}
}

// quantityValue is the numeric coercion path without the currency branch;
// a quantity never carries a currency code.
func (m *Mapper) quantityValue(f docintel.Field) *decimal.Decimal {
	if m.gated(f) {
		return nil
	}
	switch v := f.(type) {
	case docintel.FloatField:
		d := decimal.NewFromFloat(v.Value).Round(2)
		return &d
	case docintel.IntegerField:
		d := decimal.NewFromInt(v.Value)
		return &d
	default:
		return nil
	}
}

// lineItems walks the Items list. Elements that are not field mappings are
// skipped silently; rows with neither a description nor a total price are
// dropped. The element's own confidence is metadata and is recorded
// unconditionally, below-threshold values included.
func (m *Mapper) lineItems(f docintel.Field) []entity.LineItem {
	items := []entity.LineItem{}
	list, ok := f.(docintel.ListField)
	if !ok {
		return items
	}
	for _, el := range list.Values {
		mf, ok := el.(docintel.MapField)
		if !ok {
			continue
		}
		item := entity.LineItem{
			Description: m.stringValue(mf.Fields, itemDescription),
			Quantity:    m.quantityValue(mf.Fields[itemQuantity]),
			UnitPrice:   m.amountValue(mf.Fields[itemPrice]),
			TotalPrice:  m.amountValue(mf.Fields[itemTotalPrice]),
			Confidence:  mf.Confidence(),
		}
		if (item.Description == nil || *item.Description == "") && item.TotalPrice == nil {
			continue
		}
		items = append(items, item)
	}
	return items
}
