// Package docintel models the result of a remote document-understanding
// analysis and the thin client that obtains it.
package docintel

import "time"

// Field is one typed, confidence-scored value extracted by the analysis
// service. Exactly one concrete shape exists per wire type, so a string
// field cannot carry a numeric payload and vice versa.
type Field interface {
	// Confidence is the service's certainty for this value, in [0,1].
	Confidence() float64

	isField()
}

type fieldConfidence struct {
	Conf float64
}

func (f fieldConfidence) Confidence() float64 { return f.Conf }

// StringField is free-form text, e.g. a merchant name.
type StringField struct {
	fieldConfidence
	Value string
}

// DateField is a calendar date with no time-of-day component.
type DateField struct {
	fieldConfidence
	Value time.Time
}

// TimeField is a time of day in HH:MM:SS form.
type TimeField struct {
	fieldConfidence
	Value string
}

// IntegerField is a whole number.
type IntegerField struct {
	fieldConfidence
	Value int64
}

// FloatField is a floating-point number the service did not tag as currency.
type FloatField struct {
	fieldConfidence
	Value float64
}

// CurrencyField is a monetary amount with its ISO 4217 code, when the
// service recognized one.
type CurrencyField struct {
	fieldConfidence
	Amount float64
	Code   string
}

// ListField is an ordered collection of nested fields, e.g. receipt items.
type ListField struct {
	fieldConfidence
	Values []Field
}

// MapField is a named collection of nested fields, e.g. one item row.
type MapField struct {
	fieldConfidence
	Fields map[string]Field
}

// One constructor per shape; the confidence travels with the value, so a
// field can never exist without its score.

func NewStringField(value string, confidence float64) StringField {
	return StringField{fieldConfidence: fieldConfidence{Conf: confidence}, Value: value}
}

func NewDateField(value time.Time, confidence float64) DateField {
	return DateField{fieldConfidence: fieldConfidence{Conf: confidence}, Value: value}
}

func NewTimeField(value string, confidence float64) TimeField {
	return TimeField{fieldConfidence: fieldConfidence{Conf: confidence}, Value: value}
}

func NewIntegerField(value int64, confidence float64) IntegerField {
	return IntegerField{fieldConfidence: fieldConfidence{Conf: confidence}, Value: value}
}

func NewFloatField(value float64, confidence float64) FloatField {
	return FloatField{fieldConfidence: fieldConfidence{Conf: confidence}, Value: value}
}

func NewCurrencyField(amount float64, code string, confidence float64) CurrencyField {
	return CurrencyField{fieldConfidence: fieldConfidence{Conf: confidence}, Amount: amount, Code: code}
}

func NewListField(values []Field, confidence float64) ListField {
	return ListField{fieldConfidence: fieldConfidence{Conf: confidence}, Values: values}
}

func NewMapField(fields map[string]Field, confidence float64) MapField {
	return MapField{fieldConfidence: fieldConfidence{Conf: confidence}, Fields: fields}
}

func (StringField) isField()   {}
func (DateField) isField()     {}
func (TimeField) isField()     {}
func (IntegerField) isField()  {}
func (FloatField) isField()    {}
func (CurrencyField) isField() {}
func (ListField) isField()     {}
func (MapField) isField()      {}

// Document is one receipt-like region the service detected in an image.
type Document struct {
	DocType    string
	Confidence float64
	Fields     map[string]Field
}

// AnalyzeResult is the settled outcome of one analysis operation.
type AnalyzeResult struct {
	ModelID      string
	ModelVersion string
	Content      string // full recognized text
	Documents    []Document
}
