package docintel

import (
	"encoding/json"
	"fmt"
	"time"
)

// Wire shapes for the analyze REST API. Field values arrive under one
// value* key selected by the "type" discriminator.
type wireOperation struct {
	Status        string             `json:"status"`
	Error         *wireError         `json:"error,omitempty"`
	AnalyzeResult *wireAnalyzeResult `json:"analyzeResult,omitempty"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type wireAnalyzeResult struct {
	APIVersion string         `json:"apiVersion"`
	ModelID    string         `json:"modelId"`
	Content    string         `json:"content"`
	Documents  []wireDocument `json:"documents"`
}

type wireDocument struct {
	DocType    string               `json:"docType"`
	Confidence float64              `json:"confidence"`
	Fields     map[string]wireField `json:"fields"`
}

type wireCurrency struct {
	Amount       float64 `json:"amount"`
	CurrencyCode string  `json:"currencyCode"`
}

type wireField struct {
	Type          string               `json:"type"`
	Confidence    float64              `json:"confidence"`
	ValueString   *string              `json:"valueString,omitempty"`
	ValueDate     *string              `json:"valueDate,omitempty"` // YYYY-MM-DD
	ValueTime     *string              `json:"valueTime,omitempty"` // HH:MM:SS
	ValueInteger  *int64               `json:"valueInteger,omitempty"`
	ValueNumber   *float64             `json:"valueNumber,omitempty"`
	ValueCurrency *wireCurrency        `json:"valueCurrency,omitempty"`
	ValueArray    []wireField          `json:"valueArray,omitempty"`
	ValueObject   map[string]wireField `json:"valueObject,omitempty"`
}

// DecodeAnalyzeResult converts the raw analyzeResult JSON into the typed
// field tree. Fields with an unrecognized or inconsistent tag are dropped
// rather than failing the whole decode; the mapper treats them as absent.
func DecodeAnalyzeResult(raw []byte) (*AnalyzeResult, error) {
	var wire wireAnalyzeResult
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode analyze result: %w", err)
	}

	out := &AnalyzeResult{
		ModelID:      wire.ModelID,
		ModelVersion: wire.APIVersion,
		Content:      wire.Content,
		Documents:    make([]Document, 0, len(wire.Documents)),
	}
	for _, d := range wire.Documents {
		doc := Document{
			DocType:    d.DocType,
			Confidence: d.Confidence,
			Fields:     make(map[string]Field, len(d.Fields)),
		}
		for name, wf := range d.Fields {
			if f, ok := decodeField(wf); ok {
				doc.Fields[name] = f
			}
		}
		out.Documents = append(out.Documents, doc)
	}
	return out, nil
}

func decodeField(wf wireField) (Field, bool) {
	switch wf.Type {
	case "string":
		if wf.ValueString == nil {
			return nil, false
		}
		return NewStringField(*wf.ValueString, wf.Confidence), true
	case "date":
		if wf.ValueDate == nil {
			return nil, false
		}
		d, err := time.ParseInLocation("2006-01-02", *wf.ValueDate, time.UTC)
		if err != nil {
			return nil, false
		}
		return NewDateField(d, wf.Confidence), true
	case "time":
		if wf.ValueTime == nil {
			return nil, false
		}
		if _, err := time.Parse("15:04:05", *wf.ValueTime); err != nil {
			return nil, false
		}
		return NewTimeField(*wf.ValueTime, wf.Confidence), true
	case "integer":
		if wf.ValueInteger == nil {
			return nil, false
		}
		return NewIntegerField(*wf.ValueInteger, wf.Confidence), true
	case "number":
		if wf.ValueNumber == nil {
			return nil, false
		}
		return NewFloatField(*wf.ValueNumber, wf.Confidence), true
	case "currency":
		if wf.ValueCurrency == nil {
			return nil, false
		}
		return NewCurrencyField(wf.ValueCurrency.Amount, wf.ValueCurrency.CurrencyCode, wf.Confidence), true
	case "array":
		values := make([]Field, 0, len(wf.ValueArray))
		for _, el := range wf.ValueArray {
			if f, ok := decodeField(el); ok {
				values = append(values, f)
			}
		}
		return NewListField(values, wf.Confidence), true
	case "object":
		fields := make(map[string]Field, len(wf.ValueObject))
		for name, el := range wf.ValueObject {
			if f, ok := decodeField(el); ok {
				fields[name] = f
			}
		}
		return NewMapField(fields, wf.Confidence), true
	default:
		return nil, false
	}
}
