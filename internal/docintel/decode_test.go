package docintel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAnalyzeResult = `{
	"apiVersion": "2024-11-30",
	"modelId": "prebuilt-receipt",
	"content": "CONTOSO\nTOTAL $19.99",
	"documents": [
		{
			"docType": "receipt.retailMeal",
			"confidence": 0.93,
			"fields": {
				"MerchantName": {"type": "string", "valueString": "Contoso", "confidence": 0.98},
				"TransactionDate": {"type": "date", "valueDate": "2024-03-01", "confidence": 0.95},
				"TransactionTime": {"type": "time", "valueTime": "13:45:30", "confidence": 0.91},
				"Subtotal": {"type": "number", "valueNumber": 17.99, "confidence": 0.9},
				"ItemCount": {"type": "integer", "valueInteger": 3, "confidence": 0.88},
				"Total": {
					"type": "currency",
					"valueCurrency": {"amount": 19.99, "currencyCode": "USD"},
					"confidence": 0.97
				},
				"Items": {
					"type": "array",
					"confidence": 0.9,
					"valueArray": [
						{
							"type": "object",
							"confidence": 0.86,
							"valueObject": {
								"Description": {"type": "string", "valueString": "Cappuccino", "confidence": 0.94},
								"Quantity": {"type": "number", "valueNumber": 2, "confidence": 0.9},
								"TotalPrice": {
									"type": "currency",
									"valueCurrency": {"amount": 9.0, "currencyCode": "USD"},
									"confidence": 0.92
								}
							}
						}
					]
				}
			}
		}
	]
}`

func TestDecodeAnalyzeResult(t *testing.T) {
	result, err := DecodeAnalyzeResult([]byte(sampleAnalyzeResult))
	require.NoError(t, err)

	assert.Equal(t, "prebuilt-receipt", result.ModelID)
	assert.Equal(t, "2024-11-30", result.ModelVersion)
	assert.Equal(t, "CONTOSO\nTOTAL $19.99", result.Content)
	require.Len(t, result.Documents, 1)

	doc := result.Documents[0]
	assert.Equal(t, "receipt.retailMeal", doc.DocType)
	assert.Equal(t, 0.93, doc.Confidence)

	merchant, ok := doc.Fields["MerchantName"].(StringField)
	require.True(t, ok)
	assert.Equal(t, "Contoso", merchant.Value)
	assert.Equal(t, 0.98, merchant.Confidence())

	date, ok := doc.Fields["TransactionDate"].(DateField)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), date.Value)

	tod, ok := doc.Fields["TransactionTime"].(TimeField)
	require.True(t, ok)
	assert.Equal(t, "13:45:30", tod.Value)

	subtotal, ok := doc.Fields["Subtotal"].(FloatField)
	require.True(t, ok)
	assert.Equal(t, 17.99, subtotal.Value)

	count, ok := doc.Fields["ItemCount"].(IntegerField)
	require.True(t, ok)
	assert.Equal(t, int64(3), count.Value)

	total, ok := doc.Fields["Total"].(CurrencyField)
	require.True(t, ok)
	assert.Equal(t, 19.99, total.Amount)
	assert.Equal(t, "USD", total.Code)

	items, ok := doc.Fields["Items"].(ListField)
	require.True(t, ok)
	require.Len(t, items.Values, 1)

	row, ok := items.Values[0].(MapField)
	require.True(t, ok)
	assert.Equal(t, 0.86, row.Confidence())
	desc, ok := row.Fields["Description"].(StringField)
	require.True(t, ok)
	assert.Equal(t, "Cappuccino", desc.Value)
}

func TestDecodeAnalyzeResult_DropsMalformedFields(t *testing.T) {
	raw := `{
		"modelId": "prebuilt-receipt",
		"documents": [
			{
				"confidence": 0.8,
				"fields": {
					"MerchantName": {"type": "string", "confidence": 0.9},
					"TransactionDate": {"type": "date", "valueDate": "not-a-date", "confidence": 0.9},
					"Mystery": {"type": "hologram", "confidence": 0.9},
					"Total": {"type": "currency", "valueCurrency": {"amount": 5}, "confidence": 0.9}
				}
			}
		]
	}`

	result, err := DecodeAnalyzeResult([]byte(raw))
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)

	fields := result.Documents[0].Fields
	assert.NotContains(t, fields, "MerchantName")
	assert.NotContains(t, fields, "TransactionDate")
	assert.NotContains(t, fields, "Mystery")

	total, ok := fields["Total"].(CurrencyField)
	require.True(t, ok)
	assert.Equal(t, 5.0, total.Amount)
	assert.Equal(t, "", total.Code)
}

func TestDecodeAnalyzeResult_InvalidJSON(t *testing.T) {
	_, err := DecodeAnalyzeResult([]byte(`{"modelId": `))
	require.Error(t, err)
}

func TestValidateAnalyzeResultSchema(t *testing.T) {
	schema := BuildAnalyzeResultJSONSchema()

	t.Run("accepts a well-formed result", func(t *testing.T) {
		assert.NoError(t, ValidateJSONAgainstSchema(schema, []byte(sampleAnalyzeResult)))
	})

	t.Run("rejects a result without modelId", func(t *testing.T) {
		assert.Error(t, ValidateJSONAgainstSchema(schema, []byte(`{"content": "x"}`)))
	})

	t.Run("rejects an out-of-range confidence", func(t *testing.T) {
		raw := `{
			"modelId": "prebuilt-receipt",
			"documents": [{"confidence": 1.5}]
		}`
		assert.Error(t, ValidateJSONAgainstSchema(schema, []byte(raw)))
	})
}
