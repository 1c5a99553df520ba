package ingest

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldUnmarshal(t *testing.T) {
	type doc struct {
		F Field `json:"f"`
	}

	t.Run("wrapped string value", func(t *testing.T) {
		var d doc
		require.NoError(t, json.Unmarshal([]byte(`{"f": {"value": "INV-001"}}`), &d))
		assert.True(t, d.F.IsSet())
		assert.Equal(t, "INV-001", d.F.Str(""))
	})

	t.Run("bare string value", func(t *testing.T) {
		var d doc
		require.NoError(t, json.Unmarshal([]byte(`{"f": "INV-002"}`), &d))
		assert.Equal(t, "INV-002", d.F.Str(""))
	})

	t.Run("wrapped number value", func(t *testing.T) {
		var d doc
		require.NoError(t, json.Unmarshal([]byte(`{"f": {"value": 42.5}}`), &d))
		assert.Equal(t, 42.5, d.F.Float(0))
	})

	t.Run("missing field", func(t *testing.T) {
		var d doc
		require.NoError(t, json.Unmarshal([]byte(`{}`), &d))
		assert.False(t, d.F.IsSet())
		assert.Equal(t, "default", d.F.Str("default"))
		assert.Equal(t, 7.0, d.F.Float(7))
	})

	t.Run("null value", func(t *testing.T) {
		var d doc
		require.NoError(t, json.Unmarshal([]byte(`{"f": null}`), &d))
		assert.False(t, d.F.IsSet())
	})

	t.Run("wrapped null value", func(t *testing.T) {
		var d doc
		require.NoError(t, json.Unmarshal([]byte(`{"f": {"value": null}}`), &d))
		assert.Equal(t, "default", d.F.Str("default"))
	})
}

func TestFieldStr(t *testing.T) {
	var f Field
	require.NoError(t, json.Unmarshal([]byte(`"  padded  "`), &f))
	assert.Equal(t, "padded", f.Str(""))

	var empty Field
	require.NoError(t, json.Unmarshal([]byte(`"   "`), &empty))
	assert.Equal(t, "fallback", empty.Str("fallback"))

	var number Field
	require.NoError(t, json.Unmarshal([]byte(`123`), &number))
	assert.Equal(t, "fallback", number.Str("fallback"))
}

func TestFieldFloat(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		def      float64
		expected float64
	}{
		{"number", `100.5`, 0, 100.5},
		{"numeric string", `"250.75"`, 0, 250.75},
		{"string with thousands separator", `"1,234.56"`, 0, 1234.56},
		{"unparseable string", `"n/a"`, 9, 9},
		{"boolean falls back", `true`, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Field
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &f))
			assert.Equal(t, tt.expected, f.Float(tt.def))
		})
	}
}

func TestFieldDate(t *testing.T) {
	t.Run("date only", func(t *testing.T) {
		var f Field
		require.NoError(t, json.Unmarshal([]byte(`"2024-03-15"`), &f))
		d, ok := f.Date()
		require.True(t, ok)
		assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), d)
	})

	t.Run("rfc3339", func(t *testing.T) {
		var f Field
		require.NoError(t, json.Unmarshal([]byte(`"2024-03-15T10:30:00Z"`), &f))
		_, ok := f.Date()
		assert.True(t, ok)
	})

	t.Run("european format", func(t *testing.T) {
		var f Field
		require.NoError(t, json.Unmarshal([]byte(`"15.03.2024"`), &f))
		d, ok := f.Date()
		require.True(t, ok)
		assert.Equal(t, 2024, d.Year())
		assert.Equal(t, time.March, d.Month())
	})

	t.Run("garbage", func(t *testing.T) {
		var f Field
		require.NoError(t, json.Unmarshal([]byte(`"soon"`), &f))
		_, ok := f.Date()
		assert.False(t, ok)
	})
}

func TestLongValueUnmarshal(t *testing.T) {
	var plain LongValue
	require.NoError(t, json.Unmarshal([]byte(`12345`), &plain))
	assert.Equal(t, LongValue(12345), plain)

	var wrapped LongValue
	require.NoError(t, json.Unmarshal([]byte(`{"$numberLong": "987654"}`), &wrapped))
	assert.Equal(t, LongValue(987654), wrapped)
}

func TestDateValueUnmarshal(t *testing.T) {
	var plain DateValue
	require.NoError(t, json.Unmarshal([]byte(`"2024-06-01T12:00:00Z"`), &plain))
	assert.Equal(t, 2024, plain.Time.Year())

	var wrapped DateValue
	require.NoError(t, json.Unmarshal([]byte(`{"$date": "2023-11-20T08:15:00.000Z"}`), &wrapped))
	assert.Equal(t, time.November, wrapped.Time.Month())
}

func TestSourceRecordNesting(t *testing.T) {
	raw := `{
		"_id": "abc123",
		"name": "invoice-march.pdf",
		"fileSize": {"$numberLong": "20480"},
		"createdAt": {"$date": "2024-03-01T09:00:00Z"},
		"extractedData": {
			"llmData": {
				"invoice": {
					"value": {
						"invoiceId": {"value": "INV-100"},
						"vendorName": {"value": "Acme GmbH"},
						"totalAmount": {"value": "119.00"},
						"lineItems": [
							{"description": {"value": "Widgets"}, "quantity": {"value": 2}}
						]
					}
				}
			}
		}
	}`

	var rec SourceRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	payload := rec.invoicePayload()
	require.NotNil(t, payload)
	assert.Equal(t, "INV-100", payload.InvoiceID.Str(""))
	assert.Equal(t, "Acme GmbH", payload.VendorName.Str(""))
	assert.Equal(t, 119.0, payload.TotalAmount.Float(0))
	require.Len(t, payload.LineItems, 1)
	assert.Equal(t, "Widgets", payload.LineItems[0].Description.Str(""))
	assert.Equal(t, int64(20480), int64(rec.FileSize))
}

func TestSourceRecordWithoutExtraction(t *testing.T) {
	var rec SourceRecord
	require.NoError(t, json.Unmarshal([]byte(`{"_id": "x"}`), &rec))
	assert.Nil(t, rec.invoicePayload())
	assert.Empty(t, rec.summary())
}
