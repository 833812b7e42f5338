package feed

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) *Descriptor {
	var d Descriptor
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	return &d
}

func TestDescriptorDecoding(t *testing.T) {
	d := decode(t, `{
		"art": "  Halat   <b>alb</b> ",
		"desc1": "<p>Bumbac 100%</p>",
		"clasa": "textile",
		"grupa": null,
		"id": 1042,
		"cod": true,
		"pret": [{"pret": "10,50"}, {"pret": 15}, "bogus", {"pret": null}, {"other": 3}]
	}`)

	assert.Equal(t, "Halat alb", d.Title())
	assert.Equal(t, "<p>Bumbac 100%</p>", d.Description())
	assert.Equal(t, "textile", d.PrimaryCategory())
	assert.Equal(t, "", d.SecondaryCategory())
	assert.Equal(t, Text("1042"), d.ID)
	assert.Equal(t, Text("1"), d.Cod)
	assert.Len(t, d.Pret, 4)

	t.Run("zero-like titles are absent", func(t *testing.T) {
		for _, raw := range []string{`{"art": 0}`, `{"art": "0"}`, `{"art": 0.0}`, `{"art": false}`} {
			assert.Equal(t, "", decode(t, raw).Title(), raw)
		}
		assert.Equal(t, "0.0", decode(t, `{"art": "0.0"}`).Title())
	})

	t.Run("numbers keep their shortest form", func(t *testing.T) {
		d := decode(t, `{"id": 1.50, "cod": -0, "pret": [{"pret": 2.50}]}`)
		assert.Equal(t, Text("1.5"), d.ID)
		assert.Equal(t, Text("0"), d.Cod)
		assert.Equal(t, Text("2.5"), d.Pret[0].Pret)
	})

	t.Run("non-array price field is ignored", func(t *testing.T) {
		d := decode(t, `{"art": "x", "pret": "12"}`)
		assert.Empty(t, d.Pret)
	})
}

func TestSKU(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"explicit sku is used verbatim", `{"art": "Towel", "sku": " TW-01 ", "id": 7}`, "TW-01"},
		{"numeric id is prefixed", `{"art": "Towel", "id": 7, "cod": "C9"}`, "MSPA-7"},
		{"code is prefixed when id is missing", `{"art": "Towel", "cod": "C9"}`, "MSPA-C9"},
		{"empty id falls through to code", `{"art": "Towel", "id": "", "cod": "C9"}`, "MSPA-C9"},
		{"zero id falls through to code", `{"art": "Towel", "id": 0, "cod": "C9"}`, "MSPA-C9"},
		{"zero string id falls through to code", `{"art": "Towel", "id": "0", "cod": "C9"}`, "MSPA-C9"},
		{"zero float id and false code fall through to hash", `{"art": "Towel", "clasa": "spa", "id": 0.0, "cod": false}`, "MSPA-4F6FC0866B"},
		{"zero code falls through to hash", `{"art": "Towel", "clasa": "spa", "cod": "0"}`, "MSPA-4F6FC0866B"},
		{"zero sku falls through to id", `{"art": "Towel", "sku": 0, "id": 7}`, "MSPA-7"},
		{"integral float id is normalised", `{"art": "Towel", "id": 1.0}`, "MSPA-1"},
		{"exponent id is normalised", `{"art": "Towel", "id": 12e1}`, "MSPA-120"},
		{"hash of title and categories", `{"art": "Towel", "clasa": "spa"}`, "MSPA-4F6FC0866B"},
		{"hash uses both categories", `{"art": "Halat", "clasa": "textile", "grupa": "bumbac"}`, "MSPA-A42F8498EA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SKU(decode(t, tt.raw)))
		})
	}

	t.Run("hash is deterministic", func(t *testing.T) {
		a := SKU(decode(t, `{"art": "Towel", "clasa": "spa", "pret": [{"pret": 1}]}`))
		b := SKU(decode(t, `{"art": "Towel", "clasa": "spa", "desc1": "changed"}`))
		assert.Equal(t, a, b)
		assert.Len(t, a, len(SKUPrefix)+10)
	})
}

func TestNormalizePrice(t *testing.T) {
	tests := map[string]string{
		"10,50":    "10.50",
		"15":       "15.00",
		" 7.456 ":  "7.46",
		"7.455":    "7.46",
		"12abc":    "12.00",
		"abc":      "0.00",
		"":         "0.00",
		".5":       "0.50",
		"-3":       "-3.00",
		"1.234,56": "1.23",
		"1e3":      "1000.00",
		"2,5E-1":   "0.25",
		"7.5e":     "7.50",
	}

	for in, want := range tests {
		assert.Equal(t, want, NormalizePrice(in).StringFixed(2), "input %q", in)
	}
}

func TestExtractPrices(t *testing.T) {
	t.Run("no valid prices", func(t *testing.T) {
		p := ExtractPrices(decode(t, `{"pret": [{"pret": "0"}, {"pret": "-5"}, {"pret": "n/a"}]}`))
		assert.False(t, p.Any())
		assert.False(t, p.Sale.Valid)
	})

	t.Run("single price is regular", func(t *testing.T) {
		p := ExtractPrices(decode(t, `{"pret": [{"pret": "0"}, {"pret": "99,9"}]}`))
		require.True(t, p.Any())
		assert.Equal(t, "99.90", p.Regular.Decimal.StringFixed(2))
		assert.False(t, p.Sale.Valid)
	})

	t.Run("min is sale and max is regular regardless of order", func(t *testing.T) {
		p := ExtractPrices(decode(t, `{"pret": [{"pret": "20"}, {"pret": "10,50"}, {"pret": "15"}]}`))
		assert.Equal(t, "20.00", p.Regular.Decimal.StringFixed(2))
		assert.Equal(t, "10.50", p.Sale.Decimal.StringFixed(2))
	})

	t.Run("equal prices produce no sale", func(t *testing.T) {
		p := ExtractPrices(decode(t, `{"pret": [{"pret": "12"}, {"pret": "12,00"}]}`))
		assert.Equal(t, "12.00", p.Regular.Decimal.StringFixed(2))
		assert.False(t, p.Sale.Valid)
	})
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "a b c", SanitizeText(" a\tb\n <i>c</i> "))
	assert.Equal(t, "", SanitizeText("<br/>"))
}
