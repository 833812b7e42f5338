package feed

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Descriptor is one product record of the external feed.
type Descriptor struct {
	Art   Text      `json:"art"`
	Desc1 Text      `json:"desc1"`
	Clasa Text      `json:"clasa"`
	Grupa Text      `json:"grupa"`
	SKU   Text      `json:"sku"`
	ID    Text      `json:"id"`
	Cod   Text      `json:"cod"`
	Pret  PriceList `json:"pret"`
}

type PriceEntry struct {
	Pret Text `json:"pret"`
}

// Text accepts a JSON string, number or boolean. Null, false, objects and
// arrays decode to the empty string. Numbers are kept in their shortest
// decimal form, so 1.0 and 1e0 both read as "1".
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case 't':
		*t = "1"
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		n, err := decimal.NewFromString(string(data))
		if err != nil {
			*t = Text(data)
			return nil
		}
		*t = Text(n.String())
	default:
		*t = ""
	}
	return nil
}

func (t Text) String() string {
	return string(t)
}

// Value is the text with blank-like values ("" and "0") treated as
// absent.
func (t Text) Value() string {
	if t == "0" {
		return ""
	}
	return string(t)
}

// PriceList tolerates a missing or non-array "pret" field and skips
// entries that are not objects.
type PriceList []PriceEntry

func (p *PriceList) UnmarshalJSON(data []byte) error {
	*p = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	for _, item := range raw {
		var entry PriceEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		*p = append(*p, entry)
	}
	return nil
}

func (d *Descriptor) Title() string {
	return SanitizeText(d.Art.Value())
}

func (d *Descriptor) Description() string {
	return strings.TrimSpace(d.Desc1.Value())
}

func (d *Descriptor) PrimaryCategory() string {
	return SanitizeText(d.Clasa.Value())
}

func (d *Descriptor) SecondaryCategory() string {
	return SanitizeText(d.Grupa.Value())
}
