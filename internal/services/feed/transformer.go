package feed

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// SKUPrefix marks SKUs generated by the importer. Delete-missing only ever
// touches products whose SKU carries it.
const SKUPrefix = "MSPA-"

const hashedSKULength = 10

var (
	markupPattern  = regexp.MustCompile(`<[^>]*>`)
	numericPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d+)?|\.\d+)([eE][+-]?\d+)?`)
)

// SanitizeText reduces a value to a single clean line: markup removed,
// whitespace collapsed.
func SanitizeText(s string) string {
	s = markupPattern.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// SKU derives the catalog key of a descriptor. An explicit sku wins, then
// the numeric id, then the code; descriptors with none of them get a
// deterministic hash of title and categories. Zero ids and codes count as
// missing.
func SKU(d *Descriptor) string {
	if sku := SanitizeText(d.SKU.Value()); sku != "" {
		return sku
	}
	if id := SanitizeText(d.ID.Value()); id != "" {
		return SKUPrefix + id
	}
	if cod := SanitizeText(d.Cod.Value()); cod != "" {
		return SKUPrefix + cod
	}
	return HashedSKU(d.Title(), d.PrimaryCategory(), d.SecondaryCategory())
}

// HashedSKU collides for descriptors sharing title and both categories.
func HashedSKU(title, primary, secondary string) string {
	sum := md5.Sum([]byte(title + "-" + primary + "-" + secondary))
	return SKUPrefix + strings.ToUpper(hex.EncodeToString(sum[:])[:hashedSKULength])
}

// NormalizePrice parses a feed price. Decimal commas are accepted, trailing
// garbage is ignored and unparseable values come back as zero.
func NormalizePrice(raw string) decimal.Decimal {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	m := numericPattern.FindString(s)
	if m == "" {
		return decimal.Zero
	}
	m = strings.TrimPrefix(m, "+")
	if strings.HasPrefix(m, ".") {
		m = "0" + m
	} else if strings.HasPrefix(m, "-.") {
		m = "-0" + m[1:]
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero
	}
	return d.Round(2)
}

// Prices is the pricing decision for one descriptor.
type Prices struct {
	Regular decimal.NullDecimal
	Sale    decimal.NullDecimal
}

// Any reports whether the descriptor carried at least one valid price.
func (p Prices) Any() bool {
	return p.Regular.Valid
}

// ValidPrices returns the positive normalised prices, ascending.
func ValidPrices(d *Descriptor) []decimal.Decimal {
	var values []decimal.Decimal
	for _, entry := range d.Pret {
		price := NormalizePrice(entry.Pret.String())
		if price.IsPositive() {
			values = append(values, price)
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i].LessThan(values[j]) })
	return values
}

// ExtractPrices applies the pricing rule: one price is the regular price;
// with several, the highest is regular and the lowest is the sale price,
// provided it is strictly lower.
func ExtractPrices(d *Descriptor) Prices {
	values := ValidPrices(d)
	var prices Prices
	if len(values) == 0 {
		return prices
	}

	highest := values[len(values)-1]
	prices.Regular = decimal.NewNullDecimal(highest)
	if len(values) > 1 && values[0].LessThan(highest) {
		prices.Sale = decimal.NewNullDecimal(values[0])
	}
	return prices
}
