package lineitems

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	quantityRe = regexp.MustCompile(`(?i)^(\d+\.?\d*)\s*x?\s*(.+)$`)
	cent       = decimal.New(1, -2)
)

// Quantity is a name split into count, item name and per-unit price
type Quantity struct {
	Name      string
	Count     decimal.Decimal
	UnitPrice decimal.Decimal
}

// ParseQuantity detects a leading "count [x] name" shape. The unit price is
// total/count rounded to cents. When the leading number does not divide the
// total to within a cent (count 0, or rounding drift on large counts) it is
// kept as part of the name and the count is 1.
func ParseQuantity(name string, total decimal.Decimal) Quantity {
	single := Quantity{Name: name, Count: decimal.NewFromInt(1), UnitPrice: total}

	m := quantityRe.FindStringSubmatch(name)
	if m == nil {
		return single
	}
	count, err := decimal.NewFromString(strings.TrimSuffix(m[1], "."))
	if err != nil {
		return single
	}

	unit := total
	if count.IsPositive() {
		unit = total.Div(count).RoundBank(2)
	}
	if count.Mul(unit).Sub(total).Abs().GreaterThan(cent) {
		return single
	}

	return Quantity{
		Name:      strings.TrimSpace(m[2]),
		Count:     count,
		UnitPrice: unit,
	}
}
