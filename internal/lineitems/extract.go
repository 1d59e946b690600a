// Package lineitems reconstructs receipt line items from recognized tokens.
//
// Tokens are clustered into lines by vertical position, lines are classified
// against a skip list, and each candidate line is scanned for a price. A
// price with no name in front of it borrows the name of a nearby preceding
// line (the lookback). Names with a leading count are split into quantity and
// unit price, and repeated names are dropped.
package lineitems

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/zombor/fiscflow-ocr/internal/ocr"
)

// Item is a single receipt line item
type Item struct {
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
	Confidence float64 `json:"confidence"`
	SourceLine int     `json:"source_line"` // Index of the line holding the price
}

// Extract clusters the annotation into lines and extracts its items.
// An empty or nil annotation yields no items.
func Extract(a *ocr.Annotation, opts Options) []Item {
	return ExtractLines(ClusterLines(a, opts), opts)
}

// ExtractLines extracts items from lines already in reading order.
// Items are returned in line order.
func ExtractLines(lines []Line, opts Options) []Item {
	items, _ := extractLines(lines, opts)
	return items
}

func extractLines(lines []Line, opts Options) ([]Item, *state) {
	s := newState()
	items := []Item{}

	for idx, line := range lines {
		if len(line.Tokens) == 0 {
			continue
		}
		if Classify(line, opts) == SkipLine {
			continue
		}

		price, ok := DetectPrice(line)
		if !ok || price.Value.IsZero() {
			continue
		}

		nameTokens := price.Prefix
		if len(nameTokens) == 0 {
			nameTokens, ok = s.resolveName(lines, idx, price.Value, opts)
			if !ok {
				continue
			}
		}

		item, ok := s.accept(nameTokens, price, line.Index, opts)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	return items, s
}

// accept splits off a quantity, rejects unusable or repeated names and
// builds the item
func (s *state) accept(nameTokens []Token, price Price, lineIndex int, opts Options) (Item, bool) {
	name := strings.TrimSpace(joinTokens(nameTokens))
	q := ParseQuantity(name, price.Value)

	if utf8.RuneCountInString(q.Name) <= 2 || isDigits(q.Name) {
		return Item{}, false
	}

	key := strings.ToUpper(q.Name)
	if _, seen := s.usedNames[key]; seen {
		return Item{}, false
	}
	s.usedNames[key] = struct{}{}

	confidence := opts.ItemConfidence
	if opts.ConfidenceFromTokens {
		confidence = meanConfidence(append(append([]Token{}, nameTokens...), price.Token))
	}

	return Item{
		Name:       q.Name,
		Quantity:   q.Count.InexactFloat64(),
		UnitPrice:  q.UnitPrice.InexactFloat64(),
		TotalPrice: price.Value.InexactFloat64(),
		Confidence: confidence,
		SourceLine: lineIndex,
	}, true
}

func meanConfidence(tokens []Token) float64 {
	if len(tokens) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, t := range tokens {
		sum = sum.Add(decimal.NewFromFloat(t.Confidence))
	}
	return sum.Div(decimal.NewFromInt(int64(len(tokens)))).Round(4).InexactFloat64()
}
