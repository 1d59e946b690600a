package lineitems

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Class labels a line for item extraction
type Class int

const (
	// CandidateLine may hold an item name and/or price
	CandidateLine Class = iota
	// SkipLine carries totals, tax or payment metadata
	SkipLine
)

func (c Class) String() string {
	if c == SkipLine {
		return "skip"
	}
	return "candidate"
}

// Classify marks a line SkipLine when its lowercased text contains any skip keyword
func Classify(line Line, opts Options) Class {
	return classifyText(line.Text(), opts)
}

func classifyText(text string, opts Options) Class {
	lower := strings.ToLower(text)
	for _, keyword := range opts.SkipKeywords {
		if strings.Contains(lower, keyword) {
			return SkipLine
		}
	}
	return CandidateLine
}

var priceRe = regexp.MustCompile(`^\$?(\d+\.\d{2})$`)

// Price is the first price-shaped token of a line and the tokens before it
type Price struct {
	Value  decimal.Decimal
	Token  Token
	Prefix []Token
}

// DetectPrice scans the line left to right for the first token shaped like
// an optional "$", digits, "." and exactly two digits
func DetectPrice(line Line) (Price, bool) {
	for i, t := range line.Tokens {
		m := priceRe.FindStringSubmatch(t.Text)
		if m == nil {
			continue
		}
		value, err := decimal.NewFromString(m[1])
		if err != nil {
			continue
		}
		return Price{Value: value, Token: t, Prefix: line.Tokens[:i]}, true
	}
	return Price{}, false
}
