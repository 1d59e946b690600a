package lineitems

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// state is the bookkeeping of one receipt's extraction. It is created per
// call and never shared.
type state struct {
	usedLines map[int]struct{}
	usedNames map[string]struct{}
}

func newState() *state {
	return &state{
		usedLines: make(map[int]struct{}),
		usedNames: make(map[string]struct{}),
	}
}

func (s *state) lineUsed(idx int) bool {
	_, ok := s.usedLines[idx]
	return ok
}

func (s *state) nameUsed(name string) bool {
	_, ok := s.usedNames[strings.ToUpper(name)]
	return ok
}

// resolveName looks back over the lines preceding idx, nearest first, for a
// line that can name a bare price. The accepted line is marked as used.
func (s *state) resolveName(lines []Line, idx int, price decimal.Decimal, opts Options) ([]Token, bool) {
	if price.GreaterThan(decimal.NewFromFloat(opts.MaxBareItemPrice)) {
		return nil, false
	}

	for back := 1; back <= opts.LookbackWindow && idx-back >= 0; back++ {
		prev := lines[idx-back]
		if s.lineUsed(prev.Index) {
			continue
		}

		text := prev.Text()
		if classifyText(text, opts) == SkipLine {
			continue
		}
		if isDigits(strings.ReplaceAll(text, " ", "")) {
			continue
		}
		if utf8.RuneCountInString(text) < 3 {
			continue
		}
		if s.nameUsed(text) {
			continue
		}
		if !hasLetter(text) {
			continue
		}

		s.usedLines[prev.Index] = struct{}{}
		return prev.Tokens, true
	}

	return nil, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
