// Package fields scans the full receipt text for header and footer values:
// merchant, date, grand total and tax.
package fields

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	merchantIgnore = []*regexp.Regexp{
		regexp.MustCompile(`receipt`),
		regexp.MustCompile(`invoice`),
		regexp.MustCompile(`bill`),
		regexp.MustCompile(`^\d+$`),
		regexp.MustCompile(`^tel:`),
		regexp.MustCompile(`^www\.`),
	}
	merchantStrip = regexp.MustCompile(`[^a-zA-Z0-9\s\-&\.]`)

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`),
		regexp.MustCompile(`(\d{4}[-/]\d{1,2}[-/]\d{1,2})`),
	}
	dateLayouts = []string{
		"1/2/2006", "1-2-2006", "2006/1/2", "2006-1-2",
		"1/2/06", "1-2-06",
	}

	totalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`total[:\s]+\$?\s*(\d+\.\d{2})`),
		regexp.MustCompile(`amount[:\s]+\$?\s*(\d+\.\d{2})`),
	}
	taxPatterns = []*regexp.Regexp{
		regexp.MustCompile(`tax[:\s]+\$?\s*(\d+\.\d{2})`),
		regexp.MustCompile(`vat[:\s]+\$?\s*(\d+\.\d{2})`),
	}
)

// Merchant returns the first of the top five lines that looks like a
// business name, with punctuation stripped
func Merchant(text string) (string, bool) {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	for i, line := range lines {
		if i == 5 {
			break
		}
		if ignoredMerchantLine(strings.ToLower(line)) || len(line) <= 3 {
			continue
		}
		return strings.TrimSpace(merchantStrip.ReplaceAllString(line, "")), true
	}
	return "", false
}

func ignoredMerchantLine(lower string) bool {
	for _, re := range merchantIgnore {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// Date returns the first parseable date in the text. Month comes before
// day, and two digit years are accepted.
func Date(text string) (time.Time, bool) {
	for _, re := range datePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, m[1]); err == nil {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

// Total returns the grand total, scanning lines from the bottom up
func Total(text string) (float64, bool) {
	return lastAmount(text, totalPatterns)
}

// Tax returns the tax amount, scanning lines from the bottom up
func Tax(text string) (float64, bool) {
	return lastAmount(text, taxPatterns)
}

func lastAmount(text string, patterns []*regexp.Regexp) (float64, bool) {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		lower := strings.ToLower(lines[i])
		for _, re := range patterns {
			m := re.FindStringSubmatch(lower)
			if m == nil {
				continue
			}
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}
