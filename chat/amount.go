package chat

import (
	"strconv"
	"strings"
)

// UnknownCurrency is the label used when no currency prefix can be extracted.
const UnknownCurrency = "Unknown"

// Amount is a parsed purchase amount: the currency label exactly as it
// appeared (symbol or code) and the numeric value.
type Amount struct {
	Label string
	Value float64
}

func isAmountDigit(r rune) bool { return r >= '0' && r <= '9' }
func isSeparator(r rune) bool   { return r == '.' || r == ',' }
func isNumericRune(r rune) bool { return isAmountDigit(r) || isSeparator(r) }

// ParseAmount extracts a currency label and numeric amount from a localized
// purchase-amount string such as "$5.00" or "CA$10". The longest leading run
// of non-numeric characters is the label; the following run of digits and
// separators is the amount. It never fails: unparseable input yields
// {Unknown, 0}.
//
// Locale separators are not disambiguated: the numeric value is the longest
// prefix of the run that parses as a float, so "," terminates the value
// ("1,234" parses as 1). This mirrors the source feed's own behavior and is
// pinned by tests as a known limitation.
func ParseAmount(s string) Amount {
	runes := []rune(s)

	i := 0
	for i < len(runes) && !isNumericRune(runes[i]) {
		i++
	}
	label := strings.TrimSpace(string(runes[:i]))

	j := i
	for j < len(runes) && isNumericRune(runes[j]) {
		j++
	}
	value := parseFloatPrefix(string(runes[i:j]))

	if j == i {
		// No numeric run at all: nothing to attribute the label to.
		return Amount{Label: UnknownCurrency}
	}
	if label == "" {
		label = UnknownCurrency
	}
	return Amount{Label: label, Value: value}
}

// parseFloatPrefix parses the longest leading substring of s that forms a
// valid float: digits with at most one dot. Commas and a second dot end the
// number.
func parseFloatPrefix(s string) float64 {
	end := 0
	seenDot := false
	for _, r := range s {
		if isAmountDigit(r) {
			end++
			continue
		}
		if r == '.' && !seenDot {
			seenDot = true
			end++
			continue
		}
		break
	}
	num := strings.TrimSuffix(s[:end], ".")
	if num == "" {
		return 0
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	return f
}
