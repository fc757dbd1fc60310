package pipeline

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
	maxUnits = decimal.NewFromInt(math.MaxInt64)
)

// invoicedTokens mark a type hint as Invoiced unless a negation precedes
// them. Anything else is Direct.
var (
	invoicedTokens = []string{"factura", "invoice"}
	negations      = []string{"sin ", "no ", "without "}
)

// Normalize applies the ledger rules to one candidate. It never fails: an
// unusable field becomes absent.
func Normalize(c CandidateTransfer) Transfer {
	return Transfer{
		Amount: normalizeAmount(c.Amount),

		CUIT: normalizeIdentifier(c.CUIT),
		DNI:  normalizeIdentifier(c.DNI),
		CBU:  normalizeIdentifier(c.CBU),

		Alias:             normalizeText(c.Alias),
		RecipientName:     normalizeText(c.RecipientName),
		SenderName:        normalizeText(c.SenderName),
		Date:              normalizeText(c.Date),
		TransactionNumber: normalizeText(c.TransactionNumber),
		Reference:         normalizeText(c.Reference),
		Bank:              normalizeText(c.Bank),
		Branch:            normalizeText(c.Branch),

		TransferType: ClassifyTransferType(c.TransferType),
	}
}

// ClassifyTransferType maps a free-form hint to Direct or Invoiced.
func ClassifyTransferType(hint any) TransferType {
	s, ok := textOf(hint)
	if !ok {
		return Direct
	}
	s = strings.ToLower(s)
	for _, tok := range invoicedTokens {
		i := strings.Index(s, tok)
		if i == -1 {
			continue
		}
		for _, neg := range negations {
			if strings.HasSuffix(s[:i], neg) {
				return Direct
			}
		}
		return Invoiced
	}
	return Direct
}

// textOf returns the textual form of a scalar model value.
// nil, blank strings and the string "null" count as absent.
func textOf(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(val)
		if s == "" || strings.EqualFold(s, "null") {
			return "", false
		}
		return s, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	default:
		return "", false
	}
}

func normalizeText(v any) *string {
	s, ok := textOf(v)
	if !ok {
		return nil
	}
	return stringPtr(s)
}

// normalizeIdentifier keeps the digits of an identifier, in order.
func normalizeIdentifier(v any) *string {
	s, ok := textOf(v)
	if !ok {
		return nil
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return nil
	}
	return &digits
}

// normalizeAmount resolves a model amount to whole currency units.
// JSON numbers are already decimal values and are only truncated; strings go
// through ParseAmount.
func normalizeAmount(v any) *int64 {
	switch val := v.(type) {
	case json.Number:
		return decimalAmount(val.String())
	case float64:
		return decimalAmount(strconv.FormatFloat(val, 'f', -1, 64))
	case int:
		return nonNegative(int64(val))
	case int64:
		return nonNegative(val)
	case string:
		return ParseAmount(val)
	default:
		return nil
	}
}

func decimalAmount(s string) *int64 {
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return nil
	}
	return wholeUnits(d.Truncate(0))
}

// wholeUnits converts an integral decimal, rejecting values int64 cannot hold.
func wholeUnits(d decimal.Decimal) *int64 {
	if d.IsNegative() || d.GreaterThan(maxUnits) {
		return nil
	}
	n := d.IntPart()
	return &n
}

func nonNegative(n int64) *int64 {
	if n < 0 {
		return nil
	}
	return &n
}

// ParseAmount parses a human amount such as "$8,765,000", "8.765.000,50",
// "2.5m", "150 mil" or "$ 1.500.-" into whole currency units. It returns nil
// when no amount can be read, for negative amounts and for amounts beyond
// int64.
//
// A unit word after the last digit (m, millones, mil, k) scales the number,
// and the last separator before it is the decimal mark. Without a unit, a
// last separator followed by one or two digits starts a sub-unit fraction,
// which is dropped; every other '.' or ',' is a thousands separator.
func ParseAmount(raw string) *int64 {
	last := strings.LastIndexFunc(raw, unicode.IsDigit)
	if last == -1 {
		return nil
	}
	// A sign before the number is a negative amount.
	if strings.ContainsRune(raw[:strings.IndexFunc(raw, unicode.IsDigit)], '-') {
		return nil
	}
	multiplier := unitMultiplier(raw[last+1:])

	// Currency symbols and codes, spaces and letters are not part of the number.
	s := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			return r
		}
		return -1
	}, raw[:last+1])
	s = strings.Trim(s, ".,")
	if s == "" {
		return nil
	}

	if !multiplier.Equal(decimal.NewFromInt(1)) {
		d, err := decimal.NewFromString(withDecimalMark(s))
		if err != nil {
			return nil
		}
		return wholeUnits(d.Mul(multiplier).Round(0))
	}

	if i := strings.LastIndexAny(s, ".,"); i != -1 {
		if frac := len(s) - i - 1; frac == 1 || frac == 2 {
			s = s[:i]
		}
	}
	s = strings.NewReplacer(".", "", ",", "").Replace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return wholeUnits(d)
}

// unitMultiplier reads the word that follows an amount's last digit.
func unitMultiplier(suffix string) decimal.Decimal {
	suffix = strings.TrimLeft(strings.ToLower(suffix), " .,")
	word := suffix
	if i := strings.IndexFunc(suffix, func(r rune) bool { return !unicode.IsLetter(r) }); i != -1 {
		word = suffix[:i]
	}
	switch word {
	case "m", "mm", "millon", "millón", "millones", "palo", "palos":
		return million
	case "k", "mil":
		return thousand
	default:
		return decimal.NewFromInt(1)
	}
}

// withDecimalMark turns the last separator into '.' and drops the others.
func withDecimalMark(s string) string {
	i := strings.LastIndexAny(s, ".,")
	if i == -1 {
		return s
	}
	intPart := strings.NewReplacer(".", "", ",", "").Replace(s[:i])
	if intPart == "" {
		intPart = "0"
	}
	return intPart + "." + s[i+1:]
}
