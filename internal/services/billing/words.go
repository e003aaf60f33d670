package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ones = []string{
		"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
		"Seventeen", "Eighteen", "Nineteen",
	}
	tens = []string{
		"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
	}
)

var hundred = decimal.NewFromInt(100)

// AmountInWords renders a rupee amount, e.g. 100.50 becomes
// "One Hundred Rupees and Fifty Paise". Paise that round up to 100 carry
// into rupees.
func AmountInWords(amount decimal.Decimal) string {
	rounded := amount.Abs().Round(2)
	rupees := rounded.IntPart()
	paise := rounded.Sub(decimal.NewFromInt(rupees)).Mul(hundred).Round(0).IntPart()
	if paise >= 100 {
		rupees++
		paise -= 100
	}

	out := NumberToWords(rupees) + " Rupees"
	if paise > 0 {
		out += " and " + NumberToWords(paise) + " Paise"
	}
	return out
}

// NumberToWords spells n using Indian grouping (thousand, lakh, crore).
func NumberToWords(n int64) string {
	if n == 0 {
		return "Zero"
	}
	if n < 0 {
		return "Minus " + NumberToWords(-n)
	}
	return strings.Join(indianGroups(n), " ")
}

func indianGroups(n int64) []string {
	var parts []string

	// beyond 99 crore the crore count is itself spelled with lakh/crore grouping
	if n >= 10000000 {
		parts = append(parts, indianGroups(n/10000000)...)
		parts = append(parts, "Crore")
		n %= 10000000
	}
	if n >= 100000 {
		parts = append(parts, under100(n/100000), "Lakh")
		n %= 100000
	}
	if n >= 1000 {
		parts = append(parts, under100(n/1000), "Thousand")
		n %= 1000
	}
	if n >= 100 {
		parts = append(parts, ones[n/100], "Hundred")
		n %= 100
	}
	if n > 0 {
		parts = append(parts, under100(n))
	}
	return parts
}

func under100(n int64) string {
	if n < 20 {
		return ones[n]
	}
	s := tens[n/10]
	if n%10 != 0 {
		s += " " + ones[n%10]
	}
	return s
}
