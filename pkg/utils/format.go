package utils

import (
	"fmt"
	"strings"
)

// FormatCrores formats an INR-crore amount for alert reason strings,
// e.g. 5001.5 -> "₹5,001.50 Cr".
func FormatCrores(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")
	intPart := parts[0]
	decPart := parts[1]

	result := "₹" + formatIndianNumber(intPart) + "." + decPart + " Cr"
	if negative {
		result = "-" + result
	}
	return result
}

// formatIndianNumber formats an integer string in the Indian numbering
// system: last group of 3 digits, then groups of 2.
func formatIndianNumber(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	result := s[n-3:]
	s = s[:n-3]

	for len(s) > 0 {
		if len(s) >= 2 {
			result = s[len(s)-2:] + "," + result
			s = s[:len(s)-2]
		} else {
			result = s + "," + result
			s = ""
		}
	}

	return result
}

// FormatRatio formats a spike ratio, e.g. 5.0 -> "5.0x".
func FormatRatio(ratio float64) string {
	return fmt.Sprintf("%.1fx", ratio)
}
