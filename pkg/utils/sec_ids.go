package utils

import (
	"strings"
)

// NormalizeTicker uppercases a user-entered US ticker and converts share
// class separators to EDGAR's form: "brk.a" → "BRK-A".
func NormalizeTicker(ticker string) string {
	ticker = strings.TrimSpace(strings.ToUpper(ticker))

	// Remove $ prefix if present (common in chat)
	ticker = strings.TrimPrefix(ticker, "$")

	return strings.ReplaceAll(ticker, ".", "-")
}

// IsCIK reports whether s is a plausible Central Index Key: 1 to 10 digits.
func IsCIK(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 10 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// NormalizeCIK pads a CIK to the 10-digit form used in EDGAR URLs.
// Surrounding whitespace and a "CIK" prefix are dropped.
func NormalizeCIK(cik string) string {
	cik = strings.TrimSpace(strings.ToUpper(cik))
	cik = strings.TrimPrefix(cik, "CIK")
	if len(cik) >= 10 {
		return cik
	}
	return strings.Repeat("0", 10-len(cik)) + cik
}

// TrimCIK strips leading zeros, as used in Archives paths.
func TrimCIK(cik string) string {
	t := strings.TrimLeft(strings.TrimSpace(cik), "0")
	if t == "" {
		return "0"
	}
	return t
}

// AccessionPath removes dashes from an accession number:
// "0000320193-23-000106" → "000032019323000106".
func AccessionPath(accession string) string {
	return strings.ReplaceAll(accession, "-", "")
}
