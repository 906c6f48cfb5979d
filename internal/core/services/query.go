package services

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeQuery puts a query into NFC form and collapses runs of whitespace.
// Thai text typed on different keyboards can carry the same tone marks in
// different code point orders, which NFC reconciles.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(norm.NFC.String(query)), " ")
}

// queryTerms lower-cases a query and splits it on whitespace. Repeated
// terms are kept, so each occurrence counts toward coverage.
func queryTerms(query string) []string {
	return strings.Fields(strings.ToLower(norm.NFC.String(query)))
}

// termCoverage returns the fraction of terms found as substrings of text.
func termCoverage(terms []string, text string) float64 {
	if len(terms) == 0 {
		return 0
	}
	haystack := strings.ToLower(norm.NFC.String(text))
	matched := 0
	for _, t := range terms {
		if strings.Contains(haystack, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
