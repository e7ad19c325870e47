// Package priceparse is the deterministic price-extraction backend.
// The oracle-backed referee is the context-aware alternative; this
// package is the fallback used for agent self-tracking and for the
// judge's heuristic parse when structured output is unavailable.
package priceparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var contextPatterns = []*regexp.Regexp{
	// $700, $1,200.50
	regexp.MustCompile(`\$\s*(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`),
	// 700 dollars
	regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)\s*dollars?`),
	// at 700, for 700, offer 700, pay 700
	regexp.MustCompile(`(?i)(?:at|for|of|offer|price|pay)\s+\$?\s*(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`),
}

// barePattern matches plausible bare prices (3-4 digits, optional $).
var barePattern = regexp.MustCompile(`\$?(\d{3,4})\b`)

// IsYearLike reports whether v looks like a calendar year (2000-2030).
// Product years ("2018 Honda Civic") must never be read as prices.
func IsYearLike(v float64) bool {
	return v >= 2000 && v <= 2030 && v == math.Trunc(v)
}

// First returns the first price mentioned in text, or nil if none is
// found. Year-like numbers are skipped.
func First(text string) *float64 {
	for _, pattern := range contextPatterns {
		matches := pattern.FindAllStringSubmatch(text, -1)
		for _, m := range matches {
			v, err := parseAmount(m[1])
			if err != nil || IsYearLike(v) {
				continue
			}
			return &v
		}
	}
	return nil
}

// All returns every plausible bare price in text, in order of
// appearance, with year-like numbers filtered out.
func All(text string) []float64 {
	var prices []float64
	for _, m := range barePattern.FindAllStringSubmatch(text, -1) {
		v, err := parseAmount(m[1])
		if err != nil || IsYearLike(v) {
			continue
		}
		prices = append(prices, v)
	}
	return prices
}

func parseAmount(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}
