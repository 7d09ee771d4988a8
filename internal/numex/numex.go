// Package numex classifies numeric tokens found in free search text into
// candidate prices, years, and model numbers. It backs the implicit price
// filter: a bare "1990" reads as a year and an "X100" as a model number, so
// neither should narrow results by price.
package numex

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// Price pattern families, tried in order: currency-prefixed decimal
	// amounts with thousands separators, explicit ranges, suffix-multiplier
	// amounts (5k, 2.5M), and bare 4+-digit numbers.
	priceAmountRe = regexp.MustCompile(`\b(?:\$|€|£|USD|EUR|GBP)?\s?(\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?)\b`)
	priceRangeRe  = regexp.MustCompile(`\b(?:\$|€|£)?(\d+(?:\.\d{1,2})?)\s*[-~]\s*(?:\$|€|£)?(\d+(?:\.\d{1,2})?)\b`)
	priceSuffixRe = regexp.MustCompile(`\b(\d+(?:\.\d{1,2})?)([KkMmBbTt])\b`)
	priceBareRe   = regexp.MustCompile(`\b(?:\$|€|£)?(\d{4,})(?:\$|€|£)?\b`)

	// Year pattern families: 4-digit numbers in 1900-2099, or any 4-digit
	// number qualified by a model/year keyword.
	yearPlainRe   = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	yearKeywordRe = regexp.MustCompile(`\b(\d{4})\s*(?:model|year|edition|released|version)\b`)

	// Model-number pattern families: letter sequences interleaved with 1-4
	// digits, or 3-4-digit numbers with an optional single-letter affix.
	modelAlnumRe        = regexp.MustCompile(`\b([A-Z]+(?:\s?\d{1,4}[A-Z]*)+)\b`)
	modelDigitSuffixRe  = regexp.MustCompile(`\b(\d{3,4}\s?[A-Z]?)\b`)
	modelLetterPrefixRe = regexp.MustCompile(`\b([A-Z]\s?\d{3,4})\b`)
)

var suffixMultipliers = map[string]float64{
	"K": 1e3,
	"M": 1e6,
	"B": 1e9,
	"T": 1e12,
}

// Prices returns the deduplicated, ascending candidate price amounts in
// text. A value that also classifies as a year, or whose integer string
// form also classifies as a model number, is excluded. Unparseable tokens
// are skipped.
func Prices(text string) []float64 {
	var amounts []float64

	for _, m := range priceAmountRe.FindAllStringSubmatch(text, -1) {
		if v, ok := parseAmount(m[1]); ok {
			amounts = append(amounts, v)
		}
	}
	for _, m := range priceRangeRe.FindAllStringSubmatch(text, -1) {
		// A range contributes both endpoints.
		if v, ok := parseAmount(m[1]); ok {
			amounts = append(amounts, v)
		}
		if v, ok := parseAmount(m[2]); ok {
			amounts = append(amounts, v)
		}
	}
	for _, m := range priceSuffixRe.FindAllStringSubmatch(text, -1) {
		if v, ok := parseAmount(m[1]); ok {
			amounts = append(amounts, v*suffixMultipliers[strings.ToUpper(m[2])])
		}
	}
	for _, m := range priceBareRe.FindAllStringSubmatch(text, -1) {
		if v, ok := parseAmount(m[1]); ok {
			amounts = append(amounts, v)
		}
	}

	years := make(map[int]struct{})
	for _, y := range Years(text) {
		years[y] = struct{}{}
	}
	models := make(map[string]struct{})
	for _, m := range ModelNumbers(text) {
		models[m] = struct{}{}
	}

	seen := make(map[float64]struct{})
	var prices []float64
	for _, v := range amounts {
		if v == float64(int(v)) {
			if _, isYear := years[int(v)]; isYear {
				continue
			}
		}
		if _, isModel := models[strconv.FormatInt(int64(v), 10)]; isModel {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		prices = append(prices, v)
	}

	sort.Float64s(prices)
	return prices
}

// Years returns the deduplicated, ascending candidate years in text.
func Years(text string) []int {
	seen := make(map[int]struct{})
	var years []int

	collect := func(re *regexp.Regexp) {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			y, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if _, dup := seen[y]; dup {
				continue
			}
			seen[y] = struct{}{}
			years = append(years, y)
		}
	}

	collect(yearPlainRe)
	collect(yearKeywordRe)

	sort.Ints(years)
	return years
}

// ModelNumbers returns the deduplicated candidate model numbers in text,
// sorted case-insensitively.
func ModelNumbers(text string) []string {
	seen := make(map[string]struct{})
	var models []string

	collect := func(re *regexp.Regexp) {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			token := strings.TrimSpace(m[1])
			if token == "" || isAllDigits(token) {
				// A bare number on its own is a price or year candidate,
				// not a model number.
				continue
			}
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			models = append(models, token)
		}
	}

	collect(modelAlnumRe)
	collect(modelDigitSuffixRe)
	collect(modelLetterPrefixRe)

	sort.Slice(models, func(i, j int) bool {
		a, b := strings.ToLower(models[i]), strings.ToLower(models[j])
		if a == b {
			return models[i] < models[j]
		}
		return a < b
	})
	return models
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// parseAmount parses a numeric token, tolerating thousands separators.
func parseAmount(token string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
