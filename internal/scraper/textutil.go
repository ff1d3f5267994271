package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	priceRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
	discountRe = regexp.MustCompile(`(?i)(\d+)%\s+off`)
	weightRes  = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+(?:\.\d+)?\s*(?:kg|g|ml|l|lb|oz))`),
		regexp.MustCompile(`(?i)(\d+(?:\.\d+)?\s*(?:kilogram|gram|milliliter|liter|pound|ounce))`),
		regexp.MustCompile(`(?i)(\d+\s*(?:pack|piece|pcs))`),
	}
)

// CleanPrice returns the first number in s, ignoring thousands separators
func CleanPrice(s string) float64 {
	m := priceRe.FindStringSubmatch(strings.ReplaceAll(s, ",", ""))
	if m == nil {
		return 0
	}
	price, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return price
}

// ExtractDiscountPercentage finds "<n>% off" in s
func ExtractDiscountPercentage(s string) int {
	m := discountRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// ExtractWeight returns the first weight or pack size mentioned in s
func ExtractWeight(s string) string {
	for _, re := range weightRes {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1]
		}
	}
	return ""
}

// parseRating reads ratings such as "4.3★" or "4.3 (1k+)"
func parseRating(s string, fallback float64) float64 {
	s = strings.TrimSpace(strings.SplitN(s, "★", 2)[0])
	if rating := CleanPrice(s); rating > 0 && rating <= 5 {
		return rating
	}
	return fallback
}

// titleCase capitalizes each word. A Caser is stateful, so one is built per call.
func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}
