package extractor

import (
	"math"
	"strconv"
	"strings"
)

var countSuffixes = map[byte]float64{
	'k': 1e3,
	'm': 1e6,
	'b': 1e9,
}

// ParseCount reads a star or fork counter as rendered on a card:
// "42", "1,234", "1.2k", "3.4m", "1b". Anything else yields 0, as do
// negative values.
func ParseCount(text string) int {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}

	if multiplier, ok := countSuffixes[s[len(s)-1]]; ok {
		value, err := strconv.ParseFloat(strings.TrimSpace(s[:len(s)-1]), 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
			return 0
		}
		scaled := math.Round(value * multiplier)
		if scaled > math.MaxInt32 {
			return math.MaxInt32
		}
		return int(scaled)
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
