package domain

import (
	"math"
	"strconv"
	"strings"
)

// ParseHours leniently extracts an hour count from free text such as
// "3 hours" or "1.5h". Everything except digits and dots is stripped before
// parsing; anything unparseable defaults to one hour. This lossy rule exists
// only for values arriving from the row store or the API; internal code
// carries float64 hours.
func ParseHours(s string) float64 {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 1
	}
	var b strings.Builder
	for _, r := range trimmed {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || v <= 0 {
		return 1
	}
	return v
}

// Round1 rounds to one decimal place, the precision used for hour figures.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// RoundInt rounds to the nearest integer, returned as int for percentage and
// currency figures.
func RoundInt(v float64) int {
	return int(math.Round(v))
}
