// Package display holds the pure presentation computations of the budget
// workflow: currency formatting and the fixed status/priority label and color
// mappings. Everything here is a function of already-fetched data; no network
// calls and no mutable state.
package display

import (
	"math"
	"strconv"

	"github.com/bloglens/adbudget/internal/models"
)

// Color names used by terminal and downstream renderers.
const (
	ColorGreen  = "green"
	ColorBlue   = "blue"
	ColorYellow = "yellow"
	ColorRed    = "red"
	ColorGray   = "gray"
	ColorOrange = "orange"
)

// FormatCurrency rounds to the nearest integer and groups thousands:
// 1234567.4 -> "1,234,567". Negative amounts keep the sign before the digits.
func FormatCurrency(amount float64) string {
	n := int64(math.Round(amount))
	neg := n < 0
	if neg {
		n = -n
	}

	s := strconv.FormatInt(n, 10)
	if len(s) > 3 {
		var b []byte
		for i, c := range []byte(s) {
			if i > 0 && (len(s)-i)%3 == 0 {
				b = append(b, ',')
			}
			b = append(b, c)
		}
		s = string(b)
	}
	if neg {
		return "-" + s
	}
	return s
}

// StatusColor maps a platform status to its display color. Unknown statuses
// fall back to gray.
func StatusColor(s models.PlatformStatus) string {
	switch s {
	case models.StatusExcellent:
		return ColorGreen
	case models.StatusGood:
		return ColorBlue
	case models.StatusFair:
		return ColorYellow
	case models.StatusPoor:
		return ColorRed
	}
	return ColorGray
}

// StatusLabel maps a platform status to its Korean display label.
func StatusLabel(s models.PlatformStatus) string {
	switch s {
	case models.StatusExcellent:
		return "최상"
	case models.StatusGood:
		return "양호"
	case models.StatusFair:
		return "보통"
	case models.StatusPoor:
		return "저조"
	}
	return "미확인"
}

// PriorityColor maps a reallocation priority tier to its display color.
// Unknown tiers fall back to gray.
func PriorityColor(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return ColorRed
	case models.PriorityMedium:
		return ColorOrange
	case models.PriorityLow:
		return ColorBlue
	case models.PriorityExclude:
		return ColorGray
	}
	return ColorGray
}
