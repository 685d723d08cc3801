// Package timecodec converts the duration and percentage text found in
// call-center exports into numbers and back.
package timecodec

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DurationToSeconds converts "H:MM:SS", "M:SS" or a bare number into whole
// seconds. Anything it cannot read, and any negative duration, counts as zero.
func DurationToSeconds(text string) int {
	if secs := durationToSeconds(text); secs > 0 {
		return secs
	}
	return 0
}

func durationToSeconds(text string) int {
	s := strings.TrimSpace(text)
	if s == "" || s == "0" {
		return 0
	}

	parts := strings.Split(s, ":")
	switch len(parts) {
	case 3, 2:
		total := 0.0
		for _, p := range parts {
			n, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return 0
			}
			total = total*60 + n
		}
		return roundSeconds(total)
	case 1:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return roundSeconds(n)
	default:
		return 0
	}
}

// SecondsToDuration renders seconds as "H:MM:SS". Negative or non-finite
// input renders as zero.
func SecondsToDuration(seconds float64) string {
	secs := roundSeconds(seconds)
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	sec := secs % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
}

// PercentToFloat parses "87.5%" or "87.5" into 87.5. It returns nil when the
// text is empty or not a number.
func PercentToFloat(text string) *float64 {
	s := strings.TrimSpace(text)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	return &n
}

// ParseNumber reads a plain decimal that may carry thousands separators.
func ParseNumber(text string) *float64 {
	s := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if s == "" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	return &n
}

func roundSeconds(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}
