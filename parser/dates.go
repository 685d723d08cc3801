package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"ivr-report/models"
)

const isoLayout = "2006-01-02"

var (
	// "From 8/1/2025 12:00 AM To 8/5/2025 11:59 PM"
	fromToRegex = regexp.MustCompile(`(?i)\bfrom\s+(\d{1,2})/(\d{1,2})/(\d{4}).*?\bto\s+(\d{1,2})/(\d{1,2})/(\d{4})`)

	ymdRegex   = regexp.MustCompile(`(20\d{2})[-_](\d{1,2})[-_](\d{1,2})`)
	ddmmRegex  = regexp.MustCompile(`_(\d{2})(\d{2})_`)
	monthRegex = regexp.MustCompile(`(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*[_\- ]?(\d{1,2})[, _\- ]?(20\d{2})?`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December,
}

// dateRangeFromContent looks for a "From M/D/YYYY ... To M/D/YYYY" phrase in
// the leading lines. A reversed pair is normalised so From <= To.
func (p *Parser) dateRangeFromContent(records [][]string) (models.DateRange, bool) {
	limit := p.DateHeaderLines
	if limit > len(records) {
		limit = len(records)
	}

	for _, rec := range records[:limit] {
		m := fromToRegex.FindStringSubmatch(strings.Join(rec, " "))
		if m == nil {
			continue
		}
		from, ok1 := isoDate(m[3], m[1], m[2])
		to, ok2 := isoDate(m[6], m[4], m[5])
		if !ok1 || !ok2 {
			continue
		}
		if from > to {
			from, to = to, from
		}
		return models.DateRange{From: from, To: to}, true
	}
	return models.DateRange{}, false
}

// dateFromFilename tries, in order, an ISO-like date, a "_DDMM_" token and an
// English month name with day and optional year. It returns "" when none
// matches a real calendar date.
func (p *Parser) dateFromFilename(filename string) string {
	if m := ymdRegex.FindStringSubmatch(filename); m != nil {
		if d, ok := isoDate(m[1], m[2], m[3]); ok {
			return d
		}
	}

	currentYear := strconv.Itoa(p.Now().Year())

	if m := ddmmRegex.FindStringSubmatch(filename); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if day >= 1 && day <= 31 && month >= 1 && month <= 12 {
			if d, ok := isoDate(currentYear, m[2], m[1]); ok {
				return d
			}
		}
	}

	if m := monthRegex.FindStringSubmatch(strings.ToLower(filename)); m != nil {
		year := m[3]
		if year == "" {
			year = currentYear
		}
		month := strconv.Itoa(int(monthsByPrefix[m[1]]))
		if d, ok := isoDate(year, month, m[2]); ok {
			return d
		}
	}

	return ""
}

// isoDate builds a YYYY-MM-DD string, rejecting dates that do not exist
// (e.g. February 30).
func isoDate(year, month, day string) (string, bool) {
	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return "", false
	}
	return t.Format(isoLayout), true
}

// ValidISODate reports whether s is a real YYYY-MM-DD calendar date.
func ValidISODate(s string) bool {
	t, err := time.Parse(isoLayout, s)
	return err == nil && t.Format(isoLayout) == s
}
