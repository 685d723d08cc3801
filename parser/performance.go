package parser

import (
	"fmt"
	"math"
	"strings"

	"ivr-report/models"
	"ivr-report/timecodec"
)

// Canonical column names of the performance export.
const (
	colAgent           = "Agent"
	colQueue           = "Queue"
	colLoggedIn        = "Total Logged in Time"
	colCalls           = "Calls"
	colCallsAnswered   = "Calls Answered"
	colPercentServiced = "% Calls Serviced"
	colAnsweredPerHour = "Answered per Hour"
	colRingTime        = "Ring Time"
	colMeanRingTime    = "Mean Ring Time"
	colTalkTime        = "Talk Time"
	colMeanTalkTime    = "Mean Talk Time"
)

const totalMarker = "Total:"

// headerRenames maps the positional names the exporter leaves on its
// unlabelled columns to canonical names.
var headerRenames = map[string]string{
	"Unnamed: 1":  "Agent Extra",
	"Unnamed: 3":  "Queue Extra",
	colCalls:      colCallsAnswered,
	"Unnamed: 6":  colPercentServiced,
	"Unnamed: 7":  colAnsweredPerHour,
	"Unnamed: 9":  colMeanRingTime,
	"Unnamed: 11": colMeanTalkTime,
}

// followerNames names unlabelled columns by the labelled column they follow.
var followerNames = map[string][]string{
	colCalls:    {colPercentServiced, colAnsweredPerHour},
	colRingTime: {colMeanRingTime},
	colTalkTime: {colMeanTalkTime},
}

// columnIndex maps canonical column names to their position in a row.
type columnIndex map[string]int

func (idx columnIndex) value(row []string, name string) (string, bool) {
	pos, ok := idx[name]
	if !ok || pos >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[pos]), true
}

// buildColumnIndex names every header cell. Empty cells get the positional
// "Unnamed: N" name first so that both the rename table and the follower
// rule can apply to them.
func buildColumnIndex(header []string) columnIndex {
	names := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		names[i] = h
	}

	for i := 0; i < len(names); i++ {
		followers, ok := followerNames[names[i]]
		if !ok {
			continue
		}
		for j, follower := range followers {
			pos := i + 1 + j
			if pos >= len(names) || !strings.HasPrefix(names[pos], "Unnamed: ") {
				break
			}
			names[pos] = follower
		}
	}

	idx := make(columnIndex, len(names))
	for i, name := range names {
		if renamed, ok := headerRenames[name]; ok {
			name = renamed
		}
		if _, exists := idx[name]; !exists {
			idx[name] = i
		}
	}
	return idx
}

// findHeaderRow returns the index of the first row whose first cell is
// exactly "Agent", or -1.
func findHeaderRow(records [][]string) int {
	for i, rec := range records {
		if cell(rec, 0) == colAgent {
			return i
		}
	}
	return -1
}

func (p *Parser) parsePerformanceTable(records [][]string) []models.Row {
	headerIdx := findHeaderRow(records)
	if headerIdx < 0 {
		// Legacy exports put the header at a fixed position.
		headerIdx = p.LegacyHeaderRow
	}
	if headerIdx < 0 || headerIdx >= len(records) {
		return nil
	}

	idx := buildColumnIndex(records[headerIdx])
	if _, ok := idx[colAgent]; !ok {
		return nil
	}

	var rows []models.Row
	for _, rec := range records[headerIdx+1:] {
		agent, _ := idx.value(rec, colAgent)
		if agent == "" || agent == colAgent || agent == totalMarker {
			continue
		}
		rows = append(rows, buildPerformanceRow(rec, idx, agent))
	}
	return rows
}

func buildPerformanceRow(rec []string, idx columnIndex, agent string) models.Row {
	row := models.Row{Agent: agent}
	row.Queue, _ = idx.value(rec, colQueue)

	row.TotalLoggedInTime, _ = idx.value(rec, colLoggedIn)
	row.RingTime, _ = idx.value(rec, colRingTime)
	row.MeanRingTime, _ = idx.value(rec, colMeanRingTime)
	row.TalkTime, _ = idx.value(rec, colTalkTime)
	row.MeanTalkTime, _ = idx.value(rec, colMeanTalkTime)

	row.LoggedInSeconds = timecodec.DurationToSeconds(row.TotalLoggedInTime)
	row.RingSeconds = timecodec.DurationToSeconds(row.RingTime)
	row.MeanRingSeconds = timecodec.DurationToSeconds(row.MeanRingTime)
	row.TalkSeconds = timecodec.DurationToSeconds(row.TalkTime)
	row.MeanTalkSeconds = timecodec.DurationToSeconds(row.MeanTalkTime)

	if calls, ok := idx.value(rec, colCallsAnswered); ok {
		row.CallsAnswered = parseCount(calls)
	}
	if pct, ok := idx.value(rec, colPercentServiced); ok {
		row.PercentCallsServiced = pct
		row.PercentServiced = timecodec.PercentToFloat(pct)
	}
	if aph, ok := idx.value(rec, colAnsweredPerHour); ok {
		row.AnsweredPerHour = aph
		row.AnsweredPerHourValue = timecodec.ParseNumber(aph)
	}
	return row
}

// parseCount reads a call count. Non-numeric and negative values count as
// zero.
func parseCount(s string) int {
	n := timecodec.ParseNumber(s)
	if n == nil || *n < 0 {
		return 0
	}
	return int(math.Round(*n))
}
