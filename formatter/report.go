package formatter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"ivr-report/models"

	"gopkg.in/yaml.v3"
)

// ReportFormats lists the formats FormatReport understands.
var ReportFormats = []string{"text", "json", "csv", "yaml"}

// FormatReport renders result in the named format. Unknown formats fall back
// to text.
func FormatReport(result *models.ReportResult, format string) string {
	switch format {
	case "json":
		return FormatJSON(result)
	case "csv":
		return FormatCSV(result)
	case "yaml":
		return FormatYAML(result)
	default:
		return FormatText(result)
	}
}

// FormatText returns the text representation of the report
func FormatText(result *models.ReportResult) string {
	var sb strings.Builder
	meta := result.Meta

	sb.WriteString(fmt.Sprintf("Report %s .. %s : files=%d ; agents=%d\n",
		meta.SelectedRange.From, meta.SelectedRange.To, len(meta.Files), len(result.Table)))

	k := result.KPIs
	sb.WriteString(fmt.Sprintf("KPIs : total_calls=%d ; avg_answered_per_hour=%.2f ; avg_ring=%s ; avg_talk=%s\n",
		k.TotalCalls, k.AvgAnsweredPerHour, k.AvgRing, k.AvgTalk))

	if len(result.Table) == 0 {
		sb.WriteString("No agent activity in range\n")
	}
	for _, row := range result.Table {
		sb.WriteString(formatTextLine(row))
		sb.WriteString("\n")
	}

	// Files that also cover days outside the range
	for _, w := range meta.DateRangeWarnings {
		sb.WriteString(fmt.Sprintf("  ⚠️  DATE RANGE WARNING: %s covers %s..%s, beyond %s..%s\n",
			w.FileName, w.FileRange.From, w.FileRange.To, w.SelectedRange.From, w.SelectedRange.To))
	}

	if len(meta.Files) > 0 {
		sb.WriteString("Files:\n")
		for _, f := range meta.Files {
			sb.WriteString(fmt.Sprintf("    • %s [%s] rows=%d\n", f.Name, coverage(f.Date, f.DateRange), f.Rows))
		}
	}

	return sb.String()
}

// formatTextLine formats a single agent line for text output
func formatTextLine(row models.AgentStats) string {
	return fmt.Sprintf("%s : calls=%d ; logged_in=%s ; answered_per_hour=%.2f ; mean_ring=%s ; mean_talk=%s",
		row.Agent, row.Calls, row.LoggedIn, row.AnsweredPerHour, row.MeanRing, row.MeanTalk)
}

// FormatJSON returns the JSON representation of the report
func FormatJSON(result *models.ReportResult) string {
	jsonBytes, _ := json.MarshalIndent(result, "", "  ")
	return string(jsonBytes) + "\n"
}

// FormatYAML returns the YAML representation of the report
func FormatYAML(result *models.ReportResult) string {
	yamlBytes, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Sprintf("# yaml error: %v\n", err)
	}
	return string(yamlBytes)
}

// csvHeader is the first line of FormatCSV output.
var csvHeader = []string{
	"Agent", "Calls", "Logged In", "Logged In Seconds", "Answered per Hour",
	"Mean Ring", "Mean Ring Seconds", "Mean Talk", "Mean Talk Seconds",
}

// FormatCSV returns the CSV representation of the per-agent table
func FormatCSV(result *models.ReportResult) string {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	writer.Write(csvHeader)
	for _, row := range result.Table {
		writer.Write([]string{
			row.Agent,
			strconv.Itoa(row.Calls),
			row.LoggedIn,
			strconv.Itoa(row.LoggedInSeconds),
			strconv.FormatFloat(row.AnsweredPerHour, 'f', 2, 64),
			row.MeanRing,
			strconv.FormatFloat(row.MeanRingSeconds, 'f', 2, 64),
			row.MeanTalk,
			strconv.FormatFloat(row.MeanTalkSeconds, 'f', 2, 64),
		})
	}

	writer.Flush()
	return sb.String()
}

// coverage renders a file's dates the way the file list shows them.
func coverage(date string, rng *models.DateRange) string {
	if rng != nil && rng.From != rng.To {
		return rng.From + " to " + rng.To
	}
	if date == "" {
		return "No date"
	}
	return date
}
