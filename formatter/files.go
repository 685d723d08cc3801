package formatter

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"ivr-report/ingest"
	"ivr-report/models"
)

var sizeUnits = []string{"B", "KB", "MB"}

// FormatFileSize renders a byte count with one decimal, e.g. "1.5 KB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	v := math.Round(float64(bytes)/math.Pow(1024, float64(i))*10) / 10
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// FormatFilesText lists stored files, one per line.
func FormatFilesText(files []models.FileRecord) string {
	if len(files) == 0 {
		return "No files stored\n"
	}

	var sb strings.Builder
	for _, f := range files {
		sb.WriteString(fmt.Sprintf("%s  %s  [%s]  %s  %s  rows=%d  added=%s\n",
			f.ID, f.Name, coverage(f.Date, f.DateRange), FormatFileSize(f.Size),
			f.Kind, len(f.Rows), f.AddedAt.Format("2006-01-02 15:04")))
	}
	return sb.String()
}

// fileEntry is the JSON listing shape; rows are summarized, not dumped.
type fileEntry struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Size      int64             `json:"size"`
	SizeText  string            `json:"sizeText"`
	Kind      models.ReportKind `json:"type"`
	Date      string            `json:"date"`
	DateRange *models.DateRange `json:"dateRange,omitempty"`
	Rows      int               `json:"rows"`
	Agents    []string          `json:"agents"`
	AddedAt   string            `json:"addedAt"`
}

// FormatFilesJSON lists stored files as a JSON array.
func FormatFilesJSON(files []models.FileRecord) string {
	entries := make([]fileEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, fileEntry{
			ID:        f.ID,
			Name:      f.Name,
			Size:      f.Size,
			SizeText:  FormatFileSize(f.Size),
			Kind:      f.Kind,
			Date:      f.Date,
			DateRange: f.DateRange,
			Rows:      len(f.Rows),
			Agents:    f.Agents(),
			AddedAt:   f.AddedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	jsonBytes, _ := json.MarshalIndent(entries, "", "  ")
	return string(jsonBytes) + "\n"
}

// FormatImport summarizes one import batch.
func FormatImport(batch *ingest.Batch) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Import %s : files=%d ; failed=%d\n", batch.ID, len(batch.Results), batch.Failed()))

	for _, r := range batch.Results {
		if r.Err != nil {
			sb.WriteString(fmt.Sprintf("%s : error ; %v\n", r.Name, r.Err))
			continue
		}
		rec := r.Outcome.Record
		sb.WriteString(fmt.Sprintf("%s : %s ; id=%s ; type=%s ; rows=%d ; date=%s\n",
			r.Name, r.Outcome.Status, rec.ID, rec.Kind, len(rec.Rows), coverage(rec.Date, rec.DateRange)))

		for _, o := range r.Outcome.Overlaps {
			sb.WriteString(fmt.Sprintf("  overlap (%s) with %s [%s..%s]\n", o.Kind, o.FileName, o.Interval.From, o.Interval.To))
		}
		for _, c := range r.Outcome.Conflicts {
			sb.WriteString(fmt.Sprintf("  ⚠️  CONFLICT with %s: shared agents %s\n", c.FileName, strings.Join(c.SharedAgents, ", ")))
		}
		if r.Outcome.Status == models.StatusStored {
			if _, dated := rec.EffectiveInterval(); !dated {
				sb.WriteString(fmt.Sprintf("  needs a date: ivr-report resolve -id %s -date YYYY-MM-DD\n", rec.ID))
			}
		}
	}
	return sb.String()
}
