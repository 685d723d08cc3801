package formatter_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"ivr-report/formatter"
	"ivr-report/ingest"
	"ivr-report/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() *models.ReportResult {
	week := models.DateRange{From: "2025-08-01", To: "2025-08-05"}
	return &models.ReportResult{
		Table: []models.AgentStats{
			{Agent: "Ann", Calls: 15, LoggedInSeconds: 5400, LoggedIn: "1:30:00", AnsweredPerHour: 10, MeanRingSeconds: 5, MeanRing: "0:00:05", MeanTalkSeconds: 50, MeanTalk: "0:00:50"},
			{Agent: "Bob, Jr.", Calls: 4, LoggedInSeconds: 7200, LoggedIn: "2:00:00", AnsweredPerHour: 2, MeanRingSeconds: 10, MeanRing: "0:00:10", MeanTalkSeconds: 100, MeanTalk: "0:01:40"},
		},
		Series: models.Series{Agents: []string{"Ann", "Bob, Jr."}, CallsPerAgent: []int{15, 4}},
		KPIs:   models.KPIs{TotalCalls: 19, AvgAnsweredPerHour: 6, AvgRingSeconds: 7.5, AvgRing: "0:00:08", AvgTalk: "0:01:15"},
		Meta: models.ReportMeta{
			Signature: "sig",
			Files: []models.FileSummary{
				{ID: "w", Name: "week.csv", Date: "2025-08-01", DateRange: &week, Rows: 2},
			},
			DateRangeWarnings: []models.DateRangeWarning{
				{FileName: "week.csv", FileRange: week, SelectedRange: models.DateRange{From: "2025-08-03", To: "2025-08-03"}},
			},
			SelectedRange:   models.DateRange{From: "2025-08-03", To: "2025-08-03"},
			AvailableQueues: []string{"Sales"},
			AvailableAgents: []string{"Ann", "Bob, Jr."},
		},
	}
}

func TestFormatText(t *testing.T) {
	tests := map[string]struct {
		result   *models.ReportResult
		contains []string
	}{
		"EmptyReport": {
			result: &models.ReportResult{Meta: models.ReportMeta{SelectedRange: models.DateRange{From: "2025-08-01", To: "2025-08-02"}}},
			contains: []string{
				"Report 2025-08-01 .. 2025-08-02 : files=0 ; agents=0",
				"KPIs : total_calls=0 ; avg_answered_per_hour=0.00",
				"No agent activity in range",
			},
		},
		"WithAgentsAndWarnings": {
			result: sampleReport(),
			contains: []string{
				"KPIs : total_calls=19 ; avg_answered_per_hour=6.00 ; avg_ring=0:00:08 ; avg_talk=0:01:15",
				"Ann : calls=15 ; logged_in=1:30:00 ; answered_per_hour=10.00 ; mean_ring=0:00:05 ; mean_talk=0:00:50",
				"⚠️  DATE RANGE WARNING: week.csv covers 2025-08-01..2025-08-05, beyond 2025-08-03..2025-08-03",
				"• week.csv [2025-08-01 to 2025-08-05] rows=2",
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			output := formatter.FormatText(tt.result)
			for _, s := range tt.contains {
				assert.Contains(t, output, s)
			}
		})
	}
}

func TestFormatJSON(t *testing.T) {
	output := formatter.FormatJSON(sampleReport())
	for _, s := range []string{
		`"totalCalls": 19`,
		`"agent": "Ann"`,
		`"filename": "week.csv"`,
		`"signature": "sig"`,
	} {
		assert.Contains(t, output, s)
	}
}

func TestFormatYAML(t *testing.T) {
	output := formatter.FormatYAML(sampleReport())

	var decoded models.ReportResult
	require.NoError(t, yaml.Unmarshal([]byte(output), &decoded))
	assert.Equal(t, 19, decoded.KPIs.TotalCalls)
	assert.Equal(t, "Bob, Jr.", decoded.Table[1].Agent)
	assert.Contains(t, output, "avg_answered_per_hour: 6")
}

func TestFormatCSV(t *testing.T) {
	tests := map[string]struct {
		result   *models.ReportResult
		contains []string
	}{
		"EmptyReport": {
			result: &models.ReportResult{},
		},
		"QuotesNames": {
			result: sampleReport(),
			contains: []string{
				"Ann,15,1:30:00,5400,10.00,0:00:05,5.00,0:00:50,50.00",
				`"Bob, Jr.",4,2:00:00,7200,2.00,0:00:10,10.00,0:01:40,100.00`,
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			output := formatter.FormatCSV(tt.result)
			lines := strings.Split(output, "\n")

			// Check header
			assert.Equal(t, "Agent,Calls,Logged In,Logged In Seconds,Answered per Hour,Mean Ring,Mean Ring Seconds,Mean Talk,Mean Talk Seconds", lines[0])

			for _, s := range tt.contains {
				assert.Contains(t, output, s)
			}
		})
	}
}

func TestFormatReportDispatch(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, formatter.FormatJSON(r), formatter.FormatReport(r, "json"))
	assert.Equal(t, formatter.FormatCSV(r), formatter.FormatReport(r, "csv"))
	assert.Equal(t, formatter.FormatYAML(r), formatter.FormatReport(r, "yaml"))
	assert.Equal(t, formatter.FormatText(r), formatter.FormatReport(r, "bogus"))
}

func TestFormatFileSize(t *testing.T) {
	tests := map[string]struct {
		bytes    int64
		expected string
	}{
		"Zero":       {bytes: 0, expected: "0 B"},
		"Bytes":      {bytes: 500, expected: "500 B"},
		"ExactKB":    {bytes: 1024, expected: "1 KB"},
		"HalfKB":     {bytes: 1536, expected: "1.5 KB"},
		"MB":         {bytes: 5 * 1024 * 1024, expected: "5 MB"},
		"CappedAtMB": {bytes: 3 * 1024 * 1024 * 1024, expected: "3072 MB"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatter.FormatFileSize(tt.bytes))
		})
	}
}

func TestFormatFiles(t *testing.T) {
	added := time.Date(2025, 8, 10, 9, 30, 0, 0, time.UTC)
	files := []models.FileRecord{
		{ID: "abc", Name: "a.csv", Size: 2048, Kind: models.KindPerformance, Date: "2025-08-01", AddedAt: added, Rows: []models.Row{{Agent: "Ann"}, {Agent: "Bob"}}},
		{ID: "def", Name: "b.csv", Size: 10, Kind: models.KindLogin, AddedAt: added},
	}

	text := formatter.FormatFilesText(files)
	assert.Contains(t, text, "abc  a.csv  [2025-08-01]  2 KB  performance  rows=2  added=2025-08-10 09:30")
	assert.Contains(t, text, "def  b.csv  [No date]  10 B  login  rows=0")
	assert.Equal(t, "No files stored\n", formatter.FormatFilesText(nil))

	js := formatter.FormatFilesJSON(files)
	assert.Contains(t, js, `"sizeText": "2 KB"`)
	assert.Contains(t, js, `"type": "login"`)
	assert.Contains(t, js, `"Ann"`)
}

func TestFormatImport(t *testing.T) {
	batch := &ingest.Batch{
		ID: "batch-1",
		Results: []ingest.Result{
			{
				Name: "b.csv",
				Outcome: &models.StoreOutcome{
					Status: models.StatusStored,
					Record: models.FileRecord{ID: "b1", Name: "b.csv", Kind: models.KindPerformance, Date: "2025-08-01"},
					Overlaps: []models.Overlap{
						{FileName: "a.csv", Kind: models.OverlapIdentical, Interval: models.DateRange{From: "2025-08-01", To: "2025-08-01"}, SharedAgents: []string{"Ann", "Bob"}},
					},
					Conflicts: []models.Overlap{
						{FileName: "a.csv", Kind: models.OverlapIdentical, SharedAgents: []string{"Ann", "Bob"}},
					},
				},
			},
			{Name: "c.csv", Outcome: &models.StoreOutcome{Status: models.StatusStored, Record: models.FileRecord{ID: "c1", Kind: models.KindLogin}}},
			{Name: "d.csv", Outcome: &models.StoreOutcome{Status: models.StatusDuplicate, Record: models.FileRecord{ID: "d1", Date: "2025-08-02"}}},
			{Name: "e.csv", Err: errors.New("boom")},
		},
	}

	output := formatter.FormatImport(batch)
	for _, s := range []string{
		"Import batch-1 : files=4 ; failed=1",
		"b.csv : stored ; id=b1 ; type=performance ; rows=0 ; date=2025-08-01",
		"overlap (identical) with a.csv [2025-08-01..2025-08-01]",
		"⚠️  CONFLICT with a.csv: shared agents Ann, Bob",
		"needs a date: ivr-report resolve -id c1",
		"d.csv : duplicate ; id=d1",
		"e.csv : error ; boom",
	} {
		assert.Contains(t, output, s)
	}
	assert.Equal(t, 1, strings.Count(output, "needs a date"))
}
