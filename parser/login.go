package parser

import (
	"regexp"
	"strings"

	"ivr-report/models"
	"ivr-report/timecodec"
)

// agentLineRegex matches the "<id> <name>" line that opens an agent block.
var agentLineRegex = regexp.MustCompile(`^\d+\s+(\S.*)$`)

// loginDurationColumn is the position of the cumulative logged-in time on a
// block's "Total:" line.
const loginDurationColumn = 5

// parseLoginTable emits one row per agent block carrying only the total
// logged-in time.
func parseLoginTable(records [][]string) []models.Row {
	var rows []models.Row
	currentAgent := ""

	for _, rec := range records {
		first := cell(rec, 0)
		if m := agentLineRegex.FindStringSubmatch(first); m != nil {
			currentAgent = strings.TrimSpace(m[1])
		}

		if first != totalMarker || currentAgent == "" {
			continue
		}

		if duration := cell(rec, loginDurationColumn); duration != "" {
			rows = append(rows, models.Row{
				Agent:             currentAgent,
				TotalLoggedInTime: duration,
				LoggedInSeconds:   timecodec.DurationToSeconds(duration),
			})
		}
		currentAgent = ""
	}
	return rows
}
