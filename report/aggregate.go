package report

import (
	"math"
	"sort"

	"ivr-report/models"
	"ivr-report/timecodec"
)

// agentTotals accumulates the summed counters for one agent.
type agentTotals struct {
	agent  string
	calls  int
	logged int
	ring   int
	talk   int
}

// Aggregate builds the table, series and KPIs from the given files. Rows are
// taken in file order, then row order; that first-seen order breaks ties when
// the table is sorted by calls.
func Aggregate(q models.Query, files []models.FileRecord) *models.ReportResult {
	queues := selectionSet(q.SelectedQueues)
	agents := selectionSet(q.SelectedAgents)

	// Facets come from every in-range row, before filtering.
	queueFacet := make(map[string]struct{})
	agentFacet := make(map[string]struct{})

	byAgent := make(map[string]*agentTotals)
	order := make([]*agentTotals, 0)

	for _, f := range files {
		for _, row := range f.Rows {
			queue := row.QueueKey()
			agent := row.AgentKey()
			queueFacet[queue] = struct{}{}
			agentFacet[agent] = struct{}{}

			if !selected(queues, queue) || !selected(agents, agent) {
				continue
			}

			acc, ok := byAgent[agent]
			if !ok {
				acc = &agentTotals{agent: agent}
				byAgent[agent] = acc
				order = append(order, acc)
			}
			acc.calls += row.CallsAnswered
			acc.logged += row.LoggedInSeconds
			acc.ring += row.RingSeconds
			acc.talk += row.TalkSeconds
		}
	}

	table := make([]models.AgentStats, 0, len(order))
	for _, acc := range order {
		table = append(table, deriveStats(acc))
	}

	// Stable so agents with equal calls keep first-seen order: O(n log n)
	sort.SliceStable(table, func(i, j int) bool {
		return table[i].Calls > table[j].Calls
	})

	return &models.ReportResult{
		Table:  table,
		Series: buildSeries(table),
		KPIs:   buildKPIs(table),
		Meta: models.ReportMeta{
			Files:             summarizeFiles(files),
			DateRangeWarnings: rangeWarnings(q.Range, files),
			SelectedRange:     q.Range,
			AvailableQueues:   sortedKeys(queueFacet),
			AvailableAgents:   sortedKeys(agentFacet),
		},
	}
}

func deriveStats(acc *agentTotals) models.AgentStats {
	// Zero divisors yield zero rather than NaN or Inf
	answeredPerHour := 0.0
	if acc.logged > 0 {
		answeredPerHour = float64(acc.calls) / (float64(acc.logged) / 3600.0)
	}
	meanRing, meanTalk := 0.0, 0.0
	if acc.calls > 0 {
		meanRing = float64(acc.ring) / float64(acc.calls)
		meanTalk = float64(acc.talk) / float64(acc.calls)
	}

	return models.AgentStats{
		Agent:           acc.agent,
		Calls:           acc.calls,
		LoggedInSeconds: acc.logged,
		RingSeconds:     acc.ring,
		TalkSeconds:     acc.talk,
		LoggedIn:        timecodec.SecondsToDuration(float64(acc.logged)),
		AnsweredPerHour: answeredPerHour,
		MeanRingSeconds: meanRing,
		MeanTalkSeconds: meanTalk,
		MeanRing:        timecodec.SecondsToDuration(meanRing),
		MeanTalk:        timecodec.SecondsToDuration(meanTalk),
	}
}

func buildSeries(table []models.AgentStats) models.Series {
	s := models.Series{
		Agents:          make([]string, 0, len(table)),
		CallsPerAgent:   make([]int, 0, len(table)),
		MeanTalkTime:    make([]float64, 0, len(table)),
		MeanRingTime:    make([]float64, 0, len(table)),
		AnsweredPerHour: make([]float64, 0, len(table)),
	}
	for _, row := range table {
		s.Agents = append(s.Agents, row.Agent)
		s.CallsPerAgent = append(s.CallsPerAgent, row.Calls)
		s.MeanTalkTime = append(s.MeanTalkTime, row.MeanTalkSeconds)
		s.MeanRingTime = append(s.MeanRingTime, row.MeanRingSeconds)
		s.AnsweredPerHour = append(s.AnsweredPerHour, row.AnsweredPerHour)
	}
	return s
}

// buildKPIs averages per-agent values without weighting by call volume.
func buildKPIs(table []models.AgentStats) models.KPIs {
	var k models.KPIs
	var sumAPH, sumRing, sumTalk float64
	for _, row := range table {
		k.TotalCalls += row.Calls
		sumAPH += row.AnsweredPerHour
		sumRing += row.MeanRingSeconds
		sumTalk += row.MeanTalkSeconds
	}
	if n := float64(len(table)); n > 0 {
		k.AvgAnsweredPerHour = round2(sumAPH / n)
		k.AvgRingSeconds = sumRing / n
		k.AvgTalkSeconds = sumTalk / n
	}
	k.AvgRing = timecodec.SecondsToDuration(k.AvgRingSeconds)
	k.AvgTalk = timecodec.SecondsToDuration(k.AvgTalkSeconds)
	return k
}

func summarizeFiles(files []models.FileRecord) []models.FileSummary {
	out := make([]models.FileSummary, 0, len(files))
	for _, f := range files {
		out = append(out, models.FileSummary{
			ID:        f.ID,
			Name:      f.Name,
			Date:      f.Date,
			DateRange: f.DateRange,
			Rows:      len(f.Rows),
		})
	}
	return out
}

// rangeWarnings lists files whose coverage reaches outside the requested
// range. Their rows still count in full.
func rangeWarnings(rng models.DateRange, files []models.FileRecord) []models.DateRangeWarning {
	out := make([]models.DateRangeWarning, 0)
	for _, f := range files {
		iv, ok := f.EffectiveInterval()
		if !ok || rng.Contains(iv) {
			continue
		}
		out = append(out, models.DateRangeWarning{
			FileName:      f.Name,
			FileRange:     iv,
			SelectedRange: rng,
		})
	}
	return out
}

// selectionSet returns nil for both a nil and an empty selection; nil means
// no filtering.
func selectionSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func selected(set map[string]struct{}, key string) bool {
	if set == nil {
		return true
	}
	_, ok := set[key]
	return ok
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
