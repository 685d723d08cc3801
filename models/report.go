package models

// AgentStats is one row of the per-agent report table.
type AgentStats struct {
	Agent           string  `json:"agent" yaml:"agent"`
	Calls           int     `json:"calls" yaml:"calls"`
	LoggedInSeconds int     `json:"loggedInSeconds" yaml:"logged_in_seconds"`
	RingSeconds     int     `json:"ringSeconds" yaml:"ring_seconds"`
	TalkSeconds     int     `json:"talkSeconds" yaml:"talk_seconds"`
	LoggedIn        string  `json:"loggedIn" yaml:"logged_in"`
	AnsweredPerHour float64 `json:"answeredPerHour" yaml:"answered_per_hour"`
	MeanRingSeconds float64 `json:"meanRingSeconds" yaml:"mean_ring_seconds"`
	MeanTalkSeconds float64 `json:"meanTalkSeconds" yaml:"mean_talk_seconds"`
	MeanRing        string  `json:"meanRing" yaml:"mean_ring"`
	MeanTalk        string  `json:"meanTalk" yaml:"mean_talk"`
}

// Series holds chart-ready arrays aligned with the table order.
type Series struct {
	Agents          []string  `json:"agents" yaml:"agents"`
	CallsPerAgent   []int     `json:"callsPerAgent" yaml:"calls_per_agent"`
	MeanTalkTime    []float64 `json:"meanTalkTime" yaml:"mean_talk_time"`
	MeanRingTime    []float64 `json:"meanRingTime" yaml:"mean_ring_time"`
	AnsweredPerHour []float64 `json:"answeredPerHour" yaml:"answered_per_hour"`
}

// KPIs are the headline figures. Averages are unweighted means across
// agents.
type KPIs struct {
	TotalCalls         int     `json:"totalCalls" yaml:"total_calls"`
	AvgAnsweredPerHour float64 `json:"avgAnsweredPerHour" yaml:"avg_answered_per_hour"`
	AvgRingSeconds     float64 `json:"avgRingSeconds" yaml:"avg_ring_seconds"`
	AvgTalkSeconds     float64 `json:"avgTalkSeconds" yaml:"avg_talk_seconds"`
	AvgRing            string  `json:"avgRing" yaml:"avg_ring"`
	AvgTalk            string  `json:"avgTalk" yaml:"avg_talk"`
}

// FileSummary describes a file that contributed to a report.
type FileSummary struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Date      string     `json:"date" yaml:"date"`
	DateRange *DateRange `json:"dateRange,omitempty" yaml:"date_range,omitempty"`
	Rows      int        `json:"rows" yaml:"rows"`
}

// DateRangeWarning flags a contributing file whose coverage extends past the
// requested range, so its totals include days that were not asked for.
type DateRangeWarning struct {
	FileName      string    `json:"filename" yaml:"filename"`
	FileRange     DateRange `json:"fileRange" yaml:"file_range"`
	SelectedRange DateRange `json:"selectedRange" yaml:"selected_range"`
}

// ReportMeta carries provenance and facet data.
type ReportMeta struct {
	Signature         string             `json:"signature" yaml:"signature"`
	Files             []FileSummary      `json:"files" yaml:"files"`
	DateRangeWarnings []DateRangeWarning `json:"dateRangeWarnings" yaml:"date_range_warnings"`
	SelectedRange     DateRange          `json:"selectedRange" yaml:"selected_range"`
	AvailableQueues   []string           `json:"availableQueues" yaml:"available_queues"`
	AvailableAgents   []string           `json:"availableAgents" yaml:"available_agents"`
}

// ReportResult is the output of one report build. Once cached it is treated
// as immutable.
type ReportResult struct {
	Table  []AgentStats `json:"table" yaml:"table"`
	Series Series       `json:"series" yaml:"series"`
	KPIs   KPIs         `json:"kpis" yaml:"kpis"`
	Meta   ReportMeta   `json:"meta" yaml:"meta"`
}
