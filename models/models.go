package models

import (
	"sort"
	"time"
)

// UnknownKey is used when a row carries no agent or queue.
const UnknownKey = "Unknown"

// ReportKind tells which export shape a file was parsed as.
type ReportKind string

const (
	KindPerformance ReportKind = "performance"
	KindLogin       ReportKind = "login"
)

// Row represents one agent (and optionally queue) record from a single
// source file. It is shared across packages and never mutated after parsing.
type Row struct {
	Agent string `json:"agent"`
	Queue string `json:"queue,omitempty"`

	// Raw text as it appeared in the export.
	TotalLoggedInTime    string `json:"totalLoggedInTime,omitempty"`
	PercentCallsServiced string `json:"percentCallsServiced,omitempty"`
	AnsweredPerHour      string `json:"answeredPerHour,omitempty"`
	RingTime             string `json:"ringTime,omitempty"`
	MeanRingTime         string `json:"meanRingTime,omitempty"`
	TalkTime             string `json:"talkTime,omitempty"`
	MeanTalkTime         string `json:"meanTalkTime,omitempty"`

	CallsAnswered        int      `json:"callsAnswered"`
	LoggedInSeconds      int      `json:"loggedInSeconds"`
	RingSeconds          int      `json:"ringSeconds"`
	MeanRingSeconds      int      `json:"meanRingSeconds"`
	TalkSeconds          int      `json:"talkSeconds"`
	MeanTalkSeconds      int      `json:"meanTalkSeconds"`
	PercentServiced      *float64 `json:"percentServiced"`
	AnsweredPerHourValue *float64 `json:"answeredPerHourValue"`
}

// AgentKey returns the agent name, or UnknownKey when empty.
func (r Row) AgentKey() string {
	if r.Agent == "" {
		return UnknownKey
	}
	return r.Agent
}

// QueueKey returns the queue name, or UnknownKey when empty.
func (r Row) QueueKey() string {
	if r.Queue == "" {
		return UnknownKey
	}
	return r.Queue
}

// DateRange is an inclusive span of ISO (YYYY-MM-DD) dates. ISO dates sort
// lexically in calendar order, so plain string comparison is used throughout.
type DateRange struct {
	From string `json:"from" yaml:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" yaml:"to" validate:"required,datetime=2006-01-02"`
}

// Intersects reports whether both inclusive ranges share at least one day.
func (r DateRange) Intersects(other DateRange) bool {
	return r.From <= other.To && r.To >= other.From
}

// Contains reports whether other lies entirely within r.
func (r DateRange) Contains(other DateRange) bool {
	return r.From <= other.From && r.To >= other.To
}

// ParseResult is what the parser extracts from one file.
type ParseResult struct {
	Rows      []Row
	Kind      ReportKind
	DateHint  string     // empty when no date could be inferred
	DateRange *DateRange // set only when the content carries a From/To header
}

// FileRecord is a stored import.
type FileRecord struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Size      int64      `json:"size"`
	AddedAt   time.Time  `json:"addedAt"`
	Kind      ReportKind `json:"type"`
	Date      string     `json:"date"`
	DateRange *DateRange `json:"dateRange,omitempty"`
	Rows      []Row      `json:"rows"`
}

// EffectiveInterval returns the file's date coverage: its explicit range, or
// its single date as a one-day range. ok is false for undated files.
func (f FileRecord) EffectiveInterval() (DateRange, bool) {
	if f.DateRange != nil && f.DateRange.From != "" && f.DateRange.To != "" {
		return *f.DateRange, true
	}
	if f.Date != "" {
		return DateRange{From: f.Date, To: f.Date}, true
	}
	return DateRange{}, false
}

// Agents returns the sorted distinct agent keys appearing in the file.
func (f FileRecord) Agents() []string {
	seen := make(map[string]struct{}, len(f.Rows))
	for _, r := range f.Rows {
		seen[r.AgentKey()] = struct{}{}
	}
	agents := make([]string, 0, len(seen))
	for a := range seen {
		agents = append(agents, a)
	}
	sort.Strings(agents)
	return agents
}

// OverlapKind classifies how two date intervals intersect, seen from the
// candidate file.
type OverlapKind string

const (
	OverlapIdentical OverlapKind = "identical"
	OverlapContained OverlapKind = "contained" // candidate inside existing
	OverlapContains  OverlapKind = "contains"  // existing inside candidate
	OverlapPartial   OverlapKind = "partial"
)

// Overlap describes one stored file whose coverage intersects a candidate.
type Overlap struct {
	FileID       string      `json:"fileId"`
	FileName     string      `json:"fileName"`
	Interval     DateRange   `json:"interval"`
	Kind         OverlapKind `json:"kind"`
	SharedAgents []string    `json:"sharedAgents,omitempty"`
}

// IsConflict reports whether the same agent appears in both files.
func (o Overlap) IsConflict() bool {
	return len(o.SharedAgents) > 0
}

// StoreStatus is the outcome of storing one file.
type StoreStatus string

const (
	StatusStored    StoreStatus = "stored"
	StatusDuplicate StoreStatus = "duplicate"
)

// StoreOutcome is returned for every store attempt. For duplicates Record is
// the existing record.
type StoreOutcome struct {
	Status    StoreStatus `json:"status"`
	Record    FileRecord  `json:"record"`
	Overlaps  []Overlap   `json:"overlaps,omitempty"`
	Conflicts []Overlap   `json:"conflicts,omitempty"`
}

// Query selects the rows a report is built from. A nil and an empty
// selection both mean "no filtering".
type Query struct {
	Range          DateRange `json:"range"`
	SelectedQueues []string  `json:"selectedQueues,omitempty"`
	SelectedAgents []string  `json:"selectedAgents,omitempty"`
}
