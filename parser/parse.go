package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	customerrors "ivr-report/errors"
	"ivr-report/metrics"
	"ivr-report/models"
)

// errBinaryContent rejects spreadsheets and other binary uploads, which
// contain NUL bytes that never appear in a text export.
var errBinaryContent = errors.New("binary content")

// LoginMarker is the phrase the telephony system prints on the first line of
// an agent login history export.
const LoginMarker = "Queue Agent Logins"

// Parser turns raw export text into canonical rows. The zero value is not
// usable; call New.
type Parser struct {
	// Now supplies the year used when a filename date has none.
	Now func() time.Time
	// LegacyHeaderRow is the header position assumed for performance exports
	// whose header row does not start with "Agent".
	LegacyHeaderRow int
	// DateHeaderLines bounds how many leading lines are searched for a
	// "From ... To ..." header.
	DateHeaderLines int
}

// New returns a Parser with the default settings.
func New() *Parser {
	return &Parser{
		Now:             time.Now,
		LegacyHeaderRow: 4,
		DateHeaderLines: 10,
	}
}

var defaultParser = New()

// Parse reads one export using the default Parser.
func Parse(content []byte, filename string) (*models.ParseResult, error) {
	return defaultParser.Parse(content, filename)
}

// Parse reads one export. The content may be either a per-agent performance
// table or a login duration table; the kind is detected from the content.
// Dates come from an embedded "From M/D/YYYY ... To M/D/YYYY" line when
// present, otherwise from the filename.
//
// A performance table without a recognisable header yields zero rows rather
// than an error. Only content that is not CSV at all is rejected.
func (p *Parser) Parse(content []byte, filename string) (*models.ParseResult, error) {
	start := time.Now()
	defer func() {
		metrics.ParserDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	records, line, err := readTable(content)
	if err != nil {
		metrics.ParserErrorsTotal.WithLabelValues("unreadable").Inc()
		return nil, &customerrors.ParseError{
			File: filename,
			Line: line,
			Err:  fmt.Errorf("%w: %v", customerrors.ErrUnreadableTable, err),
		}
	}

	result := &models.ParseResult{Kind: detectKind(records)}
	switch result.Kind {
	case models.KindLogin:
		result.Rows = parseLoginTable(records)
	default:
		result.Rows = p.parsePerformanceTable(records)
	}

	if r, ok := p.dateRangeFromContent(records); ok {
		result.DateRange = &r
		result.DateHint = r.From
	} else {
		result.DateHint = p.dateFromFilename(filename)
	}

	metrics.ParserFilesTotal.WithLabelValues(string(result.Kind)).Inc()
	metrics.ParserRowsTotal.Add(float64(len(result.Rows)))
	if len(result.Rows) == 0 {
		metrics.ParserErrorsTotal.WithLabelValues("no_rows").Inc()
	}
	return result, nil
}

// readTable splits CSV text into non-empty records. Field counts may vary
// from line to line. On failure it also returns the offending line, or 0.
func readTable(content []byte) ([][]string, int, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if i := bytes.IndexByte(content, 0); i >= 0 {
		return nil, bytes.Count(content[:i], []byte{'\n'}) + 1, errBinaryContent
	}
	content = sanitizeUTF8(content)

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	all, err := reader.ReadAll()
	if err != nil {
		var csvErr *csv.ParseError
		if errors.As(err, &csvErr) {
			return nil, csvErr.Line, err
		}
		return nil, 0, err
	}

	records := make([][]string, 0, len(all))
	for _, rec := range all {
		if isEmptyRow(rec) {
			continue
		}
		records = append(records, rec)
	}
	return records, 0, nil
}

// detectKind recognises login exports either by their marker line or, for
// older exports without one, by their "<id> <name>" ... "Total:" blocks.
func detectKind(records [][]string) models.ReportKind {
	if len(records) == 0 {
		return models.KindPerformance
	}
	if strings.Contains(strings.Join(records[0], ","), LoginMarker) {
		return models.KindLogin
	}
	if findHeaderRow(records) < 0 && hasLoginBlocks(records) {
		return models.KindLogin
	}
	return models.KindPerformance
}

func hasLoginBlocks(records [][]string) bool {
	inBlock := false
	for _, rec := range records {
		first := cell(rec, 0)
		if agentLineRegex.MatchString(first) {
			inBlock = true
			continue
		}
		if inBlock && first == totalMarker {
			return true
		}
	}
	return false
}

// cell returns the trimmed value at i, or "" when the record is too short.
func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
