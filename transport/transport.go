// Package transport moves the whole collection and report cache between
// installations as a single JSON document.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	customerrors "ivr-report/errors"
	"ivr-report/models"
	"ivr-report/parser"
	"ivr-report/report"
	"ivr-report/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Document is the transport file layout. Cache is kept as raw JSON; Decode
// fills CacheEntries from it.
type Document struct {
	ExportID   string              `json:"exportId,omitempty"`
	ExportedAt *time.Time          `json:"exportedAt,omitempty"`
	Data       repository.Snapshot `json:"data"`
	Cache      json.RawMessage     `json:"cache"`

	CacheEntries map[string]*models.ReportResult `json:"-"`
}

// Summary describes what an export or restore moved.
type Summary struct {
	ExportID     string
	Files        int
	CacheEntries int
}

type Service struct {
	repo   *repository.FileRepository
	cache  *report.Cache
	logger zerolog.Logger
	now    func() time.Time
}

func New(repo *repository.FileRepository, cache *report.Cache, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger.With().Str("component", "transport").Logger(),
		now:    time.Now,
	}
}

// Export writes the current snapshot and cache to w.
func (s *Service) Export(ctx context.Context, w io.Writer) (Summary, error) {
	snap, err := s.repo.Load(ctx)
	if err != nil {
		return Summary{}, err
	}

	cache, err := s.cache.Raw(ctx)
	if err != nil {
		return Summary{}, err
	}

	exportedAt := s.now().UTC()
	doc := Document{
		ExportID:   uuid.NewString(),
		ExportedAt: &exportedAt,
		Data:       snap,
		Cache:      json.RawMessage(cache),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return Summary{}, fmt.Errorf("write transport file: %w", err)
	}

	summary := Summary{ExportID: doc.ExportID, Files: len(snap.Files), CacheEntries: countEntries(cache)}
	s.logger.Info().
		Str("export_id", summary.ExportID).
		Int("files", summary.Files).
		Int("cache_entries", summary.CacheEntries).
		Msg("exported")
	return summary, nil
}

// Restore replaces the snapshot and cache with the contents of r. Input that
// fails validation leaves the store untouched.
func (s *Service) Restore(ctx context.Context, r io.Reader) (Summary, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Summary{}, fmt.Errorf("read transport file: %w", err)
	}

	doc, err := Decode(raw)
	if err != nil {
		return Summary{}, err
	}

	if err := s.repo.Replace(ctx, doc.Data); err != nil {
		return Summary{}, err
	}
	if err := s.cache.Replace(ctx, doc.CacheEntries); err != nil {
		return Summary{}, err
	}

	summary := Summary{ExportID: doc.ExportID, Files: len(doc.Data.Files), CacheEntries: len(doc.CacheEntries)}
	s.logger.Info().
		Str("export_id", summary.ExportID).
		Int("files", summary.Files).
		Int("cache_entries", summary.CacheEntries).
		Msg("restored")
	return summary, nil
}

// Decode parses and validates a transport file. Every error wraps
// ErrInvalidTransport.
func Decode(raw []byte) (*Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", customerrors.ErrInvalidTransport, err)
	}
	if _, ok := top["data"]; !ok {
		return nil, fmt.Errorf("%w: missing \"data\"", customerrors.ErrInvalidTransport)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", customerrors.ErrInvalidTransport, err)
	}
	if doc.Data.Files == nil {
		return nil, fmt.Errorf("%w: \"data.files\" must be a list", customerrors.ErrInvalidTransport)
	}

	seen := make(map[string]struct{}, len(doc.Data.Files))
	for i, f := range doc.Data.Files {
		if f.ID == "" {
			return nil, fmt.Errorf("%w: file %d has no id", customerrors.ErrInvalidTransport, i)
		}
		if _, dup := seen[f.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate file id %s", customerrors.ErrInvalidTransport, f.ID)
		}
		seen[f.ID] = struct{}{}

		if f.Date != "" && !parser.ValidISODate(f.Date) {
			return nil, fmt.Errorf("%w: file %s has invalid date %q", customerrors.ErrInvalidTransport, f.ID, f.Date)
		}
		if dr := f.DateRange; dr != nil {
			if !parser.ValidISODate(dr.From) || !parser.ValidISODate(dr.To) || dr.From > dr.To {
				return nil, fmt.Errorf("%w: file %s has invalid date range", customerrors.ErrInvalidTransport, f.ID)
			}
		}
	}

	cache := bytes.TrimSpace(doc.Cache)
	if len(cache) == 0 || bytes.Equal(cache, []byte("null")) {
		doc.Cache = json.RawMessage("{}")
	}
	entries, err := report.DecodeCache(doc.Cache)
	if err != nil {
		return nil, fmt.Errorf("%w: cache: %v", customerrors.ErrInvalidTransport, err)
	}
	doc.CacheEntries = entries
	return &doc, nil
}

func countEntries(cache []byte) int {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(cache, &entries); err != nil {
		return 0
	}
	return len(entries)
}
