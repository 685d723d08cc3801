// Package repository owns the collection of imported files. It fingerprints
// incoming exports, rejects exact duplicates and reports how a new file's
// date coverage overlaps the files already held.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	customerrors "ivr-report/errors"
	"ivr-report/metrics"
	"ivr-report/models"
	"ivr-report/parser"
	"ivr-report/store"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
)

// FilesKey is the store key holding the snapshot.
const FilesKey = "files"

// Snapshot is the persisted form of the collection.
type Snapshot struct {
	Files []models.FileRecord `json:"files"`
}

// Upload is one parsed file ready to be stored.
type Upload struct {
	Name    string
	Size    int64
	Content []byte
	Parsed  *models.ParseResult
}

// FileRepository reads and writes the snapshot through a store.Store. All
// mutations hold mu across their load-modify-save cycle.
type FileRepository struct {
	mu     sync.Mutex
	store  store.Store
	logger zerolog.Logger

	// Now stamps AddedAt on new records.
	Now func() time.Time
}

func New(s store.Store, logger zerolog.Logger) *FileRepository {
	return &FileRepository{
		store:  s,
		logger: logger.With().Str("component", "repository").Logger(),
		Now:    time.Now,
	}
}

// Load reads the snapshot. A store that has never been written yields an
// empty snapshot.
func (r *FileRepository) Load(ctx context.Context) (Snapshot, error) {
	data, err := r.store.Get(ctx, FilesKey)
	if errors.Is(err, customerrors.ErrKeyNotFound) {
		return Snapshot{Files: []models.FileRecord{}}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load files: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode files: %w", err)
	}
	if snap.Files == nil {
		snap.Files = []models.FileRecord{}
	}
	return snap, nil
}

// Replace swaps the whole collection for snap, serialized with every other
// mutation.
func (r *FileRepository) Replace(ctx context.Context, snap Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.save(ctx, snap); err != nil {
		return err
	}
	r.logger.Info().Int("files", len(snap.Files)).Msg("collection replaced")
	return nil
}

// save writes the snapshot wholesale. Callers hold mu.
func (r *FileRepository) save(ctx context.Context, snap Snapshot) error {
	if snap.Files == nil {
		snap.Files = []models.FileRecord{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode files: %w", err)
	}
	if err := r.store.Put(ctx, FilesKey, data); err != nil {
		return fmt.Errorf("save files: %w", err)
	}
	metrics.SetRepositoryGauges(len(snap.Files), countPending(snap.Files))
	return nil
}

// Fingerprint derives a stable id from the raw bytes, the filename, the size
// and a compact summary of the extracted rows.
func Fingerprint(content []byte, filename string, size int64, rows []models.Row) string {
	agents := make(map[string]struct{}, len(rows))
	calls := 0
	for _, row := range rows {
		agents[row.AgentKey()] = struct{}{}
		calls += row.CallsAnswered
	}

	h := xxhash.New()
	_, _ = h.Write(content)
	_, _ = h.WriteString("\x00" + filename)
	_, _ = h.WriteString("\x00" + strconv.FormatInt(size, 10))
	_, _ = fmt.Fprintf(h, "\x00%d|%d|%d", len(agents), calls, len(rows))
	return fmt.Sprintf("%016x", h.Sum64())
}

// Store adds an upload. An exact duplicate leaves the collection untouched and
// returns the existing record. Overlaps and conflicts are reported but never
// block storage.
func (r *FileRepository) Store(ctx context.Context, up Upload) (*models.StoreOutcome, error) {
	if up.Parsed == nil {
		return nil, fmt.Errorf("store %s: no parse result", up.Name)
	}
	size := up.Size
	if size == 0 {
		size = int64(len(up.Content))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}

	id := Fingerprint(up.Content, up.Name, size, up.Parsed.Rows)
	for _, existing := range snap.Files {
		if existing.ID == id {
			metrics.StoreOutcomesTotal.WithLabelValues(string(models.StatusDuplicate)).Inc()
			r.logger.Info().Str("file", up.Name).Str("id", id).Msg("duplicate file skipped")
			return &models.StoreOutcome{Status: models.StatusDuplicate, Record: existing}, nil
		}
	}

	record := models.FileRecord{
		ID:      id,
		Name:    up.Name,
		Size:    size,
		AddedAt: r.Now().UTC(),
		Kind:    up.Parsed.Kind,
		Date:    up.Parsed.DateHint,
		Rows:    up.Parsed.Rows,
	}
	if up.Parsed.DateRange != nil {
		dr := *up.Parsed.DateRange
		record.DateRange = &dr
	}
	if record.Rows == nil {
		record.Rows = []models.Row{}
	}

	overlaps, conflicts := OverlapsFor(record, snap.Files)

	snap.Files = append(snap.Files, record)
	if err := r.save(ctx, snap); err != nil {
		return nil, err
	}

	metrics.StoreOutcomesTotal.WithLabelValues(string(models.StatusStored)).Inc()
	metrics.OverlapsTotal.Add(float64(len(overlaps)))
	metrics.ConflictsTotal.Add(float64(len(conflicts)))

	event := r.logger.Info()
	if len(conflicts) > 0 {
		event = r.logger.Warn()
	}
	event.Str("file", record.Name).
		Str("id", id).
		Int("rows", len(record.Rows)).
		Int("overlaps", len(overlaps)).
		Int("conflicts", len(conflicts)).
		Msg("file stored")

	return &models.StoreOutcome{
		Status:    models.StatusStored,
		Record:    record,
		Overlaps:  overlaps,
		Conflicts: conflicts,
	}, nil
}

// ResolveDate sets the date of an undated record. Overlaps are not
// re-evaluated.
func (r *FileRepository) ResolveDate(ctx context.Context, id, isoDate string) error {
	if !parser.ValidISODate(isoDate) {
		return fmt.Errorf("%w: %q", customerrors.ErrInvalidDate, isoDate)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.Load(ctx)
	if err != nil {
		return err
	}

	i := indexOf(snap.Files, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", customerrors.ErrFileNotFound, id)
	}
	if _, dated := snap.Files[i].EffectiveInterval(); dated {
		return fmt.Errorf("%w: %s", customerrors.ErrFileAlreadyDated, id)
	}

	snap.Files[i].Date = isoDate
	if err := r.save(ctx, snap); err != nil {
		return err
	}
	r.logger.Info().Str("id", id).Str("date", isoDate).Msg("file date resolved")
	return nil
}

// Remove deletes a record. Cached reports that used it are left alone; their
// signatures simply stop matching.
func (r *FileRepository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.Load(ctx)
	if err != nil {
		return err
	}

	i := indexOf(snap.Files, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", customerrors.ErrFileNotFound, id)
	}
	name := snap.Files[i].Name
	snap.Files = append(snap.Files[:i], snap.Files[i+1:]...)

	if err := r.save(ctx, snap); err != nil {
		return err
	}
	r.logger.Info().Str("id", id).Str("file", name).Msg("file removed")
	return nil
}

// Get returns a single record.
func (r *FileRepository) Get(ctx context.Context, id string) (models.FileRecord, error) {
	snap, err := r.Load(ctx)
	if err != nil {
		return models.FileRecord{}, err
	}
	i := indexOf(snap.Files, id)
	if i < 0 {
		return models.FileRecord{}, fmt.Errorf("%w: %s", customerrors.ErrFileNotFound, id)
	}
	return snap.Files[i], nil
}

// List returns every record in insertion order.
func (r *FileRepository) List(ctx context.Context) ([]models.FileRecord, error) {
	snap, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Files, nil
}

// Pending returns the records that still need a date.
func (r *FileRepository) Pending(ctx context.Context) ([]models.FileRecord, error) {
	files, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var pending []models.FileRecord
	for _, f := range files {
		if _, ok := f.EffectiveInterval(); !ok {
			pending = append(pending, f)
		}
	}
	return pending, nil
}

func indexOf(files []models.FileRecord, id string) int {
	for i, f := range files {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func countPending(files []models.FileRecord) int {
	n := 0
	for _, f := range files {
		if _, ok := f.EffectiveInterval(); !ok {
			n++
		}
	}
	return n
}
