package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	customerrors "ivr-report/errors"
	"ivr-report/models"
	"ivr-report/repository"
	"ivr-report/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo() (*repository.FileRepository, store.Store) {
	kv := store.NewMemory()
	repo := repository.New(kv, zerolog.Nop())
	repo.Now = func() time.Time { return time.Date(2025, 8, 10, 9, 0, 0, 0, time.UTC) }
	return repo, kv
}

func upload(name, content string, date string, rng *models.DateRange, agents ...string) repository.Upload {
	rows := make([]models.Row, 0, len(agents))
	for _, a := range agents {
		rows = append(rows, models.Row{Agent: a, CallsAnswered: 1})
	}
	return repository.Upload{
		Name:    name,
		Content: []byte(content),
		Parsed: &models.ParseResult{
			Rows:      rows,
			Kind:      models.KindPerformance,
			DateHint:  date,
			DateRange: rng,
		},
	}
}

func TestFingerprint(t *testing.T) {
	rows := []models.Row{{Agent: "A", CallsAnswered: 3}, {Agent: "B", CallsAnswered: 2}}

	base := repository.Fingerprint([]byte("x"), "a.csv", 1, rows)
	assert.Len(t, base, 16)
	assert.Equal(t, base, repository.Fingerprint([]byte("x"), "a.csv", 1, rows))

	tests := map[string]string{
		"Content":  repository.Fingerprint([]byte("y"), "a.csv", 1, rows),
		"Filename": repository.Fingerprint([]byte("x"), "b.csv", 1, rows),
		"Size":     repository.Fingerprint([]byte("x"), "a.csv", 2, rows),
		"Rows":     repository.Fingerprint([]byte("x"), "a.csv", 1, rows[:1]),
	}
	for name, got := range tests {
		t.Run(name, func(t *testing.T) {
			assert.NotEqual(t, base, got)
		})
	}
}

func TestStoreDeduplicates(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo()

	first, err := repo.Store(ctx, upload("a.csv", "abc", "2025-08-01", nil, "Ann"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusStored, first.Status)
	assert.Equal(t, int64(3), first.Record.Size)
	assert.Equal(t, time.Date(2025, 8, 10, 9, 0, 0, 0, time.UTC), first.Record.AddedAt)

	second, err := repo.Store(ctx, upload("a.csv", "abc", "2025-08-01", nil, "Ann"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusDuplicate, second.Status)
	assert.Equal(t, first.Record.ID, second.Record.ID)
	assert.Empty(t, second.Overlaps)

	files, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestStoreReportsOverlaps(t *testing.T) {
	ctx := context.Background()

	tests := map[string]struct {
		existing      repository.Upload
		candidate     repository.Upload
		expectedKind  models.OverlapKind
		expectedShare []string
		noOverlap     bool
	}{
		"Identical": {
			existing:      upload("a.csv", "1", "2025-08-03", nil, "Ann", "Bob"),
			candidate:     upload("b.csv", "2", "2025-08-03", nil, "Bob", "Cy"),
			expectedKind:  models.OverlapIdentical,
			expectedShare: []string{"Bob"},
		},
		"Contained": {
			existing:     upload("week.csv", "1", "2025-08-01", &models.DateRange{From: "2025-08-01", To: "2025-08-07"}, "Ann"),
			candidate:    upload("day.csv", "2", "2025-08-03", nil, "Zed"),
			expectedKind: models.OverlapContained,
		},
		"Contains": {
			existing:      upload("day.csv", "1", "2025-08-03", nil, "Ann"),
			candidate:     upload("week.csv", "2", "2025-08-01", &models.DateRange{From: "2025-08-01", To: "2025-08-07"}, "Ann"),
			expectedKind:  models.OverlapContains,
			expectedShare: []string{"Ann"},
		},
		"Partial": {
			existing:     upload("a.csv", "1", "2025-08-01", &models.DateRange{From: "2025-08-01", To: "2025-08-04"}, "Ann"),
			candidate:    upload("b.csv", "2", "2025-08-03", &models.DateRange{From: "2025-08-03", To: "2025-08-06"}, "Bob"),
			expectedKind: models.OverlapPartial,
		},
		"Disjoint": {
			existing:  upload("a.csv", "1", "2025-08-01", nil, "Ann"),
			candidate: upload("b.csv", "2", "2025-08-02", nil, "Ann"),
			noOverlap: true,
		},
		"UndatedCandidate": {
			existing:  upload("a.csv", "1", "2025-08-01", nil, "Ann"),
			candidate: upload("b.csv", "2", "", nil, "Ann"),
			noOverlap: true,
		},
		"UndatedExisting": {
			existing:  upload("a.csv", "1", "", nil, "Ann"),
			candidate: upload("b.csv", "2", "2025-08-01", nil, "Ann"),
			noOverlap: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			repo, _ := newRepo()
			_, err := repo.Store(ctx, tt.existing)
			require.NoError(t, err)

			outcome, err := repo.Store(ctx, tt.candidate)
			require.NoError(t, err)
			assert.Equal(t, models.StatusStored, outcome.Status)

			if tt.noOverlap {
				assert.Empty(t, outcome.Overlaps)
				assert.Empty(t, outcome.Conflicts)
				return
			}
			require.Len(t, outcome.Overlaps, 1)
			assert.Equal(t, tt.expectedKind, outcome.Overlaps[0].Kind)
			assert.Equal(t, tt.existing.Name, outcome.Overlaps[0].FileName)
			assert.Equal(t, tt.expectedShare, outcome.Overlaps[0].SharedAgents)
			if len(tt.expectedShare) > 0 {
				assert.Len(t, outcome.Conflicts, 1)
			} else {
				assert.Empty(t, outcome.Conflicts)
			}
		})
	}
}

func TestResolveDate(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo()

	undated, err := repo.Store(ctx, upload("a.csv", "1", "", nil, "Ann"))
	require.NoError(t, err)
	dated, err := repo.Store(ctx, upload("b.csv", "2", "2025-08-01", nil, "Ann"))
	require.NoError(t, err)

	pending, err := repo.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, undated.Record.ID, pending[0].ID)

	tests := map[string]struct {
		id          string
		date        string
		expectedErr error
	}{
		"InvalidDate":  {id: undated.Record.ID, date: "2025-02-30", expectedErr: customerrors.ErrInvalidDate},
		"UnknownID":    {id: "nope", date: "2025-08-02", expectedErr: customerrors.ErrFileNotFound},
		"AlreadyDated": {id: dated.Record.ID, date: "2025-08-02", expectedErr: customerrors.ErrFileAlreadyDated},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := repo.ResolveDate(ctx, tt.id, tt.date)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}

	require.NoError(t, repo.ResolveDate(ctx, undated.Record.ID, "2025-08-02"))
	got, err := repo.Get(ctx, undated.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-08-02", got.Date)

	pending, err = repo.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo()

	a, err := repo.Store(ctx, upload("a.csv", "1", "2025-08-01", nil, "Ann"))
	require.NoError(t, err)
	_, err = repo.Store(ctx, upload("b.csv", "2", "2025-08-02", nil, "Bob"))
	require.NoError(t, err)

	require.NoError(t, repo.Remove(ctx, a.Record.ID))
	assert.ErrorIs(t, repo.Remove(ctx, a.Record.ID), customerrors.ErrFileNotFound)

	files, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "b.csv", files[0].Name)

	_, err = repo.Get(ctx, a.Record.ID)
	assert.ErrorIs(t, err, customerrors.ErrFileNotFound)
}

func TestSnapshotPersistence(t *testing.T) {
	ctx := context.Background()
	repo, kv := newRepo()

	empty, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty.Files)
	assert.Empty(t, empty.Files)

	_, err = repo.Store(ctx, upload("a.csv", "1", "2025-08-01", nil, "Ann"))
	require.NoError(t, err)

	raw, err := kv.Get(ctx, repository.FilesKey)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"files":[`)
	assert.Contains(t, string(raw), `"type":"performance"`)

	reopened := repository.New(kv, zerolog.Nop())
	files, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "Ann", files[0].Rows[0].Agent)

	require.NoError(t, kv.Put(ctx, repository.FilesKey, []byte("not json")))
	_, err = reopened.Load(ctx)
	assert.Error(t, err)
}

func TestLargeSnapshotOnItemCappedStore(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	repo := repository.New(store.Chunk(kv, store.DynamoMaxValueSize), zerolog.Nop())

	agents := make([]string, 3000)
	for i := range agents {
		agents[i] = fmt.Sprintf("Agent %04d", i)
	}
	_, err := repo.Store(ctx, upload("big.csv", "big", "2025-08-01", nil, agents...))
	require.NoError(t, err)

	_, err = kv.Get(ctx, repository.FilesKey+"#1")
	require.NoError(t, err, "snapshot should span several parts")

	files, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Len(t, files[0].Rows, 3000)
	assert.Equal(t, "Agent 2999", files[0].Rows[2999].Agent)
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo()

	_, err := repo.Store(ctx, upload("a.csv", "1", "2025-08-01", nil, "Ann"))
	require.NoError(t, err)

	require.NoError(t, repo.Replace(ctx, repository.Snapshot{Files: []models.FileRecord{
		{ID: "r1", Name: "restored.csv", Date: "2025-07-01"},
	}}))
	files, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "restored.csv", files[0].Name)

	require.NoError(t, repo.Replace(ctx, repository.Snapshot{}))
	files, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestOverlapsForSkipsSelf(t *testing.T) {
	rec := models.FileRecord{ID: "x", Date: "2025-08-01", Rows: []models.Row{{Agent: "Ann"}}}
	overlaps, conflicts := repository.OverlapsFor(rec, []models.FileRecord{rec})
	assert.Empty(t, overlaps)
	assert.Empty(t, conflicts)
}
