// Package report turns stored files into per-agent performance reports over
// a date range and memoizes each result under a signature of its inputs.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	customerrors "ivr-report/errors"
	"ivr-report/metrics"
	"ivr-report/models"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// FileSource lists the stored files. *repository.FileRepository satisfies it.
type FileSource interface {
	List(ctx context.Context) ([]models.FileRecord, error)
}

// Builder answers report queries.
type Builder struct {
	files    FileSource
	cache    *Cache
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewBuilder(files FileSource, cache *Cache, logger zerolog.Logger) *Builder {
	return &Builder{
		files:    files,
		cache:    cache,
		validate: validator.New(),
		logger:   logger.With().Str("component", "report").Logger(),
	}
}

// FilesInRange returns the dated files whose coverage intersects rng, ordered
// by coverage start and then id.
func (b *Builder) FilesInRange(ctx context.Context, rng models.DateRange) ([]models.FileRecord, error) {
	all, err := b.files.List(ctx)
	if err != nil {
		return nil, err
	}
	return filterInRange(all, rng), nil
}

func filterInRange(all []models.FileRecord, rng models.DateRange) []models.FileRecord {
	out := make([]models.FileRecord, 0, len(all))
	for _, f := range all {
		if iv, ok := f.EffectiveInterval(); ok && iv.Intersects(rng) {
			out = append(out, f)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].EffectiveInterval()
		c, _ := out[j].EffectiveInterval()
		if a.From != c.From {
			return a.From < c.From
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Build returns the report for q. A cache hit returns the stored result
// unchanged; otherwise the report is aggregated, cached and returned.
func (b *Builder) Build(ctx context.Context, q models.Query) (*models.ReportResult, error) {
	if err := b.ValidateQuery(q); err != nil {
		return nil, err
	}

	files, err := b.FilesInRange(ctx, q.Range)
	if err != nil {
		return nil, err
	}
	sig := Signature(q, files)

	if cached, ok, err := b.cache.Get(ctx, sig); err != nil {
		return nil, err
	} else if ok {
		metrics.ReportCacheHitsTotal.Inc()
		b.logger.Debug().Str("signature", sig).Msg("report cache hit")
		return cached, nil
	}
	metrics.ReportCacheMissesTotal.Inc()

	start := time.Now()
	result := Aggregate(q, files)
	result.Meta.Signature = sig

	metrics.ReportBuildDurationSeconds.Observe(time.Since(start).Seconds())
	metrics.ReportAgents.Set(float64(len(result.Table)))
	metrics.ReportFilesInRange.Observe(float64(len(files)))

	if err := b.cache.Put(ctx, sig, result); err != nil {
		return nil, err
	}

	b.logger.Info().
		Str("from", q.Range.From).
		Str("to", q.Range.To).
		Int("files", len(files)).
		Int("agents", len(result.Table)).
		Int("warnings", len(result.Meta.DateRangeWarnings)).
		Msg("report built")

	return result, nil
}

// ValidateQuery checks that both bounds are ISO dates and From <= To.
func (b *Builder) ValidateQuery(q models.Query) error {
	if err := b.validate.Struct(q); err != nil {
		return fmt.Errorf("%w: %v", customerrors.ErrInvalidRange, err)
	}
	if q.Range.From > q.Range.To {
		return fmt.Errorf("%w: %s is after %s", customerrors.ErrInvalidRange, q.Range.From, q.Range.To)
	}
	return nil
}

// DefaultRange spans the earliest to the latest covered day across the
// dated files. ok is false when no file is dated.
func DefaultRange(files []models.FileRecord) (rng models.DateRange, ok bool) {
	for _, f := range files {
		iv, dated := f.EffectiveInterval()
		if !dated {
			continue
		}
		if !ok || iv.From < rng.From {
			rng.From = iv.From
		}
		if !ok || iv.To > rng.To {
			rng.To = iv.To
		}
		ok = true
	}
	return rng, ok
}
