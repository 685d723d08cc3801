// Package ingest imports batches of export files: files are read and parsed
// concurrently, then stored one by one in the order they were given.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	customerrors "ivr-report/errors"
	"ivr-report/metrics"
	"ivr-report/models"
	"ivr-report/parser"
	"ivr-report/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of files parsed at once.
const DefaultConcurrency = 4

// DefaultMaxFileSize bounds a single export read into memory.
const DefaultMaxFileSize int64 = 32 << 20

// Storer is the part of the repository the importer needs.
type Storer interface {
	Store(ctx context.Context, up repository.Upload) (*models.StoreOutcome, error)
}

// Source is an in-memory file.
type Source struct {
	Name    string
	Content []byte
}

// Result is the outcome for one input. Exactly one of Outcome and Err is set.
type Result struct {
	Path    string
	Name    string
	Kind    models.ReportKind
	Rows    int
	Outcome *models.StoreOutcome
	Err     error
}

// Batch collects the results of one import call, in input order.
type Batch struct {
	ID      string
	Results []Result
}

// Failed counts the inputs that could not be stored.
func (b *Batch) Failed() int {
	n := 0
	for _, r := range b.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

type Importer struct {
	repo        Storer
	parser      *parser.Parser
	logger      zerolog.Logger
	concurrency int
	maxFileSize int64
}

// New returns an Importer. Non-positive limits fall back to the defaults.
func New(repo Storer, p *parser.Parser, concurrency int, maxFileSize int64, logger zerolog.Logger) *Importer {
	if p == nil {
		p = parser.New()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Importer{
		repo:        repo,
		parser:      p,
		logger:      logger.With().Str("component", "ingest").Logger(),
		concurrency: concurrency,
		maxFileSize: maxFileSize,
	}
}

type parsed struct {
	content []byte
	result  *models.ParseResult
}

// ImportFiles reads each path from disk. A failure on one file is recorded in
// its Result and never stops the others.
func (im *Importer) ImportFiles(ctx context.Context, paths []string) (*Batch, error) {
	results := make([]Result, len(paths))
	for i, p := range paths {
		results[i] = Result{Path: p, Name: filepath.Base(p)}
	}

	return im.run(ctx, results, func(i int) ([]byte, error) {
		return im.readFile(paths[i])
	})
}

// Import stores already-loaded files.
func (im *Importer) Import(ctx context.Context, sources []Source) (*Batch, error) {
	results := make([]Result, len(sources))
	for i, s := range sources {
		results[i] = Result{Name: s.Name}
	}

	return im.run(ctx, results, func(i int) ([]byte, error) {
		if int64(len(sources[i].Content)) > im.maxFileSize {
			return nil, fmt.Errorf("%w: %d bytes", customerrors.ErrFileTooLarge, len(sources[i].Content))
		}
		return sources[i].Content, nil
	})
}

func (im *Importer) run(ctx context.Context, results []Result, read func(i int) ([]byte, error)) (*Batch, error) {
	batch := &Batch{ID: uuid.NewString(), Results: results}
	logger := im.logger.With().Str("batch", batch.ID).Logger()
	logger.Info().Int("files", len(results)).Int("concurrency", im.concurrency).Msg("import started")

	parsedFiles := make([]parsed, len(results))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.concurrency)
	for i := range results {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			content, err := read(i)
			if err != nil {
				results[i].Err = err
				return nil
			}
			res, err := im.parser.Parse(content, results[i].Name)
			if err != nil {
				results[i].Err = err
				return nil
			}
			parsedFiles[i] = parsed{content: content, result: res}
			results[i].Kind = res.Kind
			results[i].Rows = len(res.Rows)
			return nil
		})
	}
	// Workers never return errors; failures live in results.
	_ = g.Wait()

	// Storing is sequential so every snapshot write sees the previous one.
	for i := range results {
		r := &results[i]
		if r.Err == nil {
			if err := ctx.Err(); err != nil {
				return batch, err
			}
			r.Outcome, r.Err = im.repo.Store(ctx, repository.Upload{
				Name:    r.Name,
				Size:    int64(len(parsedFiles[i].content)),
				Content: parsedFiles[i].content,
				Parsed:  parsedFiles[i].result,
			})
		}

		if r.Err != nil {
			metrics.ImportFilesTotal.WithLabelValues("failed").Inc()
			logger.Error().Err(r.Err).Str("file", r.Name).Msg("import failed")
			continue
		}
		metrics.ImportFilesTotal.WithLabelValues(string(r.Outcome.Status)).Inc()
	}

	logger.Info().Int("files", len(results)).Int("failed", batch.Failed()).Msg("import finished")
	return batch, nil
}

func (im *Importer) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > im.maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes (limit %d)", customerrors.ErrFileTooLarge, path, info.Size(), im.maxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
