package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ivr-report/config"
	customerrors "ivr-report/errors"
	"ivr-report/formatter"
	"ivr-report/ingest"
	"ivr-report/models"
	"ivr-report/parser"
	"ivr-report/report"
	"ivr-report/repository"
	"ivr-report/store"
	"ivr-report/transport"

	"github.com/rs/zerolog"
)

// app wires the components for one CLI invocation.
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	out       io.Writer
	repo      *repository.FileRepository
	builder   *report.Builder
	transport *transport.Service
}

func newApp(kv store.Store, cfg *config.Config, logger zerolog.Logger, out io.Writer) *app {
	repo := repository.New(kv, logger)
	cache := report.NewCache(kv)
	return &app{
		cfg:       cfg,
		logger:    logger,
		out:       out,
		repo:      repo,
		builder:   report.NewBuilder(repo, cache, logger),
		transport: transport.New(repo, cache, logger),
	}
}

// run executes one command and returns the process exit code.
func (a *app) run(ctx context.Context, command string, args []string) int {
	var err error
	switch command {
	case "import":
		err = a.importCmd(ctx, args)
	case "files":
		err = a.filesCmd(ctx, args)
	case "resolve":
		err = a.resolveCmd(ctx, args)
	case "remove":
		err = a.removeCmd(ctx, args)
	case "report":
		err = a.reportCmd(ctx, args)
	case "export":
		err = a.exportCmd(ctx, args)
	case "restore":
		err = a.restoreCmd(ctx, args)
	default:
		err = usageError{fmt.Errorf("unknown command %q", command)}
	}

	var ue usageError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.As(err, &ue):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
}

type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usageError{err}
	}
	return nil
}

func (a *app) importCmd(ctx context.Context, args []string) error {
	fs := newFlagSet("import")
	concurrency := fs.Int("concurrency", a.cfg.ImportConcurrency, "Number of files parsed in parallel")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usageError{errors.New("import needs at least one file")}
	}

	im := ingest.New(a.repo, parser.New(), *concurrency, a.cfg.ImportMaxFileSize, a.logger)
	batch, err := im.ImportFiles(ctx, fs.Args())
	if batch != nil {
		fmt.Fprint(a.out, formatter.FormatImport(batch))
	}
	if err != nil {
		return err
	}
	if failed := batch.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d files failed to import", failed, len(batch.Results))
	}
	return nil
}

func (a *app) filesCmd(ctx context.Context, args []string) error {
	fs := newFlagSet("files")
	pending := fs.Bool("pending", false, "Only list files that still need a date")
	format := fs.String("format", "text", "Output format: text|json")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *format != "text" && *format != "json" {
		return usageError{fmt.Errorf("format must be one of: text, json (got: %s)", *format)}
	}

	var (
		files []models.FileRecord
		err   error
	)
	if *pending {
		files, err = a.repo.Pending(ctx)
	} else {
		files, err = a.repo.List(ctx)
	}
	if err != nil {
		return err
	}

	if *format == "json" {
		fmt.Fprint(a.out, formatter.FormatFilesJSON(files))
	} else {
		fmt.Fprint(a.out, formatter.FormatFilesText(files))
	}
	return nil
}

func (a *app) resolveCmd(ctx context.Context, args []string) error {
	fs := newFlagSet("resolve")
	id := fs.String("id", "", "File id (required)")
	date := fs.String("date", "", "Date in YYYY-MM-DD form (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id == "" || *date == "" {
		return usageError{errors.New("resolve needs -id and -date")}
	}

	if err := a.repo.ResolveDate(ctx, *id, *date); err != nil {
		return err
	}
	rec, err := a.repo.Get(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s : id=%s ; date=%s\n", rec.Name, rec.ID, rec.Date)
	return nil
}

func (a *app) removeCmd(ctx context.Context, args []string) error {
	fs := newFlagSet("remove")
	id := fs.String("id", "", "File id (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id == "" {
		return usageError{errors.New("remove needs -id")}
	}

	if err := a.repo.Remove(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s : removed\n", *id)
	return nil
}

func (a *app) reportCmd(ctx context.Context, args []string) error {
	fs := newFlagSet("report")
	from := fs.String("from", "", "First day, YYYY-MM-DD (default: earliest covered day)")
	to := fs.String("to", "", "Last day, YYYY-MM-DD (default: latest covered day)")
	queues := fs.String("queues", "", "Comma-separated queues to include (default: all)")
	agents := fs.String("agents", "", "Comma-separated agents to include (default: all)")
	format := fs.String("format", "text", "Output format: text|json|csv|yaml")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	// Validate format enum
	validFormats := map[string]bool{}
	for _, f := range formatter.ReportFormats {
		validFormats[f] = true
	}
	if !validFormats[*format] {
		return usageError{fmt.Errorf("format must be one of: %s (got: %s)", strings.Join(formatter.ReportFormats, ", "), *format)}
	}

	rng := models.DateRange{From: *from, To: *to}
	if rng.From == "" || rng.To == "" {
		files, err := a.repo.List(ctx)
		if err != nil {
			return err
		}
		def, ok := report.DefaultRange(files)
		if !ok {
			return fmt.Errorf("%w: no dated files to default the range from; pass -from and -to", customerrors.ErrInvalidRange)
		}
		if rng.From == "" {
			rng.From = def.From
		}
		if rng.To == "" {
			rng.To = def.To
		}
	}

	result, err := a.builder.Build(ctx, models.Query{
		Range:          rng,
		SelectedQueues: splitList(*queues),
		SelectedAgents: splitList(*agents),
	})
	if err != nil {
		return err
	}

	fmt.Fprint(a.out, formatter.FormatReport(result, *format))
	return nil
}

func (a *app) exportCmd(ctx context.Context, args []string) error {
	fs := newFlagSet("export")
	out := fs.String("out", "-", "Destination file, - for stdout")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *out == "-" {
		_, err := a.transport.Export(ctx, a.out)
		return err
	}

	var summary transport.Summary
	err := writeFileAtomic(*out, func(w io.Writer) error {
		var err error
		summary, err = a.transport.Export(ctx, w)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "exported %d files and %d cached reports to %s\n", summary.Files, summary.CacheEntries, *out)
	return nil
}

// writeFileAtomic writes to a temp file beside path and renames it into place
// only after a successful close, so a failed export never leaves a truncated
// file behind.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (a *app) restoreCmd(ctx context.Context, args []string) error {
	fs := newFlagSet("restore")
	in := fs.String("in", "", "Transport file to restore (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *in == "" {
		return usageError{errors.New("restore needs -in")}
	}

	f, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("open %s: %w", *in, err)
	}
	defer f.Close()

	summary, err := a.transport.Restore(ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "restored %d files and %d cached reports\n", summary.Files, summary.CacheEntries)
	return nil
}

// splitList turns "a, b,,c" into [a b c]. An empty string gives nil, which
// like an empty list means no filtering.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
