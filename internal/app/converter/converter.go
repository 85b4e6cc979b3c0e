package converter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	notiondomain "github.com/spullara/notiontoobsidian/internal/domain/notion"
	"github.com/spullara/notiontoobsidian/internal/infra/exportfs"
	"github.com/spullara/notiontoobsidian/internal/progress"
)

// Source is the record source a conversion reads from: database lookup,
// cursor-paginated record queries, and cursor-paginated block listings. An
// empty next cursor signals the last page.
type Source interface {
	FindDatabase(ctx context.Context, idOrTitle string) (notiondomain.Database, error)
	QueryPages(ctx context.Context, databaseID string, cursor string) ([]notiondomain.Page, string, error)
	ListBlocks(ctx context.Context, pageID string, cursor string) ([]notiondomain.Block, string, error)
}

// Job describes one batch conversion. Jobs are transient: no retry or
// resumption state survives them, and a failed job restarts from scratch.
type Job struct {
	Database      string
	Format        Format
	OutputDir     string
	CorrelationID string
	Subfolder     bool
}

// Result is the success payload handed back to the caller. Per-record
// failures show up only as a lower file count; they never fail the job.
type Result struct {
	DatabaseTitle string
	FilesCreated  int
	OutputPath    string
	Files         []string
}

// Runner drives conversion jobs against one source. A nil Registry drops all
// progress; a nil Logger logs nowhere. Multiple jobs may run concurrently on
// one Runner; within a job record processing is strictly sequential.
type Runner struct {
	Source   Source
	Registry *progress.Registry
	Logger   *zap.Logger
}

// Run executes a job to completion: resolve the database, paginate every
// record in, then hand the whole batch to the selected format strategy.
// Directory and file write failures are fatal and leave already-written files
// in place.
func (r *Runner) Run(ctx context.Context, job Job) (Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reporter := progress.NewReporter(r.Registry, job.CorrelationID)

	reporter.Report(progress.Update{Stage: progress.StageStarting, Message: "starting conversion", Progress: 0})

	reporter.Report(progress.Update{Stage: progress.StageSearching, Message: "locating database", Progress: 10})
	db, err := r.Source.FindDatabase(ctx, job.Database)
	if err != nil {
		return Result{}, fmt.Errorf("find database: %w", err)
	}
	logger.Info("database resolved", zap.String("database_id", db.ID), zap.String("title", db.Title))

	reporter.Report(progress.Update{Stage: progress.StageRetrieving, Message: "retrieved database " + db.Title, Progress: 20})

	reporter.Report(progress.Update{Stage: progress.StageQuerying, Message: "querying records", Progress: 30})
	pages, err := r.fetchAllPages(ctx, db.ID)
	if err != nil {
		// A failed page fetch discards everything accumulated so far; there
		// is no partial-batch fallback.
		return Result{}, fmt.Errorf("query database %s: %w", db.ID, err)
	}

	dir := exportfs.NewDir(job.OutputDir)
	if job.Subfolder {
		name := SanitizeFilename(db.Title)
		if name == "" {
			name = "untitled"
		}
		dir = dir.Sub(name)
	}
	if err := dir.Ensure(); err != nil {
		return Result{}, err
	}

	reporter.Report(progress.Update{
		Stage:        progress.StageConverting,
		Message:      fmt.Sprintf("converting %d records", len(pages)),
		Progress:     50,
		TotalRecords: len(pages),
	})

	files, err := r.runStrategy(ctx, job.Format, db, pages, dir, reporter, logger)
	if err != nil {
		return Result{}, err
	}

	reporter.Report(progress.Update{
		Stage:        progress.StageComplete,
		Message:      "conversion complete",
		Progress:     100,
		TotalRecords: len(pages),
		FilesCreated: len(files),
	})
	logger.Info("conversion complete",
		zap.String("title", db.Title),
		zap.Int("files_created", len(files)),
		zap.String("output", dir.Root()),
	)

	return Result{
		DatabaseTitle: db.Title,
		FilesCreated:  len(files),
		OutputPath:    dir.Root(),
		Files:         files,
	}, nil
}

// fetchAllPages paginates the whole database into memory. There is no page
// cap and no dedup: the source is trusted not to repeat records.
func (r *Runner) fetchAllPages(ctx context.Context, databaseID string) ([]notiondomain.Page, error) {
	var pages []notiondomain.Page
	cursor := ""
	for {
		batch, next, err := r.Source.QueryPages(ctx, databaseID, cursor)
		if err != nil {
			return nil, err
		}
		pages = append(pages, batch...)
		if next == "" {
			return pages, nil
		}
		cursor = next
	}
}

func (r *Runner) fetchAllBlocks(ctx context.Context, pageID string) ([]notiondomain.Block, error) {
	var blocks []notiondomain.Block
	cursor := ""
	for {
		batch, next, err := r.Source.ListBlocks(ctx, pageID, cursor)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, batch...)
		if next == "" {
			return blocks, nil
		}
		cursor = next
	}
}
