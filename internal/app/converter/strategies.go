package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	notiondomain "github.com/spullara/notiontoobsidian/internal/domain/notion"
	"github.com/spullara/notiontoobsidian/internal/infra/exportfs"
	"github.com/spullara/notiontoobsidian/internal/progress"
)

// Format selects the output documents a conversion produces.
type Format int

const (
	// FormatMarkdown writes one markdown document per record.
	FormatMarkdown Format = iota
	// FormatMarkdownQuery writes per-record documents plus a Dataview query
	// document scoped to the output folder.
	FormatMarkdownQuery
	// FormatTable writes a single document holding every record as a
	// markdown table row.
	FormatTable
	// FormatMarkdownBase writes per-record documents plus an Obsidian Bases
	// view definition built from the properties the records actually use.
	FormatMarkdownBase
)

var formatNames = map[Format]string{
	FormatMarkdown:      "markdown",
	FormatMarkdownQuery: "markdown+query",
	FormatTable:         "table",
	FormatMarkdownBase:  "markdown+base",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// ParseFormat maps a user-supplied format name to a Format. Names are
// case-insensitive and the per-record aggregates accept their short aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "markdown+query", "query":
		return FormatMarkdownQuery, nil
	case "table":
		return FormatTable, nil
	case "markdown+base", "base", "bases":
		return FormatMarkdownBase, nil
	default:
		return FormatMarkdown, fmt.Errorf("unknown format %q", s)
	}
}

// runStrategy dispatches the batch to the selected format. Every strategy
// returns the file names it created, relative to dir.
func (r *Runner) runStrategy(
	ctx context.Context,
	format Format,
	db notiondomain.Database,
	pages []notiondomain.Page,
	dir exportfs.Dir,
	reporter *progress.Reporter,
	logger *zap.Logger,
) ([]string, error) {
	switch format {
	case FormatMarkdown:
		return r.writeRecordDocuments(ctx, pages, dir, reporter, logger)

	case FormatMarkdownQuery:
		files, err := r.writeRecordDocuments(ctx, pages, dir, reporter, logger)
		if err != nil {
			return nil, err
		}
		folder := queryFolder(dir.Root(), db.Title)
		if err := dir.WriteFile(queryFileName, renderQueryDocument(db, folder)); err != nil {
			return nil, err
		}
		files = append(files, queryFileName)
		reporter.Report(progress.Update{
			Stage:        progress.StageConverting,
			Message:      "wrote query document",
			Progress:     95,
			TotalRecords: len(pages),
			FilesCreated: len(files),
		})
		return files, nil

	case FormatTable:
		name := aggregateFileName(db.Title, ".md")
		if err := dir.WriteFile(name, renderTableDocument(db, pages)); err != nil {
			return nil, err
		}
		reporter.Report(progress.Update{
			Stage:        progress.StageConverting,
			Message:      fmt.Sprintf("wrote table of %d records", len(pages)),
			Progress:     90,
			TotalRecords: len(pages),
			FilesCreated: 1,
		})
		return []string{name}, nil

	case FormatMarkdownBase:
		files, err := r.writeRecordDocuments(ctx, pages, dir, reporter, logger)
		if err != nil {
			return nil, err
		}
		name := aggregateFileName(db.Title, ".base")
		if err := dir.WriteFile(name, renderBaseDocument(pages)); err != nil {
			return nil, err
		}
		files = append(files, name)
		reporter.Report(progress.Update{
			Stage:        progress.StageConverting,
			Message:      "wrote base definition",
			Progress:     95,
			TotalRecords: len(pages),
			FilesCreated: len(files),
		})
		return files, nil

	default:
		return nil, fmt.Errorf("unsupported format %s", format)
	}
}

// writeRecordDocuments converts each record to its own markdown document. A
// record whose blocks cannot be fetched is logged and skipped; the batch
// keeps going. Write failures stop the job.
func (r *Runner) writeRecordDocuments(
	ctx context.Context,
	pages []notiondomain.Page,
	dir exportfs.Dir,
	reporter *progress.Reporter,
	logger *zap.Logger,
) ([]string, error) {
	names := newNameAllocator()
	files := make([]string, 0, len(pages))
	total := len(pages)

	for i, page := range pages {
		blocks, err := r.fetchAllBlocks(ctx, page.ID)
		if err != nil {
			logger.Warn("skipping record",
				zap.String("page_id", page.ID),
				zap.Error(err),
			)
			continue
		}
		page.Blocks = blocks

		name := names.allocate(PageTitle(page), ".md")
		if err := dir.WriteFile(name, RenderPage(page)); err != nil {
			return nil, err
		}
		files = append(files, name)

		if (i+1)%10 == 0 || i == total-1 {
			reporter.Report(progress.Update{
				Stage:         progress.StageConverting,
				Message:       fmt.Sprintf("converted %d of %d records", i+1, total),
				Progress:      50 + 40*(i+1)/total,
				CurrentRecord: i + 1,
				TotalRecords:  total,
				FilesCreated:  len(files),
			})
		}
	}
	return files, nil
}

// queryFolder names the folder the query document scopes to. Output dirs
// like "." or "/" have no usable base name, so the database title stands in.
func queryFolder(root, title string) string {
	base := filepath.Base(filepath.Clean(root))
	if base == "." || base == string(filepath.Separator) {
		base = SanitizeFilename(title)
	}
	if base == "" {
		base = "untitled"
	}
	return base
}

func aggregateFileName(title, ext string) string {
	base := SanitizeFilename(title)
	if base == "" {
		base = "untitled"
	}
	return base + ext
}
