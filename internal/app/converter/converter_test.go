package converter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	notiondomain "github.com/spullara/notiontoobsidian/internal/domain/notion"
	"github.com/spullara/notiontoobsidian/internal/progress"
)

type fakeSource struct {
	db notiondomain.Database

	// pageBatches feed QueryPages one slice per call.
	pageBatches [][]notiondomain.Page
	queryErrAt  int // 1-based call index that fails, 0 for never
	queryCalls  int

	blocks       map[string][]notiondomain.Block
	failBlocksOn map[string]bool
}

func (s *fakeSource) FindDatabase(ctx context.Context, idOrTitle string) (notiondomain.Database, error) {
	if s.db.ID == "" {
		return notiondomain.Database{}, errors.New("no database configured")
	}
	return s.db, nil
}

func (s *fakeSource) QueryPages(ctx context.Context, databaseID string, cursor string) ([]notiondomain.Page, string, error) {
	s.queryCalls++
	if s.queryErrAt > 0 && s.queryCalls == s.queryErrAt {
		return nil, "", errors.New("rate limited")
	}
	idx := s.queryCalls - 1
	if idx >= len(s.pageBatches) {
		return nil, "", nil
	}
	next := ""
	if idx < len(s.pageBatches)-1 {
		next = "cursor-" + databaseID
	}
	return s.pageBatches[idx], next, nil
}

func (s *fakeSource) ListBlocks(ctx context.Context, pageID string, cursor string) ([]notiondomain.Block, string, error) {
	if s.failBlocksOn[pageID] {
		return nil, "", errors.New("blocks unavailable")
	}
	return s.blocks[pageID], "", nil
}

func makePage(id, title string, extra ...notiondomain.Property) notiondomain.Page {
	props := append([]notiondomain.Property{titleProperty(title)}, extra...)
	return notiondomain.Page{
		ID:             id,
		CreatedTime:    "2024-01-01T00:00:00.000Z",
		LastEditedTime: "2024-06-01T00:00:00.000Z",
		Properties:     props,
	}
}

func taskDatabase() notiondomain.Database {
	return notiondomain.Database{
		ID:    "db-1",
		Title: "Tasks",
		Properties: []notiondomain.DatabaseProperty{
			{Name: "Name", Kind: notiondomain.PropertyTitle},
			{Name: "Status", Kind: notiondomain.PropertySelect},
			{Name: "Priority", Kind: notiondomain.PropertyNumber},
		},
	}
}

func TestRunnerMarkdownFormat(t *testing.T) {
	output := t.TempDir()
	source := &fakeSource{
		db: taskDatabase(),
		pageBatches: [][]notiondomain.Page{
			{makePage("p1", "Alpha"), makePage("p2", "Beta")},
			{makePage("p3", "Alpha")},
		},
		blocks: map[string][]notiondomain.Block{
			"p1": {textBlock(notiondomain.BlockParagraph, "alpha body")},
		},
	}

	runner := &Runner{Source: source}
	result, err := runner.Run(context.Background(), Job{
		Database:  "Tasks",
		Format:    FormatMarkdown,
		OutputDir: output,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.DatabaseTitle != "Tasks" {
		t.Fatalf("expected title Tasks, got %q", result.DatabaseTitle)
	}
	if result.FilesCreated != 3 {
		t.Fatalf("expected 3 files, got %d", result.FilesCreated)
	}
	if result.OutputPath != output {
		t.Fatalf("expected output path %s, got %s", output, result.OutputPath)
	}

	doc, err := os.ReadFile(filepath.Join(output, "Alpha.md"))
	if err != nil {
		t.Fatalf("read Alpha.md: %v", err)
	}
	if !strings.Contains(string(doc), "notion_id: p1") {
		t.Fatalf("expected record id header, got:\n%s", doc)
	}
	if !strings.Contains(string(doc), "alpha body") {
		t.Fatalf("expected block content, got:\n%s", doc)
	}

	// Title collision across pagination batches gets a suffix.
	if _, err := os.Stat(filepath.Join(output, "Alpha-2.md")); err != nil {
		t.Fatalf("expected disambiguated filename: %v", err)
	}
	if _, err := os.Stat(filepath.Join(output, "Beta.md")); err != nil {
		t.Fatalf("expected Beta.md: %v", err)
	}
}

func TestRunnerSkipsRecordOnBlockFailure(t *testing.T) {
	output := t.TempDir()
	source := &fakeSource{
		db: taskDatabase(),
		pageBatches: [][]notiondomain.Page{
			{makePage("p1", "Good"), makePage("p2", "Broken"), makePage("p3", "Fine")},
		},
		failBlocksOn: map[string]bool{"p2": true},
	}

	runner := &Runner{Source: source}
	result, err := runner.Run(context.Background(), Job{
		Database:  "Tasks",
		Format:    FormatMarkdown,
		OutputDir: output,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.FilesCreated != 2 {
		t.Fatalf("expected 2 files after skip, got %d", result.FilesCreated)
	}
	if _, err := os.Stat(filepath.Join(output, "Broken.md")); !os.IsNotExist(err) {
		t.Fatalf("expected Broken.md to be skipped, stat err: %v", err)
	}
}

func TestRunnerDiscardsBatchOnQueryFailure(t *testing.T) {
	output := t.TempDir()
	source := &fakeSource{
		db: taskDatabase(),
		pageBatches: [][]notiondomain.Page{
			{makePage("p1", "Alpha")},
			{makePage("p2", "Beta")},
		},
		queryErrAt: 2,
	}

	runner := &Runner{Source: source}
	_, err := runner.Run(context.Background(), Job{
		Database:  "Tasks",
		Format:    FormatMarkdown,
		OutputDir: output,
	})
	if err == nil {
		t.Fatal("expected pagination failure to fail the job")
	}
	entries, readErr := os.ReadDir(output)
	if readErr != nil {
		t.Fatalf("read output dir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no files from the discarded batch, got %d", len(entries))
	}
}

func TestRunnerTableFormat(t *testing.T) {
	output := t.TempDir()
	source := &fakeSource{
		db: taskDatabase(),
		pageBatches: [][]notiondomain.Page{{
			makePage("p1", "Alpha", notiondomain.Property{
				Name:  "Status",
				Value: notiondomain.PropertyValue{Kind: notiondomain.PropertySelect, Select: "Done"},
			}),
			makePage("p2", "Beta"),
		}},
	}

	runner := &Runner{Source: source}
	result, err := runner.Run(context.Background(), Job{
		Database:  "Tasks",
		Format:    FormatTable,
		OutputDir: output,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.FilesCreated != 1 {
		t.Fatalf("expected single table file, got %d", result.FilesCreated)
	}

	doc, err := os.ReadFile(filepath.Join(output, "Tasks.md"))
	if err != nil {
		t.Fatalf("read table: %v", err)
	}
	table := string(doc)
	if !strings.Contains(table, "2 records exported from Tasks.") {
		t.Fatalf("expected summary line, got:\n%s", table)
	}
	if !strings.Contains(table, "| Title | Status | Priority | Created | Updated |") {
		t.Fatalf("expected header row, got:\n%s", table)
	}
	if !strings.Contains(table, "| Alpha | Done |  | 2024-01-01T00:00:00.000Z | 2024-06-01T00:00:00.000Z |") {
		t.Fatalf("expected Alpha row, got:\n%s", table)
	}
}

func TestRunnerMarkdownQueryFormatWithSubfolder(t *testing.T) {
	output := t.TempDir()
	source := &fakeSource{
		db:          taskDatabase(),
		pageBatches: [][]notiondomain.Page{{makePage("p1", "Alpha")}},
	}

	runner := &Runner{Source: source}
	result, err := runner.Run(context.Background(), Job{
		Database:  "Tasks",
		Format:    FormatMarkdownQuery,
		OutputDir: output,
		Subfolder: true,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.FilesCreated != 2 {
		t.Fatalf("expected record plus query file, got %d", result.FilesCreated)
	}
	if result.OutputPath != filepath.Join(output, "Tasks") {
		t.Fatalf("expected subfolder output path, got %s", result.OutputPath)
	}

	doc, err := os.ReadFile(filepath.Join(output, "Tasks", "Query.md"))
	if err != nil {
		t.Fatalf("read query doc: %v", err)
	}
	query := string(doc)
	for _, expected := range []string{
		"```dataview",
		"TABLE Status, Priority",
		"FROM \"Tasks\"",
		"WHERE notion_id",
		"SORT file.name ASC",
	} {
		if !strings.Contains(query, expected) {
			t.Fatalf("expected query doc to contain %q, got:\n%s", expected, query)
		}
	}
}

func TestQueryFolder(t *testing.T) {
	if got := queryFolder("/vault/Tasks", "Tasks"); got != "Tasks" {
		t.Fatalf("expected Tasks, got %q", got)
	}
	if got := queryFolder("/vault/Tasks/", "Tasks"); got != "Tasks" {
		t.Fatalf("expected trailing separator stripped, got %q", got)
	}
	// Dirs with no usable base name fall back to the database title.
	if got := queryFolder(".", "My Tasks"); got != "My_Tasks" {
		t.Fatalf("expected title fallback, got %q", got)
	}
	if got := queryFolder("/", ""); got != "untitled" {
		t.Fatalf("expected untitled fallback, got %q", got)
	}
}

func TestRunnerMarkdownBaseFormat(t *testing.T) {
	output := t.TempDir()
	source := &fakeSource{
		db: taskDatabase(),
		pageBatches: [][]notiondomain.Page{{
			makePage("p1", "Alpha", notiondomain.Property{
				Name:  "Status",
				Value: notiondomain.PropertyValue{Kind: notiondomain.PropertySelect, Select: "Done"},
			}),
			makePage("p2", "Beta", notiondomain.Property{
				Name:  "Status",
				Value: notiondomain.PropertyValue{Kind: notiondomain.PropertySelect},
			}),
		}},
	}

	runner := &Runner{Source: source}
	result, err := runner.Run(context.Background(), Job{
		Database:  "Tasks",
		Format:    FormatMarkdownBase,
		OutputDir: output,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.FilesCreated != 3 {
		t.Fatalf("expected 2 records plus base file, got %d", result.FilesCreated)
	}

	doc, err := os.ReadFile(filepath.Join(output, "Tasks.base"))
	if err != nil {
		t.Fatalf("read base doc: %v", err)
	}
	base := string(doc)
	if !strings.Contains(base, "  Status:\n    displayName: \"Status\"") {
		t.Fatalf("expected used property entry, got:\n%s", base)
	}
	if !strings.Contains(base, "  file.ctime:\n    displayName: \"Created\"") {
		t.Fatalf("expected file.ctime entry, got:\n%s", base)
	}
	if !strings.Contains(base, "- type: table") || !strings.Contains(base, "- type: cards") {
		t.Fatalf("expected both views, got:\n%s", base)
	}
}

func TestRunnerReportsMonotonicProgress(t *testing.T) {
	output := t.TempDir()
	pages := make([]notiondomain.Page, 0, 25)
	for i := 0; i < 25; i++ {
		pages = append(pages, makePage("p"+string(rune('a'+i)), "Note"))
	}
	source := &fakeSource{
		db:          taskDatabase(),
		pageBatches: [][]notiondomain.Page{pages},
	}

	registry := progress.NewRegistry()
	updates := registry.Register("job-1")

	runner := &Runner{Source: source, Registry: registry}
	_, err := runner.Run(context.Background(), Job{
		Database:      "Tasks",
		Format:        FormatMarkdown,
		OutputDir:     output,
		CorrelationID: "job-1",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	registry.Unregister("job-1")

	last := -1
	var final progress.Update
	for update := range updates {
		if update.Progress < last {
			t.Fatalf("progress went backwards: %d after %d", update.Progress, last)
		}
		last = update.Progress
		final = update
	}
	if final.Stage != progress.StageComplete {
		t.Fatalf("expected complete stage last, got %s", final.Stage)
	}
	if final.Progress != 100 {
		t.Fatalf("expected 100%% at completion, got %d", final.Progress)
	}
	if final.FilesCreated != 25 {
		t.Fatalf("expected 25 files in final update, got %d", final.FilesCreated)
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"markdown":       FormatMarkdown,
		"md":             FormatMarkdown,
		"Markdown+Query": FormatMarkdownQuery,
		"table":          FormatTable,
		"markdown+base":  FormatMarkdownBase,
		"base":           FormatMarkdownBase,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %s, got %s", in, want, got)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
