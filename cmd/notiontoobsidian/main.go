package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spullara/notiontoobsidian/internal/app/converter"
	"github.com/spullara/notiontoobsidian/internal/config"
	"github.com/spullara/notiontoobsidian/internal/infra/notionapi"
	"github.com/spullara/notiontoobsidian/internal/progress"
)

func main() {
	var (
		configPath string
		database   string
		format     string
		output     string
		subfolder  bool
		pageSize   int
	)

	rootCmd := &cobra.Command{
		Use:   "notiontoobsidian",
		Short: "convert a Notion database to Obsidian markdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			if database == "" {
				return fmt.Errorf("--database is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if format != "" {
				cfg.Format = format
			}
			if output != "" {
				cfg.OutputDir = output
			}
			if pageSize > 0 {
				cfg.PageSize = pageSize
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cfg, database, subfolder)
		},
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "path to config.yaml")
	rootCmd.Flags().StringVar(&database, "database", "", "Notion database id or title")
	rootCmd.Flags().StringVar(&format, "format", "", "output format: markdown, markdown+query, table, markdown+base")
	rootCmd.Flags().StringVar(&output, "output", "", "output directory")
	rootCmd.Flags().BoolVar(&subfolder, "subfolder", false, "write into a subfolder named after the database")
	rootCmd.Flags().IntVar(&pageSize, "page-size", 0, "records per API request (1-100)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "conversion failed: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, database string, subfolder bool) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	jobFormat, err := converter.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	client := notionapi.New(cfg.Token,
		notionapi.WithBaseURL(cfg.APIURL),
		notionapi.WithPageSize(cfg.PageSize),
	)

	registry := progress.NewRegistry()
	runner := &converter.Runner{
		Source:   client,
		Registry: registry,
		Logger:   logger,
	}

	correlationID := uuid.NewString()
	updates := registry.Register(correlationID)
	defer registry.Unregister(correlationID)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		progress.NewBar().Consume(updates)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := runner.Run(ctx, converter.Job{
		Database:      database,
		Format:        jobFormat,
		OutputDir:     cfg.OutputDir,
		CorrelationID: correlationID,
		Subfolder:     subfolder,
	})
	registry.Unregister(correlationID)
	wg.Wait()
	if err != nil {
		return err
	}

	fmt.Printf("converted %q: %d files written to %s\n",
		result.DatabaseTitle, result.FilesCreated, result.OutputPath)
	return nil
}
