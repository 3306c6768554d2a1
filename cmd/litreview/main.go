package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/scholarpipe/litreview/internal/analyze"
	"github.com/scholarpipe/litreview/internal/config"
	"github.com/scholarpipe/litreview/internal/extract"
	"github.com/scholarpipe/litreview/internal/llm"
	"github.com/scholarpipe/litreview/internal/logger"
	"github.com/scholarpipe/litreview/internal/review"
	"github.com/scholarpipe/litreview/internal/storage"
	"github.com/scholarpipe/litreview/internal/synthesis"
	"github.com/scholarpipe/litreview/server"
)

var (
	configPath string
	outputPath string
	workers    int
	model      string
	noCache    bool
)

var rootCmd = &cobra.Command{
	Use:   "litreview",
	Short: "Synthesize literature reviews from folders of academic PDFs",
	Long: `litreview analyzes every PDF paper in a folder, builds structured
summaries and APA citations, and synthesizes them into a single
literature review document.`,
	SilenceUsage: true,
}

var reviewCmd = &cobra.Command{
	Use:   "review <folder>",
	Short: "Generate a literature review from a folder of PDFs",
	Args:  cobra.ExactArgs(1),
	RunE:  runReview,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Start the Model Context Protocol server for AI assistant integration.
The server communicates over stdio using JSON-RPC and exposes the
review-generate, paper-analyze, and citations-export tools.`,
	RunE: runServe,
}

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "List papers in the summary cache",
	RunE:  runLibrary,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	reviewCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path (default literature_review_<timestamp>.md in the folder)")
	reviewCmd.Flags().IntVar(&workers, "workers", 0, "concurrent analysis calls (default from config)")
	reviewCmd.Flags().StringVar(&model, "model", "", "text-generation model (default from config)")
	reviewCmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the summary cache")

	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(libraryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runReview(cmd *cobra.Command, args []string) error {
	folder := args[0]

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if workers > 0 {
		cfg.Pipeline.Workers = workers
	}
	if model != "" {
		cfg.OpenAI.Model = model
	}
	if noCache {
		cfg.Cache.Disabled = true
	}
	if cfg.OpenAI.APIKey == "" {
		return fmt.Errorf("no API key configured (set OPENAI_API_KEY)")
	}

	log, err := logger.NewLogger(logger.LogConfig{})
	if err != nil {
		return err
	}

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	if outputPath == "" {
		outputPath = filepath.Join(folder, fmt.Sprintf("literature_review_%s.md", time.Now().Format("20060102_150405")))
	}

	client := llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	retry := llm.DefaultRetryPolicy()
	retry.MaxRetries = cfg.Pipeline.MaxRetries
	analyzer := analyze.New(client, cfg.Pipeline.AnalysisCharBudget, retry, log)
	synthesizer := synthesis.New(client, cfg.Pipeline.SynthesisCharBudget, retry, log)
	pipeline := review.NewPipeline(extract.NewPDFExtractor(), analyzer, synthesizer, store, cfg.Pipeline.Workers, log)

	_, report, err := pipeline.Run(cmd.Context(), folder, outputPath)
	if report != nil && len(report.Outcomes) > 0 {
		fmt.Fprint(cmd.OutOrStdout(), review.FormatReport(report))
	}
	return err
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(logger.LogConfig{Output: "file"})
	if err != nil {
		return err
	}

	log.Info("Starting litreview MCP server")
	srv := server.CreateServer(cfg, log)
	return srv.Run(cmd.Context(), &mcp.StdioTransport{})
}

func runLibrary(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(logger.LogConfig{})
	if err != nil {
		return err
	}

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("summary cache is disabled")
	}
	defer store.Close()

	docs, err := store.ListDocuments(cmd.Context())
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No papers in the library.")
		return nil
	}
	for _, doc := range docs {
		title := doc.Title
		if title == "" {
			title = doc.Filename
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", doc.DocumentID[:12], title)
	}
	return nil
}

// openStore opens the summary cache, or returns nil when caching is off.
func openStore(cfg config.Config, log logger.Logger) (storage.Store, error) {
	dbPath, err := cfg.CachePath()
	if err != nil {
		return nil, err
	}
	if dbPath == "" {
		return nil, nil
	}
	return storage.NewSQLiteStore(dbPath, log)
}
