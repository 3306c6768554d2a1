package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/scholarpipe/litreview/internal/config"
	"github.com/scholarpipe/litreview/internal/logger"
	"github.com/scholarpipe/litreview/internal/storage"
	"github.com/scholarpipe/litreview/resources"
	"github.com/scholarpipe/litreview/tools"
)

func CreateServer(cfg config.Config, log logger.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "litreview", Version: "v0.1.0"}, nil)

	store, err := initializeStorage(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize storage: %v", err)
	}

	summaryResourceHandler := resources.NewSummaryResourceHandler(store)

	// Register tools with configuration, storage, and logger dependencies
	mcp.AddTool(server, tools.ReviewGenerateTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.ReviewGenerateQuery) (*mcp.CallToolResult, *tools.ReviewGenerateResponse, error) {
		return tools.ReviewGenerateToolHandler(ctx, req, query, cfg, store, log)
	})

	mcp.AddTool(server, tools.PaperAnalyzeTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.PaperAnalyzeQuery) (*mcp.CallToolResult, *tools.PaperAnalyzeResponse, error) {
		return tools.PaperAnalyzeToolHandler(ctx, req, query, cfg, store, log)
	})

	mcp.AddTool(server, tools.CitationsExportTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.CitationsExportQuery) (*mcp.CallToolResult, *tools.CitationsExportResponse, error) {
		return tools.CitationsExportToolHandler(ctx, req, query, store, log)
	})

	// Template for cached paper analysis
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "summary://{documentId}",
		Name:        "paper-summary",
		Description: "Structured analysis of a paper with its APA citation",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return summaryResourceHandler.ReadResource(ctx, req.Params.URI)
	})

	// Template for citation only
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "summary://{documentId}/citation",
		Name:        "paper-citation",
		Description: "APA citation for a paper",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return summaryResourceHandler.ReadResource(ctx, req.Params.URI)
	})

	return server
}

// initializeStorage creates and initializes the summary cache
func initializeStorage(cfg config.Config, log logger.Logger) (storage.Store, error) {
	dbPath, err := cfg.CachePath()
	if err != nil {
		return nil, err
	}
	if dbPath == "" {
		return nil, fmt.Errorf("summary cache is disabled but the server requires it")
	}

	log.Info("Initializing SQLite database at: %s", dbPath)

	store, err := storage.NewSQLiteStore(dbPath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite store: %w", err)
	}

	return store, nil
}
