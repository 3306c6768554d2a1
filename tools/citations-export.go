package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/scholarpipe/litreview/internal/logger"
	"github.com/scholarpipe/litreview/internal/storage"
)

type CitationsExportQuery struct {
	DocumentIDs []string `json:"document_ids,omitempty"`
}

type CitationsExportResponse struct {
	Content       string   `json:"content"`
	DocumentCount int      `json:"document_count"`
	Missing       []string `json:"missing,omitempty"`
}

func CitationsExportTool() *mcp.Tool {
	inputschema, err := jsonschema.For[CitationsExportQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "citations-export",
		Description: "Export APA citations for analyzed papers as a markdown list. If document_ids are specified, exports only those documents; otherwise exports the entire library. All documents must have been previously analyzed.",
		InputSchema: inputschema,
	}
}

func CitationsExportToolHandler(ctx context.Context, req *mcp.CallToolRequest, query CitationsExportQuery, store storage.Store, log logger.Logger) (*mcp.CallToolResult, *CitationsExportResponse, error) {
	log.Info("citations-export tool called")

	documentIDs := query.DocumentIDs
	if len(documentIDs) == 0 {
		docInfos, err := store.ListDocuments(ctx)
		if err != nil {
			log.Error("Failed to list documents: %v", err)
			return nil, nil, fmt.Errorf("failed to list documents: %w", err)
		}
		for _, docInfo := range docInfos {
			documentIDs = append(documentIDs, docInfo.DocumentID)
		}
		log.Info("Exporting entire library (%d documents)", len(documentIDs))
	}

	var sb strings.Builder
	sb.WriteString("## List of Reviewed Papers\n\n")

	var missing []string
	count := 0
	for _, docID := range documentIDs {
		citation, err := store.GetCitation(ctx, docID)
		if err != nil {
			log.Warn("No citation for document %s: %v", docID, err)
			missing = append(missing, docID)
			continue
		}
		fmt.Fprintf(&sb, "- %s\n", citation.Text)
		count++
	}

	return nil, &CitationsExportResponse{
		Content:       sb.String(),
		DocumentCount: count,
		Missing:       missing,
	}, nil
}
