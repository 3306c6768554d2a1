package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/scholarpipe/litreview/internal/storage"
)

// SummaryResourceHandler serves cached paper analyses as MCP resources.
type SummaryResourceHandler struct {
	store storage.Store
}

// NewSummaryResourceHandler creates a new summary resource handler
func NewSummaryResourceHandler(store storage.Store) *SummaryResourceHandler {
	return &SummaryResourceHandler{store: store}
}

// ListResources returns a list of available resources
func (h *SummaryResourceHandler) ListResources(ctx context.Context) ([]mcp.Resource, error) {
	docs, err := h.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	var resources []mcp.Resource
	for _, doc := range docs {
		resources = append(resources, mcp.Resource{
			URI:         fmt.Sprintf("summary://%s", doc.DocumentID),
			Name:        fmt.Sprintf("%s (Summary)", doc.Title),
			Description: fmt.Sprintf("Structured analysis of %s", doc.Filename),
			MIMEType:    "application/json",
		})
		resources = append(resources, mcp.Resource{
			URI:         fmt.Sprintf("summary://%s/citation", doc.DocumentID),
			Name:        fmt.Sprintf("%s (Citation)", doc.Title),
			Description: "APA citation for the paper",
			MIMEType:    "application/json",
		})
	}

	return resources, nil
}

// ReadResource reads a specific resource by URI
func (h *SummaryResourceHandler) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	// Parse URI: summary://doc_id or summary://doc_id/citation
	if !strings.HasPrefix(uri, "summary://") {
		return nil, fmt.Errorf("invalid URI scheme, expected summary://")
	}

	path := strings.TrimPrefix(uri, "summary://")
	parts := strings.Split(path, "/")
	if parts[0] == "" {
		return nil, fmt.Errorf("invalid URI, missing document ID")
	}

	docID := parts[0]
	resourceType := ""
	if len(parts) > 1 {
		resourceType = parts[1]
	}

	var content string
	switch resourceType {
	case "":
		summary, citation, err := h.store.GetSummary(ctx, docID)
		if err != nil {
			return nil, err
		}
		data, err := json.MarshalIndent(map[string]any{
			"summary":  summary,
			"citation": citation.Text,
		}, "", "  ")
		if err != nil {
			return nil, err
		}
		content = string(data)
	case "citation":
		citation, err := h.store.GetCitation(ctx, docID)
		if err != nil {
			return nil, err
		}
		data, err := json.MarshalIndent(citation, "", "  ")
		if err != nil {
			return nil, err
		}
		content = string(data)
	default:
		return nil, fmt.Errorf("unknown resource type: %s", resourceType)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     content,
			},
		},
	}, nil
}
