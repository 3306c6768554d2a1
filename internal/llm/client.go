// Package llm wraps the outbound text-generation service: a single Generator
// interface, an OpenAI-backed implementation, and the shared rate-limit and
// retry machinery every outbound call goes through.
package llm

import (
	"context"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

// GenerateRequest describes one text-generation call.
type GenerateRequest struct {
	// Prompt is the full instruction plus context text.
	Prompt string
	// MaxOutputTokens caps the response size when > 0.
	MaxOutputTokens int64
	// Schema, when non-nil, constrains the response to the given JSON schema.
	// SchemaName labels the schema for the service.
	SchemaName string
	Schema     map[string]any
}

// Generator is the outbound text-generation capability consumed by the
// pipeline. Implementations must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// OpenAIClient implements Generator against the OpenAI Responses API.
type OpenAIClient struct {
	client openai.Client
	model  shared.ChatModel
}

// NewOpenAIClient creates a client for the given credential and model.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  shared.ChatModel(model),
	}
}

// Generate issues one request and returns the raw output text.
func (c *OpenAIClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	params := responses.ResponseNewParams{
		Model: c.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(
					responses.ResponseInputMessageContentListParam{
						responses.ResponseInputContentParamOfInputText(req.Prompt),
					},
					"user",
				),
			},
		},
	}
	if req.MaxOutputTokens > 0 {
		params.MaxOutputTokens = openai.Int(req.MaxOutputTokens)
	}
	if req.Schema != nil {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigParamOfJSONSchema(req.SchemaName, req.Schema),
		}
	}

	response, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return "", err
	}
	return response.OutputText(), nil
}
