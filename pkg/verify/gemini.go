package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

const vertexLocation = "us-central1"

// geminiCompleter calls Gemini via the genai SDK, using an API key or
// Vertex AI with Application Default Credentials.
type geminiCompleter struct {
	logger  *slog.Logger
	apiKey  string
	project string
	model   string
}

func newGeminiCompleter(cfg Config, logger *slog.Logger) *geminiCompleter {
	return &geminiCompleter{
		logger:  logger,
		apiKey:  cfg.APIKey,
		project: cfg.GCPProject,
		model:   strings.TrimPrefix(cfg.Model, "models/"),
	}
}

func (c *geminiCompleter) clientConfig() *genai.ClientConfig {
	if c.apiKey != "" {
		return &genai.ClientConfig{
			Backend: genai.BackendGeminiAPI,
			APIKey:  c.apiKey,
		}
	}
	c.logger.Debug("using Vertex AI with Application Default Credentials", "project", c.project, "location", vertexLocation)
	return &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  c.project,
		Location: vertexLocation,
	}
}

func (c *geminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, c.clientConfig())
	if err != nil {
		return "", fmt.Errorf("creating genai client: %w", err)
	}

	temperature := float32(0)
	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  300,
		ResponseMIMEType: "application/json",
		ResponseSchema:   replySchema(),
	}
	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("empty response from Gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 || candidate.Content.Parts[0].Text == "" {
		return "", errors.New("no content in Gemini response")
	}
	return candidate.Content.Parts[0].Text, nil
}

func replySchema() *genai.Schema {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"isValid":  {Type: genai.TypeBoolean, Description: "true when the text asks to convert a time between zones"},
			"fromZone": str("IANA zone of the source location, e.g. America/New_York"),
			"toZone":   str("IANA zone of the target location, or empty"),
			"time":     str("time as H:MM am/pm or 24h H:MM, or empty"),
			"date":     str("date as YYYY-MM-DD, or empty"),
			"error":    str("short reason when isValid is false"),
			"suggestions": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
		PropertyOrdering: []string{"isValid", "fromZone", "toZone", "time", "date", "error", "suggestions"},
		Required:         []string{"isValid"},
	}
}
