// Package genai is the generation-phase collaborator: it turns extracted or
// inline text into a finished study artifact via an OpenAI-compatible API.
// It is invoked only by the polling client, never by the extraction worker.
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

var ErrEmptyBody = errors.New("genai: artifact body is missing or empty")

// Artifact is the validated generation result. Content is the full artifact
// document with the title guaranteed present.
type Artifact struct {
	Title   string
	Content json.RawMessage
}

type Generator struct {
	client *openai.Client
	model  string
	logger *logrus.Logger
}

func NewGenerator(apiKey, baseURL, model string, logger *logrus.Logger) *Generator {
	var client *openai.Client
	if baseURL != "" {
		cfg := openai.DefaultConfig(apiKey)
		cfg.BaseURL = baseURL
		client = openai.NewClientWithConfig(cfg)
	} else {
		client = openai.NewClient(apiKey)
	}
	return &Generator{client: client, model: model, logger: logger}
}

// Generate produces one artifact of the given kind from the source text.
func (g *Generator) Generate(ctx context.Context, kind string, text string, params map[string]string) (*Artifact, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("genai: source text is empty")
	}

	model := g.model
	if model == "" {
		model = openai.GPT4oMini
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: 0.7,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(kind, text, params),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("genai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("genai: empty completion response")
	}

	artifact, err := parseArtifact(resp.Choices[0].Message.Content, kind)
	if err != nil {
		return nil, err
	}
	g.logger.Infof("generated %s artifact title=%q size=%d", kind, artifact.Title, len(artifact.Content))
	return artifact, nil
}

// parseArtifact extracts the outermost JSON object from the model output and
// validates its shape: a missing title gets a synthesized fallback, but a
// missing or empty body is a hard failure -- never a silent empty artifact.
func parseArtifact(content string, kind string) (*Artifact, error) {
	jsonStart := strings.Index(content, "{")
	jsonEnd := strings.LastIndex(content, "}")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd < jsonStart {
		return nil, errors.New("genai: no JSON object in model output")
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content[jsonStart:jsonEnd+1]), &doc); err != nil {
		return nil, fmt.Errorf("genai: decode artifact: %w", err)
	}

	var items []json.RawMessage
	if body, ok := doc[bodyKey(kind)]; ok {
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("genai: decode artifact body: %w", err)
		}
	}
	if len(items) == 0 {
		return nil, ErrEmptyBody
	}

	var title string
	if raw, ok := doc["title"]; ok {
		_ = json.Unmarshal(raw, &title)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = fallbackTitle(kind)
		raw, _ := json.Marshal(title)
		doc["title"] = raw
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("genai: encode artifact: %w", err)
	}
	return &Artifact{Title: title, Content: normalized}, nil
}

func bodyKey(kind string) string {
	switch kind {
	case "test":
		return "questions"
	case "flashcards":
		return "cards"
	default:
		return "sections"
	}
}

func fallbackTitle(kind string) string {
	switch kind {
	case "test":
		return "Generated test"
	case "flashcards":
		return "Generated flashcards"
	default:
		return "Generated notes"
	}
}
