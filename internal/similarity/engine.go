package similarity

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"clipgate/internal/config"
)

// Engine produces embedding vectors for a batch of texts. Implementations
// must preserve input order in the returned vectors.
type Engine interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenAIEngine embeds text through an OpenAI-compatible endpoint.
type OpenAIEngine struct {
	client *openai.Client
	model  string
}

// NewOpenAIEngine constructs an engine from answer configuration. The base
// URL may point at any OpenAI-compatible server; an empty URL uses the
// upstream default.
func NewOpenAIEngine(cfg config.Answer) (*OpenAIEngine, error) {
	if cfg.EmbeddingAPIKey == "" && cfg.EmbeddingBaseURL == "" {
		return nil, errors.New("embedding backend not configured: set answer.embedding_api_key or answer.embedding_base_url")
	}
	clientConfig := openai.DefaultConfig(cfg.EmbeddingAPIKey)
	if cfg.EmbeddingBaseURL != "" {
		clientConfig.BaseURL = cfg.EmbeddingBaseURL
	}
	return &OpenAIEngine{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.EmbeddingModel,
	}, nil
}

// Embed requests embeddings for the provided texts in a single batch.
func (e *OpenAIEngine) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(resp.Data))
	}
	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}

var _ Engine = (*OpenAIEngine)(nil)
