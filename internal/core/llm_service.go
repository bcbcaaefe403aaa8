package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	defaultChatModelName      = "gemini-2.0-flash"
	defaultEmbeddingModelName = "text-embedding-004"

	// Gemini caps batch embedding requests at 100 contents.
	embedBatchSize = 100
)

// LLMService is the Gemini-backed implementation of both the Embedder
// and Generator ports. It performs no retries; failures surface as
// ExternalServiceError for the caller to handle.
type LLMService struct {
	client *genai.Client
	logger *zap.Logger
}

var _ Embedder = (*LLMService)(nil)
var _ Generator = (*LLMService)(nil)

func NewLLMService(ctx context.Context, apiKey string, logger *zap.Logger) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &LLMService{client: client, logger: logger}, nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			s.logger.Warn("error closing GenAI client", zap.Error(err))
		}
	}
}

func (s *LLMService) EmbedText(ctx context.Context, text string) ([]float32, error) {
	em := s.client.EmbeddingModel(defaultEmbeddingModelName)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, &ExternalServiceError{Op: "embed", Err: err}
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, &ExternalServiceError{Op: "embed", Err: fmt.Errorf("no embedding data received")}
	}
	return res.Embedding.Values, nil
}

func (s *LLMService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	em := s.client.EmbeddingModel(defaultEmbeddingModelName)

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch := em.NewBatch()
		for _, t := range texts[start:end] {
			batch.AddContent(genai.Text(t))
		}

		res, err := em.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, &ExternalServiceError{Op: "embed", Err: err}
		}
		if len(res.Embeddings) != end-start {
			return nil, &ExternalServiceError{Op: "embed", Err: fmt.Errorf("got %d embeddings for %d texts", len(res.Embeddings), end-start)}
		}
		for _, e := range res.Embeddings {
			vectors = append(vectors, e.Values)
		}
		s.logger.Debug("embedded batch", zap.Int("done", end), zap.Int("total", len(texts)))
	}
	return vectors, nil
}

// GenerateAnswer sends the composed prompt and concatenates all text
// parts of the response in the order the service returns them.
func (s *LLMService) GenerateAnswer(ctx context.Context, prompt string) (string, error) {
	model := s.client.GenerativeModel(defaultChatModelName)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &ExternalServiceError{Op: "generate", Err: err}
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &ExternalServiceError{Op: "generate", Err: fmt.Errorf("empty response from model")}
	}

	var answer strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			answer.WriteString(string(txt))
		} else {
			s.logger.Debug("skipping non-text response part", zap.String("type", fmt.Sprintf("%T", part)))
		}
	}
	if answer.Len() == 0 {
		return "", &ExternalServiceError{Op: "generate", Err: fmt.Errorf("model returned no text parts")}
	}
	return answer.String(), nil
}
