package openai

import (
	"sync"

	"github.com/conceptlab/genea/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/semaphore"
)

// GenealogyOpenAIClient talks to OpenAI-compatible endpoints for the three
// calls the system needs: plain completions, schema-constrained completions
// and embeddings. Chat and embedding endpoints are configured separately so
// a local embedding server can be mixed with a hosted chat model.
//
// A GenealogyOpenAIClient should be created using NewGenealogyOpenAIClient.
type GenealogyOpenAIClient struct {
	embeddingModel  string
	extractionModel string

	embeddingURL string
	embeddingKey string
	chatURL      string
	chatKey      string

	timeoutMin int64

	reqLock       *semaphore.Weighted
	embeddingLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient      *openai.Client
	EmbeddingClient *openai.Client
}

// NewGenealogyOpenAIClientParams defines the configuration for creating a
// new GenealogyOpenAIClient.
//
// EmbeddingModel specifies the model used for embeddings and
// ExtractionModel the model used for extraction and genealogy synthesis.
// EmbeddingURL/EmbeddingKey and ChatURL/ChatKey configure the two API
// endpoints. MaxConcurrentRequests bounds in-flight provider calls and
// TimeoutMin bounds each call's duration.
type NewGenealogyOpenAIClientParams struct {
	EmbeddingModel  string
	ExtractionModel string

	EmbeddingURL string
	EmbeddingKey string
	ChatURL      string
	ChatKey      string

	MaxConcurrentRequests int64
	TimeoutMin            int64
}

// NewGenealogyOpenAIClient creates a client configured with the provided
// parameters.
//
// Example:
//
//	client := openai.NewGenealogyOpenAIClient(openai.NewGenealogyOpenAIClientParams{
//		EmbeddingModel:        "text-embedding-3-small",
//		ExtractionModel:       "gpt-4o-mini",
//		EmbeddingKey:          os.Getenv("OPENAI_API_KEY"),
//		ChatKey:               os.Getenv("OPENAI_API_KEY"),
//		MaxConcurrentRequests: 4,
//		TimeoutMin:            5,
//	})
func NewGenealogyOpenAIClient(
	params NewGenealogyOpenAIClientParams,
) *GenealogyOpenAIClient {
	chatClient := newOpenaiClient(params.ChatURL, params.ChatKey)
	embedClient := newOpenaiClient(params.EmbeddingURL, params.EmbeddingKey)

	maxReq := params.MaxConcurrentRequests
	if maxReq <= 0 {
		maxReq = 1
	}
	timeoutMin := params.TimeoutMin
	if timeoutMin <= 0 {
		timeoutMin = 5
	}

	return &GenealogyOpenAIClient{
		embeddingModel:  params.EmbeddingModel,
		extractionModel: params.ExtractionModel,

		chatURL:      params.ChatURL,
		chatKey:      params.ChatKey,
		embeddingURL: params.EmbeddingURL,
		embeddingKey: params.EmbeddingKey,

		timeoutMin: timeoutMin,

		reqLock:       semaphore.NewWeighted(maxReq),
		embeddingLock: semaphore.NewWeighted(maxReq),

		metricsLock: sync.Mutex{},
		metrics:     ai.ModelMetrics{},

		ChatClient:      chatClient,
		EmbeddingClient: embedClient,
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}
