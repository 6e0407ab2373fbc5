package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/models"
)

// ErrNoCandidates is returned when Gemini answers without any usable text.
var ErrNoCandidates = errors.New("gemini returned no candidates")

// Client wraps the Gemini API for both embeddings and generation.
// The API key is passed per call because it is hot-reloadable from the
// ai_config table; the breaker and rate limiter are process-wide.
type Client struct {
	generativeModel string
	embeddingModel  string
	breaker         *gobreaker.CircuitBreaker
	rateLimiter     *rate.Limiter
}

type RateLimits struct {
	RPM int // Requests per minute
	TPM int // Tokens per minute
	RPD int // Requests per day
}

func NewClient(generativeModel, embeddingModel, tier string) *Client {
	limits := getRateLimits(tier)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	// RPM limit with some buffer
	rateLimiter := rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), max(limits.RPM/10, 1))

	return &Client{
		generativeModel: generativeModel,
		embeddingModel:  embeddingModel,
		breaker:         breaker,
		rateLimiter:     rateLimiter,
	}
}

func getRateLimits(tier string) RateLimits {
	switch tier {
	case "free":
		return RateLimits{RPM: 10, TPM: 250000, RPD: 250}
	case "tier1":
		return RateLimits{RPM: 1000, TPM: 1000000, RPD: 10000}
	case "tier2":
		return RateLimits{RPM: 2000, TPM: 4000000, RPD: 50000}
	default:
		return RateLimits{RPM: 10, TPM: 250000, RPD: 250}
	}
}

// EmbedText returns the raw embedding vector for the given text. Callers are
// responsible for unit-normalizing before storing or comparing.
func (c *Client) EmbedText(ctx context.Context, apiKey, text string) ([]float32, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing Gemini API key for embeddings")
	}

	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.embed_content", trace.WithAttributes(
		attribute.String("gemini.model", c.embeddingModel),
		attribute.Int("gemini.input_chars", len(text)),
	))
	defer span.End()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	defer client.Close()

	model := client.EmbeddingModel(c.embeddingModel)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return nil, err
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("no embedding returned")
	}

	return resp.Embedding.Values, nil
}

// GenerateText runs one generation request behind the circuit breaker and
// returns the concatenated text of the first candidate.
func (c *Client) GenerateText(ctx context.Context, apiKey, prompt string, params models.GenerationParams) (string, error) {
	if apiKey == "" {
		return "", fmt.Errorf("missing Gemini API key for generation")
	}

	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.generate_content", trace.WithAttributes(
		attribute.String("gemini.model", c.generativeModel),
		attribute.Int("gemini.prompt_chars", len(prompt)),
		attribute.Float64("gemini.temperature", float64(params.Temperature)),
		attribute.Int("gemini.max_tokens", int(params.MaxTokens)),
	))
	defer span.End()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return "", err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
		if err != nil {
			return nil, err
		}
		defer client.Close()

		model := client.GenerativeModel(c.generativeModel)
		model.SetTemperature(params.Temperature)
		model.SetMaxOutputTokens(params.MaxTokens)

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			span.SetAttributes(attribute.Bool("gemini.error", true))
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return "", err
	}

	text := extractText(result.(*genai.GenerateContentResponse))
	if text == "" {
		return "", ErrNoCandidates
	}

	span.SetAttributes(attribute.Int("gemini.response_chars", len(text)))
	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		break
	}
	return sb.String()
}
