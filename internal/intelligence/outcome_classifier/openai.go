package outcome_classifier

import (
	"context"
	"encoding/json"
	stdliberrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/turtacn/CaseIntel/internal/config"
	"github.com/turtacn/CaseIntel/internal/domain/analytics"
	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CaseIntel/internal/intelligence/common"
	"github.com/turtacn/CaseIntel/pkg/errors"
)

// maxPromptChars bounds the case text sent to the model.
const maxPromptChars = 6000

const (
	breakerThreshold = 5
	breakerReset     = time.Minute
)

const systemPrompt = `You label the outcome of a court case from one party's point of view.
Answer with a JSON object: {"outcome": "...", "confidence": 0.0, "rationale": "..."}.
"outcome" is one of "favorable", "unfavorable", "mixed", "unresolved".
Use "unresolved" when the text does not say how the case ended.`

// chatClient is the subset of the go-openai client used here.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClassifier asks an OpenAI-compatible chat model for the outcome.
// Calls are rate limited, memoised per (case, entity, side) and guarded by
// a circuit breaker; every call carries its own timeout.
type OpenAIClassifier struct {
	client  chatClient
	model   string
	timeout time.Duration
	limiter *rate.Limiter
	cache   *gocache.Cache
	breaker *common.CircuitBreaker
	log     logging.Logger
}

// NewOpenAIClassifier builds a classifier from cfg.  It fails when the API
// key is missing.
func NewOpenAIClassifier(cfg config.AIConfig, log logging.Logger) (*OpenAIClassifier, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrCodeValidation, "AI classifier requires an API key")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return newOpenAIClassifier(openai.NewClientWithConfig(clientCfg), cfg, log), nil
}

func newOpenAIClassifier(client chatClient, cfg config.AIConfig, log logging.Logger) *OpenAIClassifier {
	if log == nil {
		log = logging.NewNopLogger()
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultAITimeout
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = config.DefaultAICacheTTL
	}
	log = log.Named("ai")
	return &OpenAIClassifier{
		client:  client,
		model:   model,
		timeout: timeout,
		limiter: rate.NewLimiter(limit, burst),
		cache:   gocache.New(ttl, ttl/2),
		breaker: common.NewCircuitBreaker(breakerThreshold, breakerReset, func(from, to string) {
			log.Warn("AI circuit breaker state change", logging.String("from", from), logging.String("to", to))
		}),
		log: log,
	}
}

// Classify implements Classifier.
func (o *OpenAIClassifier) Classify(ctx context.Context, req Request) (Classification, error) {
	if req.Case == nil {
		return Classification{}, errors.InvalidParam("case is required")
	}
	key := fmt.Sprintf("%d|%s|%s", req.Case.ID, strings.ToLower(req.EntityName), req.Side)
	if v, ok := o.cache.Get(key); ok {
		return v.(Classification), nil
	}
	if !o.breaker.Allow() {
		return Classification{}, errors.Wrap(common.ErrCircuitOpen, errors.ErrCodeAIUnavailable, "AI classifier unavailable")
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	if err := o.limiter.Wait(callCtx); err != nil {
		return Classification{}, errors.Wrap(err, errors.ErrCodeAIRateLimited, "waiting for AI rate limiter")
	}

	resp, err := o.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0,
		MaxTokens:      200,
	})
	if err != nil {
		o.breaker.Failure()
		return Classification{}, classifyAPIError(err)
	}
	o.breaker.Success()

	if len(resp.Choices) == 0 {
		return Classification{}, errors.New(errors.ErrCodeAIMalformedOutput, "AI response has no choices")
	}
	cls, err := parseClassification(resp.Choices[0].Message.Content)
	if err != nil {
		return Classification{}, err
	}
	o.cache.SetDefault(key, cls)
	return cls, nil
}

func classifyAPIError(err error) error {
	var apiErr *openai.APIError
	if stdliberrors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return errors.Wrap(err, errors.ErrCodeAIRateLimited, "AI classifier rate limited")
	}
	var reqErr *openai.RequestError
	if stdliberrors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return errors.Wrap(err, errors.ErrCodeAIRateLimited, "AI classifier rate limited")
	}
	if stdliberrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, errors.ErrCodeTimeout, "AI classifier timed out")
	}
	return errors.Wrap(err, errors.ErrCodeAIUnavailable, "AI classifier call failed")
}

func buildPrompt(req Request) string {
	c := req.Case
	var sb strings.Builder
	fmt.Fprintf(&sb, "Party: %s\nSide: %s\nTitle: %s\n", req.EntityName, req.Side, c.Title)
	if c.Plaintiffs != "" {
		fmt.Fprintf(&sb, "Plaintiffs: %s\n", c.Plaintiffs)
	}
	if c.Defendants != "" {
		fmt.Fprintf(&sb, "Defendants: %s\n", c.Defendants)
	}
	text := c.OutcomeText()
	if len(text) > maxPromptChars {
		text = text[len(text)-maxPromptChars:]
	}
	sb.WriteString("Decision text:\n")
	sb.WriteString(text)
	return sb.String()
}

// parseClassification decodes the model's JSON answer, tolerating a Markdown
// code fence around it.
func parseClassification(content string) (Classification, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var raw struct {
		Outcome    string  `json:"outcome"`
		Confidence float64 `json:"confidence"`
		Rationale  string  `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &raw); err != nil {
		return Classification{}, errors.Wrap(err, errors.ErrCodeAIMalformedOutput, "decode AI response")
	}
	outcome, ok := analytics.ParseOutcome(strings.TrimSpace(raw.Outcome))
	if !ok {
		return Classification{}, errors.New(errors.ErrCodeAIMalformedOutput, "unknown outcome label").WithDetail(raw.Outcome)
	}
	if raw.Confidence < 0 || raw.Confidence > 1 {
		raw.Confidence = 0
	}
	return Classification{Outcome: outcome, Confidence: raw.Confidence, Rationale: raw.Rationale}, nil
}

//Personal.AI order the ending
