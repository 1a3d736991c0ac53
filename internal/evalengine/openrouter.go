package evalengine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"intervue/internal/services"
)

const (
	jsonResponseType      = "json_object"
	defaultHTTPTimeout    = 60 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

// OpenRouterConfig captures the runtime settings for the chat-completions API.
type OpenRouterConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// OpenRouterEngine evaluates interviews through the OpenRouter
// chat-completions API.
type OpenRouterEngine struct {
	cfg        OpenRouterConfig
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// OpenRouterOption customizes the engine.
type OpenRouterOption func(*OpenRouterEngine)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) OpenRouterOption {
	return func(e *OpenRouterEngine) {
		if client != nil {
			e.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count.
func WithRetryMaxAttempts(attempts int) OpenRouterOption {
	return func(e *OpenRouterEngine) {
		e.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) OpenRouterOption {
	return func(e *OpenRouterEngine) {
		e.retryBaseDelay = baseDelay
		e.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) OpenRouterOption {
	return func(e *OpenRouterEngine) {
		e.sleeper = sleeper
	}
}

// NewOpenRouter constructs an OpenRouter-backed engine.
func NewOpenRouter(cfg OpenRouterConfig, opts ...OpenRouterOption) *OpenRouterEngine {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	engine := &OpenRouterEngine{
		cfg: OpenRouterConfig{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(engine)
	}
	if engine.cfg.BaseURL == "" {
		engine.cfg.BaseURL = "https://openrouter.ai/api/v1/chat/completions"
	}
	return engine
}

// GenerateQuestions asks the model for exactly count interview questions.
func (e *OpenRouterEngine) GenerateQuestions(ctx context.Context, resume, jobTitle, jobDescription string, count int) ([]string, error) {
	if count <= 0 {
		return nil, services.Wrap(services.ErrValidation, "evalengine", "generate_questions", "question count must be positive", nil)
	}
	content, err := e.completeJSON(ctx, QuestionGenerationPrompt, questionGenerationRequest(resume, jobTitle, jobDescription, count), "generate questions")
	if err != nil {
		return nil, wrapTransportError("generate_questions", err)
	}
	var parsed struct {
		Questions []string `json:"questions"`
	}
	if err := DecodeModelJSON(content, &parsed); err != nil {
		return nil, services.Wrap(services.ErrFatalResponse, "evalengine", "generate_questions", "parse model payload", err)
	}
	questions := make([]string, 0, len(parsed.Questions))
	for _, q := range parsed.Questions {
		if trimmed := strings.TrimSpace(q); trimmed != "" {
			questions = append(questions, trimmed)
		}
	}
	if len(questions) == 0 {
		return nil, services.Wrap(services.ErrFatalResponse, "evalengine", "generate_questions", "model returned no questions", nil)
	}
	return questions, nil
}

// Evaluate scores the full answer set in a single chat completion.
func (e *OpenRouterEngine) Evaluate(ctx context.Context, jobTitle string, records []AnswerRecord) (*Evaluation, error) {
	if len(records) == 0 {
		return nil, services.Wrap(services.ErrValidation, "evalengine", "evaluate", "no answer records supplied", nil)
	}
	request, err := evaluationRequest(jobTitle, records)
	if err != nil {
		return nil, services.Wrap(services.ErrFatalResponse, "evalengine", "evaluate", "build evaluation request", err)
	}
	content, err := e.completeJSON(ctx, EvaluationPrompt, request, "evaluate interview")
	if err != nil {
		return nil, wrapTransportError("evaluate", err)
	}
	var evaluation Evaluation
	if err := DecodeModelJSON(content, &evaluation); err != nil {
		return nil, services.Wrap(services.ErrFatalResponse, "evalengine", "evaluate", "parse model payload", err)
	}
	if evaluation.QuestionEvaluations == nil {
		evaluation.QuestionEvaluations = map[string]QuestionEvaluation{}
	}
	return &evaluation, nil
}

func wrapTransportError(operation string, err error) error {
	if errors.Is(err, services.ErrValidation) || errors.Is(err, services.ErrConfiguration) || errors.Is(err, services.ErrFatalResponse) {
		return err
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode >= http.StatusBadRequest && statusErr.StatusCode < http.StatusInternalServerError &&
		statusErr.StatusCode != http.StatusRequestTimeout && statusErr.StatusCode != http.StatusTooManyRequests {
		return services.Wrap(services.ErrFatalResponse, "evalengine", operation, "model request rejected", err)
	}
	return services.Wrap(services.ErrTransient, "evalengine", operation, "model request failed", err)
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("model request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
		// Some providers return the streaming schema (delta) even when
		// stream=false, so tolerate it as a fallback.
		Delta        chatCompletionMessage `json:"delta"`
		Text         string                `json:"text"`
		FinishReason string                `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatCompletionMessage struct {
	Content string `json:"content"`
	Refusal string `json:"refusal"`
}

func (e *OpenRouterEngine) completeJSON(ctx context.Context, systemPrompt, userPrompt, op string) (string, error) {
	if e.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "evalengine", "request", "api key required", nil)
	}
	payload := chatCompletionRequest{
		Model: e.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}

	attempts := e.retryAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		content, err := e.sendOnce(ctx, payload, op)
		if err == nil {
			return content, nil
		}
		delay, retry := e.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return "", err
		}
		if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
			return "", sleepErr
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

func (e *OpenRouterEngine) sendOnce(ctx context.Context, payload chatCompletionRequest, op string) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%s: encode body: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: http error: %w", op, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: read body: %w", op, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return "", &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}
	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", op, err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("%s: api error: %s", op, strings.TrimSpace(completion.Error.Message))
	}
	for _, choice := range completion.Choices {
		if content := firstNonEmpty(choice.Message.Content, choice.Delta.Content, choice.Text); content != "" {
			return content, nil
		}
	}
	return "", fmt.Errorf("%s: empty completion (snippet: %s)", op, payloadSnippet(string(body)))
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func (e *OpenRouterEngine) retryAttempts() int {
	if e.retryMaxAttempts <= 0 {
		return 1
	}
	return e.retryMaxAttempts
}

func (e *OpenRouterEngine) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil || ctx == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	if errors.Is(err, services.ErrConfiguration) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return e.capDelay(statusErr.RetryAfter), true
			}
			return e.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return e.backoffDelay(attempt), true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return e.backoffDelay(attempt), true
	}
	return 0, false
}

func (e *OpenRouterEngine) backoffDelay(attempt int) time.Duration {
	base := e.retryBaseDelay
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > e.retryMaxDelay/2 {
			delay = e.retryMaxDelay
			break
		}
		delay *= 2
	}
	return e.capDelay(delay)
}

func (e *OpenRouterEngine) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if e.retryMaxDelay > 0 && delay > e.retryMaxDelay {
		return e.retryMaxDelay
	}
	return delay
}

func (e *OpenRouterEngine) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if e.sleeper != nil {
		e.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
