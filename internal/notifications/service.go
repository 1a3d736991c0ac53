package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"intervue/internal/config"
)

const userAgent = "Intervue/0.1.0"

// Service defines the notification surface exposed to the processing
// pipeline. Delivery is best effort: callers log failures and move on.
type Service interface {
	NotifyInterviewCompleted(ctx context.Context, jobTitle string, overallScore float64, keyStrengths, areasForGrowth []string) error
	NotifyInterviewFailed(ctx context.Context, jobTitle string, cause error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		completion: cfg.Notifications.Completion,
		errors:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	completion bool
	errors     bool
}

func (n *ntfyService) NotifyInterviewCompleted(ctx context.Context, jobTitle string, overallScore float64, keyStrengths, areasForGrowth []string) error {
	if !n.completion {
		return nil
	}
	jobTitle = strings.TrimSpace(jobTitle)

	var builder strings.Builder
	fmt.Fprintf(&builder, "Interview evaluated: %s\nOverall score: %.1f/10", jobTitle, overallScore)
	if len(keyStrengths) > 0 {
		fmt.Fprintf(&builder, "\nStrengths: %s", strings.Join(keyStrengths, "; "))
	}
	if len(areasForGrowth) > 0 {
		fmt.Fprintf(&builder, "\nGrowth areas: %s", strings.Join(areasForGrowth, "; "))
	}

	data := payload{
		title:    "Intervue - Results Ready",
		message:  builder.String(),
		tags:     []string{"intervue", "interview", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyInterviewFailed(ctx context.Context, jobTitle string, cause error) error {
	if !n.errors {
		return nil
	}
	jobTitle = strings.TrimSpace(jobTitle)

	var builder strings.Builder
	builder.WriteString("Interview processing failed")
	if jobTitle != "" {
		builder.WriteString(" for ")
		builder.WriteString(jobTitle)
	}
	builder.WriteString(": ")
	if cause != nil {
		builder.WriteString(strings.TrimSpace(cause.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Intervue - Processing Failed",
		message:  builder.String(),
		tags:     []string{"intervue", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Intervue - Test",
		message:  "Notification system test",
		tags:     []string{"intervue", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyInterviewCompleted(context.Context, string, float64, []string, []string) error {
	return nil
}
func (noopService) NotifyInterviewFailed(context.Context, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
