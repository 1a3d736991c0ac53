package evalengine

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"intervue/internal/services"
)

// GeminiConfig captures the runtime settings for the Gemini API.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// GeminiEngine evaluates interviews through the Gemini API.
type GeminiEngine struct {
	client *genai.Client
	model  string
}

// NewGemini constructs a Gemini-backed engine.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*GeminiEngine, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "evalengine", "new_gemini", "api key required", nil)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, services.Wrap(services.ErrConfiguration, "evalengine", "new_gemini", "model required", nil)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "evalengine", "new_gemini", "create client", err)
	}
	return &GeminiEngine{client: client, model: model}, nil
}

// GenerateQuestions asks the model for exactly count interview questions.
func (g *GeminiEngine) GenerateQuestions(ctx context.Context, resume, jobTitle, jobDescription string, count int) ([]string, error) {
	if count <= 0 {
		return nil, services.Wrap(services.ErrValidation, "evalengine", "generate_questions", "question count must be positive", nil)
	}
	prompt := QuestionGenerationPrompt + "\n\n" + questionGenerationRequest(resume, jobTitle, jobDescription, count)
	content, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "evalengine", "generate_questions", "model request failed", err)
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

// Evaluate scores the full answer set in a single generation call.
func (g *GeminiEngine) Evaluate(ctx context.Context, jobTitle string, records []AnswerRecord) (*Evaluation, error) {
	if len(records) == 0 {
		return nil, services.Wrap(services.ErrValidation, "evalengine", "evaluate", "no answer records supplied", nil)
	}
	request, err := evaluationRequest(jobTitle, records)
	if err != nil {
		return nil, services.Wrap(services.ErrFatalResponse, "evalengine", "evaluate", "build evaluation request", err)
	}
	content, err := g.generate(ctx, EvaluationPrompt+"\n\n"+request)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "evalengine", "evaluate", "model request failed", err)
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

func (g *GeminiEngine) generate(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return b.String(), nil
}
