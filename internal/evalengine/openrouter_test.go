package evalengine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"intervue/internal/services"
)

func completionBody(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	if err != nil {
		t.Fatalf("marshal completion: %v", err)
	}
	return body
}

func testRecords() []AnswerRecord {
	return []AnswerRecord{
		{QuestionID: "u1-s1-1", Question: "Tell me about yourself.", Transcription: "I am an engineer."},
		{QuestionID: "u1-s1-2", Question: "Describe a hard bug.", Transcription: ""},
	}
}

func TestOpenRouterEvaluateDecodesPayload(t *testing.T) {
	payload := `{
		"question_evaluations": {
			"u1-s1-1": {"score": 8, "feedback": "Solid intro.", "follow_up_question": "What drives you?"}
		},
		"final_assessment": {
			"overall_score": 7.5,
			"key_strengths": ["Communication"],
			"areas_for_growth": ["Detail"],
			"skill_assessment": {"technical": 7, "problem_solving": 7, "communication": 8, "leadership": 6, "adaptability": 7, "behavioral_fit": 7, "confidence": 7}
		}
	}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer testbearer" {
			t.Errorf("authorization header = %q", got)
		}
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Errorf("message count = %d, want 2", len(req.Messages))
		}
		w.Write(completionBody(t, payload))
	}))
	defer server.Close()

	engine := NewOpenRouter(OpenRouterConfig{APIKey: "testbearer", BaseURL: server.URL, Model: "test-model"})

	evaluation, err := engine.Evaluate(context.Background(), "Platform Engineer", testRecords())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	verdict, ok := evaluation.QuestionEvaluations["u1-s1-1"]
	if !ok {
		t.Fatal("missing evaluation for u1-s1-1")
	}
	if verdict.Score != 8 {
		t.Errorf("score = %v, want 8", verdict.Score)
	}
	if evaluation.FinalAssessment.OverallScore != 7.5 {
		t.Errorf("overall score = %v, want 7.5", evaluation.FinalAssessment.OverallScore)
	}
	if evaluation.FinalAssessment.SkillAssessment.Communication != 8 {
		t.Errorf("communication = %v, want 8", evaluation.FinalAssessment.SkillAssessment.Communication)
	}
}

func TestOpenRouterRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(completionBody(t, `{"questions": ["What motivates you?"]}`))
	}))
	defer server.Close()

	engine := NewOpenRouter(OpenRouterConfig{APIKey: "test-key", BaseURL: server.URL, Model: "test-model"},
		WithRetryBackoff(time.Millisecond, time.Millisecond),
		WithSleeper(func(time.Duration) {}),
	)
	questions, err := engine.GenerateQuestions(context.Background(), "resume", "Engineer", "build things", 1)
	if err != nil {
		t.Fatalf("GenerateQuestions: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if len(questions) != 1 {
		t.Fatalf("question count = %d, want 1", len(questions))
	}
}

func TestOpenRouterClientErrorIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	engine := NewOpenRouter(OpenRouterConfig{APIKey: "bad-key", BaseURL: server.URL, Model: "test-model"})
	_, err := engine.Evaluate(context.Background(), "Engineer", testRecords())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrFatalResponse) {
		t.Errorf("error = %v, want fatal response marker", err)
	}
	if services.IsRetryable(err) {
		t.Error("client rejection should not be retryable")
	}
}

func TestOpenRouterMalformedPayloadIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionBody(t, "this is not json at all"))
	}))
	defer server.Close()

	engine := NewOpenRouter(OpenRouterConfig{APIKey: "test-key", BaseURL: server.URL, Model: "test-model"})
	_, err := engine.Evaluate(context.Background(), "Engineer", testRecords())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrFatalResponse) {
		t.Errorf("error = %v, want fatal response marker", err)
	}
}

func TestOpenRouterExhaustedRetriesAreTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	engine := NewOpenRouter(OpenRouterConfig{APIKey: "test-key", BaseURL: server.URL, Model: "test-model"},
		WithRetryMaxAttempts(2),
		WithRetryBackoff(time.Millisecond, time.Millisecond),
		WithSleeper(func(time.Duration) {}),
	)
	_, err := engine.Evaluate(context.Background(), "Engineer", testRecords())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Errorf("error = %v, want transient marker", err)
	}
	if !services.IsRetryable(err) {
		t.Error("server outage should stay retryable")
	}
}

func TestOpenRouterMissingAPIKey(t *testing.T) {
	engine := NewOpenRouter(OpenRouterConfig{Model: "test-model"})
	_, err := engine.Evaluate(context.Background(), "Engineer", testRecords())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Errorf("error = %v, want configuration marker", err)
	}
}

func TestOpenRouterEmptyRecordsRejected(t *testing.T) {
	engine := NewOpenRouter(OpenRouterConfig{APIKey: "k", Model: "m"})
	_, err := engine.Evaluate(context.Background(), "Engineer", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Errorf("error = %v, want validation marker", err)
	}
}
