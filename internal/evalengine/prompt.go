package evalengine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// QuestionGenerationPrompt instructs the model to propose interview questions
// as a JSON object. The user prompt supplies the resume, role, and count.
const QuestionGenerationPrompt = `You are an experienced interviewer preparing a mock interview.
Given a candidate resume, a job title, and a job description, generate unique
interview questions covering technical expertise, scenario-based problem
solving, behavioral and leadership qualities, and adaptability.

Each question must be distinct and phrased conversationally.

Respond with JSON only, in exactly this shape:
{"questions": ["...", "..."]}`

// EvaluationPrompt instructs the model to score a full interview transcript
// in a single response. The user prompt supplies the role and transcript.
const EvaluationPrompt = `You are an expert interview evaluator analyzing a candidate's complete mock interview.

For every question, assign a score out of 10, write detailed feedback on how
the answer could improve, and suggest one follow-up question. Questions with
an empty transcription were not answered.

Then produce an overall assessment: an overall score out of 10, key strengths,
areas for growth, and a rating out of 10 for each of technical,
problem_solving, communication, leadership, adaptability, behavioral_fit, and
confidence.

Respond with JSON only, in exactly this shape:
{
  "question_evaluations": {
    "<question_id>": {"score": 0, "feedback": "...", "follow_up_question": "..."}
  },
  "final_assessment": {
    "overall_score": 0,
    "key_strengths": ["..."],
    "areas_for_growth": ["..."],
    "skill_assessment": {
      "technical": 0,
      "problem_solving": 0,
      "communication": 0,
      "leadership": 0,
      "adaptability": 0,
      "behavioral_fit": 0,
      "confidence": 0
    }
  }
}`

func questionGenerationRequest(resume, jobTitle, jobDescription string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Job title: %s\n\n", jobTitle)
	fmt.Fprintf(&b, "Job description:\n%s\n\n", jobDescription)
	fmt.Fprintf(&b, "Candidate resume:\n%s\n\n", resume)
	fmt.Fprintf(&b, "Generate exactly %d questions.", count)
	return b.String()
}

func evaluationRequest(jobTitle string, records []AnswerRecord) (string, error) {
	transcript, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Role: %s\n\n", jobTitle)
	fmt.Fprintf(&b, "Candidate responses (question_id, question, transcription):\n%s\n\n", transcript)
	b.WriteString("Evaluate every question_id listed above.")
	return b.String(), nil
}
