package transcribe

import "context"

// MockTranscript is the fixed text returned by the mock transcriber.
const MockTranscript = "Scenario based questions in any technical interview are asked to assess the depth of your knowledge. So whenever you get a scenario based question, don't jump to the answer. Try to assess the situation, get more details about the question, and then start framing your answer."

// Mock returns a fixed transcript without touching the audio.
type Mock struct{}

// NewMock constructs a mock transcriber.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Transcribe(ctx context.Context, audioRef string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return MockTranscript, nil
}
