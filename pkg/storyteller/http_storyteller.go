package storyteller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// HTTPStoryTeller talks to the narration gateway.
type HTTPStoryTeller struct {
	BaseURL string
	Client  *http.Client
}

var _ StoryTeller = &HTTPStoryTeller{}

func NewHTTPStoryTeller(baseURL string) *HTTPStoryTeller {
	return &HTTPStoryTeller{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type narrateRequest struct {
	SessionId string `json:"session_id"`
	ChildName string `json:"child_name,omitempty"`
	Premise   string `json:"premise,omitempty"`
	StepId    string `json:"step_id,omitempty"`
	UserInput string `json:"user_input,omitempty"`
	Ending    string `json:"ending,omitempty"`
}

type narrateResponse struct {
	Text string `json:"text"`
}

func (s *HTTPStoryTeller) Intake(ctx context.Context, sessionId uuid.UUID, childName, premise string) (*Reply, error) {
	return s.post(ctx, "/narrate/intake", narrateRequest{
		SessionId: sessionId.String(),
		ChildName: childName,
		Premise:   premise,
	})
}

func (s *HTTPStoryTeller) Beat(ctx context.Context, sessionId uuid.UUID, stepId, userInput string) (*Reply, error) {
	return s.post(ctx, "/narrate/beat", narrateRequest{
		SessionId: sessionId.String(),
		StepId:    stepId,
		UserInput: userInput,
	})
}

func (s *HTTPStoryTeller) Ending(ctx context.Context, sessionId uuid.UUID, endingChoice string) (*Reply, error) {
	return s.post(ctx, "/narrate/ending", narrateRequest{
		SessionId: sessionId.String(),
		Ending:    endingChoice,
	})
}

func (s *HTTPStoryTeller) post(ctx context.Context, path string, body narrateRequest) (*Reply, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("narration request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("narration gateway returned %d: %s", resp.StatusCode, string(raw))
	}

	var out narrateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode narration response: %w", err)
	}

	return &Reply{Text: out.Text}, nil
}
