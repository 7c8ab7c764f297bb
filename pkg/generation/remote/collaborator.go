package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-storybook-be/internal/constant"
	"ai-storybook-be/pkg/generation"
)

// Collaborator calls the generation gateway over HTTP for a single stage.
// The gateway wraps the actual model providers; from here they are opaque.
type Collaborator struct {
	BaseURL string
	Stage   string
	Client  *http.Client
}

var _ generation.Collaborator = &Collaborator{}

func NewCollaborator(baseURL, stage string, timeout time.Duration) *Collaborator {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Collaborator{
		BaseURL: baseURL,
		Stage:   stage,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

type generateRequest struct {
	ArtifactId string                 `json:"artifact_id"`
	SessionId  string                 `json:"session_id"`
	Params     map[string]interface{} `json:"params,omitempty"`
}

type generateResponse struct {
	Completed         int    `json:"completed"`
	Total             int    `json:"total"`
	Message           string `json:"message,omitempty"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

func (c *Collaborator) Run(ctx context.Context, in generation.Input) generation.Outcome {
	payload, err := json.Marshal(generateRequest{
		ArtifactId: in.ArtifactId.String(),
		SessionId:  in.SessionId.String(),
		Params:     in.Params,
	})
	if err != nil {
		return errorOutcome(fmt.Sprintf("marshal request: %v", err))
	}

	url := fmt.Sprintf("%s/generate/%s", c.BaseURL, c.Stage)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		return errorOutcome(fmt.Sprintf("create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		// Includes client-side timeouts; self-reported as a hard failure.
		return errorOutcome(fmt.Sprintf("generation gateway request failed: %v", err))
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		var out generateResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return errorOutcome(fmt.Sprintf("decode gateway response: %v", err))
		}
		return generation.Outcome{
			Ok: true,
			Progress: generation.Progress{
				Completed: out.Completed,
				Total:     out.Total,
			},
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		var out generateResponse
		_ = json.Unmarshal(body, &out)
		o := generation.Outcome{
			Classification: constant.ClassificationRateLimited,
			Message:        out.Message,
		}
		if out.RetryAfterSeconds > 0 {
			hint := time.Now().Add(time.Duration(out.RetryAfterSeconds) * time.Second)
			o.RetryHint = &hint
		}
		return o

	default:
		return errorOutcome(fmt.Sprintf("generation gateway returned %d: %s", resp.StatusCode, string(body)))
	}
}

func errorOutcome(message string) generation.Outcome {
	return generation.Outcome{
		Classification: constant.ClassificationError,
		Message:        message,
	}
}
