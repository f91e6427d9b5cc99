package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/env"
)

const (
	defaultAPIBaseURL = "https://api.openai.com/v1"
	defaultModel      = "gpt-4o-mini"

	// MaxHintLevel bounds the progressive hint ladder: 1 nudges, 2 names an
	// approach, 3 outlines the solution.
	MaxHintLevel = 3
)

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	APIBaseURL string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// NewClientFromEnv builds the hint client from environment configuration.
func NewClientFromEnv() *Client {
	baseURL := env.GetEnv("AI_API_BASE_URL", defaultAPIBaseURL)
	model := env.GetEnv("AI_MODEL", defaultModel)

	return &Client{
		APIBaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:     env.GetEnv("AI_API_KEY", ""),
		Model:      model,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// IsConfigured reports whether an API key is present.
func (c *Client) IsConfigured() bool {
	return c.APIKey != ""
}

// HintRequest describes the problem the user wants a hint for.
type HintRequest struct {
	ProblemName   string
	ProblemRating int
	Tags          []string
	Level         int
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Hint asks the model for a progressive hint at the requested level.
func (c *Client) Hint(ctx context.Context, req HintRequest) (string, error) {
	if !c.IsConfigured() {
		return "", fmt.Errorf("hint service is not configured")
	}

	system, user := BuildPrompt(req)
	body := chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   300,
		Temperature: 0.4,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal hint request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create hint request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("hint request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read hint response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode hint response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(data))
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("hint provider returned status %d: %s", resp.StatusCode, msg)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("hint provider returned no choices")
	}

	hint := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if hint == "" {
		return "", fmt.Errorf("hint provider returned an empty hint")
	}
	return hint, nil
}

// BuildPrompt composes the system and user messages for a hint level.
// Higher levels reveal more; none of them reveal full code.
func BuildPrompt(req HintRequest) (system string, user string) {
	level := req.Level
	if level < 1 {
		level = 1
	}
	if level > MaxHintLevel {
		level = MaxHintLevel
	}

	var instruction string
	switch level {
	case 1:
		instruction = "Give a single short nudge: point at the key observation without naming the technique or the solution."
	case 2:
		instruction = "Name the algorithmic technique to use and why it fits, in two or three sentences. Do not outline the full solution."
	default:
		instruction = "Outline the solution approach step by step in plain language. Do not write any code."
	}

	system = "You are a competitive programming coach. You help the student get unstuck without robbing them of the solve. " +
		"Never produce source code and never state the final answer outright. " + instruction

	var sb strings.Builder
	fmt.Fprintf(&sb, "Problem: %s", req.ProblemName)
	if req.ProblemRating > 0 {
		fmt.Fprintf(&sb, " (rated %d)", req.ProblemRating)
	}
	if len(req.Tags) > 0 {
		fmt.Fprintf(&sb, "\nTags: %s", strings.Join(req.Tags, ", "))
	}
	fmt.Fprintf(&sb, "\nHint level: %d of %d", level, MaxHintLevel)
	user = sb.String()
	return system, user
}
