package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultTimeout = 30 * time.Second

// completionProvider talks to an OpenAI-compatible plain-completion
// endpoint (LM Studio and friends) at {base_url}/completions.
type completionProvider struct {
	baseURL     string
	temperature float64
	client      *http.Client
}

func newCompletionProvider(baseURL string, timeout time.Duration, temperature float64) *completionProvider {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &completionProvider{
		baseURL:     strings.TrimRight(baseURL, "/"),
		temperature: temperature,
		client:      &http.Client{Timeout: timeout},
	}
}

func (p *completionProvider) Name() string { return "completion" }

type completionRequest struct {
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature float64  `json:"temperature"`
	Stop        []string `json:"stop"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

func (p *completionProvider) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	body, err := json.Marshal(completionRequest{
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: p.temperature,
		Stop:        []string{"\n\n"},
	})
	if err != nil {
		return "", fmt.Errorf("error encoding completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error creating completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error calling completion endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion endpoint returned status %d", resp.StatusCode)
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("error decoding completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Text), nil
}

// chatProvider is the secondary strategy: a single user-role chat
// completion against the OpenAI API.
type chatProvider struct {
	client      *openai.Client
	model       string
	temperature float64
}

func newChatProvider(apiKey, model string, temperature float64) *chatProvider {
	return &chatProvider{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
	}
}

func (p *chatProvider) Name() string { return "openai-chat" }

func (p *chatProvider) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: float32(p.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("error calling chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion response contained no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
