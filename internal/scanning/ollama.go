package scanning

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Ollama implements Model using a local Ollama server
type Ollama struct {
	httpClient *resty.Client
	model      string
}

// NewOllama creates a new Ollama model instance
// Recommended vision models (in order of recommendation):
//   - llava:1.6 (best balance of accuracy and speed)
//   - qwen2-vl:7b (good OCR capabilities, useful for receipts)
//   - llava-phi3 (smaller, faster, but less accurate)
func NewOllama(baseURL string, modelName string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "llava"
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(120 * time.Second) // vision models are slow on CPU

	return &Ollama{
		httpClient: client,
		model:      modelName,
	}, nil
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Complete sends a non-streaming chat request to Ollama
func (o *Ollama) Complete(ctx context.Context, prompt Prompt) (string, error) {
	var messages []ollamaMessage
	if prompt.System != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: prompt.System})
	}

	user := ollamaMessage{Role: "user", Content: prompt.User}
	if len(prompt.Image) > 0 {
		user.Images = []string{base64.StdEncoding.EncodeToString(prompt.Image)}
	}
	messages = append(messages, user)

	result := new(ollamaChatResponse)
	resp, err := o.httpClient.R().
		SetContext(ctx).
		SetBody(ollamaChatRequest{Model: o.model, Messages: messages}).
		SetResult(result).
		Post("/api/chat")
	if err != nil {
		return "", fmt.Errorf("calling ollama API: %w", err)
	}

	if resp.IsError() {
		return "", &StatusError{Provider: "ollama", StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	return result.Message.Content, nil
}

// Close is a no-op for the HTTP client
func (o *Ollama) Close() error {
	return nil
}
