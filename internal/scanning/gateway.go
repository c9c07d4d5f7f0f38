package scanning

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultGatewayURL   = "https://ai.gateway.lovable.dev/v1"
	defaultGatewayModel = "google/gemini-2.5-flash"
)

// Gateway implements Model against an OpenAI-compatible chat completion endpoint
type Gateway struct {
	httpClient *resty.Client
	model      string
}

// NewGateway creates a chat completion client. baseURL and modelName fall back
// to the hosted gateway defaults when empty.
func NewGateway(baseURL, apiKey, modelName string, timeout time.Duration) (*Gateway, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gateway api key is required")
	}
	if baseURL == "" {
		baseURL = defaultGatewayURL
	}
	if modelName == "" {
		modelName = defaultGatewayModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &Gateway{
		httpClient: client,
		model:      modelName,
	}, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// chatMessage content is either a plain string or a list of contentPart.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends a single chat completion and returns the first choice's content.
func (g *Gateway) Complete(ctx context.Context, prompt Prompt) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if prompt.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: prompt.System})
	}

	if len(prompt.Image) > 0 {
		mime := prompt.ImageMIME
		if mime == "" {
			mime = "image/png"
		}
		messages = append(messages, chatMessage{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: prompt.User},
				{Type: "image_url", ImageURL: &imageURL{
					URL: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(prompt.Image),
				}},
			},
		})
	} else {
		messages = append(messages, chatMessage{Role: "user", Content: prompt.User})
	}

	result := new(chatResponse)
	resp, err := g.httpClient.R().
		SetContext(ctx).
		SetBody(chatRequest{Model: g.model, Messages: messages}).
		SetResult(result).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("calling gateway API: %w", err)
	}

	if resp.IsError() {
		return "", &StatusError{Provider: "gateway", StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	if len(result.Choices) == 0 {
		return "", nil
	}
	return result.Choices[0].Message.Content, nil
}

// Close is a no-op; the HTTP client holds no resources that need releasing
func (g *Gateway) Close() error {
	return nil
}
