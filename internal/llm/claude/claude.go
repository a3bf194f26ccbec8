package claude

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/platewise/internal/llm"
)

const defaultModel = "claude-3-5-sonnet-latest"

type Completer struct {
	client *anthropic.Client
	model  string
}

func NewCompleter(apiKey, model string, timeout time.Duration) *Completer {
	return newCompleter(apiKey, model, "", timeout)
}

// newCompleter allows tests to point the client at an httptest server.
func newCompleter(apiKey, model, baseURL string, timeout time.Duration) *Completer {
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	opts := []anthropic.ClientOption{
		anthropic.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &Completer{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

// buildMessages places the image ahead of the text prompt, which is the
// ordering the Messages API recommends for vision requests.
func buildMessages(req llm.Request) []anthropic.Message {
	content := make([]anthropic.MessageContent, 0, 2)
	if req.Image != nil {
		content = append(content, anthropic.NewImageMessageContent(anthropic.MessageContentSource{
			Type:      anthropic.MessagesContentSourceTypeBase64,
			MediaType: llm.NormaliseMIME(req.Image.MimeType),
			Data:      base64.StdEncoding.EncodeToString(req.Image.Data),
		}))
	}
	content = append(content, anthropic.NewTextMessageContent(req.Prompt))
	return []anthropic.Message{{Role: anthropic.RoleUser, Content: content}}
}

func (c *Completer) Complete(ctx context.Context, req llm.Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	temperature := float32(req.Temperature)

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		System:      req.System,
		Messages:    buildMessages(req),
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to call claude: %w", err)
	}

	var sb strings.Builder
	for _, blk := range resp.Content {
		if blk.Type == anthropic.MessagesContentTypeText {
			sb.WriteString(blk.GetText())
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("claude response does not contain text")
	}
	return strings.TrimSpace(sb.String()), nil
}
