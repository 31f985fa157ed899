package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	defaultModel   = "claude-3-haiku-20240307"
	maxTokens      = 256
)

// Client defines the interface for AI text processing.
type Client interface {
	TranslateToCommand(ctx context.Context, history []Message, input string) (string, error)
}

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicClient struct {
	httpClient *resty.Client
	model      string
}

// Option customizes the client.
type Option func(*anthropicClient)

// WithBaseURL points the client at another API host.
func WithBaseURL(url string) Option {
	return func(c *anthropicClient) {
		c.httpClient.SetBaseURL(strings.TrimSuffix(url, "/"))
	}
}

// NewClient creates a configured Anthropic client.
func NewClient(apiKey, model string, opts ...Option) Client {
	if model == "" {
		model = defaultModel
	}
	client := resty.New().
		SetBaseURL(defaultBaseURL).
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(15 * time.Second)

	c := &anthropicClient{httpClient: client, model: model}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []Message `json:"messages"`
}

type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

const systemPrompt = `You translate inventory planning questions into exactly one command line.

Commands:
/atp <item> <qty> [YYYY-MM-DD] [strict]   earliest date qty units of item can be promised
/bom <item>=<qty> <item>=<qty> ... [YYYY-MM-DD]   earliest date a whole kit can be promised
/item <item>   projected stock health of one item
/shortages   current shortage list
/rebuild   recompute the ledger now
/help   anything else

Rules:
- Output only the command line, nothing else.
- Keep item names exactly as the user wrote them, without spaces.
- "strict" means the balance must stay above zero after the promise.
- Use earlier turns to resolve references like "and for 20 units?".`

// TranslateToCommand maps free text onto a slash command.
func (c *anthropicClient) TranslateToCommand(ctx context.Context, history []Message, input string) (string, error) {
	messages := append(append([]Message(nil), history...), Message{Role: "user", Content: input})
	// Prefill the assistant turn so the reply starts as a command.
	messages = append(messages, Message{Role: "assistant", Content: "/"})

	reqBody := messageRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages:  messages,
	}

	var respBody messageResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		Post("/v1/messages")
	if err != nil {
		return "", fmt.Errorf("anthropic api call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("anthropic api error: %s", resp.String())
	}
	if len(respBody.Content) == 0 {
		return "", fmt.Errorf("empty response from ai")
	}

	return cleanCommand("/" + respBody.Content[0].Text), nil
}

func cleanCommand(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	for _, line := range strings.Split(text, "\n") {
		line = strings.Trim(strings.TrimSpace(line), "`")
		if line == "" || line == "/" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			line = "/" + line
		}
		return strings.Replace(line, "//", "/", 1)
	}
	return "/help"
}
