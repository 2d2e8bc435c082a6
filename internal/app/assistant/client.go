// Package assistant calls an OpenAI-compatible chat completion endpoint on behalf of the
// assistant bot.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultTimeout bounds one completion call.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

var (
	// ErrTransport means the endpoint could not be reached or the body could not be read.
	ErrTransport = errors.New("assistant: transport failure")

	// ErrStatus means the endpoint answered with a non-2xx status.
	ErrStatus = errors.New("assistant: unexpected status")

	// ErrMalformed means the body lacked choices[0].message.content.
	ErrMalformed = errors.New("assistant: malformed response")
)

// Config selects the completion endpoint.
type Config struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// Client is a minimal chat completion client. It is safe for concurrent use.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient builds a Client from cfg.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		endpoint:   strings.TrimSpace(cfg.Endpoint),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type completionResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends persona as the system message and query as the user message and returns
// the first choice's content. Errors wrap ErrTransport, ErrStatus or ErrMalformed.
func (c *Client) Complete(ctx context.Context, persona, query string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: persona},
			{Role: "user", Content: query},
		},
		Stream: false,
	})
	if err != nil {
		return "", errors.Wrap(err, "marshal completion request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrapf(ErrTransport, "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(ErrTransport, "post %s: %v", c.endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", errors.Wrapf(ErrTransport, "read response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Wrapf(ErrStatus, "HTTP %d: %s", resp.StatusCode, snippet(raw))
	}

	return parseContent(raw)
}

func parseContent(raw []byte) (string, error) {
	var parsed completionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", errors.Wrapf(ErrMalformed, "decode body: %v", err)
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message == nil || parsed.Choices[0].Message.Content == nil {
		return "", errors.Wrap(ErrMalformed, "missing choices[0].message.content")
	}

	return *parsed.Choices[0].Message.Content, nil
}

func snippet(raw []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(raw))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
