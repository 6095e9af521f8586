// Package reasoning sends correlation prompts to a chat-completions API.
package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	commonhttp "legaldash/internal/common/http"
	"legaldash/internal/common/logger"
)

var (
	// ErrUnreachable means no connection to the service could be made.
	ErrUnreachable = errors.New("REASONING_UNREACHABLE")
	// ErrTimeout means the service accepted the request but did not answer
	// within the transport timeout.
	ErrTimeout = errors.New("REASONING_TIMEOUT")
	// ErrUpstream means the service answered with a non-2xx status.
	ErrUpstream = errors.New("REASONING_UPSTREAM_ERROR")
	// ErrMalformedResponse means a 2xx body that carried no usable completion.
	ErrMalformedResponse = errors.New("REASONING_MALFORMED_RESPONSE")
)

// Reasoner turns one prompt into one completion.
type Reasoner interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds the chat-completions endpoint settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// OpenAIClient calls POST {BaseURL}/chat/completions once per prompt. It
// never retries.
type OpenAIClient struct {
	url    string
	apiKey string
	model  string
	doer   commonhttp.Doer
	logger logger.Logger
}

// NewOpenAIClient builds a client. A nil doer gets a commonhttp.Client with cfg.Timeout.
func NewOpenAIClient(cfg Config, doer commonhttp.Doer, log logger.Logger) *OpenAIClient {
	if doer == nil {
		doer = commonhttp.NewClient(cfg.Timeout)
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &OpenAIClient{
		url:    strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		doer:   doer,
		logger: log.With(map[string]interface{}{"component": "openai"}),
	}
}

// Model returns the model name sent with every request.
func (c *OpenAIClient) Model() string {
	return c.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.doer.Do(req)
	if err != nil {
		// A cancelled or expired caller context is not an outage.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("chat completion: %w", ctxErr)
		}
		return "", classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(slurp)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrMalformedResponse, err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}

	c.logger.Debug("chat completion received", map[string]interface{}{
		"model":      c.model,
		"durationMs": time.Since(start).Milliseconds(),
	})

	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

// classifyTransport separates a stalled service from one that cannot be
// reached. Dial failures, including dial timeouts, are ErrUnreachable.
func classifyTransport(err error) error {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
