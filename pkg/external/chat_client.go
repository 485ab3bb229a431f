package external

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/symptom-intake-server/internal/domain"
)

const (
	chatTagsPath = "/api/tags"
	chatPath     = "/api/chat"
)

// ChatClient talks to an Ollama-compatible chat-completion service.
type ChatClient struct {
	baseURL    string
	model      string
	options    ChatOptions
	httpClient *http.Client
	timeout    time.Duration
	rateLimit  *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	caps       Capabilities
	logger     *logrus.Logger
}

// ChatOptions are the decoding parameters sent with every request.
type ChatOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
	NumPredict  int     `json:"num_predict"`
}

// ChatMessage is one turn in a chat request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ChatOptions   `json:"options"`
}

type chatResponse struct {
	Model   string      `json:"model"`
	Message ChatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// NewChatClient creates a client and probes the backend's model list once.
// A reachable backend enables chat completion; whether the configured model
// is installed is recorded but does not disable it.
func NewChatClient(ctx context.Context, cfg domain.BackendConfig, logger *logrus.Logger) *ChatClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	options := ChatOptions{
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
		TopK:        cfg.TopK,
		NumPredict:  cfg.MaxOutputTokens,
	}
	if options.TopP == 0 {
		options.TopP = 0.9
	}
	if options.TopK == 0 {
		options.TopK = 40
	}
	if options.NumPredict == 0 {
		options.NumPredict = 600
	}

	c := &ChatClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		options:    options,
		httpClient: &http.Client{},
		timeout:    timeout,
		rateLimit:  newLimiter(cfg),
		breaker:    newCircuitBreaker("chat-backend", cfg, logger),
		logger:     logger,
	}
	c.caps = c.probe(ctx, cfg.ProbeTimeout)
	return c
}

// Capabilities returns the flags computed at construction.
func (c *ChatClient) Capabilities() Capabilities {
	return c.caps
}

// Model returns the configured model name.
func (c *ChatClient) Model() string {
	return c.model
}

func (c *ChatClient) probe(ctx context.Context, probeTimeout time.Duration) Capabilities {
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var tags tagsResponse
	if err := doJSON(ctx, c.httpClient, http.MethodGet, c.baseURL+chatTagsPath, nil, &tags); err != nil {
		c.logger.WithError(err).WithField("base_url", c.baseURL).Warn("Chat backend unavailable, using rule-based recommendations")
		return Capabilities{ChatModel: c.model}
	}

	available := false
	for _, m := range tags.Models {
		if strings.Contains(m.Name, c.model) {
			available = true
			break
		}
	}
	fields := logrus.Fields{
		"base_url":        c.baseURL,
		"model":           c.model,
		"model_available": available,
	}
	if available {
		c.logger.WithFields(fields).Info("Chat backend probed")
	} else {
		c.logger.WithFields(fields).Warn("Chat backend reachable but model not installed")
	}

	return Capabilities{
		ChatCompletion:     true,
		ChatModelAvailable: available,
		ChatModel:          c.model,
	}
}

// Complete sends one non-streaming chat request and returns the reply text.
// An empty reply is treated as a failure.
func (c *ChatClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	if !c.rateLimit.Allow() {
		return "", domain.NewBackendError(BackendChat, "complete", ErrRateLimited)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req := chatRequest{
			Model: c.model,
			Messages: []ChatMessage{
				{Role: "system", Content: system},
				{Role: "user", Content: prompt},
			},
			Stream:  false,
			Options: c.options,
		}
		var resp chatResponse
		if err := doJSON(callCtx, c.httpClient, http.MethodPost, c.baseURL+chatPath, req, &resp); err != nil {
			return nil, err
		}
		if resp.Error != "" {
			return nil, fmt.Errorf("backend error: %s", resp.Error)
		}
		content := strings.TrimSpace(resp.Message.Content)
		if content == "" {
			return nil, fmt.Errorf("empty completion")
		}
		return content, nil
	})
	if err != nil {
		return "", domain.NewBackendError(BackendChat, "complete", err)
	}
	return result.(string), nil
}
