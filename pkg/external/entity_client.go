package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/symptom-intake-server/internal/domain"
)

const (
	entityCapabilitiesPath = "/v1/capabilities"
	entityExtractPath      = "/v1/entities"
	maxResponseBytes       = 4 << 20
)

// EntityClient talks to an entity recognition / concept linking service.
type EntityClient struct {
	baseURL      string
	httpClient   *http.Client
	timeout      time.Duration
	defaultScore float64
	rateLimit    *rate.Limiter
	breaker      *gobreaker.CircuitBreaker
	cache        *EntityCache
	caps         Capabilities
	logger       *logrus.Logger
}

type entityCapabilitiesResponse struct {
	NER            bool   `json:"ner"`
	ConceptLinking bool   `json:"concept_linking"`
	Model          string `json:"model"`
}

type entityRequest struct {
	Text string `json:"text"`
}

type entityResponse struct {
	Entities []struct {
		Text               string   `json:"text"`
		Label              string   `json:"label"`
		Start              *int     `json:"start"`
		End                *int     `json:"end"`
		ConceptID          *string  `json:"concept_id"`
		ConceptDescription *string  `json:"concept_description"`
		Confidence         *float64 `json:"confidence"`
	} `json:"entities"`
}

// NewEntityClient creates a client and probes the backend once. A failed
// probe is logged and leaves every capability flag false; it is not an error.
// cache may be nil.
func NewEntityClient(ctx context.Context, cfg domain.BackendConfig, cache *EntityCache, logger *logrus.Logger) *EntityClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	score := cfg.DefaultScore
	if score <= 0 || score > 1 {
		score = 0.8
	}

	c := &EntityClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:   &http.Client{},
		timeout:      timeout,
		defaultScore: score,
		rateLimit:    newLimiter(cfg),
		breaker:      newCircuitBreaker("entity-backend", cfg, logger),
		cache:        cache,
		logger:       logger,
	}
	c.caps = c.probe(ctx, cfg.ProbeTimeout)
	return c
}

// Capabilities returns the flags computed at construction.
func (c *EntityClient) Capabilities() Capabilities {
	return c.caps
}

func (c *EntityClient) probe(ctx context.Context, probeTimeout time.Duration) Capabilities {
	if probeTimeout <= 0 {
		probeTimeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var resp entityCapabilitiesResponse
	if err := c.doJSON(ctx, http.MethodGet, entityCapabilitiesPath, nil, &resp); err != nil {
		c.logger.WithError(err).WithField("base_url", c.baseURL).Warn("Entity backend unavailable, using rule-based extraction")
		return Capabilities{}
	}

	caps := Capabilities{
		EntityRecognition: resp.NER,
		ConceptLinking:    resp.ConceptLinking,
		EntityModel:       resp.Model,
	}
	c.logger.WithFields(logrus.Fields{
		"base_url":        c.baseURL,
		"ner":             caps.EntityRecognition,
		"concept_linking": caps.ConceptLinking,
		"model":           caps.EntityModel,
	}).Info("Entity backend probed")
	return caps
}

// RecognizeEntities sends text to the backend. Missing optional fields are
// filled in: label becomes UNKNOWN and confidence the configured default.
// Entities without text or span are reported as malformed.
func (c *EntityClient) RecognizeEntities(ctx context.Context, text string) ([]domain.MedicalEntity, error) {
	if c.cache != nil {
		if entities, ok := c.cache.Get(ctx, text); ok {
			return entities, nil
		}
	}

	if !c.rateLimit.Allow() {
		return nil, domain.NewBackendError(BackendEntity, "recognize", ErrRateLimited)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		var resp entityResponse
		if err := c.doJSON(callCtx, http.MethodPost, entityExtractPath, entityRequest{Text: text}, &resp); err != nil {
			return nil, err
		}
		return c.convert(resp)
	})
	if err != nil {
		return nil, domain.NewBackendError(BackendEntity, "recognize", err)
	}

	entities := result.([]domain.MedicalEntity)
	if c.cache != nil {
		if err := c.cache.Set(ctx, text, entities); err != nil {
			c.logger.WithError(err).Warn("Failed to cache entity response")
		}
	}
	return entities, nil
}

func (c *EntityClient) convert(resp entityResponse) ([]domain.MedicalEntity, error) {
	entities := make([]domain.MedicalEntity, 0, len(resp.Entities))
	for i, raw := range resp.Entities {
		if strings.TrimSpace(raw.Text) == "" {
			return nil, fmt.Errorf("entity %d has no text", i)
		}
		if raw.Start == nil || raw.End == nil {
			return nil, fmt.Errorf("entity %d (%q) has no span", i, raw.Text)
		}
		e := domain.MedicalEntity{
			Text:       raw.Text,
			Label:      domain.NormalizeLabel(raw.Label),
			Start:      *raw.Start,
			End:        *raw.End,
			Confidence: c.defaultScore,
		}
		if raw.ConceptID != nil {
			e.ConceptID = *raw.ConceptID
		}
		if raw.ConceptDescription != nil {
			e.ConceptDescription = *raw.ConceptDescription
		}
		if raw.Confidence != nil {
			e.Confidence = *raw.Confidence
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func (c *EntityClient) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	return doJSON(ctx, c.httpClient, method, c.baseURL+path, body, out)
}

// doJSON performs one JSON request and decodes a 2xx response into out.
func doJSON(ctx context.Context, client *http.Client, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty response body")
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func newLimiter(cfg domain.BackendConfig) *rate.Limiter {
	if cfg.RateLimit <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
}
