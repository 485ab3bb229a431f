// Package app assembles the symptom intake components from configuration.
// Both the HTTP server and the MCP server start from the same App.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/symptom-intake-server/internal/domain"
	"github.com/symptom-intake-server/internal/history"
	"github.com/symptom-intake-server/internal/knowledge"
	"github.com/symptom-intake-server/internal/nlp"
	"github.com/symptom-intake-server/internal/recommendation"
	"github.com/symptom-intake-server/internal/service"
	"github.com/symptom-intake-server/pkg/external"
)

// App holds the wired service and the resources it owns.
type App struct {
	Service      *service.AssessmentService
	Capabilities external.Capabilities

	closers []io.Closer
	logger  *logrus.Logger
}

// New probes the optional backends, opens the history store and builds the
// assessment service. Unreachable backends are not an error; the pipeline
// runs rule-based instead.
func New(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) (*App, error) {
	a := &App{logger: logger}

	var cache *external.EntityCache
	if cfg.Cache.Enabled {
		c, err := external.NewEntityCache(cfg.Cache, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create entity cache: %w", err)
		}
		cache = c
		a.closers = append(a.closers, c)
	}

	// Both probes are bounded by their probe timeouts; run them together.
	var (
		entityClient *external.EntityClient
		chatClient   *external.ChatClient
		g            errgroup.Group
	)
	if cfg.NLP.EntityBackend.Configured() {
		g.Go(func() error {
			entityClient = external.NewEntityClient(ctx, cfg.NLP.EntityBackend, cache, logger)
			return nil
		})
	}
	if cfg.Recommendation.Enabled && cfg.Recommendation.ChatBackend.Configured() {
		g.Go(func() error {
			chatClient = external.NewChatClient(ctx, cfg.Recommendation.ChatBackend, logger)
			return nil
		})
	}
	_ = g.Wait()

	var caps external.Capabilities
	var recognizer domain.EntityRecognizer
	if entityClient != nil {
		caps = caps.Merge(entityClient.Capabilities())
		recognizer = entityClient
	}
	var chat domain.ChatCompleter
	if chatClient != nil {
		caps = caps.Merge(chatClient.Capabilities())
		chat = chatClient
	}
	a.Capabilities = caps

	pipeline := nlp.NewPipeline(knowledge.Default(), recognizer, caps, logger)

	var planner domain.PlanGenerator
	if cfg.Recommendation.Enabled {
		planner = recommendation.NewEngine(chat, caps, logger)
	}

	store, err := history.Open(ctx, cfg, logger)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	a.closers = append(a.closers, store)

	a.Service = service.NewAssessmentService(pipeline, planner, store, caps, logger)

	logger.WithFields(logrus.Fields{
		"advanced_nlp":    pipeline.AdvancedEnabled(),
		"chat_backend":    caps.ChatCompletion,
		"recommendations": cfg.Recommendation.Enabled,
		"history_driver":  cfg.History.Driver,
	}).Info("Symptom intake pipeline ready")

	return a, nil
}

// Close releases the history store and cache in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
