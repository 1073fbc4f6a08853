package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/synapse-reader/internal/adapters/driven/ai"
	"github.com/custodia-labs/synapse-reader/internal/adapters/driven/backend"
	"github.com/custodia-labs/synapse-reader/internal/adapters/driven/config/file"
	"github.com/custodia-labs/synapse-reader/internal/adapters/driven/confirm"
	"github.com/custodia-labs/synapse-reader/internal/adapters/driven/library"
	"github.com/custodia-labs/synapse-reader/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/synapse-reader/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/cli"
	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driving"
	"github.com/custodia-labs/synapse-reader/internal/core/services"
	"github.com/custodia-labs/synapse-reader/internal/logger"
)

var log = logger.Scope("wire")

// wiring is the composition root behind the cli commands.
type wiring struct {
	validator driven.AIConfigValidator
}

func newWiring() *wiring {
	return &wiring{validator: ai.NewConfigValidator()}
}

var _ cli.Wiring = (*wiring)(nil)

// configDir resolves the state directory for opts.
func configDir(opts cli.Options) (string, error) {
	if opts.ConfigDir != "" {
		return opts.ConfigDir, nil
	}
	return file.DefaultDir()
}

// Settings implements cli.Wiring.
func (w *wiring) Settings(opts cli.Options) (driving.SettingsService, error) {
	if opts.Ephemeral {
		return services.NewSettingsService(memory.NewConfigStore()), nil
	}
	dir, err := configDir(opts)
	if err != nil {
		return nil, err
	}
	store, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	return services.NewSettingsService(store), nil
}

// ValidateLLM implements cli.Wiring.
func (w *wiring) ValidateLLM(_ context.Context, settings domain.LLMSettings) error {
	if w.validator == nil {
		return ai.ValidateLLMConfig(&settings)
	}
	return w.validator.ValidateLLM(&settings)
}

// Open implements cli.Wiring.
//
//nolint:funlen // linear assembly of the engine
func (w *wiring) Open(ctx context.Context, opts cli.Options) (sess *cli.Session, err error) {
	var closers []func() error
	defer func() {
		if err == nil {
			return
		}
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}()

	logger.Section("session")
	settingsSvc, err := w.Settings(opts)
	if err != nil {
		return nil, err
	}
	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	if opts.BackendURL != "" {
		settings.Backend.BaseURL = opts.BackendURL
	}
	if !settings.Backend.IsConfigured() {
		return nil, fmt.Errorf("%w: backend.base_url is not set", domain.ErrSearchUnavailable)
	}

	client, err := backend.NewClient(backend.Config{
		BaseURL: settings.Backend.BaseURL,
		Timeout: settings.Backend.Timeout,
	})
	if err != nil {
		return nil, err
	}

	var insights driven.InsightGenerator = client
	llm, llmErr := ai.CreateAndValidateLLMService(ctx, &settings.LLM)
	switch {
	case llmErr != nil:
		log.Warn("LLM unavailable, using backend insights: %v", llmErr)
	case llm != nil:
		dir, dirErr := configDir(opts)
		if dirErr != nil {
			llm.Close()
			return nil, dirErr
		}
		prompts, promptErr := file.NewPromptStore(filepath.Join(dir, "prompts"))
		if promptErr != nil {
			llm.Close()
			return nil, promptErr
		}
		closers = append(closers, llm.Close)
		insights = services.NewLLMInsightGenerator(llm, prompts)
		log.Debug("insights from %s", llm.ModelName())
	}

	cfg := services.WorkbenchConfig{
		Settings:  *settings,
		Relevance: client,
		Insights:  insights,
		Audio:     client,
	}

	if opts.Ephemeral {
		cfg.ConnectionStore = memory.NewConnectionStore()
		cfg.TrailStore = memory.NewTrailStore()
	} else {
		dir, dirErr := configDir(opts)
		if dirErr != nil {
			return nil, dirErr
		}
		store, storeErr := sqlite.NewStore(filepath.Join(dir, "data"))
		if storeErr != nil {
			return nil, storeErr
		}
		closers = append(closers, store.Close)
		cfg.ConnectionStore = store.ConnectionStore()
		cfg.TrailStore = store.TrailStore()
	}

	delegate := confirm.NewDelegate(false)
	cfg.Confirmer = delegate

	var (
		lib    *library.Library
		viewer *library.Viewer
	)
	if opts.LibraryDir != "" {
		lib, err = library.Open(opts.LibraryDir)
		if err != nil {
			return nil, err
		}
		closers = append(closers, lib.Close)

		delay := time.Duration(0)
		if opts.Interactive {
			delay = library.DefaultLoadDelay
		}
		viewer = library.NewViewer(lib, delay)
		closers = append(closers, func() error {
			viewer.Close()
			return nil
		})
		cfg.Viewer = viewer
		cfg.Pages = lib
	}

	wb, err := services.NewWorkbench(cfg)
	if err != nil {
		return nil, err
	}
	if err := wb.Start(ctx); err != nil {
		_ = wb.Close()
		return nil, err
	}

	log.Info("backend %s, library %q, ephemeral %v", settings.Backend.BaseURL, opts.LibraryDir, opts.Ephemeral)
	sess = cli.NewSession(wb, nil, nil, closers...)
	sess.Confirmations = delegate
	if lib != nil {
		sess.Catalog = lib
		sess.Reader = viewer
	}

	if opts.Interactive && lib != nil {
		feed := cli.NewChangeFeed()
		sess.Changes = feed
		if err := watchLibrary(ctx, lib, wb, feed); err != nil {
			log.Warn("library watcher disabled: %v", err)
		}
	}
	return sess, nil
}

// watchLibrary drops cached connections for documents edited on disk and
// tells the feed.
func watchLibrary(ctx context.Context, lib *library.Library, wb driving.ConnectionFinder, feed *cli.ChangeFeed) error {
	changes, err := lib.Watch(ctx)
	if err != nil {
		return err
	}
	go func() {
		for change := range changes {
			log.Debug("%s %s", change.Type, change.DocumentID)
			if err := wb.InvalidateDocument(ctx, change.DocumentID); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("invalidating %s: %v", change.DocumentID, err)
			}
			feed.Publish(change.DocumentID)
		}
	}()
	return nil
}
