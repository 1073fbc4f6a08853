package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
	"github.com/custodia-labs/synapse-reader/internal/logger"
)

var navLog = logger.Scope("navigator")

// Navigator moves the viewer to a location.
//
// A cross-document move opens the document, waits for it to settle, polls
// until the viewer is ready and then retries the page navigation with a
// fixed backoff. A same-document move uses a short settle delay and a
// single attempt.
type Navigator struct {
	viewer   driven.Viewer
	settings domain.NavigationSettings
}

// NewNavigator creates a navigator. Non-positive durations fall back to
// the defaults.
func NewNavigator(viewer driven.Viewer, settings domain.NavigationSettings) *Navigator {
	defaults := domain.DefaultAppSettings().Navigation
	if settings.PollInterval <= 0 {
		settings.PollInterval = defaults.PollInterval
	}
	if settings.ReadyTimeout <= 0 {
		settings.ReadyTimeout = defaults.ReadyTimeout
	}
	if settings.RetryBackoff <= 0 {
		settings.RetryBackoff = defaults.RetryBackoff
	}
	if settings.MaxRetries < 0 {
		settings.MaxRetries = 0
	}
	return &Navigator{viewer: viewer, settings: settings}
}

// Navigate moves the viewer to loc. It returns true only when the viewer
// confirmed the move; the error explains a false result.
func (n *Navigator) Navigate(ctx context.Context, loc domain.Location) (bool, error) {
	if n.viewer == nil {
		return false, domain.ErrViewerNotReady
	}
	if loc.PageNumber < 1 {
		return false, fmt.Errorf("%w: page %d", domain.ErrInvalidInput, loc.PageNumber)
	}

	cross := loc.DocumentID != "" && loc.DocumentID != n.viewer.CurrentDocument()
	delay := n.settings.SameDocumentDelay
	if cross {
		navLog.Debug("opening %s", loc.DocumentID)
		if err := n.viewer.OpenDocument(ctx, loc.DocumentID); err != nil {
			return false, fmt.Errorf("open %s: %w: %w", loc.DocumentID, domain.ErrNavigationFailed, err)
		}
		delay = n.settings.CrossDocumentDelay
	}

	if err := sleep(ctx, delay); err != nil {
		return false, err
	}
	if err := n.waitReady(ctx); err != nil {
		return false, err
	}

	var backoff retry.Backoff = retry.NewConstant(n.settings.RetryBackoff)
	if cross {
		backoff = retry.WithMaxRetries(uint64(n.settings.MaxRetries), backoff)
	} else {
		backoff = retry.WithMaxRetries(0, backoff)
	}

	attempts := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		ok, err := n.viewer.NavigateToPage(ctx, loc.PageNumber)
		if err != nil {
			navLog.Debug("attempt %d: %v", attempts, err)
			return retry.RetryableError(err)
		}
		if !ok {
			navLog.Debug("attempt %d: viewer rejected page %d", attempts, loc.PageNumber)
			return retry.RetryableError(domain.ErrNavigationFailed)
		}
		return nil
	})
	if err != nil {
		navLog.Warn("navigate to %s page %d failed after %d attempts", loc.DocumentID, loc.PageNumber, attempts)
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, fmt.Errorf("navigate to %s page %d: %w", loc.DocumentID, loc.PageNumber, domain.ErrNavigationFailed)
	}
	return true, nil
}

// waitReady polls the viewer until it is ready or the timeout passes.
func (n *Navigator) waitReady(ctx context.Context) error {
	backoff := retry.WithMaxDuration(n.settings.ReadyTimeout, retry.NewConstant(n.settings.PollInterval))
	err := retry.Do(ctx, backoff, func(_ context.Context) error {
		if n.viewer.Ready() {
			return nil
		}
		return retry.RetryableError(domain.ErrViewerNotReady)
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("wait for viewer: %w", domain.ErrViewerNotReady)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
