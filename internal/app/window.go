package app

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// WindowKeeper holds the freshness window shared by operations in a run
// and refetches it when it goes stale.
type WindowKeeper struct {
	ledger ports.Ledger
	maxAge time.Duration
	logger ports.Logger
	now    func() time.Time

	mu      sync.Mutex
	current domain.FreshnessWindow
	stale   bool
	fetches int
}

// NewWindowKeeper creates a keeper. A window older than maxAge is refetched
// before use; maxAge <= 0 disables age-based refresh.
func NewWindowKeeper(ledger ports.Ledger, maxAge time.Duration, logger ports.Logger) *WindowKeeper {
	return &WindowKeeper{
		ledger: ledger,
		maxAge: maxAge,
		logger: logger,
		now:    time.Now,
	}
}

// Fetch unconditionally obtains a new window.
func (k *WindowKeeper) Fetch(ctx context.Context) (domain.FreshnessWindow, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.fetchLocked(ctx)
}

// Current returns the window to build the next operation with,
// refetching first if it was invalidated or has aged out.
func (k *WindowKeeper) Current(ctx context.Context) (domain.FreshnessWindow, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.current.IsZero() || k.stale {
		return k.fetchLocked(ctx)
	}
	if k.maxAge > 0 && k.current.Age(k.now()) >= k.maxAge {
		k.logger.Debug("freshness window aged out",
			ports.String("reference", k.current.Reference),
			ports.Duration("max_age", k.maxAge),
		)
		return k.fetchLocked(ctx)
	}
	return k.current, nil
}

// Invalidate marks w stale so the next Current call refetches.
// It is a no-op if a newer window has already replaced w.
func (k *WindowKeeper) Invalidate(w domain.FreshnessWindow) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.current.Reference == w.Reference {
		k.stale = true
	}
}

// Fetches returns how many windows have been obtained so far.
func (k *WindowKeeper) Fetches() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.fetches
}

func (k *WindowKeeper) fetchLocked(ctx context.Context) (domain.FreshnessWindow, error) {
	w, err := k.ledger.FetchWindow(ctx)
	if err != nil {
		return domain.FreshnessWindow{}, err
	}
	if w.FetchedAt.IsZero() {
		w.FetchedAt = k.now()
	}
	k.current = w
	k.stale = false
	k.fetches++
	k.logger.Debug("freshness window fetched",
		ports.String("reference", w.Reference),
		ports.Uint64("expiry_height", w.ExpiryHeight),
	)
	return w, nil
}
