// Package directory caches the user list used to resolve notification audiences.
package directory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/leadbook/crm-system/internal/core/domain"
	"github.com/leadbook/crm-system/internal/core/ports"
	"github.com/leadbook/crm-system/internal/pkg/metrics"
)

const refreshTimeout = 10 * time.Second

// Directory holds an immutable snapshot of all users. Refresh swaps the
// snapshot atomically; on failure the previous one stays in place.
type Directory struct {
	repo ports.UserRepository
	log  zerolog.Logger

	mu    sync.RWMutex
	all   []domain.UserIdentity
	byID  map[string]domain.UserIdentity
	built time.Time
}

func New(repo ports.UserRepository, log zerolog.Logger) *Directory {
	return &Directory{
		repo: repo,
		log:  log,
		byID: make(map[string]domain.UserIdentity),
	}
}

// Refresh reloads the snapshot from the user repository.
func (d *Directory) Refresh(ctx context.Context) error {
	users, err := d.repo.FindAll(ctx)
	if err != nil {
		metrics.DirectoryRefreshErrorsTotal.Inc()
		return fmt.Errorf("directory refresh: %w", err)
	}

	all := make([]domain.UserIdentity, 0, len(users))
	byID := make(map[string]domain.UserIdentity, len(users))
	for _, u := range users {
		all = append(all, u.UserIdentity)
		byID[u.ID] = u.UserIdentity
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	d.mu.Lock()
	d.all = all
	d.byID = byID
	d.built = time.Now()
	d.mu.Unlock()

	metrics.DirectoryUsers.Set(float64(len(all)))
	d.log.Debug().Int("users", len(all)).Msg("user directory refreshed")
	return nil
}

// All returns the snapshot ordered by user ID. Callers must not modify it.
func (d *Directory) All() []domain.UserIdentity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.all
}

// Owners returns the owner subset of the snapshot.
func (d *Directory) Owners() []domain.UserIdentity {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []domain.UserIdentity
	for _, u := range d.all {
		if u.IsOwner() {
			out = append(out, u)
		}
	}
	return out
}

func (d *Directory) Get(userID string) (domain.UserIdentity, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byID[userID]
	return u, ok
}

// BuiltAt is the time of the last successful refresh; zero before the first.
func (d *Directory) BuiltAt() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.built
}

// Run refreshes the snapshot every interval until ctx is cancelled.
// A non-positive interval disables periodic refresh.
func (d *Directory) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refreshCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
			if err := d.Refresh(refreshCtx); err != nil {
				d.log.Warn().Err(err).Msg("periodic directory refresh failed")
			}
			cancel()
		}
	}
}
