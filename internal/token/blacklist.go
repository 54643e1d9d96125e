package token

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type blacklistEntry struct {
	blacklistedAt time.Time
	expiresAt     time.Time
}

type BlacklistStats struct {
	TotalEntries int        `json:"totalEntries"`
	OldestEntry  *time.Time `json:"oldestEntryTimestamp"`
}

// Blacklist is the revocation registry: tokens that must be rejected even
// while their signature and expiry would still pass validation. Tokens are
// opaque keys here, never decoded. This is the only shared mutable state in
// the auth subsystem besides the login throttle, so every method must be
// safe under concurrent use.
type Blacklist struct {
	mu      sync.RWMutex
	entries map[string]blacklistEntry
	logger  *zap.Logger
	now     func() time.Time
}

func NewBlacklist(logger *zap.Logger) *Blacklist {
	return &Blacklist{
		entries: make(map[string]blacklistEntry),
		logger:  logger,
		now:     time.Now,
	}
}

// Revoke records the token until expiresAt, which callers copy from the
// token's own expiry claim: a revocation entry never needs to outlive the
// token it revokes. Revoking an already-revoked token is a no-op.
func (b *Blacklist) Revoke(tokenString string, expiresAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.entries[tokenString]; ok {
		return
	}
	b.entries[tokenString] = blacklistEntry{
		blacklistedAt: b.now(),
		expiresAt:     expiresAt,
	}
}

func (b *Blacklist) IsRevoked(tokenString string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.entries[tokenString]
	return ok
}

// SweepExpired removes entries whose token would already fail expiry
// validation. It exists purely to bound memory.
func (b *Blacklist) SweepExpired() int {
	now := b.now()
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for tok, entry := range b.entries {
		if !entry.expiresAt.After(now) {
			delete(b.entries, tok)
			removed++
		}
	}
	return removed
}

func (b *Blacklist) Stats() BlacklistStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats := BlacklistStats{TotalEntries: len(b.entries)}
	for _, entry := range b.entries {
		if stats.OldestEntry == nil || entry.blacklistedAt.Before(*stats.OldestEntry) {
			ts := entry.blacklistedAt
			stats.OldestEntry = &ts
		}
	}
	return stats
}

func (b *Blacklist) ClearAll() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := len(b.entries)
	b.entries = make(map[string]blacklistEntry)
	return count
}

// Run drives the periodic sweep until ctx is cancelled. The caller owns the
// goroutine; tests call SweepExpired directly instead of waiting on a clock.
func (b *Blacklist) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := b.SweepExpired(); removed > 0 {
				b.logger.Info("swept expired blacklist entries", zap.Int("removed", removed))
			}
		}
	}
}
