package auth

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/osmacan/weather-api/internal/config"
)

type attemptRecord struct {
	count         int
	lastAttemptAt time.Time
}

// Throttle tracks failed logins per normalized email and enforces a
// temporary lockout: maxAttempts failures within a rolling window lock the
// identifier until the window elapses. Per-identifier, not per-IP: it
// mitigates credential stuffing on one account, not a distributed attack
// across many.
type Throttle struct {
	mu          sync.Mutex
	attempts    map[string]attemptRecord
	maxAttempts int
	window      time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

func NewThrottle(cfg *config.ThrottleConfig, logger *zap.Logger) *Throttle {
	return &Throttle{
		attempts:    make(map[string]attemptRecord),
		maxAttempts: cfg.MaxAttempts,
		window:      cfg.LockoutWindow,
		logger:      logger,
		now:         time.Now,
	}
}

// CheckLocked reports whether the identifier is currently locked out.
// Records whose window has elapsed are discarded here rather than by a
// sweeper, so failures never accumulate across unrelated windows. The check
// may delete, hence the exclusive lock.
func (t *Throttle) CheckLocked(identifier string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.attempts[identifier]
	if !ok || rec.count < t.maxAttempts {
		return false
	}
	if t.now().Sub(rec.lastAttemptAt) >= t.window {
		delete(t.attempts, identifier)
		return false
	}
	return true
}

// RecordAttempt registers a login outcome. A single success unconditionally
// forgives all prior failures for the identifier.
func (t *Throttle) RecordAttempt(identifier string, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if success {
		delete(t.attempts, identifier)
		return
	}

	rec := t.attempts[identifier]
	rec.count++
	rec.lastAttemptAt = t.now()
	t.attempts[identifier] = rec

	if rec.count >= t.maxAttempts {
		t.logger.Warn("identifier locked out",
			zap.String("identifier", identifier),
			zap.Int("failures", rec.count),
		)
	}
}
