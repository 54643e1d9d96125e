package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBlacklist_RevokeAndLookup(t *testing.T) {
	t.Parallel()

	b := NewBlacklist(zap.NewNop())

	assert.False(t, b.IsRevoked("tok-1"))
	b.Revoke("tok-1", time.Now().Add(time.Hour))
	assert.True(t, b.IsRevoked("tok-1"))
	assert.False(t, b.IsRevoked("tok-2"))
}

func TestBlacklist_RevokeIsIdempotent(t *testing.T) {
	t.Parallel()

	b := NewBlacklist(zap.NewNop())
	exp := time.Now().Add(time.Hour)

	b.Revoke("tok-1", exp)
	first := b.Stats()

	b.Revoke("tok-1", exp)
	second := b.Stats()

	assert.Equal(t, 1, second.TotalEntries)
	assert.Equal(t, first.OldestEntry, second.OldestEntry)
}

func TestBlacklist_SweepRemovesOnlyExpired(t *testing.T) {
	t.Parallel()

	b := NewBlacklist(zap.NewNop())
	b.Revoke("expired-1", time.Now().Add(-time.Minute))
	b.Revoke("expired-2", time.Now().Add(-time.Hour))
	b.Revoke("live", time.Now().Add(time.Hour))

	removed := b.SweepExpired()
	assert.Equal(t, 2, removed)

	assert.False(t, b.IsRevoked("expired-1"))
	assert.False(t, b.IsRevoked("expired-2"))
	assert.True(t, b.IsRevoked("live"))
}

func TestBlacklist_RevokedStaysRevokedUntilSweep(t *testing.T) {
	t.Parallel()

	b := NewBlacklist(zap.NewNop())
	b.Revoke("tok", time.Now().Add(-time.Minute))

	// entry for an already-expired token is inert but present
	assert.True(t, b.IsRevoked("tok"))
	b.SweepExpired()
	assert.False(t, b.IsRevoked("tok"))
}

func TestBlacklist_Stats(t *testing.T) {
	t.Parallel()

	b := NewBlacklist(zap.NewNop())

	empty := b.Stats()
	assert.Zero(t, empty.TotalEntries)
	assert.Nil(t, empty.OldestEntry)

	earliest := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := earliest
	b.now = func() time.Time { return clock }

	b.Revoke("tok-1", earliest.Add(time.Hour))
	clock = clock.Add(10 * time.Minute)
	b.Revoke("tok-2", earliest.Add(time.Hour))

	stats := b.Stats()
	assert.Equal(t, 2, stats.TotalEntries)
	assert.NotNil(t, stats.OldestEntry)
	assert.Equal(t, earliest, *stats.OldestEntry)
}

func TestBlacklist_ClearAll(t *testing.T) {
	t.Parallel()

	b := NewBlacklist(zap.NewNop())
	b.Revoke("tok-1", time.Now().Add(time.Hour))
	b.Revoke("tok-2", time.Now().Add(time.Hour))

	assert.Equal(t, 2, b.ClearAll())
	assert.Zero(t, b.Stats().TotalEntries)
	assert.False(t, b.IsRevoked("tok-1"))
}

func TestBlacklist_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	b := NewBlacklist(zap.NewNop())
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			b.Revoke("tok", time.Now().Add(time.Hour))
			b.SweepExpired()
		}
	}()

	for i := 0; i < 1000; i++ {
		b.IsRevoked("tok")
		b.Stats()
	}
	<-done
}
