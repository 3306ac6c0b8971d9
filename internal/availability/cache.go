package availability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/glowbook/beauty-booking-backend/internal/clock"
)

// CachedEngine decorates an Engine with a short-TTL per-stylist cache.
// Lifecycle transitions that move a hold call Invalidate, so staleness is
// bounded by the TTL only for changes made by other replicas.
type CachedEngine struct {
	inner Engine
	clock clock.Clock
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]map[string]cacheEntry
}

type cacheEntry struct {
	expiresAt time.Time
	month     map[string]DaySummary
	slots     []TimeSlot
}

// NewCachedEngine wraps inner; a non-positive ttl disables caching.
func NewCachedEngine(inner Engine, clk clock.Clock, ttl time.Duration) *CachedEngine {
	return &CachedEngine{
		inner:   inner,
		clock:   clk,
		ttl:     ttl,
		entries: make(map[string]map[string]cacheEntry),
	}
}

// Invalidate drops every cached view for the stylist. Satisfies the booking
// service's invalidator hook.
func (c *CachedEngine) Invalidate(stylistID string) {
	c.mu.Lock()
	delete(c.entries, stylistID)
	c.mu.Unlock()
}

func (c *CachedEngine) MonthAvailability(ctx context.Context, stylistID, serviceID string, from, to time.Time) (map[string]DaySummary, error) {
	key := fmt.Sprintf("month|%s|%d|%d", serviceID, from.Unix(), to.Unix())
	if entry, ok := c.lookup(stylistID, key); ok {
		return entry.month, nil
	}

	month, err := c.inner.MonthAvailability(ctx, stylistID, serviceID, from, to)
	if err != nil {
		return nil, err
	}
	c.store(stylistID, key, cacheEntry{month: month})
	return month, nil
}

func (c *CachedEngine) DaySlots(ctx context.Context, stylistID, serviceID string, date time.Time, granularity time.Duration) ([]TimeSlot, error) {
	key := fmt.Sprintf("day|%s|%d|%d", serviceID, date.Unix(), granularity)
	if entry, ok := c.lookup(stylistID, key); ok {
		return entry.slots, nil
	}

	slots, err := c.inner.DaySlots(ctx, stylistID, serviceID, date, granularity)
	if err != nil {
		return nil, err
	}
	c.store(stylistID, key, cacheEntry{slots: slots})
	return slots, nil
}

func (c *CachedEngine) lookup(stylistID, key string) (cacheEntry, bool) {
	if c.ttl <= 0 {
		return cacheEntry{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[stylistID][key]
	if !ok {
		return cacheEntry{}, false
	}
	if c.clock.Now().After(entry.expiresAt) {
		delete(c.entries[stylistID], key)
		return cacheEntry{}, false
	}
	return entry, true
}

func (c *CachedEngine) store(stylistID, key string, entry cacheEntry) {
	if c.ttl <= 0 {
		return
	}
	entry.expiresAt = c.clock.Now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[stylistID] == nil {
		c.entries[stylistID] = make(map[string]cacheEntry)
	}
	c.entries[stylistID][key] = entry
}
