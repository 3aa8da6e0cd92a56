package templates

import (
	"context"
	"sync"
	"time"
)

// Lister is the read side of the template catalogue.
type Lister interface {
	ListTemplates(ctx context.Context, filter Filter) ([]Template, error)
}

type cacheEntry struct {
	templates []Template
	expires   time.Time
}

// CachedLister memoizes ListTemplates per (year, scopeType, scopeId). It holds
// no state beyond its own map, so callers decide whether to use one at all.
type CachedLister struct {
	next Lister
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[Filter]cacheEntry
}

func NewCachedLister(next Lister, ttl time.Duration) *CachedLister {
	return &CachedLister{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: map[Filter]cacheEntry{},
	}
}

func (c *CachedLister) ListTemplates(ctx context.Context, filter Filter) ([]Template, error) {
	if c.ttl <= 0 {
		return c.next.ListTemplates(ctx, filter)
	}

	now := c.now()
	c.mu.Lock()
	entry, ok := c.entries[filter]
	c.mu.Unlock()
	if ok && now.Before(entry.expires) {
		return cloneTemplates(entry.templates), nil
	}

	list, err := c.next.ListTemplates(ctx, filter)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[filter] = cacheEntry{templates: cloneTemplates(list), expires: now.Add(c.ttl)}
	c.mu.Unlock()
	return list, nil
}

// cloneTemplates copies the slices and pointers a caller could mutate, so
// cached entries never alias what ListTemplates hands out.
func cloneTemplates(in []Template) []Template {
	if in == nil {
		return nil
	}
	out := make([]Template, len(in))
	for i, t := range in {
		if t.BaseTarget != nil {
			target := *t.BaseTarget
			t.BaseTarget = &target
		}
		t.Goals = append([]Goal(nil), t.Goals...)
		t.Milestones = append([]Milestone(nil), t.Milestones...)
		out[i] = t
	}
	return out
}
