package tags

import (
	"context"
	"sync"

	"github.com/comicden/comicden/pkg/models"
	"github.com/pkg/errors"
)

// Snapshot is the immutable product of one cache build. Consumers read it
// without locking; a stale snapshot is replaced wholesale on the next
// GetOrBuild after an Invalidate.
type Snapshot struct {
	// Vocab maps canonical norms to display strings. Blacklisted and
	// merge-source norms are excluded.
	Vocab map[string]string
	// Containment maps a child norm to its parent norms: every shorter
	// vocabulary entry that occurs as a whole-word substring inside it.
	Containment map[string][]string
	// FirstWord indexes vocabulary norms (length >= 3) by their first
	// token, bounding free-text candidate checks.
	FirstWord map[string][]string
	// Mods holds the raw modification rows keyed by source norm.
	Mods map[string]*models.TagModification
}

// Cache lazily builds a Snapshot and serves it until invalidated. There is
// no TTL: every write path that changes tag data must call Invalidate.
type Cache struct {
	mu      sync.Mutex
	snap    *Snapshot
	builder func(ctx context.Context) (*Snapshot, error)
}

func NewCache(builder func(ctx context.Context) (*Snapshot, error)) *Cache {
	return &Cache{builder: builder}
}

// GetOrBuild returns the current snapshot, building one if the cache is
// empty. Builds are serialized; concurrent callers wait for the winner.
func (c *Cache) GetOrBuild(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap != nil {
		return c.snap, nil
	}

	snap, err := c.builder(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	c.snap = snap
	return snap, nil
}

// Invalidate drops the snapshot so the next access rebuilds it.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}
