package policies

import (
	"context"
	"encoding/json"
	"time"

	"github.com/angelmondragon/repricer/internal/reprice"
	"github.com/angelmondragon/repricer/pkg/db/models"
	pkgerrors "github.com/angelmondragon/repricer/pkg/errors"
	"github.com/angelmondragon/repricer/pkg/logger"
	"github.com/angelmondragon/repricer/pkg/redis"
	lru "github.com/hashicorp/golang-lru"
)

// Source yields the sanitised policies of a product sorted by priority.
type Source interface {
	ForProduct(ctx context.Context, productID string) ([]reprice.Policy, error)
}

type rowLister interface {
	ListForProduct(ctx context.Context, productID string) ([]models.RepricePolicy, error)
}

// Store reads policy rows and drops the ones that fail sanitisation.
type Store struct {
	repo rowLister
	logg *logger.Logger
}

func NewStore(repo rowLister, logg *logger.Logger) *Store {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{repo: repo, logg: logg}
}

func (s *Store) ForProduct(ctx context.Context, productID string) ([]reprice.Policy, error) {
	rows, err := s.repo.ListForProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list policies")
	}
	out := make([]reprice.Policy, 0, len(rows))
	for _, row := range rows {
		p, err := ToPolicy(row)
		if err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "skipping invalid policy")
			continue
		}
		out = append(out, p)
	}
	return reprice.SortByPriority(out), nil
}

type memoEntry struct {
	policies []reprice.Policy
	storedAt time.Time
}

// CachedSourceParams configures NewCachedSource.
type CachedSourceParams struct {
	Source Source
	Cache  redis.Cache
	Key    func(productID string) string
	Size   int
	TTL    time.Duration
	Logger *logger.Logger
}

// CachedSource memoizes policies in process and in the shared cache.
type CachedSource struct {
	next  Source
	cache redis.Cache
	key   func(string) string
	memo  *lru.Cache
	ttl   time.Duration
	logg  *logger.Logger
	now   func() time.Time
}

func NewCachedSource(params CachedSourceParams) (*CachedSource, error) {
	size := params.Size
	if size <= 0 {
		size = 5000
	}
	memo, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	key := params.Key
	if key == nil {
		key = func(productID string) string { return "policy:product:" + productID }
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &CachedSource{
		next:  params.Source,
		cache: params.Cache,
		key:   key,
		memo:  memo,
		ttl:   ttl,
		logg:  logg,
		now:   time.Now,
	}, nil
}

func (c *CachedSource) ForProduct(ctx context.Context, productID string) ([]reprice.Policy, error) {
	if cached, ok := c.memo.Get(productID); ok {
		if e, ok := cached.(memoEntry); ok && c.now().Sub(e.storedAt) < c.ttl {
			return e.policies, nil
		}
		c.memo.Remove(productID)
	}

	if policies, ok := c.fromCache(ctx, productID); ok {
		c.memo.Add(productID, memoEntry{policies: policies, storedAt: c.now()})
		return policies, nil
	}

	policies, err := c.next.ForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	c.memo.Add(productID, memoEntry{policies: policies, storedAt: c.now()})
	c.toCache(ctx, productID, policies)
	return policies, nil
}

// Invalidate drops a product from both cache layers.
func (c *CachedSource) Invalidate(ctx context.Context, productID string) error {
	c.memo.Remove(productID)
	if c.cache == nil {
		return nil
	}
	return c.cache.Delete(ctx, c.key(productID))
}

// Purge empties the in-process memo. Called at the start of each run.
func (c *CachedSource) Purge() {
	c.memo.Purge()
}

func (c *CachedSource) fromCache(ctx context.Context, productID string) ([]reprice.Policy, bool) {
	if c.cache == nil {
		return nil, false
	}
	raw, err := c.cache.Get(ctx, c.key(productID))
	if err != nil {
		if !redis.IsMiss(err) {
			c.logg.Warn(c.logg.WithProductID(ctx, productID), "policy cache read failed")
		}
		return nil, false
	}
	var policies []reprice.Policy
	if err := json.Unmarshal([]byte(raw), &policies); err != nil {
		_ = c.cache.Delete(ctx, c.key(productID))
		return nil, false
	}
	return policies, true
}

func (c *CachedSource) toCache(ctx context.Context, productID string, policies []reprice.Policy) {
	if c.cache == nil {
		return
	}
	payload, err := json.Marshal(policies)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, c.key(productID), payload, c.ttl); err != nil {
		c.logg.Warn(c.logg.WithProductID(ctx, productID), "policy cache write failed")
	}
}
