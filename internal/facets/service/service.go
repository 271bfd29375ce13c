// Package service serves normalized facet lists, deduplicating concurrent
// identical requests and caching raw answers in Redis.
package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"crm_search_backend/internal/facets"
	"crm_search_backend/internal/filters"
	"crm_search_backend/platform/apperr"
	"crm_search_backend/platform/logger"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCacheTTL = 2 * time.Minute
	// fetchTimeout bounds a shared source fetch, which outlives the caller
	// that started it.
	fetchTimeout = 15 * time.Second
)

// VersionFunc reports the pool version cached answers are keyed on.
type VersionFunc func() uint64

type Service struct {
	source  facets.Source
	catalog *filters.Catalog
	cache   Cache
	version VersionFunc
	ttl     time.Duration
	log     *logger.Logger
	group   singleflight.Group
}

// New creates the service. cache and version may be nil; without a cache
// every request reaches the source.
func New(source facets.Source, catalog *filters.Catalog, cache Cache, version VersionFunc, ttl time.Duration, log *logger.Logger) *Service {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if version == nil {
		version = func() uint64 { return 0 }
	}
	return &Service{
		source:  source,
		catalog: catalog,
		cache:   cache,
		version: version,
		ttl:     ttl,
		log:     log,
	}
}

// Facets returns the normalized distinct values of every requested field.
func (s *Service) Facets(ctx context.Context, req facets.Request) (map[string][]string, error) {
	for _, key := range req.Fields {
		if _, ok := s.catalog.Field(key); !ok {
			return nil, apperr.Validation("unknown facet field").WithDetails(key)
		}
	}
	if err := filters.ValidateAll(s.catalog, req.Filters); err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(req.Fields))
	if len(req.Fields) == 0 {
		return out, nil
	}

	raw, err := s.raw(ctx, req)
	if err != nil {
		return nil, apperr.Unavailable("facets fetch failed", err).WithOp("facets.Facets")
	}
	for _, key := range req.Fields {
		out[key] = facets.NormalizeFacetList(key, raw[key])
	}
	return out, nil
}

func (s *Service) raw(ctx context.Context, req facets.Request) (facets.Raw, error) {
	key := s.cacheKey(req)

	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.CacheDegraded("facets", "read", err)
		} else if ok {
			return raw, nil
		}
	}

	// The fetch is shared by every caller of the same key, so it must not die
	// with the one that started it. Each caller still gives up on its own ctx.
	ch := s.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		raw, err := s.source.Fetch(fetchCtx, req)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(fetchCtx, key, raw, s.ttl); err != nil {
				s.log.CacheDegraded("facets", "write", err)
			}
		}
		return raw, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(facets.Raw), nil
	}
}

// cacheKey hashes the request together with the pool version so a reload
// never serves facets of the previous pool.
func (s *Service) cacheKey(req facets.Request) string {
	encoded, _ := json.Marshal(req)
	return "v" + strconv.FormatUint(s.version(), 10) + ":" + strconv.FormatUint(xxhash.Sum64(encoded), 16)
}

var _ facets.Fetcher = (*Service)(nil)
