package reference

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/novaq/novaq-dashboard/internal/backend"
)

// Backend paths for the reference lists. They are public and fetched without a token.
const (
	RegionsPath         = "/api/regions"
	SubRegionsPath      = "/api/regions/subs-all"
	BusinessClassesPath = "/api/BusinessClassOid"
)

// Fetcher issues backend GETs.
type Fetcher interface {
	Get(ctx context.Context, path, token string, query url.Values) (*backend.Response, error)
}

// Service loads and caches reference data.
type Service struct {
	backend Fetcher
	cache   *Cache
	logger  *slog.Logger
	group   singleflight.Group
}

// NewService constructs the service. cache may be nil.
func NewService(fetcher Fetcher, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: fetcher, cache: cache, logger: logger}
}

// Load returns every list. Failed lists come back empty and are logged.
func (s *Service) Load(ctx context.Context) Data {
	data, errs := s.load(ctx)
	for name, err := range errs {
		s.logger.Warn("reference list unavailable", slog.String("list", name), slog.Any("error", err))
	}
	return data
}

// Warm bumps the cache version and refetches every list.
func (s *Service) Warm(ctx context.Context) (Data, error) {
	ver, err := s.cache.Bump(ctx)
	if err != nil {
		return Data{}, fmt.Errorf("reference: bump: %w", err)
	}
	data, errs := s.load(ctx)
	if len(errs) > 0 {
		return data, fmt.Errorf("reference: warm version %d: %d list(s) failed", ver, len(errs))
	}
	return data, nil
}

func (s *Service) load(ctx context.Context) (Data, map[string]error) {
	var (
		data   Data
		g      errgroup.Group
		errReg error
		errSub error
		errBC  error
	)
	g.Go(func() error {
		data.Regions, errReg = fetchList[Region](ctx, s, "regions", RegionsPath)
		return nil
	})
	g.Go(func() error {
		data.SubRegions, errSub = fetchList[SubRegion](ctx, s, "sub_regions", SubRegionsPath)
		return nil
	})
	g.Go(func() error {
		data.BusinessClasses, errBC = fetchList[BusinessClass](ctx, s, "business_classes", BusinessClassesPath)
		return nil
	})
	_ = g.Wait()

	errs := map[string]error{}
	if errReg != nil {
		errs["regions"] = errReg
	}
	if errSub != nil {
		errs["sub_regions"] = errSub
	}
	if errBC != nil {
		errs["business_classes"] = errBC
	}
	return data, errs
}

// fetchList reads one list through the cache. Redis failures are logged and
// the list is fetched from the backend instead.
func fetchList[T any](ctx context.Context, s *Service, name, path string) ([]T, error) {
	flightKey := name
	var cacheKey string
	if s.cache != nil {
		key, err := s.cache.key(ctx, name)
		if err != nil {
			s.logger.Warn("reference cache unavailable", slog.String("list", name), slog.Any("error", err))
		} else {
			cacheKey, flightKey = key, key
		}
	}

	res := s.group.DoChan(flightKey, func() (any, error) {
		var out []T
		if cacheKey != "" {
			hit, err := s.cache.get(ctx, cacheKey, &out)
			if hit && err == nil {
				return out, nil
			}
			if err != nil {
				s.logger.Warn("reference cache read", slog.String("key", cacheKey), slog.Any("error", err))
			}
		}
		resp, err := s.backend.Get(ctx, path, "", nil)
		if err != nil {
			return nil, err
		}
		out, err = backend.DecodeList[T](resp)
		if err != nil {
			return nil, err
		}
		if cacheKey != "" {
			if err := s.cache.put(ctx, cacheKey, out); err != nil {
				s.logger.Warn("reference cache write", slog.String("key", cacheKey), slog.Any("error", err))
			}
		}
		return out, nil
	})
	select {
	case <-ctx.Done():
		return []T{}, ctx.Err()
	case r := <-res:
		if r.Err != nil {
			return []T{}, r.Err
		}
		list, _ := r.Val.([]T)
		if list == nil {
			list = []T{}
		}
		return list, nil
	}
}
