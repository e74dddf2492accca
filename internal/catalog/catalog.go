package catalog

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/foodclub/internal/cache"
	"github.com/fjod/foodclub/internal/domain"
	"github.com/fjod/foodclub/internal/logger"
	"github.com/fjod/foodclub/internal/restapi"
)

type Doer interface {
	Do(ctx context.Context, req restapi.Request, out interface{}) (*restapi.Envelope, error)
}

type Service struct {
	api   Doer
	cache cache.MenuCache
	sfg   singleflight.Group // Prevents cache stampede
	log   logrus.FieldLogger

	// fillMu orders cache fills against Invalidate; a fill is skipped when
	// the generation moved while its fetch was running.
	fillMu     sync.Mutex
	generation uint64
}

func NewService(api Doer, cache cache.MenuCache, log logrus.FieldLogger) *Service {
	return &Service{
		api:   api,
		cache: cache,
		log:   log,
	}
}

// Menu returns the full menu, from cache when possible.
func (s *Service) Menu(ctx context.Context) ([]domain.MenuItem, error) {
	log := logger.FromContext(ctx, s.log)

	v, err, _ := s.sfg.Do("menu", func() (interface{}, error) {
		items, err := s.cache.GetMenu(ctx)
		if err == nil {
			return items, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.WithError(err).Warn("menu cache get failed") // continue with the API
		}

		s.fillMu.Lock()
		gen := s.generation
		s.fillMu.Unlock()

		var fetched []domain.MenuItem
		if _, err := s.api.Do(ctx, restapi.Request{Method: http.MethodGet, Path: "/menu-items"}, &fetched); err != nil {
			return nil, errors.Wrap(err, "failed to fetch menu")
		}
		if fetched == nil {
			fetched = []domain.MenuItem{}
		}

		go func(items []domain.MenuItem) {
			s.fillMu.Lock()
			defer s.fillMu.Unlock()
			if s.generation != gen {
				log.Debug("menu changed during fetch, skipping cache fill")
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.cache.SetMenu(ctx, items); err != nil {
				log.WithError(err).Warn("menu cache set failed")
			}
		}(fetched)

		return fetched, nil
	})
	if err != nil {
		return nil, err
	}

	items := v.([]domain.MenuItem)
	out := make([]domain.MenuItem, len(items))
	copy(out, items)
	return out, nil
}

// Get looks up a single item. Prices added to a cart always come from here.
func (s *Service) Get(ctx context.Context, id domain.ID) (domain.MenuItem, error) {
	items, err := s.Menu(ctx)
	if err != nil {
		return domain.MenuItem{}, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.MenuItem{}, errors.Wrapf(domain.ErrItemNotFound, "item %s", id)
}

// Invalidate drops the cached menu after an admin change. Fetches already
// running when it is called do not refill the cache.
func (s *Service) Invalidate(ctx context.Context) {
	s.sfg.Forget("menu")

	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	s.generation++

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.DeleteMenu(ctx); err != nil {
		logger.FromContext(ctx, s.log).WithError(err).Warn("menu cache invalidate failed")
	}
}
