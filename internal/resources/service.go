package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/gatekit/authgate/internal/shared"
)

// listPage is the cacheable result of one List call.
type listPage struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}

// Service layers collection validation and caching over the repository.
type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
}

// NewService constructs a Service. cache may be nil.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// List returns one page of a collection. Pages are cached per
// (collection, page) under the current cache version; concurrent cache
// misses for the same key collapse into a single repository query.
func (s *Service) List(ctx context.Context, collection string, page shared.Pagination) ([]Document, shared.Pagination, error) {
	if !ValidCollection(collection) {
		return nil, shared.Pagination{}, shared.ErrNotFound
	}

	key, err := s.cache.BuildKey(ctx, "resources", collection, strconv.Itoa(page.Page), strconv.Itoa(page.PerPage))
	if err != nil {
		return nil, shared.Pagination{}, err
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		var cached listPage
		err := s.cache.FetchJSON(ctx, key, &cached, func(ctx context.Context) (interface{}, error) {
			docs, total, err := s.repo.List(ctx, collection, page.PerPage, page.Offset())
			if err != nil {
				return nil, err
			}
			return listPage{Documents: docs, Total: total}, nil
		})
		if err != nil {
			return nil, err
		}
		return cached, nil
	})
	if err != nil {
		return nil, shared.Pagination{}, err
	}

	cached, ok := result.(listPage)
	if !ok {
		return nil, shared.Pagination{}, fmt.Errorf("resources: unexpected cache payload %T", result)
	}
	return cached.Documents, shared.NewPagination(page.Page, page.PerPage, cached.Total), nil
}

// Get fetches one document.
func (s *Service) Get(ctx context.Context, collection string, id int64) (*Document, error) {
	if !ValidCollection(collection) {
		return nil, shared.ErrNotFound
	}
	return s.repo.Get(ctx, collection, id)
}

// Create stores a document and invalidates cached pages.
func (s *Service) Create(ctx context.Context, collection string, data json.RawMessage) (*Document, error) {
	if !ValidCollection(collection) {
		return nil, shared.ErrNotFound
	}
	doc, err := s.repo.Create(ctx, collection, data)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Bump(ctx)
	return doc, nil
}

// Replace overwrites a document and invalidates cached pages.
func (s *Service) Replace(ctx context.Context, collection string, id int64, data json.RawMessage) (*Document, error) {
	if !ValidCollection(collection) {
		return nil, shared.ErrNotFound
	}
	doc, err := s.repo.Replace(ctx, collection, id, data)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Bump(ctx)
	return doc, nil
}

// Merge patches a document and invalidates cached pages.
func (s *Service) Merge(ctx context.Context, collection string, id int64, data json.RawMessage) (*Document, error) {
	if !ValidCollection(collection) {
		return nil, shared.ErrNotFound
	}
	doc, err := s.repo.Merge(ctx, collection, id, data)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Bump(ctx)
	return doc, nil
}

// Delete removes a document and invalidates cached pages.
func (s *Service) Delete(ctx context.Context, collection string, id int64) error {
	if !ValidCollection(collection) {
		return shared.ErrNotFound
	}
	if err := s.repo.Delete(ctx, collection, id); err != nil {
		return err
	}
	return s.cache.Bump(ctx)
}
