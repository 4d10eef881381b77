package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

type Service struct {
	store    Store
	cache    Cache
	cacheTTL time.Duration
	scope    string
	log      *zap.Logger
	newID    func() string
}

type Option func(*Service)

// WithCache enables caching of public listings. Writes invalidate the
// affected collection.
func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

// WithScope prefixes cache keys, typically with the database id.
func WithScope(scope string) Option { return func(s *Service) { s.scope = scope } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l } }

func WithIDGenerator(f func() string) Option { return func(s *Service) { s.newID = f } }

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		log:   zap.NewNop(),
		newID: func() string { return ksuid.New().String() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List returns every document of a managed collection, newest first.
func (s *Service) List(ctx context.Context, collection string) (ListResult, error) {
	if !IsManaged(collection) {
		return ListResult{}, ErrInvalidCollection
	}
	return s.store.List(ctx, collection, OrderNewestFirst)
}

func (s *Service) Get(ctx context.Context, collection, id string) (Document, error) {
	if !IsManaged(collection) {
		return Document{}, ErrInvalidCollection
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Document{}, ErrDocumentIDMissing
	}
	return s.store.Get(ctx, collection, id)
}

// Create stores fields under a freshly generated id.
func (s *Service) Create(ctx context.Context, collection string, fields Fields) (Document, error) {
	if !IsManaged(collection) {
		return Document{}, ErrInvalidCollection
	}
	clean, err := writableFields(fields)
	if err != nil {
		return Document{}, err
	}
	doc, err := s.store.Create(ctx, collection, s.newID(), clean)
	if err != nil {
		return Document{}, err
	}
	s.invalidate(ctx, collection)
	return doc, nil
}

func (s *Service) Update(ctx context.Context, collection, id string, fields Fields) (Document, error) {
	if !IsManaged(collection) {
		return Document{}, ErrInvalidCollection
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Document{}, ErrDocumentIDMissing
	}
	clean, err := writableFields(fields)
	if err != nil {
		return Document{}, err
	}
	doc, err := s.store.Update(ctx, collection, id, clean)
	if err != nil {
		return Document{}, err
	}
	s.invalidate(ctx, collection)
	return doc, nil
}

func (s *Service) Delete(ctx context.Context, collection, id string) error {
	if !IsManaged(collection) {
		return ErrInvalidCollection
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrDocumentIDMissing
	}
	if err := s.store.Delete(ctx, collection, id); err != nil {
		return err
	}
	s.invalidate(ctx, collection)
	return nil
}

// ListPublic serves the unauthenticated read path. Cache failures fall
// through to the store.
func (s *Service) ListPublic(ctx context.Context, collection string) (ListResult, error) {
	if !IsPublic(collection) {
		return ListResult{}, ErrInvalidCollection
	}
	key := s.cacheKey(collection)

	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.log.Warn("public cache read failed", zap.String("collection", collection), zap.Error(err))
		case ok:
			var res ListResult
			if err := json.Unmarshal(raw, &res); err == nil {
				return res, nil
			}
			s.log.Warn("public cache entry corrupt", zap.String("collection", collection))
		}
	}

	res, err := s.store.List(ctx, collection, OrderOldestFirst)
	if err != nil {
		return ListResult{}, err
	}
	if res.Documents == nil {
		res.Documents = []Document{}
	}

	if s.cache != nil {
		if raw, err := json.Marshal(res); err == nil {
			if err := s.cache.Set(ctx, key, raw); err != nil {
				s.log.Warn("public cache write failed", zap.String("collection", collection), zap.Error(err))
			}
		}
	}
	return res, nil
}

func (s *Service) invalidate(ctx context.Context, collection string) {
	if s.cache == nil || !IsPublic(collection) {
		return
	}
	if err := s.cache.Del(ctx, s.cacheKey(collection)); err != nil {
		s.log.Warn("public cache invalidation failed", zap.String("collection", collection), zap.Error(err))
	}
}

func (s *Service) cacheKey(collection string) string {
	if s.scope == "" {
		return fmt.Sprintf("content:public:%s", collection)
	}
	return fmt.Sprintf("content:public:%s:%s", s.scope, collection)
}

// IsValidation reports whether err is a caller mistake rather than a
// store failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidCollection) ||
		errors.Is(err, ErrDocumentIDMissing) ||
		errors.Is(err, ErrDataMissing) ||
		errors.Is(err, ErrInvalidOrder) ||
		errors.Is(err, ErrInvalidFieldName) ||
		errors.Is(err, ErrContactFieldsMissing) ||
		errors.Is(err, ErrInvalidEmail)
}
