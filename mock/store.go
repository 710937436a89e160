package mock

import (
	"context"

	"github.com/fwojciec/glimpse"
)

var _ glimpse.Store = (*Store)(nil)

// Store is a mock implementation of glimpse.Store.
type Store struct {
	UserIDFn        func(ctx context.Context) (string, error)
	DeviceIDFn      func(ctx context.Context) (string, error)
	SaveItemFn      func(ctx context.Context, item *glimpse.Item) error
	RecentItemsFn   func(ctx context.Context, limit int) ([]*glimpse.Item, error)
	CachePreviewFn  func(ctx context.Context, key string, p *glimpse.Preview) error
	CachedPreviewFn func(ctx context.Context, key string) (*glimpse.Preview, error)
	CreateSessionFn func(ctx context.Context) (*glimpse.Session, error)
	AddToSessionFn  func(ctx context.Context, sessionID string, item *glimpse.Item) error
	SessionsFn      func(ctx context.Context) ([]*glimpse.Session, error)
}

func (s *Store) UserID(ctx context.Context) (string, error) {
	return s.UserIDFn(ctx)
}

func (s *Store) DeviceID(ctx context.Context) (string, error) {
	return s.DeviceIDFn(ctx)
}

func (s *Store) SaveItem(ctx context.Context, item *glimpse.Item) error {
	return s.SaveItemFn(ctx, item)
}

func (s *Store) RecentItems(ctx context.Context, limit int) ([]*glimpse.Item, error) {
	return s.RecentItemsFn(ctx, limit)
}

func (s *Store) CachePreview(ctx context.Context, key string, p *glimpse.Preview) error {
	return s.CachePreviewFn(ctx, key, p)
}

func (s *Store) CachedPreview(ctx context.Context, key string) (*glimpse.Preview, error) {
	return s.CachedPreviewFn(ctx, key)
}

func (s *Store) CreateSession(ctx context.Context) (*glimpse.Session, error) {
	return s.CreateSessionFn(ctx)
}

func (s *Store) AddToSession(ctx context.Context, sessionID string, item *glimpse.Item) error {
	return s.AddToSessionFn(ctx, sessionID, item)
}

func (s *Store) Sessions(ctx context.Context) ([]*glimpse.Session, error) {
	return s.SessionsFn(ctx)
}
