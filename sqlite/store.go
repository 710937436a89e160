package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fwojciec/glimpse"
	"github.com/google/uuid"
)

// MaxRecentItems caps the recent item list.
const MaxRecentItems = 50

// Compile-time interface verification.
var _ glimpse.Store = (*Store)(nil)

// Store implements glimpse.Store as JSON values in a key-value table.
type Store struct {
	db  *DB
	Now func() time.Time
}

// NewStore creates a new Store.
func NewStore(db *DB) *Store {
	return &Store{db: db, Now: time.Now}
}

// querier is satisfied by both *sql.Tx and *DB.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// UserID returns the stable user identifier, creating it on first use.
func (s *Store) UserID(ctx context.Context) (string, error) {
	return s.identifier(ctx, glimpse.KeyUserID)
}

// DeviceID returns the stable device identifier, creating it on first use.
func (s *Store) DeviceID(ctx context.Context) (string, error) {
	return s.identifier(ctx, glimpse.KeyDeviceID)
}

func (s *Store) identifier(ctx context.Context, key string) (string, error) {
	var id string
	err := s.update(ctx, func(q querier) error {
		found, err := s.get(ctx, q, key, &id)
		if err != nil || found {
			return err
		}
		id = uuid.New().String()
		return s.put(ctx, q, key, id)
	})
	return id, err
}

// SaveItem adds item to the front of the recent list.
func (s *Store) SaveItem(ctx context.Context, item *glimpse.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	return s.update(ctx, func(q querier) error {
		var items []*glimpse.Item
		if _, err := s.get(ctx, q, glimpse.KeyRecentOpenGraph, &items); err != nil {
			return err
		}

		recent := make([]*glimpse.Item, 0, len(items)+1)
		recent = append(recent, item)
		for _, existing := range items {
			if existing.URL != item.URL {
				recent = append(recent, existing)
			}
		}
		if len(recent) > MaxRecentItems {
			recent = recent[:MaxRecentItems]
		}
		return s.put(ctx, q, glimpse.KeyRecentOpenGraph, recent)
	})
}

// RecentItems returns up to limit recent items, newest first.
func (s *Store) RecentItems(ctx context.Context, limit int) ([]*glimpse.Item, error) {
	var items []*glimpse.Item
	if _, err := s.get(ctx, s.db, glimpse.KeyRecentOpenGraph, &items); err != nil {
		return nil, err
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	if items == nil {
		items = []*glimpse.Item{}
	}
	return items, nil
}

// CachePreview stores p under key.
func (s *Store) CachePreview(ctx context.Context, key string, p *glimpse.Preview) error {
	if key == "" {
		return glimpse.Errorf(glimpse.EINVALID, "cache key required")
	}
	return s.put(ctx, s.db, glimpse.KeyOpenGraphCachePfx+key, p)
}

// CachedPreview returns the preview stored under key.
func (s *Store) CachedPreview(ctx context.Context, key string) (*glimpse.Preview, error) {
	var p glimpse.Preview
	found, err := s.get(ctx, s.db, glimpse.KeyOpenGraphCachePfx+key, &p)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, glimpse.Errorf(glimpse.ENOTFOUND, "cached preview not found")
	}
	return &p, nil
}

// CreateSession starts a new empty session.
func (s *Store) CreateSession(ctx context.Context) (*glimpse.Session, error) {
	session := &glimpse.Session{
		ID:            uuid.New().String(),
		CreatedAt:     s.Now().UTC(),
		OpenGraphData: []*glimpse.Item{},
	}
	err := s.update(ctx, func(q querier) error {
		var sessions []*glimpse.Session
		if _, err := s.get(ctx, q, glimpse.KeySessions, &sessions); err != nil {
			return err
		}
		return s.put(ctx, q, glimpse.KeySessions, append(sessions, session))
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// AddToSession appends item to the session's opengraph data.
func (s *Store) AddToSession(ctx context.Context, sessionID string, item *glimpse.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	return s.update(ctx, func(q querier) error {
		var sessions []*glimpse.Session
		if _, err := s.get(ctx, q, glimpse.KeySessions, &sessions); err != nil {
			return err
		}
		for _, session := range sessions {
			if session.ID == sessionID {
				session.OpenGraphData = append(session.OpenGraphData, item)
				return s.put(ctx, q, glimpse.KeySessions, sessions)
			}
		}
		return glimpse.Errorf(glimpse.ENOTFOUND, "session not found")
	})
}

// Sessions returns all sessions, oldest first.
func (s *Store) Sessions(ctx context.Context) ([]*glimpse.Session, error) {
	var sessions []*glimpse.Session
	if _, err := s.get(ctx, s.db, glimpse.KeySessions, &sessions); err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []*glimpse.Session{}
	}
	return sessions, nil
}

// update runs fn inside a transaction.
func (s *Store) update(ctx context.Context, fn func(q querier) error) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// get decodes the value stored under key into dst and reports whether the
// key exists.
func (s *Store) get(ctx context.Context, q querier, key string, dst any) (bool, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(value), dst); err != nil {
		return false, glimpse.Errorf(glimpse.EINTERNAL, "corrupt value for %s: %v", key, err)
	}
	return true, nil
}

func (s *Store) put(ctx context.Context, q querier, key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(value), s.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
