package glimpse

import (
	"context"
	"time"
)

// Storage keys shared with the host runtime.
const (
	KeyUserID            = "user_id"
	KeyDeviceID          = "device_id"
	KeyRecentOpenGraph   = "recent_opengraph"
	KeySessions          = "sessions"
	KeyOpenGraphCachePfx = "opengraph_cache_"
)

// Session groups items collected during one browsing session.
type Session struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"createdAt"`
	OpenGraphData []*Item   `json:"opengraphData"`
}

// Store persists previews on behalf of the engine.
type Store interface {
	// UserID returns the stable user identifier, creating it on first use.
	UserID(ctx context.Context) (string, error)

	// DeviceID returns the stable device identifier, creating it on first use.
	DeviceID(ctx context.Context) (string, error)

	// SaveItem adds the item to the front of the recent list, replacing any
	// earlier item with the same URL.
	SaveItem(ctx context.Context, item *Item) error

	// RecentItems returns up to limit recent items, newest first.
	// A limit of zero returns all of them.
	RecentItems(ctx context.Context, limit int) ([]*Item, error)

	// CachePreview stores a preview under its cache key.
	CachePreview(ctx context.Context, key string, p *Preview) error

	// CachedPreview returns the preview stored under key.
	// Returns ENOTFOUND if there is none.
	CachedPreview(ctx context.Context, key string) (*Preview, error)

	// CreateSession starts a new empty session.
	CreateSession(ctx context.Context) (*Session, error)

	// AddToSession appends the item to the session's opengraph data.
	// Returns ENOTFOUND if the session does not exist.
	AddToSession(ctx context.Context, sessionID string, item *Item) error

	// Sessions returns all sessions, oldest first.
	Sessions(ctx context.Context) ([]*Session, error)
}
