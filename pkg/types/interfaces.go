package types

import (
	"context"
	"time"
)

// InventoryStore holds the local view of owned songs.
type InventoryStore interface {
	List() []OwnedSong
	Add(item OwnedSong)
	Reset(seed []OwnedSong)
	Len() int
}

// SessionStore holds the single signed-in identity slot.
type SessionStore interface {
	Current() *AuthUser
	Set(user AuthUser)
	Clear()
}

// CatalogSource resolves sleeves for local draws and offline listings.
type CatalogSource interface {
	Sleeves(ctx context.Context) ([]Sleeve, error)
	Sleeve(ctx context.Context, id string) (*Sleeve, error)
}

// RandomSource yields uniform values in [0, 1).
type RandomSource interface {
	Float64() float64
}

// CatalogSyncer defines periodic catalog refresh from the remote backend.
type CatalogSyncer interface {
	Sync(ctx context.Context) error
	SetInterval(interval time.Duration)
	Start(ctx context.Context)
	Stop()
}
