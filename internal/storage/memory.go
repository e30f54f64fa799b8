package storage

import (
	"sync"

	"github.com/Alexander-D-Karpov/sleeves/pkg/types"
)

// MemoryInventory keeps owned songs newest first: Add prepends.
type MemoryInventory struct {
	mu    sync.RWMutex
	items []types.OwnedSong
}

func NewMemoryInventory(seed []types.OwnedSong) *MemoryInventory {
	inv := &MemoryInventory{}
	inv.Reset(seed)
	return inv
}

// List returns a snapshot; later mutations do not show through it.
func (m *MemoryInventory) List() []types.OwnedSong {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.OwnedSong(nil), m.items...)
}

func (m *MemoryInventory) Add(item types.OwnedSong) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]types.OwnedSong, 0, len(m.items)+1)
	items = append(items, item)
	m.items = append(items, m.items...)
}

func (m *MemoryInventory) Reset(seed []types.OwnedSong) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append([]types.OwnedSong(nil), seed...)
}

func (m *MemoryInventory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// MemorySession is the single signed-in slot.
type MemorySession struct {
	mu   sync.RWMutex
	user *types.AuthUser
}

func NewMemorySession() *MemorySession {
	return &MemorySession{}
}

// Current returns a copy of the signed-in user, or nil.
func (m *MemorySession) Current() *types.AuthUser {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

func (m *MemorySession) Set(user types.AuthUser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = &user
}

func (m *MemorySession) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = nil
}
