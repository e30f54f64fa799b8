package devserver

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Alexander-D-Karpov/sleeves/internal/reward"
	"github.com/Alexander-D-Karpov/sleeves/pkg/types"
)

var (
	errUsernameTaken  = errors.New("username already taken")
	errBadCredentials = errors.New("invalid username or password")
	errUnknownOwner   = errors.New("unknown owner")
)

type account struct {
	user         types.AuthUser
	passwordHash []byte
}

// State is the backend's data: catalog, accounts, sessions and every grant.
type State struct {
	mu       sync.RWMutex
	sleeves  []types.Sleeve
	accounts map[string]*account
	sessions map[string]string
	owned    []types.OwnedSong
	wallet   int
	now      func() time.Time
}

func NewState(sleeves []types.Sleeve, startingWallet int, now func() time.Time) *State {
	return &State{
		sleeves:  sleeves,
		accounts: make(map[string]*account),
		sessions: make(map[string]string),
		wallet:   startingWallet,
		now:      now,
	}
}

func (s *State) Sleeves() []types.Sleeve {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Sleeve{}, s.sleeves...)
}

func (s *State) SetSleeves(sleeves []types.Sleeve) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleeves = sleeves
}

func (s *State) Sleeve(id string) (types.Sleeve, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sl := range s.sleeves {
		if sl.ID == id {
			return sl, true
		}
	}
	return types.Sleeve{}, false
}

// Songs lists every distinct song across sleeves in catalog order.
func (s *State) Songs() []types.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	songs := []types.Song{}
	for _, sl := range s.sleeves {
		for _, entry := range sl.Contents {
			if seen[entry.ID] {
				continue
			}
			seen[entry.ID] = true
			songs = append(songs, entry.Song)
		}
	}
	return songs
}

func (s *State) Register(username, password string) (types.AuthUser, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.AuthUser{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[username]; ok {
		return types.AuthUser{}, errUsernameTaken
	}

	user := types.AuthUser{
		ID:          uuid.NewString(),
		Username:    username,
		DisplayName: username,
		Wallet:      s.wallet,
	}
	s.accounts[username] = &account{user: user, passwordHash: hash}
	return user, nil
}

func (s *State) Authenticate(username, password string) (types.AuthUser, error) {
	s.mu.RLock()
	acc, ok := s.accounts[username]
	s.mu.RUnlock()

	if !ok {
		return types.AuthUser{}, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return types.AuthUser{}, errBadCredentials
	}
	return acc.user, nil
}

func (s *State) CreateSession(username string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = username
	return id
}

// SessionUser resolves a session id; nil when unknown.
func (s *State) SessionUser(id string) *types.AuthUser {
	s.mu.RLock()
	defer s.mu.RUnlock()

	username, ok := s.sessions[id]
	if !ok {
		return nil
	}
	acc, ok := s.accounts[username]
	if !ok {
		return nil
	}
	user := acc.user
	return &user
}

func (s *State) DeleteSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Grant records a draw, newest first.
func (s *State) Grant(entry types.SleeveSong, owner *types.AuthUser) types.OwnedSong {
	owned := reward.StampOwned(entry, s.now())
	if owner != nil {
		username := owner.Username
		owned.Owner = &username
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.owned = append([]types.OwnedSong{owned}, s.owned...)
	return owned
}

// Inventory lists grants for owner, or every grant when owner is empty.
func (s *State) Inventory(owner string) ([]types.OwnedSong, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if owner == "" {
		return append([]types.OwnedSong{}, s.owned...), nil
	}
	if _, ok := s.accounts[owner]; !ok {
		return nil, errUnknownOwner
	}

	items := []types.OwnedSong{}
	for _, o := range s.owned {
		if o.Owner != nil && *o.Owner == owner {
			items = append(items, o)
		}
	}
	return items, nil
}
