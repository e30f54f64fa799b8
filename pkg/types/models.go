package types

import (
	"strings"
	"time"
)

type Rarity string

const (
	RarityCommon    Rarity = "Common"
	RarityUncommon  Rarity = "Uncommon"
	RarityRare      Rarity = "Rare"
	RarityEpic      Rarity = "Epic"
	RarityLegendary Rarity = "Legendary"
)

// Rarities lists every tier from lowest to highest.
var Rarities = []Rarity{
	RarityCommon,
	RarityUncommon,
	RarityRare,
	RarityEpic,
	RarityLegendary,
}

// Rank orders rarities Common(0) < Uncommon < Rare < Epic < Legendary(4).
// Unknown values rank below Common.
func (r Rarity) Rank() int {
	switch r {
	case RarityCommon:
		return 0
	case RarityUncommon:
		return 1
	case RarityRare:
		return 2
	case RarityEpic:
		return 3
	case RarityLegendary:
		return 4
	default:
		return -1
	}
}

func (r Rarity) Valid() bool {
	return r.Rank() >= 0
}

func (r Rarity) String() string {
	return string(r)
}

func ParseRarity(s string) (Rarity, bool) {
	for _, r := range Rarities {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, true
		}
	}
	return "", false
}

type Song struct {
	ID       string `json:"id" db:"id"`
	Title    string `json:"title" db:"title"`
	Artist   string `json:"artist" db:"artist"`
	CoverURL string `json:"coverUrl" db:"cover_url"`
	Genre    string `json:"genre" db:"genre"`

	SpotifyTrackID *string `json:"spotifyTrackId,omitempty" db:"spotify_track_id"`
	SpotifyURL     *string `json:"spotifyUrl,omitempty" db:"spotify_url"`
}

type SleeveGenre string

const (
	GenrePop   SleeveGenre = "Pop"
	GenreRock  SleeveGenre = "Rock"
	GenreIndie SleeveGenre = "Indie"
	GenreRap   SleeveGenre = "Rap"
)

// SleeveSong is a catalog entry: the song plus the rarity it grants when drawn.
// Weight, when set, overrides the rarity weight table.
type SleeveSong struct {
	Song
	Rarity Rarity   `json:"rarity" db:"rarity"`
	Weight *float64 `json:"weight,omitempty" db:"weight"`
}

type Sleeve struct {
	ID              string       `json:"id" db:"id"`
	Name            string       `json:"name" db:"name"`
	Genre           SleeveGenre  `json:"genre" db:"genre"`
	Cost            int          `json:"cost" db:"cost"`
	Contents        []SleeveSong `json:"contents" db:"-"`
	RefreshedWeekly bool         `json:"refreshedWeekly,omitempty" db:"refreshed_weekly"`

	LastSync time.Time `json:"-" db:"last_sync"`
}

func (s *Sleeve) CanOpen() bool {
	return s != nil && len(s.Contents) > 0
}

// OwnedSong is one drawn instance. It is never modified after creation.
type OwnedSong struct {
	Song
	ObtainedAt time.Time `json:"obtainedAt"`
	Rarity     Rarity    `json:"rarity"`
	Owner      *string   `json:"owner,omitempty"`
}

type AuthUser struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"displayName"`
	Wallet      int     `json:"wallet"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SessionResponse struct {
	User *AuthUser `json:"user"`
}

type SearchResults struct {
	Songs []OwnedSong `json:"songs"`
	Total int         `json:"total"`
}
