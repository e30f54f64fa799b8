// Package catalog holds the built-in sleeve catalog and starter collection
// served when the backend cannot be reached.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/Alexander-D-Karpov/sleeves/internal/errs"
	"github.com/Alexander-D-Karpov/sleeves/pkg/types"
)

func song(id, title, artist, cover string, genre types.SleeveGenre, rarity types.Rarity) types.SleeveSong {
	return types.SleeveSong{
		Song: types.Song{
			ID:       id,
			Title:    title,
			Artist:   artist,
			CoverURL: cover,
			Genre:    string(genre),
		},
		Rarity: rarity,
	}
}

// Sleeves returns a fresh copy of the built-in catalog.
func Sleeves() []types.Sleeve {
	return []types.Sleeve{
		{
			ID:              "sleeve_pop_01",
			Name:            "Pop Sleeve",
			Genre:           types.GenrePop,
			Cost:            20,
			RefreshedWeekly: true,
			Contents: []types.SleeveSong{
				song("song_pop_gabriella", "Gabriella", "Katseye", "https://i.scdn.co/image/ab67616d0000b273f8d4d00ffe09373efb13ce29", types.GenrePop, types.RarityLegendary),
				song("song_pop_espresso", "Espresso", "Sabrina Carpenter", "https://upload.wikimedia.org/wikipedia/en/f/fd/Short_n%27_Sweet_-_Sabrina_Carpenter.png", types.GenrePop, types.RarityEpic),
				song("song_pop_apt", "APT.", "ROSÉ, Bruno Mars", "https://upload.wikimedia.org/wikipedia/en/5/52/Ros%C3%A9_and_Bruno_Mars_-_Apt..png", types.GenrePop, types.RarityRare),
				song("song_pop_animals", "Animals", "Maroon 5", "https://i.ytimg.com/vi/LTem11kie-k/maxresdefault.jpg", types.GenrePop, types.RarityRare),
				song("song_pop_dont_mine_at_night", "Don't Mine At Night", "Bebop Vox", "https://i.scdn.co/image/ab67616d0000b273424da79bb4d058749f13d7e6", types.GenrePop, types.RarityRare),
				song("song_pop_baby", "Baby", "Justin Bieber", "https://upload.wikimedia.org/wikipedia/en/d/d1/Babycoverart.jpg", types.GenrePop, types.RarityUncommon),
				song("song_pop_sunflower", "Sunflower", "Post Malone, Swae Lee", "https://i.scdn.co/image/ab67616d00001e02e2e352d89826aef6dbd5ff8f", types.GenrePop, types.RarityUncommon),
				song("song_pop_happy", "Happy", "Pharell Williams", "https://upload.wikimedia.org/wikipedia/en/2/23/Pharrell_Williams_-_Happy.jpg", types.GenrePop, types.RarityCommon),
			},
		},
		{
			ID:              "sleeve_rock_01",
			Name:            "Rock Sleeve",
			Genre:           types.GenreRock,
			Cost:            20,
			RefreshedWeekly: true,
			Contents: []types.SleeveSong{
				song("song_rock_buddy_holly", "Buddy Holly", "Weezer", "https://www.weezerpedia.com/w/images/4/43/Weezer_The_Blue_Album.jpg", types.GenreRock, types.RarityLegendary),
				song("song_rock_faint", "Faint", "Linkin Park", "https://i1.sndcdn.com/artworks-000153667132-7qckxk-t500x500.jpg", types.GenreRock, types.RarityEpic),
				song("song_rock_bring_me_to_life", "Bring Me To Life", "Evanescence", "https://upload.wikimedia.org/wikipedia/en/2/25/Evanescence_-_Fallen.png", types.GenreRock, types.RarityEpic),
				song("song_rock_good_life", "The Good Life", "Weezer", "https://www.weezerpedia.com/w/images/f/ff/Weezer_Pinkerton.jpg", types.GenreRock, types.RarityRare),
				song("song_rock_island_sun", "Island In The Sun", "Weezer", "https://www.weezerpedia.com/w/images/0/0d/Weezer_The_Green_Album.jpg", types.GenreRock, types.RarityUncommon),
				song("song_rock_fell_in_love_with_a_girl", "Fell In Love With A Girl", "White Stripes", "https://i.scdn.co/image/ab67616d0000b273ce400791df807dc75c702bed", types.GenreRock, types.RarityUncommon),
				song("song_rock_everlong", "Everlong", "Foo Fighters", "https://i.scdn.co/image/ab67616d0000b2734bc9bcdbdc9ac34e37d8b6bb", types.GenreRock, types.RarityCommon),
				song("song_rock_chop_suey", "Chop Suey", "System Of A Down", "https://upload.wikimedia.org/wikipedia/en/6/64/SystemofaDownToxicityalbumcover.jpg", types.GenreRock, types.RarityCommon),
			},
		},
		{
			ID:              "sleeve_indie_01",
			Name:            "Indie Sleeve",
			Genre:           types.GenreIndie,
			Cost:            22,
			RefreshedWeekly: true,
			Contents: []types.SleeveSong{
				song("song_indie_see_you_40", "I'll See You In 40", "Joji", "https://upload.wikimedia.org/wikipedia/en/6/6a/Joji_%E2%80%93_Ballads_1.png", types.GenreIndie, types.RarityEpic),
			},
		},
	}
}

func owned(id, title, artist, cover, genre string, rarity types.Rarity, at time.Time) types.OwnedSong {
	return types.OwnedSong{
		Song:       types.Song{ID: id, Title: title, Artist: artist, CoverURL: cover, Genre: genre},
		ObtainedAt: at,
		Rarity:     rarity,
	}
}

// StarterInventory is the collection a fresh local session starts with.
func StarterInventory(now time.Time) []types.OwnedSong {
	at := now.UTC()
	return []types.OwnedSong{
		owned("s1", "Do Ya", "ericdoa", "https://assets.crownnote.com/s3fs-public/2024-11/1000x1000bb%20%2816%29.png", "Hyperpop", types.RarityRare, at),
		owned("s2", "L.A. Girls", "Weezer", "https://www.weezerpedia.com/w/images/7/72/Weezer_The_White_Album.jpg", "Rock", types.RarityCommon, at),
		owned("s3", "Feel Good Inc", "Gorillaz", "https://upload.wikimedia.org/wikipedia/en/d/df/Gorillaz_Demon_Days.PNG", "Alternative", types.RarityEpic, at),
		owned("s10", "Gabriella", "Katseye", "https://i.scdn.co/image/ab67616d0000b273f8d4d00ffe09373efb13ce29", "Pop", types.RarityLegendary, at),
		owned("s4", "Buddy Holly", "Weezer", "https://www.weezerpedia.com/w/images/4/43/Weezer_The_Blue_Album.jpg", "Rock", types.RarityLegendary, at),
		owned("s5", "Island In The Sun", "Weezer", "https://www.weezerpedia.com/w/images/0/0d/Weezer_The_Green_Album.jpg", "Rock", types.RarityUncommon, at),
		owned("s6", "Girl If You're Wondering If I Want You Too (I Want You Too)", "Weezer", "https://www.weezerpedia.com/w/images/thumb/d/d0/Weezer_Raditude.jpg/440px-Weezer_Raditude.jpg", "Rock", types.RarityUncommon, at),
		owned("s7", "I'll See You In 40", "Joji", "https://upload.wikimedia.org/wikipedia/en/6/6a/Joji_%E2%80%93_Ballads_1.png", "Indie", types.RarityEpic, at),
		owned("s8", "QB Blitz", "Weezer", "https://www.weezerpedia.com/w/images/5/57/Weezer_Pacific_Daydream.png?20170820180935", "Pop-Rock", types.RarityEpic, at),
		owned("s9", "The Good Life", "Weezer", "https://www.weezerpedia.com/w/images/f/ff/Weezer_Pinkerton.jpg", "Rock", types.RarityRare, at),
	}
}

// Static serves a fixed sleeve list.
type Static struct {
	sleeves []types.Sleeve
}

func NewStatic(sleeves []types.Sleeve) *Static {
	return &Static{sleeves: sleeves}
}

// Builtin serves Sleeves().
func Builtin() *Static {
	return NewStatic(Sleeves())
}

func (s *Static) Sleeves(_ context.Context) ([]types.Sleeve, error) {
	out := make([]types.Sleeve, len(s.sleeves))
	for i := range s.sleeves {
		out[i] = cloneSleeve(s.sleeves[i])
	}
	return out, nil
}

func (s *Static) Sleeve(_ context.Context, id string) (*types.Sleeve, error) {
	for i := range s.sleeves {
		if s.sleeves[i].ID == id {
			sleeve := cloneSleeve(s.sleeves[i])
			return &sleeve, nil
		}
	}
	return nil, fmt.Errorf("sleeve %q: %w", id, errs.ErrSleeveNotFound)
}

func cloneSleeve(s types.Sleeve) types.Sleeve {
	s.Contents = append([]types.SleeveSong(nil), s.Contents...)
	return s
}

// ForGenre keeps sleeves of one genre, preserving order.
func ForGenre(sleeves []types.Sleeve, genre types.SleeveGenre) []types.Sleeve {
	var out []types.Sleeve
	for _, s := range sleeves {
		if s.Genre == genre {
			out = append(out, s)
		}
	}
	return out
}
