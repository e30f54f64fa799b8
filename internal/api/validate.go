package api

import (
	"errors"
	"fmt"

	"github.com/Alexander-D-Karpov/sleeves/pkg/types"
)

// ValidOwnedSong rejects grants without an id or with an unknown rarity.
// A `null` or `{}` body decodes to exactly such a value.
func ValidOwnedSong(song types.OwnedSong) error {
	if song.ID == "" {
		return errors.New("owned song has no id")
	}
	if !song.Rarity.Valid() {
		return fmt.Errorf("owned song %q has invalid rarity %q", song.ID, song.Rarity)
	}
	return nil
}

func ValidInventory(items []types.OwnedSong) error {
	if items == nil {
		return errors.New("inventory is not a list")
	}
	for i, item := range items {
		if err := ValidOwnedSong(item); err != nil {
			return fmt.Errorf("inventory[%d]: %w", i, err)
		}
	}
	return nil
}

// ValidSleeves only requires ids; contents with unknown rarities still draw.
func ValidSleeves(sleeves []types.Sleeve) error {
	if sleeves == nil {
		return errors.New("sleeves is not a list")
	}
	for i, sleeve := range sleeves {
		if sleeve.ID == "" {
			return fmt.Errorf("sleeves[%d] has no id", i)
		}
	}
	return nil
}

// ValidSession accepts a signed-out envelope but not a user without an id.
func ValidSession(session types.SessionResponse) error {
	if session.User != nil && session.User.ID == "" {
		return errors.New("session user has no id")
	}
	return nil
}
