package search

import (
	"sort"

	"github.com/Alexander-D-Karpov/sleeves/pkg/types"
)

// SortByRarity orders a copy of songs rarest first. Songs of equal rarity
// keep their input order.
func SortByRarity(songs []types.OwnedSong) []types.OwnedSong {
	out := append([]types.OwnedSong(nil), songs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rarity.Rank() > out[j].Rarity.Rank()
	})
	return out
}

// CountByRarity tallies owned songs per rarity.
func CountByRarity(songs []types.OwnedSong) map[types.Rarity]int {
	counts := make(map[types.Rarity]int, len(types.Rarities))
	for _, s := range songs {
		counts[s.Rarity]++
	}
	return counts
}
