package search

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/Alexander-D-Karpov/sleeves/internal/config"
	"github.com/Alexander-D-Karpov/sleeves/pkg/types"
)

type Engine struct {
	maxResults int
	inventory  types.InventoryStore
}

func NewEngine(cfg *config.Config, inventory types.InventoryStore) *Engine {
	return &Engine{
		maxResults: cfg.Search.MaxResults,
		inventory:  inventory,
	}
}

// Search ranks owned songs against query by title and artist. A limit of
// zero or less uses the configured maximum.
func (e *Engine) Search(query string, limit int) *types.SearchResults {
	query = strings.TrimSpace(query)
	if query == "" {
		return &types.SearchResults{}
	}

	if limit <= 0 || (e.maxResults > 0 && limit > e.maxResults) {
		limit = e.maxResults
	}

	songs := rankSongs(e.inventory.List(), query)
	results := &types.SearchResults{
		Songs: songs,
		Total: len(songs),
	}

	if limit > 0 && len(results.Songs) > limit {
		results.Songs = results.Songs[:limit]
	}

	return results
}

type scoredSong struct {
	Song  types.OwnedSong
	Score float64
}

func rankSongs(songs []types.OwnedSong, query string) []types.OwnedSong {
	var scored []scoredSong
	queryLower := strings.ToLower(query)

	for _, song := range songs {
		score := scoreField(queryLower, song.Title, 10.0)
		score += scoreField(queryLower, song.Artist, 7.0)

		if fuzzy.MatchNormalizedFold(query, song.Title) && score == 0 {
			score += 1.0
		}

		if score > 0 {
			scored = append(scored, scoredSong{Song: song, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	result := make([]types.OwnedSong, 0, len(scored))
	for _, s := range scored {
		result = append(result, s.Song)
	}

	return result
}

func scoreField(queryLower, field string, containsBonus float64) float64 {
	fieldLower := strings.ToLower(field)
	score := 0.0

	if strings.Contains(fieldLower, queryLower) {
		score += containsBonus
	}

	distance := fuzzy.LevenshteinDistance(queryLower, fieldLower)
	if distance <= len(queryLower)/2 {
		score += float64(len(queryLower) - distance)
	}

	return score
}
