// Package reward performs weighted rarity draws over sleeve contents.
package reward

import (
	"fmt"
	"sync"
	"time"

	"github.com/Alexander-D-Karpov/sleeves/internal/errs"
	"github.com/Alexander-D-Karpov/sleeves/pkg/types"
)

// DefaultWeights are relative; they need not sum to 100.
var DefaultWeights = map[types.Rarity]float64{
	types.RarityCommon:    35,
	types.RarityUncommon:  25,
	types.RarityRare:      20,
	types.RarityEpic:      15,
	types.RarityLegendary: 5,
}

const unknownRarityWeight = 1

type Engine struct {
	mu      sync.Mutex
	src     types.RandomSource
	weights map[types.Rarity]float64
}

func NewEngine(src types.RandomSource) *Engine {
	if src == nil {
		src = NewMathSource()
	}
	return &Engine{src: src, weights: DefaultWeights}
}

// Weight is the entry's explicit weight if set, else the table weight for its rarity.
func (e *Engine) Weight(entry types.SleeveSong) float64 {
	if entry.Weight != nil {
		return *entry.Weight
	}
	if w, ok := e.weights[entry.Rarity]; ok {
		return w
	}
	return unknownRarityWeight
}

func (e *Engine) total(contents []types.SleeveSong) (float64, error) {
	if len(contents) == 0 {
		return 0, fmt.Errorf("draw from empty contents: %w", errs.ErrInvalidCatalog)
	}

	var total float64
	for _, entry := range contents {
		w := e.Weight(entry)
		if w < 0 {
			return 0, fmt.Errorf("negative weight %v for %s: %w", w, entry.ID, errs.ErrInvalidCatalog)
		}
		total += w
	}

	if total <= 0 {
		return 0, fmt.Errorf("total weight %v: %w", total, errs.ErrInvalidCatalog)
	}
	return total, nil
}

// Draw picks one entry. [0, total) is split into consecutive intervals sized
// by weight in entry order; the interval holding the roll wins. Floating
// point drift past the end returns the last entry with a positive weight.
func (e *Engine) Draw(contents []types.SleeveSong) (types.SleeveSong, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	total, err := e.total(contents)
	if err != nil {
		return types.SleeveSong{}, err
	}

	roll := e.src.Float64() * total
	last := -1
	for i, entry := range contents {
		w := e.Weight(entry)
		if w == 0 {
			continue
		}
		last = i
		roll -= w
		if roll <= 0 {
			return entry, nil
		}
	}

	return contents[last], nil
}

// Roll draws and stamps in one step.
func (e *Engine) Roll(contents []types.SleeveSong, now time.Time) (types.OwnedSong, error) {
	entry, err := e.Draw(contents)
	if err != nil {
		return types.OwnedSong{}, err
	}
	return StampOwned(entry, now), nil
}

// Odds returns each entry's normalized probability, aligned with contents.
func (e *Engine) Odds(contents []types.SleeveSong) ([]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	total, err := e.total(contents)
	if err != nil {
		return nil, err
	}

	odds := make([]float64, len(contents))
	for i, entry := range contents {
		odds[i] = e.Weight(entry) / total
	}
	return odds, nil
}

// RarityOdds sums Odds per rarity.
func (e *Engine) RarityOdds(contents []types.SleeveSong) (map[types.Rarity]float64, error) {
	odds, err := e.Odds(contents)
	if err != nil {
		return nil, err
	}

	byRarity := make(map[types.Rarity]float64)
	for i, entry := range contents {
		byRarity[entry.Rarity] += odds[i]
	}
	return byRarity, nil
}

// StampOwned turns a drawn entry into an owned instance obtained at now.
func StampOwned(entry types.SleeveSong, now time.Time) types.OwnedSong {
	return types.OwnedSong{
		Song:       entry.Song,
		ObtainedAt: now.UTC(),
		Rarity:     entry.Rarity,
	}
}
