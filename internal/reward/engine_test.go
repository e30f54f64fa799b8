package reward

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexander-D-Karpov/sleeves/internal/errs"
	"github.com/Alexander-D-Karpov/sleeves/pkg/types"
)

func entry(id string, rarity types.Rarity) types.SleeveSong {
	return types.SleeveSong{
		Song:   types.Song{ID: id, Title: id, Artist: "artist", Genre: "Pop"},
		Rarity: rarity,
	}
}

func weighted(id string, rarity types.Rarity, w float64) types.SleeveSong {
	e := entry(id, rarity)
	e.Weight = &w
	return e
}

func onePerRarity() []types.SleeveSong {
	return []types.SleeveSong{
		entry("c", types.RarityCommon),
		entry("u", types.RarityUncommon),
		entry("r", types.RarityRare),
		entry("e", types.RarityEpic),
		entry("l", types.RarityLegendary),
	}
}

func TestDraw_WalksIntervalsInOrder(t *testing.T) {
	contents := []types.SleeveSong{
		entry("common", types.RarityCommon),
		entry("rare", types.RarityRare),
		entry("legendary", types.RarityLegendary),
	}

	tests := []struct {
		name string
		roll float64
		want string
	}{
		{"start of range", 0.0, "common"},
		{"inside first interval", 0.5, "common"},
		{"inside second interval", 0.6, "rare"},
		{"inside last interval", 0.99, "legendary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(NewScriptedSource(tt.roll))
			got, err := e.Draw(contents)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestDraw_ExplicitWeightOverridesRarity(t *testing.T) {
	contents := []types.SleeveSong{
		entry("common", types.RarityCommon),
		weighted("boosted", types.RarityLegendary, 100),
	}

	// total 135; 0.5 lands at 67.5, past the common interval of 35.
	e := NewEngine(NewScriptedSource(0.5))
	got, err := e.Draw(contents)
	require.NoError(t, err)
	assert.Equal(t, "boosted", got.ID)
	assert.Equal(t, float64(100), e.Weight(contents[1]))
	assert.Equal(t, float64(35), e.Weight(contents[0]))
}

func TestDraw_UnknownRarityWeighsOne(t *testing.T) {
	e := NewEngine(nil)
	assert.Equal(t, float64(1), e.Weight(entry("x", types.Rarity("Mythic"))))
}

func TestDraw_FallsBackToLastOnDrift(t *testing.T) {
	contents := onePerRarity()
	e := NewEngine(NewScriptedSource(1.5))

	got, err := e.Draw(contents)
	require.NoError(t, err)
	assert.Equal(t, "l", got.ID)
}

func TestDraw_DriftSkipsTrailingZeroWeight(t *testing.T) {
	contents := []types.SleeveSong{
		entry("common", types.RarityCommon),
		weighted("never", types.RarityLegendary, 0),
	}

	got, err := NewEngine(NewScriptedSource(1.5)).Draw(contents)
	require.NoError(t, err)
	assert.Equal(t, "common", got.ID)
}

func TestDraw_ZeroWeightEntryNeverWins(t *testing.T) {
	contents := []types.SleeveSong{
		weighted("never", types.RarityLegendary, 0),
		entry("common", types.RarityCommon),
	}

	e := NewEngine(NewScriptedSource(0))
	got, err := e.Draw(contents)
	require.NoError(t, err)
	assert.Equal(t, "common", got.ID)
}

func TestDraw_RejectsInvalidCatalog(t *testing.T) {
	tests := []struct {
		name     string
		contents []types.SleeveSong
	}{
		{"nil contents", nil},
		{"empty contents", []types.SleeveSong{}},
		{"zero total weight", []types.SleeveSong{weighted("a", types.RarityCommon, 0), weighted("b", types.RarityRare, 0)}},
		{"negative weight", []types.SleeveSong{weighted("a", types.RarityCommon, -5), entry("b", types.RarityRare)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(NewScriptedSource(0.3))
			_, err := e.Draw(tt.contents)
			require.ErrorIs(t, err, errs.ErrInvalidCatalog)

			_, err = e.Roll(tt.contents, time.Now())
			require.ErrorIs(t, err, errs.ErrInvalidCatalog)
		})
	}
}

func TestDraw_AlwaysReturnsMember(t *testing.T) {
	contents := onePerRarity()
	ids := map[string]bool{}
	for _, c := range contents {
		ids[c.ID] = true
	}

	e := NewEngine(NewSeededSource(99))
	for i := 0; i < 2000; i++ {
		got, err := e.Draw(contents)
		require.NoError(t, err)
		require.True(t, ids[got.ID], "unexpected entry %q", got.ID)
	}
}

func TestDraw_ReproducibleWithSameSeed(t *testing.T) {
	contents := onePerRarity()
	a := NewEngine(NewSeededSource(7))
	b := NewEngine(NewSeededSource(7))

	for i := 0; i < 200; i++ {
		x, err := a.Draw(contents)
		require.NoError(t, err)
		y, err := b.Draw(contents)
		require.NoError(t, err)
		require.Equal(t, x.ID, y.ID, "draw %d diverged", i)
	}
}

func TestDraw_FrequenciesMatchWeights(t *testing.T) {
	const draws = 20000
	contents := onePerRarity()
	e := NewEngine(NewSeededSource(42))

	counts := map[types.Rarity]int{}
	for i := 0; i < draws; i++ {
		got, err := e.Draw(contents)
		require.NoError(t, err)
		counts[got.Rarity]++
	}

	want, err := e.RarityOdds(contents)
	require.NoError(t, err)

	for rarity, p := range want {
		observed := float64(counts[rarity]) / draws
		assert.InDelta(t, p, observed, 0.03, "rarity %s", rarity)
	}
}

func TestOdds_Normalized(t *testing.T) {
	e := NewEngine(nil)
	odds, err := e.Odds(onePerRarity())
	require.NoError(t, err)
	require.Len(t, odds, 5)

	var sum float64
	for _, p := range odds {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, 0.35, odds[0], 1e-9)
	assert.InDelta(t, 0.05, odds[4], 1e-9)
}

func TestStampOwned(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	src := entry("song_pop_apt", types.RarityRare)
	src.CoverURL = "https://example.com/apt.png"

	owned := StampOwned(src, now)
	assert.Equal(t, src.Song, owned.Song)
	assert.Equal(t, types.RarityRare, owned.Rarity)
	assert.True(t, owned.ObtainedAt.Equal(now))
	assert.Equal(t, time.UTC, owned.ObtainedAt.Location())
	assert.Nil(t, owned.Owner)
}

func TestScriptedSource_Wraps(t *testing.T) {
	s := NewScriptedSource(0.1, 0.2)
	assert.Equal(t, 0.1, s.Float64())
	assert.Equal(t, 0.2, s.Float64())
	assert.Equal(t, 0.1, s.Float64())
	assert.Equal(t, float64(0), NewScriptedSource().Float64())
}
