package matching

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	listingmodels "dealroom/internal/listing/models"
	"dealroom/internal/matching/models"
)

func ptr[T any](v T) *T { return &v }

func TestScoreStockholmScenario(t *testing.T) {
	profile := &models.BuyerProfile{
		Regions:    []string{"Stockholm"},
		Industries: []string{"software"},
		PriceMin:   ptr[int64](5_000_000),
		PriceMax:   ptr[int64](10_000_000),
	}
	listing := &listingmodels.Listing{
		Region:   "Stockholm",
		Category: "restaurants",
		PriceMin: ptr[int64](6_000_000),
		PriceMax: ptr[int64](8_000_000),
		Revenue:  ptr[int64](20_000_000),
	}

	got := Score(listing, profile)
	assert.Equal(t, 50, got.Score)
	assert.Len(t, got.Reasons, 2)
}

func TestScoreCriteria(t *testing.T) {
	base := func() *listingmodels.Listing {
		return &listingmodels.Listing{
			Region:   "Gothenburg",
			Category: "retail",
			PriceMin: ptr[int64](1_000_000),
			PriceMax: ptr[int64](3_000_000),
			Revenue:  ptr[int64](5_000_000),
		}
	}

	tests := []struct {
		name    string
		profile models.BuyerProfile
		want    int
		reasons int
	}{
		{"empty profile", models.BuyerProfile{}, 0, 0},
		{"all regions sentinel", models.BuyerProfile{Regions: []string{"all"}}, 30, 1},
		{"region match is case-insensitive", models.BuyerProfile{Regions: []string{"gothenburg"}}, 30, 1},
		{"industry match", models.BuyerProfile{Industries: []string{"Retail"}}, 30, 1},
		{"price midpoint inside", models.BuyerProfile{PriceMin: ptr[int64](2_000_000), PriceMax: ptr[int64](2_500_000)}, 20, 1},
		{"price midpoint near upper", models.BuyerProfile{PriceMax: ptr[int64](1_850_000)}, 10, 1},
		{"price midpoint near lower", models.BuyerProfile{PriceMin: ptr[int64](2_200_000)}, 10, 1},
		{"price midpoint far", models.BuyerProfile{PriceMax: ptr[int64](1_000_000)}, 0, 0},
		{"price min only open-ended", models.BuyerProfile{PriceMin: ptr[int64](100)}, 20, 1},
		{"revenue inside", models.BuyerProfile{RevenueMin: ptr[int64](4_000_000), RevenueMax: ptr[int64](6_000_000)}, 20, 1},
		{"revenue near", models.BuyerProfile{RevenueMin: ptr[int64](6_000_000)}, 10, 1},
		{"revenue far", models.BuyerProfile{RevenueMin: ptr[int64](10_000_000)}, 0, 0},
		{
			"everything matches",
			models.BuyerProfile{
				Regions:    []string{"Gothenburg"},
				Industries: []string{"retail"},
				PriceMin:   ptr[int64](1_000_000),
				PriceMax:   ptr[int64](3_000_000),
				RevenueMin: ptr[int64](1),
			},
			100, 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(base(), &tt.profile)
			assert.Equal(t, tt.want, got.Score)
			assert.Len(t, got.Reasons, tt.reasons)
		})
	}
}

func TestScoreMissingListingAttributes(t *testing.T) {
	profile := &models.BuyerProfile{
		Regions:    []string{"all"},
		Industries: []string{"retail"},
		PriceMin:   ptr[int64](1),
		RevenueMin: ptr[int64](1),
	}
	got := Score(&listingmodels.Listing{}, profile)
	assert.Equal(t, 0, got.Score)
	assert.NotNil(t, got.Reasons)
	assert.Empty(t, got.Reasons)

	assert.Equal(t, 0, Score(nil, profile).Score)
	assert.Equal(t, 0, Score(&listingmodels.Listing{}, nil).Score)
}

func TestScoreBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	regions := []string{"Stockholm", "Malmö", "Uppsala", "all", ""}
	industries := []string{"retail", "software", "food", ""}
	optional := func() *int64 {
		if rng.IntN(3) == 0 {
			return nil
		}
		return ptr(rng.Int64N(20_000_000))
	}

	for range 2000 {
		listing := &listingmodels.Listing{
			Region:   regions[rng.IntN(len(regions))],
			Category: industries[rng.IntN(len(industries))],
			PriceMin: optional(),
			PriceMax: optional(),
			Revenue:  optional(),
		}
		profile := &models.BuyerProfile{
			Regions:    []string{regions[rng.IntN(len(regions))]},
			Industries: []string{industries[rng.IntN(len(industries))]},
			PriceMin:   optional(),
			PriceMax:   optional(),
			RevenueMin: optional(),
			RevenueMax: optional(),
		}

		got := Score(listing, profile)
		assert.GreaterOrEqual(t, got.Score, 0)
		assert.LessOrEqual(t, got.Score, 100)
		assert.Equal(t, got.Score == 0, len(got.Reasons) == 0)
		assert.Equal(t, got, Score(listing, profile), "deterministic")
	}
}
