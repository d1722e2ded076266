package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tams/internal/model"
)

func rankedFixture(ratings ...float64) []RankedApplication {
	out := make([]RankedApplication, len(ratings))
	for i, r := range ratings {
		out[i] = RankedApplication{
			Application: model.Application{NetID: string(rune('a' + i))},
			Rating:      r,
		}
	}
	return out
}

func ratingsOf(list []RankedApplication) []float64 {
	out := make([]float64, len(list))
	for i := range list {
		out[i] = list[i].Rating
	}
	return out
}

func TestRank_SentinelSortsNumerically(t *testing.T) {
	in := rankedFixture(9.0, 8.0, NoRating, 3.0, 2.0)

	got := Rank(in, 4)

	assert.Equal(t, []float64{9.0, 8.0, 3.0, 2.0}, ratingsOf(got))
	assert.Equal(t, []float64{9.0, 8.0, -1.0, 3.0, 2.0}, ratingsOf(in), "入参不应被修改")
}

func TestRank_StableTies(t *testing.T) {
	in := rankedFixture(5, 7, 5, NoRating, 7, NoRating)

	got := Rank(in, len(in))

	ids := make([]string, len(got))
	for i := range got {
		ids[i] = got[i].Application.NetID
	}
	assert.Equal(t, []string{"b", "e", "a", "c", "d", "f"}, ids)
}

func TestRank_Amount(t *testing.T) {
	in := rankedFixture(1, 2, 3)

	for _, amount := range []int{0, -1} {
		got := Rank(in, amount)
		require.NotNil(t, got)
		assert.Empty(t, got)
	}

	all := Rank(in, 10)
	assert.Equal(t, []float64{3, 2, 1}, ratingsOf(all))

	assert.Empty(t, Rank(nil, 3))
}
