package customer

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ratesynth/internal/sampling"
)

func TestNew(t *testing.T) {
	v := sampling.RateVector{
		Rates: []sampling.Rate{
			{Behavior: "post", MonthlyRate: 4.5},
			{Behavior: "like", MonthlyRate: 20},
		},
		Channel: "v2",
	}
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	c := New("c-1", v, start, map[string]any{"cohort": "a"})
	assert.Equal(t, "c-1", c.ID)
	assert.Equal(t, "v2", c.Channel)
	assert.Equal(t, start, c.StartOfMonth)
	assert.Equal(t, "a", c.Args["cohort"])

	rate, ok := c.Rate("like")
	require.True(t, ok)
	assert.Equal(t, 20.0, rate)

	_, ok = c.Rate("share")
	assert.False(t, ok)

	// The customer owns a copy of the rates.
	v.Rates[0].MonthlyRate = -1
	rate, _ = c.Rate("post")
	assert.Equal(t, 4.5, rate)
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.NotEqual(t, a, b)

	id, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestStartOfMonth(t *testing.T) {
	in := time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), StartOfMonth(in))
}
