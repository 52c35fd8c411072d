package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatorIsDeterministicForSeed(t *testing.T) {
	q := Query{Origin: "STN", Destination: "VLC", Date: "2026-11-20", Adults: 1}

	a, err := NewRyanair(NewSeededRand(7)).Search(context.Background(), q)
	require.NoError(t, err)
	b, err := NewRyanair(NewSeededRand(7)).Search(context.Background(), q)
	require.NoError(t, err)

	require.Len(t, a, 5)
	for i := range a {
		assert.True(t, a[i].Price.Equal(b[i].Price), "slot %d", i)
	}
}

func TestSimulatorRespectsFloorAndShape(t *testing.T) {
	sims := []*Simulator{
		NewRyanair(NewSeededRand(3)),
		NewEasyJet(NewSeededRand(3)),
		NewWizzAir(NewSeededRand(3)),
	}
	for _, s := range sims {
		route := s.Routes()[0]
		q := Query{Origin: route.From, Destination: route.To, Date: "2026-11-20", Adults: 2}
		for run := 0; run < 20; run++ {
			got, err := s.Search(context.Background(), q)
			require.NoError(t, err)
			require.NotEmpty(t, got)
			for _, c := range got {
				assert.GreaterOrEqual(t, c.Price.InexactFloat64(), s.floor, s.Name())
				assert.True(t, c.Price.Equal(c.Price.Round(2)), "price has at most two decimals")
				assert.Equal(t, s.Name(), c.Airline)
				assert.Equal(t, "EUR", c.Currency)
				assert.Contains(t, c.BookingURL, route.From)
				assert.Contains(t, c.BookingURL, "2026-11-20")
			}
		}
	}
}

func TestSimulatorUnservedRoute(t *testing.T) {
	got, err := NewEasyJet(NewSeededRand(1)).Search(context.Background(), Query{Origin: "STN", Destination: "VLC"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRyanairBookingURL(t *testing.T) {
	got, err := NewRyanair(NewSeededRand(1)).Search(context.Background(), Query{Origin: "STN", Destination: "VLC", Date: "2026-11-20"})
	require.NoError(t, err)
	assert.Equal(t, "https://www.ryanair.com/gb/en/booking/home/STN/VLC/2026-11-20/1/0/0/0", got[0].BookingURL)
}
