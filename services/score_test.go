package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func offerWithSegments(duration string, segments ...Segment) FlightOffer {
	return FlightOffer{
		Itineraries: []FlightItinerary{{Duration: duration, Segments: segments}},
	}
}

func TestTotalDurationHours(t *testing.T) {
	assert.InDelta(t, 5.5, TotalDurationHours("PT5H30M"), 1e-9)
	assert.InDelta(t, 2.0, TotalDurationHours("PT2H"), 1e-9)
	assert.InDelta(t, 0.75, TotalDurationHours("PT45M"), 1e-9)
	assert.InDelta(t, 0.0, TotalDurationHours(""), 1e-9)
	assert.InDelta(t, 0.0, TotalDurationHours("garbage"), 1e-9)
}

func TestCostScoreDistinctPrices(t *testing.T) {
	prices := []float64{3000, 5000, 8000}
	want := []int{5, 3, 1}
	for i, p := range prices {
		assert.Equal(t, want[i], CostScore(p, 3000, 8000), "price %v", p)
	}
}

func TestCostScoreEqualPrices(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, 5, CostScore(4500, 4500, 4500))
	}
}

func TestCostScoreMonotonic(t *testing.T) {
	prev := 6
	for price := 1000.0; price <= 9000; price += 500 {
		score := CostScore(price, 1000, 9000)
		assert.LessOrEqual(t, score, prev, "score must not increase with price (price %v)", price)
		assert.GreaterOrEqual(t, score, 1)
		assert.LessOrEqual(t, score, 5)
		prev = score
	}
}

func TestLayoverHours(t *testing.T) {
	direct := offerWithSegments("PT2H", Segment{
		Departure: SegmentPoint{IataCode: "DEL", At: "2025-05-01T08:00:00"},
		Arrival:   SegmentPoint{IataCode: "BOM", At: "2025-05-01T10:00:00"},
	})
	assert.InDelta(t, 0.0, LayoverHours(direct), 1e-9)

	oneStop := offerWithSegments("PT7H30M",
		Segment{
			Departure: SegmentPoint{IataCode: "DEL", At: "2025-05-01T08:00:00"},
			Arrival:   SegmentPoint{IataCode: "HYD", At: "2025-05-01T10:00:00"},
		},
		Segment{
			Departure: SegmentPoint{IataCode: "HYD", At: "2025-05-01T13:30:00"},
			Arrival:   SegmentPoint{IataCode: "BOM", At: "2025-05-01T15:30:00"},
		},
	)
	assert.InDelta(t, 3.5, LayoverHours(oneStop), 1e-9)
}

func TestConvenienceScoreDirectMorningMatch(t *testing.T) {
	offer := offerWithSegments("PT2H", Segment{
		Departure: SegmentPoint{IataCode: "DEL", At: "2025-05-01T08:00:00"},
		Arrival:   SegmentPoint{IataCode: "BOM", At: "2025-05-01T10:00:00"},
	})
	prefs := UserPreferences{PreferredTime: "morning", DirectFlight: true}
	// 5 (morning) + 5 (direct wanted and direct) + 5 (no layover) → 5
	assert.Equal(t, 5, ConvenienceScore(offer, prefs))
}

func TestConvenienceScoreLongLayover(t *testing.T) {
	offer := offerWithSegments("PT12H",
		Segment{
			Departure: SegmentPoint{IataCode: "DEL", At: "2025-05-01T14:00:00"},
			Arrival:   SegmentPoint{IataCode: "HYD", At: "2025-05-01T16:00:00"},
		},
		Segment{
			Departure: SegmentPoint{IataCode: "HYD", At: "2025-05-01T22:00:00"},
			Arrival:   SegmentPoint{IataCode: "BOM", At: "2025-05-02T00:00:00"},
		},
	)
	prefs := UserPreferences{PreferredTime: "morning", DirectFlight: true}
	// 3 (afternoon departure) + 2 (not direct) + 1 (6h layover) → round(2) = 2
	assert.Equal(t, 2, ConvenienceScore(offer, prefs))
}

func TestConvenienceScoreNoItineraries(t *testing.T) {
	assert.Equal(t, 3, ConvenienceScore(FlightOffer{}, UserPreferences{}))
}

func TestOverallScore(t *testing.T) {
	cases := []struct {
		cost, convenience, want int
	}{
		{5, 5, 5},
		{5, 2, 4}, // 3.5 rounds up
		{1, 2, 2}, // 1.5 rounds up
		{1, 1, 1},
		{3, 4, 4},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d_%d", tc.cost, tc.convenience), func(t *testing.T) {
			assert.Equal(t, tc.want, OverallScore(tc.cost, tc.convenience))
		})
	}
}

func TestParseFlightTime(t *testing.T) {
	_, ok := parseFlightTime("2025-05-01T08:30:00")
	assert.True(t, ok)
	_, ok = parseFlightTime("2025-05-01T08:30:00+05:30")
	assert.True(t, ok)
	_, ok = parseFlightTime("not a time")
	assert.False(t, ok)
}
