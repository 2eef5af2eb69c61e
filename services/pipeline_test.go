package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	locations    map[string]string
	offers       []FlightOffer
	busiest      []json.RawMessage
	resolveCalls int
}

func (f *fakeSource) ResolveLocation(_ context.Context, location string) string {
	f.resolveCalls++
	return f.locations[location]
}

func (f *fakeSource) FetchFlightOffers(_ context.Context, _, _, _ string, _, _, _ int, _ string) []FlightOffer {
	return f.offers
}

func (f *fakeSource) BusiestTravelingPeriod(_ context.Context, _, _ string) []json.RawMessage {
	return f.busiest
}

type fakeLinks struct {
	url string
	err error
}

func (f *fakeLinks) BookingLink(_ context.Context, _ FlightOffer) (string, error) {
	return f.url, f.err
}

func directOffer(price, departure, arrival, duration string) FlightOffer {
	return FlightOffer{
		Price:                 Price{Total: price, Currency: "INR"},
		NumberOfBookableSeats: 5,
		Itineraries: []FlightItinerary{{
			Duration: duration,
			Segments: []Segment{{
				Departure: SegmentPoint{IataCode: "DEL", At: departure},
				Arrival:   SegmentPoint{IataCode: "BOM", At: arrival},
			}},
		}},
	}
}

func oneStopOffer(price, duration string, stopover string) FlightOffer {
	return FlightOffer{
		Price:                 Price{Total: price, Currency: "INR"},
		NumberOfBookableSeats: 5,
		Itineraries: []FlightItinerary{{
			Duration: duration,
			Segments: []Segment{
				{
					Departure: SegmentPoint{IataCode: "DEL", At: "2025-05-01T08:00:00"},
					Arrival:   SegmentPoint{IataCode: stopover, At: "2025-05-01T10:00:00"},
				},
				{
					Departure: SegmentPoint{IataCode: stopover, At: "2025-05-01T11:00:00"},
					Arrival:   SegmentPoint{IataCode: "BOM", At: "2025-05-01T13:00:00"},
				},
			},
		}},
	}
}

func flightIntent(preference string, budget float64) *Intent {
	return &Intent{
		Type:            IntentFlight,
		BaseCity:        "Delhi",
		DestinationCity: "Mumbai",
		TravelDate:      "2025-05-01",
		Adults:          1,
		Preference:      preference,
		Budget:          budget,
	}
}

func TestShortlistCheapestOrdersByPrice(t *testing.T) {
	flights := []FlightOffer{
		directOffer("8000", "2025-05-01T08:00:00", "2025-05-01T10:00:00", "PT2H"),
		directOffer("3000", "2025-05-01T09:00:00", "2025-05-01T11:00:00", "PT2H"),
		directOffer("5000", "2025-05-01T10:00:00", "2025-05-01T12:00:00", "PT2H"),
	}
	got := Shortlist(flights, flightIntent(PreferenceCheapest, 0))
	require.Len(t, got, 3)
	assert.Equal(t, "3000", got[0].Price.Total)
	assert.Equal(t, "5000", got[1].Price.Total)
	assert.Equal(t, "8000", got[2].Price.Total)
}

func TestShortlistSpeedOrdersByDuration(t *testing.T) {
	flights := []FlightOffer{
		directOffer("3000", "2025-05-01T08:00:00", "2025-05-01T14:00:00", "PT6H"),
		directOffer("8000", "2025-05-01T08:00:00", "2025-05-01T10:00:00", "PT2H"),
		directOffer("5000", "2025-05-01T08:00:00", "2025-05-01T12:00:00", "PT4H"),
	}
	got := Shortlist(flights, flightIntent(PreferenceSpeed, 0))
	require.Len(t, got, 3)
	assert.Equal(t, "8000", got[0].Price.Total)
	assert.Equal(t, "5000", got[1].Price.Total)
	assert.Equal(t, "3000", got[2].Price.Total)
}

func TestShortlistConvenienceOrdersByStopsThenDuration(t *testing.T) {
	flights := []FlightOffer{
		oneStopOffer("3000", "PT5H", "HYD"),
		directOffer("8000", "2025-05-01T08:00:00", "2025-05-01T12:00:00", "PT4H"),
		directOffer("5000", "2025-05-01T08:00:00", "2025-05-01T10:00:00", "PT2H"),
	}
	got := Shortlist(flights, flightIntent(PreferenceConvenience, 0))
	require.Len(t, got, 3)
	// Direct flights first, shorter one leading; the one-stop offer last.
	assert.Equal(t, "5000", got[0].Price.Total)
	assert.Equal(t, "8000", got[1].Price.Total)
	assert.Equal(t, "3000", got[2].Price.Total)
}

func TestShortlistBudgetFilter(t *testing.T) {
	flights := []FlightOffer{
		directOffer("3000", "2025-05-01T08:00:00", "2025-05-01T10:00:00", "PT2H"),
		directOffer("5000", "2025-05-01T09:00:00", "2025-05-01T11:00:00", "PT2H"),
		directOffer("8000", "2025-05-01T10:00:00", "2025-05-01T12:00:00", "PT2H"),
	}
	got := Shortlist(flights, flightIntent(PreferenceCheapest, 4000))
	require.Len(t, got, 1)
	assert.Equal(t, "3000", got[0].Price.Total)
}

func TestShortlistTruncatesToThree(t *testing.T) {
	var flights []FlightOffer
	for _, p := range []string{"1000", "2000", "3000", "4000", "5000"} {
		flights = append(flights, directOffer(p, "2025-05-01T08:00:00", "2025-05-01T10:00:00", "PT2H"))
	}
	got := Shortlist(flights, flightIntent(PreferenceCheapest, 0))
	assert.Len(t, got, 3)
}

func TestRunUnresolvableCity(t *testing.T) {
	source := &fakeSource{locations: map[string]string{"Delhi": "DEL"}}
	p := NewPipeline(source, &fakeLinks{})

	res, err := p.Run(context.Background(), flightIntent(PreferenceCheapest, 0))
	require.NoError(t, err)
	assert.Equal(t,
		"Could not find the airport for Mumbai. Please try using the IATA code or a different city name.",
		res.Message)
	assert.Empty(t, res.Flights)
}

func TestRunNoOffers(t *testing.T) {
	source := &fakeSource{locations: map[string]string{"Delhi": "DEL", "Mumbai": "BOM"}}
	p := NewPipeline(source, &fakeLinks{})

	res, err := p.Run(context.Background(), flightIntent(PreferenceCheapest, 0))
	require.NoError(t, err)
	assert.Equal(t,
		"No flights found from Delhi to Mumbai on 2025-05-01. Try adjusting your dates or preferences.",
		res.Message)
}

func TestRunNoOffersRoundTrip(t *testing.T) {
	source := &fakeSource{locations: map[string]string{"Delhi": "DEL", "Mumbai": "BOM"}}
	p := NewPipeline(source, &fakeLinks{})

	intent := flightIntent(PreferenceCheapest, 0)
	intent.ReturnDate = "2025-05-08"
	res, err := p.Run(context.Background(), intent)
	require.NoError(t, err)
	assert.Equal(t,
		"No flights found from Delhi to Mumbai on 2025-05-01 to 2025-05-08. Try adjusting your dates or preferences.",
		res.Message)
}

func TestRunEnrichesShortlistInOrder(t *testing.T) {
	busy := []json.RawMessage{json.RawMessage(`{"period":"2025-12"}`)}
	source := &fakeSource{
		locations: map[string]string{"Delhi": "DEL", "Mumbai": "BOM"},
		offers: []FlightOffer{
			directOffer("8000", "2025-05-01T08:00:00", "2025-05-01T10:00:00", "PT2H"),
			directOffer("3000", "2025-05-01T09:00:00", "2025-05-01T11:00:00", "PT2H"),
			directOffer("5000", "2025-05-01T10:00:00", "2025-05-01T12:00:00", "PT2H"),
		},
		busiest: busy,
	}
	p := NewPipeline(source, &fakeLinks{url: "https://example.com/book"})

	res, err := p.Run(context.Background(), flightIntent(PreferenceCheapest, 0))
	require.NoError(t, err)
	require.Empty(t, res.Message)
	require.Len(t, res.Flights, 3)

	// Price order preserved through enrichment, scores on the 1–5 scale.
	assert.Equal(t, "3000", res.Flights[0].Price.Total)
	assert.Equal(t, "5000", res.Flights[1].Price.Total)
	assert.Equal(t, "8000", res.Flights[2].Price.Total)

	for _, f := range res.Flights {
		assert.Equal(t, "Direct flight: No transits required.", f.TransitRoutes)
		assert.Equal(t, "https://example.com/book", f.TavilyBookingLink)
		assert.GreaterOrEqual(t, f.RecommendationScore, 1)
		assert.LessOrEqual(t, f.RecommendationScore, 5)
		assert.Equal(t, string(busy[0]), string(f.BusynessInfo))
	}
	assert.Equal(t, busy, res.BusiestTravelingPeriod)
}

func TestRunNoBusiestDataSerializesNull(t *testing.T) {
	source := &fakeSource{
		locations: map[string]string{"Delhi": "DEL", "Mumbai": "BOM"},
		offers: []FlightOffer{
			directOffer("3000", "2025-05-01T08:00:00", "2025-05-01T10:00:00", "PT2H"),
		},
	}
	p := NewPipeline(source, &fakeLinks{})

	res, err := p.Run(context.Background(), flightIntent(PreferenceCheapest, 0))
	require.NoError(t, err)
	require.Len(t, res.Flights, 1)

	payload, err := json.Marshal(res.Flights[0])
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"busynessInfo":null`)
}

func TestRunLinkFailureLeavesLinkEmpty(t *testing.T) {
	source := &fakeSource{
		locations: map[string]string{"Delhi": "DEL", "Mumbai": "BOM"},
		offers: []FlightOffer{
			directOffer("3000", "2025-05-01T08:00:00", "2025-05-01T10:00:00", "PT2H"),
		},
	}
	p := NewPipeline(source, &fakeLinks{err: ErrLinkUnavailable})

	res, err := p.Run(context.Background(), flightIntent(PreferenceCheapest, 0))
	require.NoError(t, err)
	require.Len(t, res.Flights, 1)
	assert.Empty(t, res.Flights[0].TavilyBookingLink)
}

func TestRunCostScoresAcrossShortlist(t *testing.T) {
	source := &fakeSource{
		locations: map[string]string{"Delhi": "DEL", "Mumbai": "BOM"},
		offers: []FlightOffer{
			directOffer("3000", "2025-05-01T08:00:00", "2025-05-01T10:00:00", "PT2H"),
			directOffer("5000", "2025-05-01T08:00:00", "2025-05-01T10:00:00", "PT2H"),
			directOffer("8000", "2025-05-01T08:00:00", "2025-05-01T10:00:00", "PT2H"),
		},
	}
	p := NewPipeline(source, &fakeLinks{})

	res, err := p.Run(context.Background(), flightIntent(PreferenceCheapest, 0))
	require.NoError(t, err)
	require.Len(t, res.Flights, 3)

	// Cheapest offer scores highest. All three are direct morning flights, so
	// convenience is identical and the ordering is driven by cost alone.
	assert.Greater(t, res.Flights[0].RecommendationScore, res.Flights[2].RecommendationScore)
	assert.Equal(t, 5, CostScore(3000, 3000, 8000))
	assert.Equal(t, 3, CostScore(5000, 3000, 8000))
	assert.Equal(t, 1, CostScore(8000, 3000, 8000))
}
