package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightmate/database"
	"flightmate/services"
)

func postGenerate(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func storeWithSearch(t *testing.T, flights []services.EnhancedFlightOffer) *fakeStore {
	t.Helper()
	store := newFakeStore()
	store.searches["s-1"] = &database.Search{
		ID:          "s-1",
		ChatID:      "1",
		Origin:      "Delhi",
		Destination: "Mumbai",
		TravelDate:  "2025-05-01",
		Adults:      1,
		Preference:  services.PreferenceCheapest,
	}
	flightsJSON, err := json.Marshal(flights)
	require.NoError(t, err)
	store.itineraries["it-1"] = &database.Itinerary{
		ID:          "it-1",
		SearchID:    "s-1",
		FlightsJSON: string(flightsJSON),
		BusiestJSON: "[]",
	}
	return store
}

func sampleEnhancedOffers() []services.EnhancedFlightOffer {
	return []services.EnhancedFlightOffer{
		{
			FlightOffer: services.FlightOffer{
				Price:                 services.Price{Total: "3000", Currency: "INR"},
				NumberOfBookableSeats: 5,
				Itineraries: []services.FlightItinerary{{
					Duration: "PT2H",
					Segments: []services.Segment{{
						Departure:   services.SegmentPoint{IataCode: "DEL", At: "2025-05-01T08:00:00"},
						Arrival:     services.SegmentPoint{IataCode: "BOM", At: "2025-05-01T10:00:00"},
						CarrierCode: "AI",
					}},
				}},
			},
			Reasoning:           "This flight is recommended because it offers a low price (₹3,000) within your budget of ₹N/A.",
			TransitRoutes:       "Direct flight: No transits required.",
			RecommendationScore: 5,
		},
		{
			FlightOffer: services.FlightOffer{
				Price: services.Price{Total: "5000", Currency: "INR"},
			},
			RecommendationScore: 3,
		},
	}
}

func TestGenerateHandlerMissingSearchID(t *testing.T) {
	_, r := newTestHandler(&fakeAI{}, &fakePipeline{}, newFakeConversations(), newFakeStore())

	w := postGenerate(t, r, `{"traveler_name": "Asha"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request")
}

func TestGenerateHandlerUnknownSearch(t *testing.T) {
	_, r := newTestHandler(&fakeAI{}, &fakePipeline{}, newFakeConversations(), newFakeStore())

	w := postGenerate(t, r, `{"search_id": "missing"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Search not found")
}

func TestGenerateHandlerBadStoredFlights(t *testing.T) {
	store := storeWithSearch(t, sampleEnhancedOffers())
	store.itineraries["it-1"].FlightsJSON = "{not json"
	_, r := newTestHandler(&fakeAI{}, &fakePipeline{}, newFakeConversations(), store)

	w := postGenerate(t, r, `{"search_id": "s-1"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to parse stored flight data")
}

func TestGenerateHandlerEmptyFlights(t *testing.T) {
	store := storeWithSearch(t, []services.EnhancedFlightOffer{})
	_, r := newTestHandler(&fakeAI{}, &fakePipeline{}, newFakeConversations(), store)

	w := postGenerate(t, r, `{"search_id": "s-1"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "No flights stored for this search")
}

func TestGenerateHandlerRendersAndStoresPDF(t *testing.T) {
	store := storeWithSearch(t, sampleEnhancedOffers())
	_, r := newTestHandler(&fakeAI{}, &fakePipeline{}, newFakeConversations(), store)

	w := postGenerate(t, r, `{"search_id": "s-1", "selected_flight_index": 0, "traveler_name": "Asha"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ItineraryID)
	assert.Equal(t, "/api/download/"+resp.ItineraryID, resp.PDFURL)

	saved := store.itineraries[resp.ItineraryID]
	require.NotNil(t, saved)
	assert.Equal(t, "s-1", saved.SearchID)
	assert.Equal(t, "Asha", saved.TravelerName)
	assert.True(t, strings.HasPrefix(string(saved.PDFData), "%PDF"), "stored bytes must be a PDF document")

	// The stored PDF is downloadable straight away.
	dw := httptest.NewRecorder()
	r.ServeHTTP(dw, httptest.NewRequest(http.MethodGet, "/api/download/"+resp.ItineraryID, nil))
	assert.Equal(t, http.StatusOK, dw.Code)
	assert.Equal(t, "application/pdf", dw.Header().Get("Content-Type"))
}

func TestGenerateHandlerClampsOutOfRangeIndex(t *testing.T) {
	store := storeWithSearch(t, sampleEnhancedOffers())
	_, r := newTestHandler(&fakeAI{}, &fakePipeline{}, newFakeConversations(), store)

	w := postGenerate(t, r, `{"search_id": "s-1", "selected_flight_index": 99}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	saved := store.itineraries[resp.ItineraryID]
	require.NotNil(t, saved)
	assert.NotEmpty(t, saved.PDFData)
}
