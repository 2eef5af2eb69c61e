package services

import "encoding/json"

// ─── Conversation ─────────────────────────────────────────────────────────────

// ChatMessage is one turn of a conversation. Content is a string for user
// messages and plain replies, and a structured payload when the assistant
// answers with flight recommendations.
type ChatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ─── Intent ───────────────────────────────────────────────────────────────────

const (
	IntentFlight = "flight"
	IntentText   = "text"

	PreferenceCheapest    = "cheapest"
	PreferenceSpeed       = "speed"
	PreferenceConvenience = "convenience"
	PreferenceBalanced    = "balanced"
)

// Intent is the classified purpose of a user message. Type is either
// "flight" (with the extracted search parameters) or "text" (a free-text
// question carried in Query).
type Intent struct {
	Type            string  `json:"type"`
	BaseCity        string  `json:"baseCity,omitempty"`
	DestinationCity string  `json:"destinationCity,omitempty"`
	TravelDate      string  `json:"travelDate,omitempty"`
	ReturnDate      string  `json:"returnDate,omitempty"`
	Adults          int     `json:"adults,omitempty"`
	Children        int     `json:"children,omitempty"`
	Infants         int     `json:"infants,omitempty"`
	Preference      string  `json:"preference,omitempty"`
	Budget          float64 `json:"budget,omitempty"`
	TripDuration    int     `json:"tripDuration,omitempty"`
	Nationality     string  `json:"nationality,omitempty"`
	Query           string  `json:"query,omitempty"`
}

// ─── Flight offers ────────────────────────────────────────────────────────────

type Price struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

type SegmentPoint struct {
	IataCode string `json:"iataCode"`
	At       string `json:"at"`
}

type Segment struct {
	Departure   SegmentPoint `json:"departure"`
	Arrival     SegmentPoint `json:"arrival"`
	CarrierCode string       `json:"carrierCode,omitempty"`
	Duration    string       `json:"duration,omitempty"`
}

type FlightItinerary struct {
	Duration string    `json:"duration"`
	Segments []Segment `json:"segments"`
}

// FlightOffer is the fixed subset of an Amadeus flight offer this service
// works with. Immutable once fetched.
type FlightOffer struct {
	Price                  Price             `json:"price"`
	Itineraries            []FlightItinerary `json:"itineraries"`
	NumberOfBookableSeats  int               `json:"numberOfBookableSeats"`
	LastTicketingDate      string            `json:"lastTicketingDate,omitempty"`
	ValidatingAirlineCodes []string          `json:"validatingAirlineCodes"`
	PricingOptions         map[string]any    `json:"pricingOptions"`
}

// EnhancedFlightOffer is a FlightOffer plus the derived fields attached by
// the ranking pipeline. Created once per response, never mutated after.
type EnhancedFlightOffer struct {
	FlightOffer
	Reasoning               string          `json:"reasoning"`
	FamilySoloConsideration string          `json:"familySoloConsideration"`
	MorningNightComparison  string          `json:"morningNightComparison"`
	TransitRoutes           string          `json:"transitRoutes"`
	VisaInfo                string          `json:"visaInfo"`
	RecommendationScore     int             `json:"recommendationScore"`
	TavilyBookingLink       string          `json:"tavilyBookingLink"`
	BusynessInfo            json.RawMessage `json:"busynessInfo"`
}

// FlightResponse is the structured chat payload for a successful search.
type FlightResponse struct {
	SearchID               string                `json:"search_id,omitempty"`
	Flights                []EnhancedFlightOffer `json:"flights"`
	BusiestTravelingPeriod []json.RawMessage     `json:"busiestTravelingPeriod"`
}

// UserPreferences feed the convenience score. PreferredTime is a fixed
// "morning" constant; DirectFlight follows the stated preference.
type UserPreferences struct {
	PreferredTime string
	DirectFlight  bool
}
