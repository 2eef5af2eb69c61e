package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
)

const shortlistSize = 3

// FlightSource is the flight-data side of the pipeline: city resolution,
// offer search, and route analytics.
type FlightSource interface {
	ResolveLocation(ctx context.Context, location string) string
	FetchFlightOffers(ctx context.Context, origin, destination, date string, adults, children, infants int, returnDate string) []FlightOffer
	BusiestTravelingPeriod(ctx context.Context, originCity, destinationCity string) []json.RawMessage
}

// LinkFinder locates a booking link for an offer.
type LinkFinder interface {
	BookingLink(ctx context.Context, offer FlightOffer) (string, error)
}

// Result is the outcome of one flight-search turn. Message is set when the
// turn ends in a plain-text explanation (unresolvable city, no offers);
// otherwise Flights holds the enriched shortlist.
type Result struct {
	Message                string
	Flights                []EnhancedFlightOffer
	BusiestTravelingPeriod []json.RawMessage
}

// Pipeline turns a parsed flight intent into ranked, enriched
// recommendations: resolve cities, fetch offers, filter by budget, sort by
// preference, shortlist, then attach derived fields per offer.
type Pipeline struct {
	source FlightSource
	links  LinkFinder
}

func NewPipeline(source FlightSource, links LinkFinder) *Pipeline {
	return &Pipeline{source: source, links: links}
}

func (p *Pipeline) Run(ctx context.Context, intent *Intent) (*Result, error) {
	originIATA := p.source.ResolveLocation(ctx, intent.BaseCity)
	destIATA := p.source.ResolveLocation(ctx, intent.DestinationCity)

	if originIATA == "" || destIATA == "" {
		failedCity := intent.BaseCity
		if originIATA != "" {
			failedCity = intent.DestinationCity
		}
		return &Result{
			Message: fmt.Sprintf("Could not find the airport for %s. Please try using the IATA code or a different city name.", failedCity),
		}, nil
	}

	flights := p.source.FetchFlightOffers(ctx, originIATA, destIATA,
		intent.TravelDate, intent.Adults, intent.Children, intent.Infants, intent.ReturnDate)
	busiest := p.source.BusiestTravelingPeriod(ctx, originIATA, destIATA)

	if len(flights) == 0 {
		suffix := ""
		if intent.ReturnDate != "" {
			suffix = " to " + intent.ReturnDate
		}
		return &Result{
			Message: fmt.Sprintf("No flights found from %s to %s on %s%s. Try adjusting your dates or preferences.",
				intent.BaseCity, intent.DestinationCity, intent.TravelDate, suffix),
		}, nil
	}

	shortlist := Shortlist(flights, intent)
	enhanced := p.enhance(ctx, shortlist, intent, originIATA, destIATA, busiest)

	return &Result{
		Flights:                enhanced,
		BusiestTravelingPeriod: busiest,
	}, nil
}

// Shortlist applies the budget filter, sorts by the stated preference, and
// truncates to the top 3.
func Shortlist(flights []FlightOffer, intent *Intent) []FlightOffer {
	kept := make([]FlightOffer, 0, len(flights))
	for _, f := range flights {
		if intent.Budget > 0 && parsePrice(f.Price.Total) > intent.Budget {
			continue
		}
		kept = append(kept, f)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return offerLess(kept[i], kept[j], intent.Preference)
	})

	if len(kept) > shortlistSize {
		kept = kept[:shortlistSize]
	}
	return kept
}

func offerLess(a, b FlightOffer, preference string) bool {
	priceA, priceB := parsePrice(a.Price.Total), parsePrice(b.Price.Total)
	durationA, durationB := outboundDuration(a), outboundDuration(b)

	switch preference {
	case PreferenceSpeed:
		return durationA < durationB
	case PreferenceConvenience:
		stopsA, stopsB := stopCount(a), stopCount(b)
		if stopsA != stopsB {
			return stopsA < stopsB
		}
		return durationA < durationB
	default:
		// cheapest and balanced both rank by price
		return priceA < priceB
	}
}

func outboundDuration(f FlightOffer) float64 {
	if len(f.Itineraries) == 0 {
		return 0
	}
	return TotalDurationHours(f.Itineraries[0].Duration)
}

func stopCount(f FlightOffer) int {
	if len(f.Itineraries) == 0 {
		return 0
	}
	return len(f.Itineraries[0].Segments) - 1
}

// enhance fans out enrichment across the shortlist. The final slice keeps
// the shortlist's sort order regardless of goroutine completion order.
func (p *Pipeline) enhance(ctx context.Context, shortlist []FlightOffer, intent *Intent, originIATA, destIATA string, busiest []json.RawMessage) []EnhancedFlightOffer {
	minPrice, maxPrice := priceRange(shortlist)
	prefs := UserPreferences{
		PreferredTime: "morning",
		DirectFlight:  intent.Preference == PreferenceConvenience,
	}

	enhanced := make([]EnhancedFlightOffer, len(shortlist))
	var wg sync.WaitGroup
	for i, offer := range shortlist {
		wg.Add(1)
		go func(i int, offer FlightOffer) {
			defer wg.Done()
			enhanced[i] = p.enhanceOffer(ctx, offer, intent, originIATA, destIATA, minPrice, maxPrice, prefs, busiest)
		}(i, offer)
	}
	wg.Wait()
	return enhanced
}

func (p *Pipeline) enhanceOffer(ctx context.Context, offer FlightOffer, intent *Intent, originIATA, destIATA string, minPrice, maxPrice float64, prefs UserPreferences, busiest []json.RawMessage) EnhancedFlightOffer {
	link, err := p.links.BookingLink(ctx, offer)
	if err != nil {
		log.Printf("⚠️  Booking link lookup skipped: %v", err)
		link = ""
	}

	costScore := CostScore(parsePrice(offer.Price.Total), minPrice, maxPrice)
	convenienceScore := ConvenienceScore(offer, prefs)

	e := EnhancedFlightOffer{
		FlightOffer:             offer,
		Reasoning:               FlightReasoning(offer, intent.Preference, intent.Budget, intent.TripDuration),
		FamilySoloConsideration: FamilySoloConsideration(offer, intent.Adults, intent.Children, intent.Infants),
		MorningNightComparison:  MorningNightComparison(offer),
		TransitRoutes:           TransitRoutes(offer),
		VisaInfo:                VisaInfo(originIATA, destIATA, intent.Nationality),
		RecommendationScore:     OverallScore(costScore, convenienceScore),
		TavilyBookingLink:       link,
	}
	if len(busiest) > 0 {
		e.BusynessInfo = busiest[0]
	}
	return e
}

func priceRange(offers []FlightOffer) (minPrice, maxPrice float64) {
	for i, f := range offers {
		p := parsePrice(f.Price.Total)
		if i == 0 || p < minPrice {
			minPrice = p
		}
		if i == 0 || p > maxPrice {
			maxPrice = p
		}
	}
	return minPrice, maxPrice
}
