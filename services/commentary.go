package services

import (
	"fmt"
	"strconv"
	"strings"
)

// Deterministic per-offer commentary. These read like generated text to the
// chat client but are plain templates over the offer and intent, so they are
// stable across runs.

// FlightReasoning explains why an offer made the shortlist, phrased around
// the user's stated preference and budget.
func FlightReasoning(offer FlightOffer, preference string, budget float64, tripDuration int) string {
	price := parsePrice(offer.Price.Total)
	duration := 0.0
	direct := false
	if len(offer.Itineraries) > 0 {
		duration = TotalDurationHours(offer.Itineraries[0].Duration)
		direct = len(offer.Itineraries[0].Segments) == 1
	}

	reasoning := "This flight is recommended because it offers "
	switch {
	case preference == PreferenceCheapest && (budget == 0 || price <= budget):
		budgetText := "N/A"
		if budget > 0 {
			budgetText = formatAmount(budget)
		}
		reasoning += fmt.Sprintf("a low price (₹%s) within your budget of ₹%s", formatAmount(price), budgetText)
	case preference == PreferenceSpeed && duration <= 5:
		reasoning += fmt.Sprintf("a quick travel time (%.1fh)", duration)
	case preference == PreferenceConvenience && direct:
		reasoning += "a convenient direct flight"
	default:
		reasoning += fmt.Sprintf("a good balance of cost (₹%s) and duration (%.1fh)", formatAmount(price), duration)
	}
	if tripDuration > 0 {
		reasoning += fmt.Sprintf(", fitting well with your %d-day trip", tripDuration)
	}
	return reasoning + "."
}

// FamilySoloConsideration branches on traveler composition and seat
// availability versus party size.
func FamilySoloConsideration(offer FlightOffer, adults, children, infants int) string {
	seats := offer.NumberOfBookableSeats
	totalTravelers := adults + children + infants

	switch {
	case adults == 1 && children == 0 && infants == 0:
		return "Ideal for solo travelers due to flexibility and availability."
	case children > 0 || infants > 0:
		if seats >= totalTravelers {
			return fmt.Sprintf("Suitable for families with %d children and %d infants; %d seats available.", children, infants, seats)
		}
		return fmt.Sprintf("Limited seats (%d); may not accommodate all %d travelers.", seats, totalTravelers)
	default:
		return fmt.Sprintf("Good for a group of %d adults with %d seats available.", adults, seats)
	}
}

// MorningNightComparison classifies the first departure into a morning,
// night, or daytime slot (UTC hours).
func MorningNightComparison(offer FlightOffer) string {
	departure := ""
	if len(offer.Itineraries) > 0 && len(offer.Itineraries[0].Segments) > 0 {
		departure = offer.Itineraries[0].Segments[0].Departure.At
	}
	switch {
	case isMorningFlight(departure):
		return "Morning flight: Ideal for early arrivals and maximizing daytime at your destination."
	case isNightFlight(departure):
		return "Night flight: Great for overnight travel, saving daytime for activities or rest."
	default:
		return "Daytime flight: Balanced option for convenience and comfort."
	}
}

// TransitRoutes lists the intermediate airports with the layover spent at
// each, or a fixed direct-flight message.
func TransitRoutes(offer FlightOffer) string {
	if len(offer.Itineraries) == 0 {
		return ""
	}
	segments := offer.Itineraries[0].Segments
	if len(segments) <= 1 {
		return "Direct flight: No transits required."
	}

	points := make([]string, 0, len(segments)-1)
	for i := 0; i < len(segments)-1; i++ {
		layover := 0.0
		arr, okA := parseFlightTime(segments[i].Arrival.At)
		dep, okD := parseFlightTime(segments[i+1].Departure.At)
		if okA && okD {
			layover = dep.Sub(arr).Hours()
		}
		points = append(points, fmt.Sprintf("%s (%sh layover)", segments[i].Arrival.IataCode, formatHours(layover)))
	}
	return fmt.Sprintf("Transit route: %s. Total duration: %s.", strings.Join(points, " -> "), offer.Itineraries[0].Duration)
}

// VisaInfo is boilerplate, not a real visa lookup.
func VisaInfo(origin, destination, nationality string) string {
	if nationality == "" {
		return "Nationality not provided; visa info unavailable."
	}
	return fmt.Sprintf("Visa info for %s traveling from %s to %s is not directly available via Amadeus. Check with official embassy sources.", nationality, origin, destination)
}

func parsePrice(total string) float64 {
	f, _ := strconv.ParseFloat(total, 64)
	return f
}

// formatAmount renders a price with thousands separators, keeping a
// fractional part only when present.
func formatAmount(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}
	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	out := b.String()
	if neg {
		out = "-" + out
	}
	if hasFrac {
		out += "." + fracPart
	}
	return out
}

// formatHours prints fractional hours to one decimal, trimming a trailing
// ".0".
func formatHours(h float64) string {
	s := strconv.FormatFloat(h, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}
