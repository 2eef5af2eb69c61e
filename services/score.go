package services

import (
	"math"
	"regexp"
	"strconv"
	"time"
)

var (
	durationHours   = regexp.MustCompile(`(\d+)H`)
	durationMinutes = regexp.MustCompile(`(\d+)M`)
)

// TotalDurationHours converts an ISO 8601 duration (PT5H30M) into fractional
// hours. Missing tokens count as zero.
func TotalDurationHours(iso string) float64 {
	hours := 0
	if m := durationHours.FindStringSubmatch(iso); m != nil {
		hours, _ = strconv.Atoi(m[1])
	}
	minutes := 0
	if m := durationMinutes.FindStringSubmatch(iso); m != nil {
		minutes, _ = strconv.Atoi(m[1])
	}
	return float64(hours) + float64(minutes)/60
}

// parseFlightTime handles Amadeus timestamps, which come without a zone
// offset ("2025-05-01T08:30:00") but occasionally with one.
func parseFlightTime(at string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, at); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", at); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func isMorningFlight(departure string) bool {
	t, ok := parseFlightTime(departure)
	if !ok {
		return false
	}
	h := t.UTC().Hour()
	return h >= 5 && h < 12
}

func isNightFlight(departure string) bool {
	t, ok := parseFlightTime(departure)
	if !ok {
		return false
	}
	h := t.UTC().Hour()
	return h >= 18 || h < 5
}

// CostScore maps a price onto 1–5 by normalizing within the shortlist's
// min/max. When every offer shares the same price there is nothing to rank
// on, so all of them score 5.
func CostScore(price, minPrice, maxPrice float64) int {
	span := maxPrice - minPrice
	if span == 0 {
		return 5
	}
	normalized := (maxPrice - price) / span
	return int(math.Round(normalized*4 + 1))
}

// LayoverHours sums the ground gaps between consecutive segments of the
// first itinerary. Direct flights have zero layover.
func LayoverHours(offer FlightOffer) float64 {
	if len(offer.Itineraries) == 0 || len(offer.Itineraries[0].Segments) < 2 {
		return 0
	}
	segments := offer.Itineraries[0].Segments
	total := 0.0
	for i := 1; i < len(segments); i++ {
		arr, okA := parseFlightTime(segments[i-1].Arrival.At)
		dep, okD := parseFlightTime(segments[i].Departure.At)
		if okA && okD {
			total += dep.Sub(arr).Hours()
		}
	}
	return total
}

// ConvenienceScore averages up to three 1–5 factors: preferred-time match,
// direct-flight match, layover-duration bucket. With no applicable factors
// it defaults to 3.
func ConvenienceScore(offer FlightOffer, prefs UserPreferences) int {
	if len(offer.Itineraries) == 0 || len(offer.Itineraries[0].Segments) == 0 {
		return 3
	}

	score := 0
	factors := 0

	if prefs.PreferredTime != "" {
		if t, ok := parseFlightTime(offer.Itineraries[0].Segments[0].Departure.At); ok {
			h := t.Hour()
			switch prefs.PreferredTime {
			case "morning":
				score += pick(h >= 6 && h <= 10, 5, 3)
			case "afternoon":
				score += pick(h >= 12 && h < 16, 5, 3)
			case "evening":
				score += pick(h >= 17 && h < 21, 5, 3)
			}
			factors++
		}
	}

	direct := len(offer.Itineraries[0].Segments) == 1
	score += pick(prefs.DirectFlight && direct, 5, 2)
	factors++

	switch layover := LayoverHours(offer); {
	case layover < 2:
		score += 5
	case layover < 4:
		score += 3
	default:
		score += 1
	}
	factors++

	if factors == 0 {
		return 3
	}
	return int(math.Round(float64(score) / float64(factors)))
}

// OverallScore combines cost and convenience as a 50/50 weighted average,
// rounded to the nearest integer.
func OverallScore(costScore, convenienceScore int) int {
	return int(math.Round(float64(costScore)*0.5 + float64(convenienceScore)*0.5))
}

func pick(cond bool, yes, no int) int {
	if cond {
		return yes
	}
	return no
}
