package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"flightmate/config"
)

const (
	flightOffersMax      = 5
	flightOffersCurrency = "INR"

	locationCacheTTL = 24 * time.Hour
	flightCacheTTL   = time.Hour

	rateLimitAttemptsMax = 3
	rateLimitBaseDelay   = 2 * time.Second
)

var iataCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Cache is the get/set surface the Amadeus client memoizes through.
type Cache interface {
	GetWithRetry(ctx context.Context, key string) (string, bool)
	SetWithRetry(ctx context.Context, key, value string, ttl time.Duration)
}

// AmadeusClient talks to the Amadeus REST API: flight offers search,
// location directory lookup, and route analytics. Results are memoized
// through the cache gateway.
type AmadeusClient struct {
	clientID     string
	clientSecret string
	baseURL      string
	accessToken  string
	tokenExpiry  time.Time
	mu           sync.Mutex
	httpClient   *http.Client
	cache        Cache
	retryDelay   time.Duration
}

func NewAmadeusClient(cfg *config.Config, cacheClient Cache) *AmadeusClient {
	c := &AmadeusClient{
		clientID:     cfg.AmadeusClientID,
		clientSecret: cfg.AmadeusClientSecret,
		baseURL:      cfg.AmadeusBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache:      cacheClient,
		retryDelay: rateLimitBaseDelay,
	}

	if c.clientID == "" || c.clientSecret == "" {
		log.Println("⚠️  AMADEUS_CLIENT_ID or AMADEUS_CLIENT_SECRET not set — flight search will return no results")
	}

	return c
}

// apiError carries the upstream status so callers can recognize rate
// limiting.
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("amadeus error (%d): %s", e.Status, e.Body)
}

// ─── OAuth2 Token ─────────────────────────────────────────────────────────────

func (c *AmadeusClient) refreshToken(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/security/oauth2/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token request failed (%d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse token response: %w", err)
	}

	c.mu.Lock()
	c.accessToken = result.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(result.ExpiresIn-30) * time.Second)
	c.mu.Unlock()

	return nil
}

func (c *AmadeusClient) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	expired := time.Now().After(c.tokenExpiry)
	token := c.accessToken
	c.mu.Unlock()

	if expired || token == "" {
		if err := c.refreshToken(ctx); err != nil {
			return "", err
		}
		c.mu.Lock()
		token = c.accessToken
		c.mu.Unlock()
	}
	return token, nil
}

func (c *AmadeusClient) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apiError{Status: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

// ─── Location Resolver ────────────────────────────────────────────────────────

type locationsResponse struct {
	Data []struct {
		IataCode string `json:"iataCode"`
	} `json:"data"`
}

// ResolveLocation maps a free-text city name to a three-letter IATA code.
// Inputs that already look like a code pass through untouched. Returns ""
// when the city cannot be resolved; callers treat that as unresolvable
// input, not a system failure.
func (c *AmadeusClient) ResolveLocation(ctx context.Context, location string) string {
	if iataCodePattern.MatchString(location) {
		return location
	}

	cacheKey := "location:iata:" + strings.ToLower(location)
	if cached, ok := c.cache.GetWithRetry(ctx, cacheKey); ok {
		return cached
	}

	if c.clientID == "" {
		return ""
	}

	params := url.Values{}
	params.Set("keyword", location)
	params.Set("subType", "AIRPORT,CITY")

	body, err := c.doRequest(ctx, http.MethodGet, "/v1/reference-data/locations?"+params.Encode())
	if err != nil {
		log.Printf("⚠️  Location lookup for %q failed: %v", location, err)
		return ""
	}

	var resp locationsResponse
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Data) == 0 {
		return ""
	}

	code := resp.Data[0].IataCode
	c.cache.SetWithRetry(ctx, cacheKey, code, locationCacheTTL)
	return code
}

// ─── Flight Offer Fetcher ─────────────────────────────────────────────────────

type flightOffersResponse struct {
	Data []struct {
		Price                  Price             `json:"price"`
		Itineraries            []FlightItinerary `json:"itineraries"`
		NumberOfBookableSeats  int               `json:"numberOfBookableSeats"`
		LastTicketingDate      string            `json:"lastTicketingDate"`
		ValidatingAirlineCodes []string          `json:"validatingAirlineCodes"`
		PricingOptions         map[string]any    `json:"pricingOptions"`
	} `json:"data"`
}

func flightCacheKey(origin, destination, date string, adults, children, infants int, returnDate string) string {
	key := fmt.Sprintf("flight:%s:%s:%s:%d:%d:%d", origin, destination, date, adults, children, infants)
	if returnDate != "" {
		key += ":" + returnDate
	}
	return key
}

// FetchFlightOffers returns up to 5 normalized offers for the route,
// consulting the cache first. Upstream failures degrade to an empty list,
// indistinguishable from a legitimate zero-result search.
func (c *AmadeusClient) FetchFlightOffers(ctx context.Context, origin, destination, date string, adults, children, infants int, returnDate string) []FlightOffer {
	cacheKey := flightCacheKey(origin, destination, date, adults, children, infants, returnDate)
	if cached, ok := c.cache.GetWithRetry(ctx, cacheKey); ok {
		var offers []FlightOffer
		if err := json.Unmarshal([]byte(cached), &offers); err == nil {
			return offers
		}
		log.Printf("⚠️  Dropping unreadable flight cache entry %s", cacheKey)
	}

	offers, err := c.searchFlightOffers(ctx, origin, destination, date, adults, children, infants, returnDate)
	if err != nil {
		log.Printf("⚠️  Amadeus flight search failed: %v", err)
		return []FlightOffer{}
	}

	if data, err := json.Marshal(offers); err == nil {
		c.cache.SetWithRetry(ctx, cacheKey, string(data), flightCacheTTL)
	}
	return offers
}

// searchFlightOffers calls the flight-offers-search API. A 429 is retried a
// bounded number of times with a growing delay plus jitter.
func (c *AmadeusClient) searchFlightOffers(ctx context.Context, origin, destination, date string, adults, children, infants int, returnDate string) ([]FlightOffer, error) {
	if c.clientID == "" {
		return nil, fmt.Errorf("amadeus not configured")
	}

	params := url.Values{}
	params.Set("originLocationCode", origin)
	params.Set("destinationLocationCode", destination)
	params.Set("departureDate", date)
	if returnDate != "" {
		params.Set("returnDate", returnDate)
	}
	params.Set("adults", strconv.Itoa(adults))
	if children > 0 {
		params.Set("children", strconv.Itoa(children))
	}
	if infants > 0 {
		params.Set("infants", strconv.Itoa(infants))
	}
	params.Set("currencyCode", flightOffersCurrency)
	params.Set("max", strconv.Itoa(flightOffersMax))

	path := "/v2/shopping/flight-offers?" + params.Encode()

	var body []byte
	var err error
	for attempt := 1; attempt <= rateLimitAttemptsMax; attempt++ {
		body, err = c.doRequest(ctx, http.MethodGet, path)
		if err == nil {
			break
		}
		var apiErr *apiError
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusTooManyRequests || attempt == rateLimitAttemptsMax {
			return nil, err
		}
		delay := c.retryDelay*time.Duration(attempt) + time.Duration(rand.Int63n(int64(c.retryDelay/2)+1))
		log.Printf("⚠️  Amadeus rate limited, retrying in %v (attempt %d/%d)", delay, attempt, rateLimitAttemptsMax)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var resp flightOffersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse flight offers: %w", err)
	}

	offers := make([]FlightOffer, 0, len(resp.Data))
	for _, raw := range resp.Data {
		offer := FlightOffer{
			Price:                  raw.Price,
			Itineraries:            raw.Itineraries,
			NumberOfBookableSeats:  raw.NumberOfBookableSeats,
			LastTicketingDate:      raw.LastTicketingDate,
			ValidatingAirlineCodes: raw.ValidatingAirlineCodes,
			PricingOptions:         raw.PricingOptions,
		}
		if offer.ValidatingAirlineCodes == nil {
			offer.ValidatingAirlineCodes = []string{}
		}
		if offer.PricingOptions == nil {
			offer.PricingOptions = map[string]any{}
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

// ─── Route Analytics ──────────────────────────────────────────────────────────

type analyticsResponse struct {
	Data []json.RawMessage `json:"data"`
}

// BusiestTravelingPeriod returns the historically busiest travel windows
// for a route, verbatim. nil on any upstream failure; the advisory data is
// best-effort.
func (c *AmadeusClient) BusiestTravelingPeriod(ctx context.Context, originCity, destinationCity string) []json.RawMessage {
	if c.clientID == "" {
		return nil
	}

	params := url.Values{}
	params.Set("originCityCode", originCity)
	params.Set("destinationCityCode", destinationCity)

	body, err := c.doRequest(ctx, http.MethodGet, "/v1/travel/analytics/air-traffic/busiest-period?"+params.Encode())
	if err != nil {
		log.Printf("⚠️  Busiest traveling period lookup failed: %v", err)
		return nil
	}

	var resp analyticsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil
	}
	return resp.Data
}
