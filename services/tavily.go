package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"flightmate/config"
)

// ErrLinkUnavailable means the web-search capability itself failed, as
// opposed to a search that legitimately found nothing.
var ErrLinkUnavailable = errors.New("booking link search unavailable")

const tavilySearchURL = "https://api.tavily.com/search"

// TavilyClient looks up a best-effort booking link for an offer via web
// search. Calls are rate limited and carry their own timeout through the
// http client so a slow search cannot stall enrichment.
type TavilyClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewTavilyClient(cfg *config.Config) *TavilyClient {
	return &TavilyClient{
		apiKey:  cfg.TavilyAPIKey,
		baseURL: tavilySearchURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(3), 5),
	}
}

type tavilySearchRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilySearchResponse struct {
	Results []struct {
		URL string `json:"url"`
	} `json:"results"`
}

// BookingLink searches for a booking page for the offer's route and date.
// ("", nil) means the search ran but found nothing; ErrLinkUnavailable
// means it could not run.
func (c *TavilyClient) BookingLink(ctx context.Context, offer FlightOffer) (string, error) {
	if c.apiKey == "" {
		return "", ErrLinkUnavailable
	}
	if len(offer.Itineraries) == 0 || len(offer.Itineraries[0].Segments) == 0 {
		return "", nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrLinkUnavailable, err)
	}

	segments := offer.Itineraries[0].Segments
	origin := segments[0].Departure.IataCode
	destination := segments[len(segments)-1].Arrival.IataCode
	date, _, _ := strings.Cut(segments[0].Departure.At, "T")

	payload, err := json.Marshal(tavilySearchRequest{
		APIKey:     c.apiKey,
		Query:      fmt.Sprintf("book flight %s to %s on %s", origin, destination, date),
		MaxResults: 3,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLinkUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLinkUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLinkUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrLinkUnavailable, resp.StatusCode)
	}

	var result tavilySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrLinkUnavailable, err)
	}
	if len(result.Results) == 0 {
		return "", nil
	}
	return result.Results[0].URL, nil
}
