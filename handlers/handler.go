package handlers

import (
	"context"

	"flightmate/database"
	"flightmate/services"
)

// IntentService classifies user messages and writes free-text replies.
type IntentService interface {
	ParseIntent(ctx context.Context, messages []services.ChatMessage) (*services.Intent, error)
	GenerateReply(ctx context.Context, messages []services.ChatMessage) (string, error)
}

// FlightPipeline produces ranked recommendations for a parsed flight intent.
type FlightPipeline interface {
	Run(ctx context.Context, intent *services.Intent) (*services.Result, error)
}

// ConversationStore persists per-session chat history.
type ConversationStore interface {
	Load(ctx context.Context, chatID string) []services.ChatMessage
	Save(ctx context.Context, chatID string, messages []services.ChatMessage)
}

// SearchStore persists searches and itineraries.
type SearchStore interface {
	SaveSearch(search *database.Search) error
	GetSearch(id string) (*database.Search, error)
	SaveItinerary(i *database.Itinerary) error
	GetItinerary(id string) (*database.Itinerary, error)
	GetItineraryBySearchID(searchID string) (*database.Itinerary, error)
	Ping() error
}

// Pinger reports cache liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler carries the request-handling boundary's dependencies. Everything
// is injected; handlers own no client lifecycle.
type Handler struct {
	AI            IntentService
	Pipeline      FlightPipeline
	Conversations ConversationStore
	Store         SearchStore
	Cache         Pinger
}

func New(ai IntentService, pipeline FlightPipeline, conversations ConversationStore, store SearchStore, cachePinger Pinger) *Handler {
	return &Handler{
		AI:            ai,
		Pipeline:      pipeline,
		Conversations: conversations,
		Store:         store,
		Cache:         cachePinger,
	}
}
