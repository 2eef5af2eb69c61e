package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"flightmate/database"
	"flightmate/services"
)

const intentClarifyText = "I couldn't understand that request. Could you try rephrasing it?"

// flexString accepts both a JSON string and a JSON number, since chat
// clients have historically sent chatId either way.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*f = flexString(asString)
		return nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err == nil {
		*f = flexString(asNumber.String())
		return nil
	}
	return fmt.Errorf("chatId must be a string or number, got %s", string(data))
}

type ChatRequest struct {
	Message  string     `json:"message"`
	ChatID   flexString `json:"chatId"`
	ClientID string     `json:"clientId"`
}

type ChatResponse struct {
	Response any `json:"response"`
}

// ChatHandler runs one conversation turn: load history, append the user
// message, classify intent, answer (free text or flight recommendations),
// persist the updated history, respond.
func (h *Handler) ChatHandler(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" || req.ChatID == "" || req.ClientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	ctx := c.Request.Context()
	chatID := string(req.ChatID)

	messages := h.Conversations.Load(ctx, chatID)
	messages = append(messages, services.ChatMessage{Role: "user", Content: req.Message})

	responseData, err := h.processTurn(c, chatID, messages)
	if err != nil {
		log.Printf("❌ Chat turn failed for chat %s: %v", chatID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "details": err.Error()})
		return
	}

	messages = append(messages, services.ChatMessage{Role: "assistant", Content: responseData})
	h.Conversations.Save(ctx, chatID, messages)

	c.JSON(http.StatusOK, ChatResponse{Response: responseData})
}

// processTurn returns the assistant's content for this turn: a string for
// plain replies and clarifications, or a FlightResponse payload.
func (h *Handler) processTurn(c *gin.Context, chatID string, messages []services.ChatMessage) (any, error) {
	ctx := c.Request.Context()

	intent, err := h.AI.ParseIntent(ctx, messages)
	if err != nil {
		if errors.Is(err, services.ErrIntentParse) {
			log.Printf("⚠️  Intent parse failure for chat %s: %v", chatID, err)
			return intentClarifyText, nil
		}
		return nil, err
	}

	if intent.Type == services.IntentText {
		return h.AI.GenerateReply(ctx, messages)
	}

	result, err := h.Pipeline.Run(ctx, intent)
	if err != nil {
		return nil, err
	}
	if result.Message != "" {
		return result.Message, nil
	}

	searchID := h.persistSearch(chatID, intent, result)

	return services.FlightResponse{
		SearchID:               searchID,
		Flights:                result.Flights,
		BusiestTravelingPeriod: result.BusiestTravelingPeriod,
	}, nil
}

// persistSearch records the turn in Postgres so the itinerary endpoints can
// reference it. Persistence failing must not fail the chat turn; the user
// just loses the PDF option for this search.
func (h *Handler) persistSearch(chatID string, intent *services.Intent, result *services.Result) string {
	searchID := uuid.New().String()
	if err := h.Store.SaveSearch(&database.Search{
		ID:          searchID,
		ChatID:      chatID,
		Origin:      intent.BaseCity,
		Destination: intent.DestinationCity,
		TravelDate:  intent.TravelDate,
		ReturnDate:  intent.ReturnDate,
		Adults:      intent.Adults,
		Children:    intent.Children,
		Infants:     intent.Infants,
		Preference:  intent.Preference,
		Budget:      intent.Budget,
	}); err != nil {
		log.Printf("⚠️  Failed to save search: %v", err)
		return ""
	}

	flightsJSON, _ := json.Marshal(result.Flights)
	busiestJSON, _ := json.Marshal(result.BusiestTravelingPeriod)
	if err := h.Store.SaveItinerary(&database.Itinerary{
		ID:          uuid.New().String(),
		SearchID:    searchID,
		FlightsJSON: string(flightsJSON),
		BusiestJSON: string(busiestJSON),
	}); err != nil {
		log.Printf("⚠️  Failed to save itinerary: %v", err)
		return ""
	}
	return searchID
}

// HealthHandler reports dependency liveness.
func (h *Handler) HealthHandler(c *gin.Context) {
	dbStatus := "ok"
	if h.Store == nil {
		dbStatus = "not initialized"
	} else if err := h.Store.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
	}

	cacheStatus := "ok"
	if h.Cache == nil {
		cacheStatus = "not initialized"
	} else if err := h.Cache.Ping(c.Request.Context()); err != nil {
		cacheStatus = "error: " + err.Error()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"service":  "Flightmate API",
		"database": dbStatus,
		"cache":    cacheStatus,
	})
}
