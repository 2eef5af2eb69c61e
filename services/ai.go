package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"flightmate/config"
)

// ErrIntentParse marks model output that failed strict intent decoding.
// Handlers turn it into a clarification message rather than a 500.
var ErrIntentParse = errors.New("intent parse failure")

const (
	intentModel        = openai.GPT4o
	replyModel         = openai.GPT4oMini
	geminiModel        = "gemini-2.0-flash"
	defaultClarifyText = "I'm not sure how to help with that. Could you clarify?"

	replySystemPrompt = "Provide a helpful response or explanation based on the user's query and prior context."

	flightIntentSystemPrompt = `You are a flight search assistant. Based on the user's latest message:
1. If they want flights, extract:
- baseCity (default: "DEL")
- destinationCity (default: "BOM")
- travelDate (default: 7 days from today, YYYY-MM-DD)
- returnDate (optional, default: null, YYYY-MM-DD)
- adults (default: 1)
- children (optional, default: 0)
- infants (optional, default: 0)
- preference (cheapest, speed, convenience, default: balanced)
- budget (default: null, in INR)
- tripDuration (default: null, in days)
- nationality (optional, default: null)
Return JSON: {
  "type": "flight",
  "baseCity": "DEL",
  "destinationCity": "BOM",
  "travelDate": "2025-04-06",
  "returnDate": null,
  "adults": 1,
  "children": 0,
  "infants": 0,
  "preference": "cheapest",
  "budget": 15000,
  "tripDuration": 5,
  "nationality": "IN"
}
2. If they want an explanation, return JSON: {"type": "text", "query": "original user message"}`
)

// AIClient classifies user messages and writes free-text replies. OpenAI is
// the primary provider; any failure there falls over to Gemini with an
// equivalent prompt shape so one provider outage does not take chat down.
type AIClient struct {
	openai       *openai.Client
	geminiAPIKey string
}

func NewAIClient(cfg *config.Config) *AIClient {
	if cfg.OpenAIAPIKey == "" {
		log.Println("⚠️  OPENAI_API_KEY not set — intent parsing will rely on the Gemini fallback")
	}
	return &AIClient{
		openai:       openai.NewClient(cfg.OpenAIAPIKey),
		geminiAPIKey: cfg.GeminiAPIKey,
	}
}

// ParseIntent classifies the conversation's latest turn as a flight request
// or a free-text question.
func (c *AIClient) ParseIntent(ctx context.Context, messages []ChatMessage) (*Intent, error) {
	content, err := c.chatCompletion(ctx, intentModel, flightIntentSystemPrompt, messages, true)
	if err != nil {
		return nil, fmt.Errorf("intent completion: %w", err)
	}
	return decodeIntent(content)
}

// GenerateReply produces the free-text answer for a non-flight turn.
func (c *AIClient) GenerateReply(ctx context.Context, messages []ChatMessage) (string, error) {
	content, err := c.chatCompletion(ctx, replyModel, replySystemPrompt, messages, false)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return defaultClarifyText, nil
	}
	return content, nil
}

func (c *AIClient) chatCompletion(ctx context.Context, model, system string, messages []ChatMessage, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: toOpenAIMessages(system, messages),
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.openai.CreateChatCompletion(ctx, req)
	if err == nil && len(resp.Choices) > 0 {
		return resp.Choices[0].Message.Content, nil
	}
	if err == nil {
		err = errors.New("openai returned no choices")
	}
	log.Printf("⚠️  OpenAI call failed (%v) — falling over to Gemini", err)

	return c.geminiCompletion(ctx, system, messages, jsonMode)
}

func (c *AIClient) geminiCompletion(ctx context.Context, system string, messages []ChatMessage, jsonMode bool) (string, error) {
	if c.geminiAPIKey == "" {
		return "", errors.New("gemini fallback not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.geminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("gemini client: %w", err)
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.RoleUser
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: contentAsString(m.Content)}},
		})
	}

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
	}
	if jsonMode {
		genCfg.ResponseMIMEType = "application/json"
	}

	resp, err := client.Models.GenerateContent(ctx, geminiModel, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}
	return resp.Text(), nil
}

func toOpenAIMessages(system string, messages []ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	out = append(out, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: contentAsString(m.Content),
		})
	}
	return out
}

// contentAsString flattens structured assistant payloads for the model, the
// same way the chat history stores them.
func contentAsString(content any) string {
	if s, ok := content.(string); ok {
		return s
	}
	data, err := json.Marshal(content)
	if err != nil {
		return fmt.Sprint(content)
	}
	return string(data)
}

// decodeIntent strictly validates model output: unknown fields, missing
// required fields, and unparseable dates are all rejected as
// ErrIntentParse instead of leaking undefined values into the pipeline.
func decodeIntent(content string) (*Intent, error) {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.DisallowUnknownFields()

	var intent Intent
	if err := dec.Decode(&intent); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntentParse, err)
	}

	switch intent.Type {
	case IntentText:
		return &intent, nil
	case IntentFlight:
		// validated below
	default:
		return nil, fmt.Errorf("%w: unknown intent type %q", ErrIntentParse, intent.Type)
	}

	if intent.BaseCity == "" || intent.DestinationCity == "" {
		return nil, fmt.Errorf("%w: missing origin or destination city", ErrIntentParse)
	}
	if _, err := time.Parse("2006-01-02", intent.TravelDate); err != nil {
		return nil, fmt.Errorf("%w: bad travel date %q", ErrIntentParse, intent.TravelDate)
	}
	if intent.ReturnDate != "" {
		if _, err := time.Parse("2006-01-02", intent.ReturnDate); err != nil {
			return nil, fmt.Errorf("%w: bad return date %q", ErrIntentParse, intent.ReturnDate)
		}
	}
	if intent.Budget < 0 || intent.Children < 0 || intent.Infants < 0 {
		return nil, fmt.Errorf("%w: negative numeric field", ErrIntentParse)
	}
	if intent.Adults < 1 {
		intent.Adults = 1
	}
	switch intent.Preference {
	case PreferenceCheapest, PreferenceSpeed, PreferenceConvenience, PreferenceBalanced:
	default:
		intent.Preference = PreferenceBalanced
	}
	return &intent, nil
}
