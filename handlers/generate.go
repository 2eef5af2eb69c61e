package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"flightmate/database"
	"flightmate/services"
)

type GenerateRequest struct {
	SearchID            string `json:"search_id" binding:"required"`
	SelectedFlightIndex int    `json:"selected_flight_index"`
	TravelerName        string `json:"traveler_name"`
}

type GenerateResponse struct {
	ItineraryID string `json:"itinerary_id"`
	PDFURL      string `json:"pdf_url"`
	Message     string `json:"message"`
}

// GenerateHandler renders the selected shortlisted offer into a PDF
// itinerary and stores the bytes alongside the search.
func (h *Handler) GenerateHandler(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	search, err := h.Store.GetSearch(req.SearchID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Search not found"})
		return
	}

	itinerary, err := h.Store.GetItineraryBySearchID(req.SearchID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Itinerary data not found"})
		return
	}

	var flights []services.EnhancedFlightOffer
	if err := json.Unmarshal([]byte(itinerary.FlightsJSON), &flights); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse stored flight data"})
		return
	}
	if len(flights) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No flights stored for this search"})
		return
	}

	if req.SelectedFlightIndex < 0 || req.SelectedFlightIndex >= len(flights) {
		req.SelectedFlightIndex = 0
	}

	pdfBytes, err := services.GeneratePDFBytes(services.PDFData{
		TravelerName: req.TravelerName,
		Origin:       search.Origin,
		Destination:  search.Destination,
		TravelDate:   search.TravelDate,
		ReturnDate:   search.ReturnDate,
		Offer:        flights[req.SelectedFlightIndex],
	})
	if err != nil {
		log.Printf("❌ PDF generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF"})
		return
	}

	newID := uuid.New().String()
	if err := h.Store.SaveItinerary(&database.Itinerary{
		ID:           newID,
		SearchID:     req.SearchID,
		FlightsJSON:  itinerary.FlightsJSON,
		BusiestJSON:  itinerary.BusiestJSON,
		PDFData:      pdfBytes,
		TravelerName: req.TravelerName,
	}); err != nil {
		log.Printf("❌ Failed to save itinerary with PDF: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save generated PDF"})
		return
	}

	log.Printf("✅ PDF generated for itinerary %s (%d bytes)", newID, len(pdfBytes))

	c.JSON(http.StatusOK, GenerateResponse{
		ItineraryID: newID,
		PDFURL:      "/api/download/" + newID,
		Message:     "PDF generated successfully",
	})
}
