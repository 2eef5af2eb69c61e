package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PDFData holds everything the itinerary PDF needs: the search parameters
// and the single enhanced offer the traveler picked from the shortlist.
type PDFData struct {
	TravelerName string
	Origin       string
	Destination  string
	TravelDate   string
	ReturnDate   string
	Offer        EnhancedFlightOffer
}

// GeneratePDFBytes renders the itinerary and returns raw bytes (stored in
// the database, no filesystem involved).
func GeneratePDFBytes(data PDFData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	// ── Header Bar ───────────────────────────────────────────
	pdf.SetFillColor(16, 42, 67)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(20, 8)
	pdf.CellFormat(100, 10, "Flightmate", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(120, 200, 255)
	pdf.SetXY(20, 18)
	pdf.CellFormat(170, 6, "Flight Recommendation Itinerary", "", 1, "L", false, 0, "")

	pdf.SetY(35)
	pdf.SetTextColor(0, 0, 0)

	// ── Disclaimer ───────────────────────────────────────────
	pdf.SetFillColor(235, 244, 252)
	pdf.SetDrawColor(120, 200, 255)
	pdf.SetTextColor(30, 80, 120)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetLineWidth(0.4)
	y := pdf.GetY()
	pdf.Rect(20, y, 170, 12, "FD")
	pdf.SetXY(23, y+2)
	pdf.MultiCell(164, 4,
		"This is NOT a booking confirmation. Prices are live quotes at search time and subject to change. Please verify with the airline before booking.",
		"", "C", false)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.2)
	pdf.Ln(6)

	// ── Section Helper ───────────────────────────────────────
	sectionHeader := func(title string) {
		pdf.SetFillColor(16, 42, 67)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(170, 8, "  "+title, "", 1, "L", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	}

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(55, 7, label, "", 0, "L", false, 0, "")
		pdf.SetTextColor(20, 20, 20)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(115, 7, value, "", 1, "L", false, 0, "")
	}

	// ── Traveler Info ─────────────────────────────────────────
	sectionHeader("Traveler Information")
	name := data.TravelerName
	if name == "" {
		name = "Guest Traveler"
	}
	row("Name", name)
	row("Generated", time.Now().Format("02 Jan 2006, 15:04 UTC"))
	pdf.Ln(4)

	// ── Trip Overview ─────────────────────────────────────────
	sectionHeader("Trip Overview")
	route := fmt.Sprintf("%s → %s", data.Origin, data.Destination)
	if data.ReturnDate != "" {
		route = fmt.Sprintf("%s → %s → %s", data.Origin, data.Destination, data.Origin)
	}
	row("Route", route)
	row("Departure", fmtDateReadable(data.TravelDate))
	if data.ReturnDate != "" {
		row("Return", fmtDateReadable(data.ReturnDate))
	}
	pdf.Ln(4)

	// ── Selected Flight ───────────────────────────────────────
	sectionHeader("Selected Flight")
	offer := data.Offer
	if len(offer.Itineraries) > 0 {
		it := offer.Itineraries[0]
		if len(it.Segments) > 0 {
			first := it.Segments[0]
			last := it.Segments[len(it.Segments)-1]
			row("Outbound", formatFlightLeg(first.Departure.At, last.Arrival.At, it.Duration))
			if first.CarrierCode != "" {
				row("Carrier", first.CarrierCode)
			}
		}
		stops := "Direct"
		if n := len(it.Segments) - 1; n > 0 {
			stops = fmt.Sprintf("%d stop(s)", n)
		}
		row("Stops", stops)
	}
	row("Price", fmt.Sprintf("%s %s per person", offer.Price.Total, offer.Price.Currency))
	row("Bookable seats", fmt.Sprintf("%d", offer.NumberOfBookableSeats))
	row("Recommendation", fmt.Sprintf("%d / 5", offer.RecommendationScore))
	pdf.Ln(4)

	// ── Transit & Visa ────────────────────────────────────────
	sectionHeader("Transit & Visa")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(40, 40, 40)
	pdf.MultiCell(170, 5, offer.TransitRoutes, "", "L", false)
	pdf.Ln(1)
	pdf.MultiCell(170, 5, offer.VisaInfo, "", "L", false)
	pdf.Ln(4)

	// ── Why This Flight ───────────────────────────────────────
	sectionHeader("Why This Flight")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(40, 40, 40)
	pdf.MultiCell(170, 5, offer.Reasoning, "", "L", false)
	pdf.Ln(1)
	pdf.MultiCell(170, 5, offer.FamilySoloConsideration, "", "L", false)
	pdf.Ln(1)
	pdf.MultiCell(170, 5, offer.MorningNightComparison, "", "L", false)
	pdf.Ln(4)

	if offer.TavilyBookingLink != "" {
		sectionHeader("Booking")
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(30, 80, 120)
		pdf.MultiCell(170, 5, offer.TavilyBookingLink, "", "L", false)
		pdf.Ln(4)
	}

	// ── Footer ────────────────────────────────────────────────
	pdf.SetY(-22)
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.3)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(150, 150, 150)
	pdf.CellFormat(0, 8,
		"Generated by Flightmate · Not a booking confirmation · Prices subject to change",
		"", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output failed: %w", err)
	}
	return buf.Bytes(), nil
}

func fmtDateReadable(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format("02 Jan 2006 (Mon)")
}

func formatFlightLeg(dep, arr, dur string) string {
	depT, okD := parseFlightTime(dep)
	arrT, okA := parseFlightTime(arr)
	if !okD || !okA {
		if dep != "" && arr != "" {
			return dep + " → " + arr
		}
		return "N/A"
	}
	result := fmt.Sprintf("%s → %s",
		depT.Format("02 Jan 15:04"),
		arrT.Format("02 Jan 15:04"))
	if dur != "" {
		result += fmt.Sprintf(" (%s)", dur)
	}
	return result
}
