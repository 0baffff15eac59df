package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/vaxpoint/bookings/internal/domain"
	mw "github.com/vaxpoint/bookings/internal/http/middleware"
	"github.com/vaxpoint/bookings/internal/http/response"
	"github.com/vaxpoint/bookings/internal/slots"
)

type availableSlotsResponse struct {
	Date           string   `json:"date"`
	AvailableSlots []string `json:"available_slots"`
}

// AvailableSlots returns the open slot labels for a date
func (h *Handlers) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		response.BadRequest(w, "date query parameter is required")
		return
	}

	date, err := slots.ParseDate(raw)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	open, err := h.bookingService.AvailableSlots(r.Context(), date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, availableSlotsResponse{
		Date:           slots.FormatDate(date),
		AvailableSlots: open,
	})
}

// CreateBooking registers a slot for the authenticated user
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	claims := mw.GetClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req domain.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	date, err := slots.ParseDate(req.Date)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	booking, err := h.bookingService.Book(r.Context(), claims.Phone, date, req.Time)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking.ToDTO())
}

// RescheduleBooking moves the authenticated user's slot
func (h *Handlers) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	claims := mw.GetClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req domain.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	date, err := slots.ParseDate(req.Date)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	booking, err := h.bookingService.Reschedule(r.Context(), claims.Phone, date, req.Time)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, booking.ToDTO())
}

// MyBooking returns the authenticated user's current booking
func (h *Handlers) MyBooking(w http.ResponseWriter, r *http.Request) {
	claims := mw.GetClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	booking, err := h.bookingService.BookingForUser(r.Context(), claims.Phone)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, booking.ToDTO())
}
