package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/vaxpoint/bookings/internal/domain"
	"github.com/vaxpoint/bookings/internal/http/response"
	"github.com/vaxpoint/bookings/internal/service"
)

type Handlers struct {
	authService    service.AuthService
	bookingService service.BookingService
}

func New(authService service.AuthService, bookingService service.BookingService) *Handlers {
	return &Handlers{
		authService:    authService,
		bookingService: bookingService,
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeDomainError maps domain rejections to HTTP responses. Store
// failures get a retryable 503; everything else is a terminal outcome.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		response.BadRequest(w, err.Error())
	case errors.Is(err, domain.ErrInvalidSlot):
		response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeInvalidSlot)
	case errors.Is(err, domain.ErrSlotFull):
		response.Conflict(w, err.Error(), response.CodeSlotFull)
	case errors.Is(err, domain.ErrAlreadyBooked):
		response.Conflict(w, err.Error(), response.CodeAlreadyBooked)
	case errors.Is(err, domain.ErrAlreadyVaccinated):
		response.Conflict(w, err.Error(), response.CodeAlreadyVaccinated)
	case errors.Is(err, domain.ErrNotBooked):
		response.WriteError(w, http.StatusNotFound, err.Error(), response.CodeNotBooked)
	case errors.Is(err, domain.ErrRescheduleWindowClosed):
		response.Conflict(w, err.Error(), response.CodeRescheduleWindowClosed)
	case errors.Is(err, domain.ErrUserExists):
		response.Conflict(w, err.Error(), response.CodeConflict)
	case errors.Is(err, domain.ErrUserNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		response.Unauthorized(w, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		response.Forbidden(w, err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		response.StoreUnavailable(w, "Record store is unavailable, try again")
	default:
		response.InternalError(w, "Unexpected error")
	}
}

// parsePagination reads limit/offset query parameters with defaults.
func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
