package handlers

import (
	"net/http"
	"strconv"

	"github.com/vaxpoint/bookings/internal/domain"
	mw "github.com/vaxpoint/bookings/internal/http/middleware"
	"github.com/vaxpoint/bookings/internal/http/response"
	"github.com/vaxpoint/bookings/internal/slots"
)

type userListResponse struct {
	Total int               `json:"total_in_category"`
	Data  []domain.UserInfo `json:"data"`
}

type bookingListResponse struct {
	Total int                 `json:"total_in_category"`
	Data  []domain.BookingDTO `json:"data"`
}

// ListUsers returns user records matching the query filters (admin only)
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}

	var filter domain.UserFilter
	q := r.URL.Query()
	if v := q.Get("age"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			response.BadRequest(w, "Invalid age parameter")
			return
		}
		filter.Age = &n
	}
	if v := q.Get("pincode"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.BadRequest(w, "Invalid pincode parameter")
			return
		}
		filter.Pincode = &n
	}
	if v := q.Get("vaccination_status"); v != "" {
		st, ok := domain.ParseVaccinationStatus(v)
		if !ok {
			response.BadRequest(w, "Invalid vaccination_status parameter")
			return
		}
		filter.VaccinationStatus = &st
	}
	if v := q.Get("role"); v != "" {
		filter.Role = &v
	}

	limit, offset := parsePagination(r)
	users, err := h.authService.ListUsers(r.Context(), caller, filter, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	infos := make([]domain.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, *users[i].ToUserInfo())
	}

	writeJSON(w, http.StatusOK, userListResponse{Total: len(infos), Data: infos})
}

// ListBookings returns booking records matching the query filters (admin only)
func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}

	var filter domain.BookingFilter
	q := r.URL.Query()
	if v := q.Get("date"); v != "" {
		date, err := slots.ParseDate(v)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}
		filter.Date = &date
	}
	if v := q.Get("time"); v != "" {
		if !slots.Contains(v) {
			response.WriteError(w, http.StatusBadRequest, "unknown slot label", response.CodeInvalidSlot)
			return
		}
		filter.Time = &v
	}
	if v := q.Get("dose_type"); v != "" {
		dt := domain.DoseType(v)
		if dt != domain.FirstDose && dt != domain.SecondDose {
			response.BadRequest(w, "Invalid dose_type parameter")
			return
		}
		filter.DoseType = &dt
	}
	if v := q.Get("phone"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.BadRequest(w, "Invalid phone parameter")
			return
		}
		filter.OwnerPhone = &n
	}

	limit, offset := parsePagination(r)
	bookings, err := h.bookingService.ListBookings(r.Context(), caller, filter, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]domain.BookingDTO, 0, len(bookings))
	for i := range bookings {
		dtos = append(dtos, bookings[i].ToDTO())
	}

	writeJSON(w, http.StatusOK, bookingListResponse{Total: len(dtos), Data: dtos})
}

// requireCaller resolves the authenticated claims to a user record.
func (h *Handlers) requireCaller(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	claims := mw.GetClaims(r)
	if claims == nil {
		response.Unauthorized(w, "Authentication required")
		return nil, false
	}

	caller, err := h.authService.GetUser(r.Context(), claims.Phone)
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return caller, true
}
