package handler

import (
	"encoding/json"
	"net/http"

	"docpoint/internal/delivery/dto"
	"docpoint/internal/usecase"
	"docpoint/pkg/response"
	"docpoint/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type BookingHandler struct {
	bookingUsecase usecase.BookingUsecase
	validator      *validator.CustomValidator
}

func NewBookingHandler(bookingUsecase usecase.BookingUsecase, validator *validator.CustomValidator) *BookingHandler {
	return &BookingHandler{
		bookingUsecase: bookingUsecase,
		validator:      validator,
	}
}

// BookWithWallet handles booking an appointment paid from the wallet
// @Summary Book an appointment using wallet balance
// @Tags Bookings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.BookWithWalletRequest true "Booking Request"
// @Success 201 {object} response.Response
// @Failure 402 {object} response.Response
// @Router /bookings/wallet [post]
func (h *BookingHandler) BookWithWallet(w http.ResponseWriter, r *http.Request) {
	var req dto.BookWithWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	booking, err := h.bookingUsecase.BookWithWallet(r.Context(), &req)
	if err != nil {
		switch err {
		case usecase.ErrInvalidAmount, usecase.ErrInvalidDateFormat, usecase.ErrInvalidSlot:
			response.Error(w, http.StatusBadRequest, err.Error(), nil)
		case usecase.ErrDoctorNotFound:
			response.NotFound(w, "Doctor not found")
		case usecase.ErrSlotTaken:
			response.Error(w, http.StatusConflict, err.Error(), nil)
		case usecase.ErrInsufficientBalance:
			response.Error(w, http.StatusPaymentRequired, err.Error(), nil)
		default:
			response.InternalServerError(w, "Failed to create booking")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Booking created successfully", booking)
}

// CancelBooking handles cancelling an upcoming booking
// @Summary Cancel a booking and refund the full fee to the patient wallet
// @Tags Bookings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.CancelBookingRequest true "Cancel Request"
// @Success 200 {object} response.Response
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	var req dto.CancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	if err := h.bookingUsecase.CancelBooking(r.Context(), bookingID, req.Reason); err != nil {
		switch err {
		case usecase.ErrBookingNotFound:
			response.NotFound(w, "Booking not found")
		case usecase.ErrBookingNotOwned:
			response.Forbidden(w, err.Error())
		case usecase.ErrBookingNotUpcoming, usecase.ErrAppointmentStarted:
			response.Error(w, http.StatusConflict, err.Error(), nil)
		default:
			response.InternalServerError(w, "Failed to cancel booking")
		}
		return
	}

	response.Success(w, http.StatusOK, "Booking cancelled and refunded", nil)
}

// CompleteBooking handles marking a finished appointment as completed
// @Summary Mark an appointment as completed
// @Tags Bookings
// @Security BearerAuth
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Response
// @Router /bookings/{id}/complete [post]
func (h *BookingHandler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	if err := h.bookingUsecase.CompleteBooking(r.Context(), bookingID); err != nil {
		switch err {
		case usecase.ErrBookingNotFound:
			response.NotFound(w, "Booking not found")
		case usecase.ErrBookingNotOwned:
			response.Forbidden(w, err.Error())
		case usecase.ErrBookingNotUpcoming, usecase.ErrAppointmentNotFinished:
			response.Error(w, http.StatusConflict, err.Error(), nil)
		default:
			response.InternalServerError(w, "Failed to complete booking")
		}
		return
	}

	response.Success(w, http.StatusOK, "Booking completed successfully", nil)
}

// GetMyBookings handles listing the authenticated patient's bookings
// @Summary List my bookings
// @Tags Bookings
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /bookings [get]
func (h *BookingHandler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookingUsecase.GetMyBookings(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to get bookings")
		return
	}

	response.Success(w, http.StatusOK, "Bookings retrieved successfully", bookings)
}

// GetDoctorBookings handles listing the authenticated doctor's bookings
// @Summary List bookings for my schedule
// @Tags Bookings
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /doctor/bookings [get]
func (h *BookingHandler) GetDoctorBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookingUsecase.GetDoctorBookings(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to get bookings")
		return
	}

	response.Success(w, http.StatusOK, "Bookings retrieved successfully", bookings)
}
