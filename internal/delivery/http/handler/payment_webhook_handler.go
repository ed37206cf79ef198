package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"docpoint/internal/delivery/dto"
	"docpoint/internal/usecase"
	"docpoint/pkg/response"
)

// PaymentWebhookHandler receives payment gateway notifications. The route is
// unauthenticated; authenticity comes from the HMAC signature header.
type PaymentWebhookHandler struct {
	bookingUsecase usecase.BookingUsecase
	webhookSecret  string
}

func NewPaymentWebhookHandler(bookingUsecase usecase.BookingUsecase, webhookSecret string) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{
		bookingUsecase: bookingUsecase,
		webhookSecret:  webhookSecret,
	}
}

// HandleNotification handles a payment success notification
// @Summary Payment gateway webhook
// @Tags Payments
// @Accept json
// @Produce json
// @Param X-Webhook-Signature header string true "HMAC-SHA256 signature of the raw body"
// @Success 201 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /payments/webhook [post]
func (h *PaymentWebhookHandler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Failed to read request body", nil)
		return
	}

	if !h.verifySignature(body, r.Header.Get("X-Webhook-Signature")) {
		response.Unauthorized(w, "Invalid webhook signature")
		return
	}

	var notification dto.PaymentNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	booking, err := h.bookingUsecase.CreateBookingFromPayment(r.Context(), &notification)
	if err != nil {
		switch err {
		case usecase.ErrInvalidPaymentMetadata:
			response.Error(w, http.StatusBadRequest, err.Error(), nil)
		case usecase.ErrDuplicateTransaction:
			// Acknowledge so the gateway stops retrying a processed payment.
			response.Success(w, http.StatusOK, "Payment already processed", nil)
		case usecase.ErrDoctorNotFound, usecase.ErrPatientNotFound:
			response.NotFound(w, err.Error())
		case usecase.ErrSlotTaken:
			response.Error(w, http.StatusConflict, err.Error(), nil)
		default:
			response.InternalServerError(w, "Failed to process payment notification")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Booking created from payment", booking)
}

func (h *PaymentWebhookHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
