package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"docpoint/internal/delivery/dto"
	"docpoint/internal/usecase"

	"github.com/google/uuid"
)

type stubBookingUsecase struct {
	usecase.BookingUsecase
	notifications []*dto.PaymentNotification
	err           error
}

func (s *stubBookingUsecase) CreateBookingFromPayment(ctx context.Context, n *dto.PaymentNotification) (*dto.BookingResponse, error) {
	s.notifications = append(s.notifications, n)
	if s.err != nil {
		return nil, s.err
	}
	return &dto.BookingResponse{ID: uuid.New()}, nil
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func webhookRequest(body []byte, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set("X-Webhook-Signature", signature)
	}
	return req
}

func TestHandleNotification(t *testing.T) {
	stub := &stubBookingUsecase{}
	h := NewPaymentWebhookHandler(stub, "topsecret")

	body := []byte(`{"external_reference":"pay_1","doctor_id":"d","user_id":"u","date":"2026-09-15","slot_from":"09:00","slot_to":"09:30","fee":"1000"}`)
	rec := httptest.NewRecorder()

	h.HandleNotification(rec, webhookRequest(body, sign("topsecret", body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if len(stub.notifications) != 1 || stub.notifications[0].ExternalReference != "pay_1" {
		t.Errorf("notification not forwarded to the orchestrator")
	}
}

func TestHandleNotificationRejectsBadSignature(t *testing.T) {
	stub := &stubBookingUsecase{}
	h := NewPaymentWebhookHandler(stub, "topsecret")

	body := []byte(`{"external_reference":"pay_1"}`)

	cases := []struct {
		name      string
		signature string
	}{
		{"missing", ""},
		{"wrong secret", sign("othersecret", body)},
		{"garbage", "deadbeef"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HandleNotification(rec, webhookRequest(body, tc.signature))

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}

	if len(stub.notifications) != 0 {
		t.Error("unsigned notification reached the orchestrator")
	}
}

func TestHandleNotificationDuplicateAcknowledged(t *testing.T) {
	stub := &stubBookingUsecase{err: usecase.ErrDuplicateTransaction}
	h := NewPaymentWebhookHandler(stub, "topsecret")

	body := []byte(`{"external_reference":"pay_1"}`)
	rec := httptest.NewRecorder()

	h.HandleNotification(rec, webhookRequest(body, sign("topsecret", body)))

	// 200 keeps the gateway from retrying a payment we already booked.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
