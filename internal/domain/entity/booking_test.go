package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSplitFee(t *testing.T) {
	rate := decimal.RequireFromString("0.10")

	cases := []struct {
		name       string
		fee        string
		earning    string
		commission string
	}{
		{"round fee", "1000", "900", "100"},
		{"fee with cents", "99.99", "89.99", "10.00"},
		{"tiny fee", "0.01", "0.01", "0.00"},
		{"rounding remainder goes to doctor", "33.33", "30.00", "3.33"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fee := decimal.RequireFromString(tc.fee)
			earning, commission := SplitFee(fee, rate)

			if !earning.Equal(decimal.RequireFromString(tc.earning)) {
				t.Errorf("earning = %s, want %s", earning, tc.earning)
			}
			if !commission.Equal(decimal.RequireFromString(tc.commission)) {
				t.Errorf("commission = %s, want %s", commission, tc.commission)
			}
			if !earning.Add(commission).Equal(fee) {
				t.Errorf("earning + commission = %s, want %s", earning.Add(commission), fee)
			}
		})
	}
}

func TestGrossFee(t *testing.T) {
	b := &Booking{
		DoctorEarning:    decimal.RequireFromString("900"),
		CommissionAmount: decimal.RequireFromString("100"),
	}
	if !b.GrossFee().Equal(decimal.RequireFromString("1000")) {
		t.Errorf("GrossFee() = %s, want 1000", b.GrossFee())
	}
}

func TestStartsAtEndsAt(t *testing.T) {
	b := &Booking{
		AppointmentDate: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		SlotStart:       "09:30",
		SlotEnd:         "10:00",
	}

	startsAt, err := b.StartsAt()
	if err != nil {
		t.Fatalf("StartsAt() error = %v", err)
	}
	want := time.Date(2026, 9, 15, 9, 30, 0, 0, time.UTC)
	if !startsAt.Equal(want) {
		t.Errorf("StartsAt() = %v, want %v", startsAt, want)
	}

	endsAt, err := b.EndsAt()
	if err != nil {
		t.Fatalf("EndsAt() error = %v", err)
	}
	want = time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC)
	if !endsAt.Equal(want) {
		t.Errorf("EndsAt() = %v, want %v", endsAt, want)
	}
}

func TestStartsAtInvalidSlot(t *testing.T) {
	b := &Booking{
		AppointmentDate: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		SlotStart:       "not-a-time",
	}
	if _, err := b.StartsAt(); err == nil {
		t.Error("StartsAt() expected error for invalid slot time")
	}
}

func TestBookingStatePredicates(t *testing.T) {
	b := &Booking{Status: BookingStatusUpcoming}
	if !b.IsUpcoming() || b.IsCancelled() || b.IsCompleted() {
		t.Error("upcoming booking reported wrong state")
	}

	b.Status = BookingStatusCancelled
	if b.IsUpcoming() || !b.IsCancelled() {
		t.Error("cancelled booking reported wrong state")
	}

	b.Status = BookingStatusCompleted
	if b.IsUpcoming() || !b.IsCompleted() {
		t.Error("completed booking reported wrong state")
	}
}
