package usecase

import (
	"context"
	"testing"
	"time"

	"docpoint/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newPayoutUsecase(t *testing.T, f *bookingFixture) PayoutUsecase {
	t.Helper()
	return NewPayoutUsecase(
		testDB(t),
		testLogger(),
		f.bookingRepo,
		f.walletRepo,
		f.adminRepo,
		f.doctorRepo,
		f.audit,
	)
}

func completedBooking(f *bookingFixture, earning string) *entity.Booking {
	booking := &entity.Booking{
		ID:               uuid.New(),
		PatientID:        f.patientID,
		DoctorID:         f.doctorID,
		AppointmentDate:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		SlotStart:        "09:00",
		SlotEnd:          "09:30",
		PaymentStatus:    entity.PaymentStatusPaid,
		Status:           entity.BookingStatusCompleted,
		DoctorEarning:    decimal.RequireFromString(earning),
		CommissionAmount: decimal.RequireFromString("10"),
		PayoutStatus:     entity.PayoutStatusPending,
	}
	f.bookingRepo.bookings[booking.ID] = booking
	return booking
}

func TestPayoutDoctor(t *testing.T) {
	f := newBookingFixture(t)
	u := newPayoutUsecase(t, f)

	first := completedBooking(f, "900")
	second := completedBooking(f, "450")

	resp, err := u.PayoutDoctor(patientContext(f), f.doctorID)
	if err != nil {
		t.Fatalf("PayoutDoctor() error = %v", err)
	}

	if !resp.TotalAmount.Equal(decimal.RequireFromString("1350")) {
		t.Errorf("total = %s, want 1350", resp.TotalAmount)
	}
	if len(resp.BookingIDs) != 2 {
		t.Errorf("booking ids = %d, want 2", len(resp.BookingIDs))
	}

	// Money moves once each way: admin debit and doctor credit for the same
	// total.
	if len(f.adminRepo.debits) != 1 || !f.adminRepo.debits[0].amount.Equal(resp.TotalAmount) {
		t.Errorf("admin debits = %+v, want one debit of %s", f.adminRepo.debits, resp.TotalAmount)
	}
	if !f.walletRepo.balances[f.doctorID].Equal(resp.TotalAmount) {
		t.Errorf("doctor balance = %s, want %s", f.walletRepo.balances[f.doctorID], resp.TotalAmount)
	}

	if f.bookingRepo.bookings[first.ID].PayoutStatus != entity.PayoutStatusPaid {
		t.Error("first booking not marked paid")
	}
	if f.bookingRepo.bookings[second.ID].PayoutStatus != entity.PayoutStatusPaid {
		t.Error("second booking not marked paid")
	}
}

func TestPayoutDoctorSkipsUnfinishedBookings(t *testing.T) {
	f := newBookingFixture(t)
	u := newPayoutUsecase(t, f)

	completedBooking(f, "900")
	upcoming := upcomingBooking(f)

	resp, err := u.PayoutDoctor(patientContext(f), f.doctorID)
	if err != nil {
		t.Fatalf("PayoutDoctor() error = %v", err)
	}

	if !resp.TotalAmount.Equal(decimal.RequireFromString("900")) {
		t.Errorf("total = %s, want 900; upcoming bookings must not be swept in", resp.TotalAmount)
	}
	if f.bookingRepo.bookings[upcoming.ID].PayoutStatus != entity.PayoutStatusPending {
		t.Error("upcoming booking was marked paid")
	}
}

func TestPayoutDoctorNoPending(t *testing.T) {
	f := newBookingFixture(t)
	u := newPayoutUsecase(t, f)

	if _, err := u.PayoutDoctor(patientContext(f), f.doctorID); err != ErrNoPendingPayouts {
		t.Fatalf("error = %v, want ErrNoPendingPayouts", err)
	}
	if len(f.adminRepo.debits) != 0 || len(f.walletRepo.credits) != 0 {
		t.Error("money moved with nothing to pay out")
	}
}

func TestPayoutDoctorUnknownDoctor(t *testing.T) {
	f := newBookingFixture(t)
	u := newPayoutUsecase(t, f)

	if _, err := u.PayoutDoctor(patientContext(f), uuid.New()); err != ErrDoctorNotFound {
		t.Fatalf("error = %v, want ErrDoctorNotFound", err)
	}
}

func TestPayoutDoctorSecondRunFindsNothing(t *testing.T) {
	f := newBookingFixture(t)
	u := newPayoutUsecase(t, f)

	completedBooking(f, "900")

	if _, err := u.PayoutDoctor(patientContext(f), f.doctorID); err != nil {
		t.Fatalf("first payout error = %v", err)
	}
	if _, err := u.PayoutDoctor(patientContext(f), f.doctorID); err != ErrNoPendingPayouts {
		t.Fatalf("second payout error = %v, want ErrNoPendingPayouts", err)
	}
	if !f.walletRepo.balances[f.doctorID].Equal(decimal.RequireFromString("900")) {
		t.Errorf("doctor balance = %s, want 900 after double payout attempt", f.walletRepo.balances[f.doctorID])
	}
}

func TestPayoutDoctorAuditsNilActorOutsideRequestContext(t *testing.T) {
	f := newBookingFixture(t)
	u := newPayoutUsecase(t, f)

	completedBooking(f, "900")

	if _, err := u.PayoutDoctor(context.Background(), f.doctorID); err != nil {
		t.Fatalf("PayoutDoctor() error = %v", err)
	}

	if len(f.audit.actors) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(f.audit.actors))
	}
	if f.audit.actors[0] != nil {
		t.Errorf("audit actor = %v, want nil when no user is in context", f.audit.actors[0])
	}
}
