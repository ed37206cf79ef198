package usecase

import (
	"testing"
	"time"

	"docpoint/internal/delivery/dto"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestGetMyWalletSummaryReflectsBookingFlow(t *testing.T) {
	f := newBookingFixture(t)
	f.usecase.now = func() time.Time { return time.Date(2026, 9, 20, 10, 0, 0, 0, time.UTC) }
	w := NewWalletUsecase(testDB(t), testLogger(), f.walletRepo, f.adminRepo, f.audit)

	booking := upcomingBooking(f)
	if err := f.usecase.CancelBooking(patientContext(f), booking.ID, "changed plans"); err != nil {
		t.Fatalf("CancelBooking() error = %v", err)
	}

	summary, err := w.GetMyWalletSummary(patientContext(f))
	if err != nil {
		t.Fatalf("GetMyWalletSummary() error = %v", err)
	}
	if !summary.Balance.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("balance = %s, want 1000 refunded", summary.Balance)
	}

	admin, err := w.GetAdminWalletSummary(patientContext(f))
	if err != nil {
		t.Fatalf("GetAdminWalletSummary() error = %v", err)
	}
	if !admin.Balance.Equal(decimal.RequireFromString("-1000")) {
		t.Errorf("admin balance = %s, refund must be visible on the platform ledger", admin.Balance)
	}
}

func TestTopUpWallet(t *testing.T) {
	f := newBookingFixture(t)
	w := NewWalletUsecase(testDB(t), testLogger(), f.walletRepo, f.adminRepo, f.audit)

	summary, err := w.TopUpWallet(patientContext(f), &dto.TopUpWalletRequest{Amount: "250.50"})
	if err != nil {
		t.Fatalf("TopUpWallet() error = %v", err)
	}
	if !summary.Balance.Equal(decimal.RequireFromString("250.50")) {
		t.Errorf("balance = %s, want 250.50", summary.Balance)
	}

	if _, err := w.TopUpWallet(patientContext(f), &dto.TopUpWalletRequest{Amount: "-5"}); err != ErrInvalidAmount {
		t.Errorf("error = %v, want ErrInvalidAmount", err)
	}
	if !f.walletRepo.balances[f.patientID].Equal(decimal.RequireFromString("250.50")) {
		t.Errorf("balance mutated by rejected top up")
	}
}

// Every credit and debit writes a transaction row, so the tracked balance
// must always equal the signed sum of the ledger for that wallet.
func TestWalletBalancesMatchSignedLedgerSums(t *testing.T) {
	f := newBookingFixture(t)
	f.usecase.now = func() time.Time { return time.Date(2026, 9, 20, 10, 0, 0, 0, time.UTC) }
	w := NewWalletUsecase(testDB(t), testLogger(), f.walletRepo, f.adminRepo, f.audit)
	p := newPayoutUsecase(t, f)

	if _, err := w.TopUpWallet(patientContext(f), &dto.TopUpWalletRequest{Amount: "2000"}); err != nil {
		t.Fatalf("TopUpWallet() error = %v", err)
	}

	resp, err := f.usecase.BookWithWallet(patientContext(f), &dto.BookWithWalletRequest{
		DoctorID:  f.doctorID,
		Date:      "2026-09-20",
		SlotStart: "14:00",
		SlotEnd:   "14:30",
		Amount:    "1000",
	})
	if err != nil {
		t.Fatalf("BookWithWallet() error = %v", err)
	}
	if err := f.usecase.CancelBooking(patientContext(f), resp.ID, "changed plans"); err != nil {
		t.Fatalf("CancelBooking() error = %v", err)
	}

	completedBooking(f, "450")
	if _, err := p.PayoutDoctor(patientContext(f), f.doctorID); err != nil {
		t.Fatalf("PayoutDoctor() error = %v", err)
	}

	for _, partyID := range []uuid.UUID{f.patientID, f.doctorID} {
		entries, _, err := f.walletRepo.FindTransactions(nil, partyID, 1, 100)
		if err != nil {
			t.Fatalf("FindTransactions(%s) error = %v", partyID, err)
		}
		sum := decimal.Zero
		for _, tx := range entries {
			sum = sum.Add(tx.SignedAmount())
		}
		if !sum.Equal(f.walletRepo.balances[partyID]) {
			t.Errorf("party %s: signed ledger sum = %s, balance = %s",
				partyID, sum, f.walletRepo.balances[partyID])
		}
	}

	entries, _, err := f.adminRepo.FindTransactions(nil, 1, 100)
	if err != nil {
		t.Fatalf("admin FindTransactions() error = %v", err)
	}
	sum := decimal.Zero
	for _, tx := range entries {
		sum = sum.Add(tx.SignedAmount())
	}
	if !sum.Equal(f.adminRepo.balance) {
		t.Errorf("admin signed ledger sum = %s, balance = %s", sum, f.adminRepo.balance)
	}
	if !sum.Equal(decimal.RequireFromString("-450")) {
		t.Errorf("admin ledger sum = %s, want -450 after refund and payout", sum)
	}
}
