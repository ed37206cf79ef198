package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"docpoint/internal/delivery/dto"
	"docpoint/internal/delivery/http/middleware"
	"docpoint/internal/domain/entity"
	"docpoint/internal/domain/repository"
	"docpoint/internal/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"
)

// Test doubles. The usecases thread *gorm.DB into every repository call, so
// the stubs simply ignore it and keep their state in memory.

type stubBookingRepo struct {
	bookings    map[uuid.UUID]*entity.Booking
	createErr   error
	overlapping *entity.Booking
	cancelRows  int64
	paidOut     []uuid.UUID
}

func newStubBookingRepo() *stubBookingRepo {
	return &stubBookingRepo{bookings: map[uuid.UUID]*entity.Booking{}, cancelRows: 1}
}

func (s *stubBookingRepo) Create(db *gorm.DB, booking *entity.Booking) error {
	if s.createErr != nil {
		return s.createErr
	}
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	copied := *booking
	s.bookings[booking.ID] = &copied
	return nil
}

func (s *stubBookingRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *b
	return &copied, nil
}

func (s *stubBookingRepo) FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Booking, error) {
	var out []entity.Booking
	for _, b := range s.bookings {
		if b.PatientID == patientID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubBookingRepo) FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Booking, error) {
	var out []entity.Booking
	for _, b := range s.bookings {
		if b.DoctorID == doctorID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubBookingRepo) Cancel(db *gorm.DB, id uuid.UUID, reason string) (int64, error) {
	b, ok := s.bookings[id]
	if !ok || b.Status != entity.BookingStatusUpcoming || s.cancelRows == 0 {
		return 0, nil
	}
	b.Status = entity.BookingStatusCancelled
	b.CancellationReason = &reason
	return 1, nil
}

func (s *stubBookingRepo) Complete(db *gorm.DB, id uuid.UUID) (int64, error) {
	b, ok := s.bookings[id]
	if !ok || b.Status != entity.BookingStatusUpcoming {
		return 0, nil
	}
	b.Status = entity.BookingStatusCompleted
	return 1, nil
}

func (s *stubBookingRepo) UpdateRefundStatus(db *gorm.DB, id uuid.UUID, status entity.RefundStatus) error {
	if b, ok := s.bookings[id]; ok {
		b.RefundStatus = status
	}
	return nil
}

func (s *stubBookingRepo) MarkPayoutPaid(db *gorm.DB, ids []uuid.UUID) error {
	s.paidOut = append(s.paidOut, ids...)
	for _, id := range ids {
		if b, ok := s.bookings[id]; ok {
			b.PayoutStatus = entity.PayoutStatusPaid
		}
	}
	return nil
}

func (s *stubBookingRepo) FindPendingPayoutsByDoctor(db *gorm.DB, doctorID uuid.UUID) ([]entity.Booking, error) {
	var out []entity.Booking
	for _, b := range s.bookings {
		if b.DoctorID == doctorID && b.Status == entity.BookingStatusCompleted && b.PayoutStatus == entity.PayoutStatusPending {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubBookingRepo) FindOverlapping(db *gorm.DB, doctorID uuid.UUID, date time.Time, slotStart, slotEnd string) (*entity.Booking, error) {
	return s.overlapping, nil
}

type walletMove struct {
	partyID uuid.UUID
	amount  decimal.Decimal
	entry   repository.WalletEntry
}

type stubWalletRepo struct {
	balances map[uuid.UUID]decimal.Decimal
	entries  map[uuid.UUID][]entity.WalletTransaction
	credits  []walletMove
	debits   []walletMove
}

func newStubWalletRepo() *stubWalletRepo {
	return &stubWalletRepo{
		balances: map[uuid.UUID]decimal.Decimal{},
		entries:  map[uuid.UUID][]entity.WalletTransaction{},
	}
}

func (s *stubWalletRepo) append(partyID uuid.UUID, txType entity.TransactionType, amount decimal.Decimal, entry repository.WalletEntry) {
	owner := partyID
	s.entries[partyID] = append(s.entries[partyID], entity.WalletTransaction{
		ID:          uuid.New(),
		Scope:       entity.WalletScopeParty,
		PartyID:     &owner,
		Type:        txType,
		Amount:      amount,
		UserID:      entry.UserID,
		DoctorID:    entry.DoctorID,
		BookingID:   entry.BookingID,
		Description: entry.Description,
	})
}

func (s *stubWalletRepo) Credit(db *gorm.DB, partyID uuid.UUID, amount decimal.Decimal, entry repository.WalletEntry) error {
	s.balances[partyID] = s.balances[partyID].Add(amount)
	s.append(partyID, entity.TransactionTypeCredit, amount, entry)
	s.credits = append(s.credits, walletMove{partyID, amount, entry})
	return nil
}

func (s *stubWalletRepo) DebitIfSufficient(db *gorm.DB, partyID uuid.UUID, amount decimal.Decimal, entry repository.WalletEntry) (bool, error) {
	if s.balances[partyID].LessThan(amount) {
		return false, nil
	}
	s.balances[partyID] = s.balances[partyID].Sub(amount)
	s.append(partyID, entity.TransactionTypeDebit, amount, entry)
	s.debits = append(s.debits, walletMove{partyID, amount, entry})
	return true, nil
}

func (s *stubWalletRepo) Balance(db *gorm.DB, partyID uuid.UUID) (decimal.Decimal, error) {
	return s.balances[partyID], nil
}

func (s *stubWalletRepo) CountTransactions(db *gorm.DB, partyID uuid.UUID) (int64, error) {
	return int64(len(s.entries[partyID])), nil
}

func (s *stubWalletRepo) FindTransactions(db *gorm.DB, partyID uuid.UUID, page, limit int) ([]entity.WalletTransaction, int64, error) {
	return s.entries[partyID], int64(len(s.entries[partyID])), nil
}

type stubAdminWalletRepo struct {
	balance decimal.Decimal
	entries []entity.WalletTransaction
	credits []walletMove
	debits  []walletMove
	err     error
}

func (s *stubAdminWalletRepo) append(txType entity.TransactionType, amount decimal.Decimal, entry repository.WalletEntry) {
	s.entries = append(s.entries, entity.WalletTransaction{
		ID:          uuid.New(),
		Scope:       entity.WalletScopeAdmin,
		Type:        txType,
		Amount:      amount,
		UserID:      entry.UserID,
		DoctorID:    entry.DoctorID,
		BookingID:   entry.BookingID,
		Description: entry.Description,
	})
}

func (s *stubAdminWalletRepo) Credit(db *gorm.DB, amount decimal.Decimal, entry repository.WalletEntry) error {
	if s.err != nil {
		return s.err
	}
	s.balance = s.balance.Add(amount)
	s.append(entity.TransactionTypeCredit, amount, entry)
	s.credits = append(s.credits, walletMove{amount: amount, entry: entry})
	return nil
}

func (s *stubAdminWalletRepo) Debit(db *gorm.DB, amount decimal.Decimal, entry repository.WalletEntry) error {
	if s.err != nil {
		return s.err
	}
	s.balance = s.balance.Sub(amount)
	s.append(entity.TransactionTypeDebit, amount, entry)
	s.debits = append(s.debits, walletMove{amount: amount, entry: entry})
	return nil
}

func (s *stubAdminWalletRepo) Get(db *gorm.DB) (*entity.AdminWallet, error) {
	return &entity.AdminWallet{ID: entity.AdminWalletID, TotalBalance: s.balance}, nil
}

func (s *stubAdminWalletRepo) CountTransactions(db *gorm.DB) (int64, error) {
	return int64(len(s.entries)), nil
}

func (s *stubAdminWalletRepo) FindTransactions(db *gorm.DB, page, limit int) ([]entity.WalletTransaction, int64, error) {
	return s.entries, int64(len(s.entries)), nil
}

type stubUserRepo struct {
	users map[uuid.UUID]*entity.User
	err   error
}

func (s *stubUserRepo) Create(db *gorm.DB, user *entity.User) error { return nil }

func (s *stubUserRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.users[id], nil
}

func (s *stubUserRepo) FindByEmail(db *gorm.DB, email string) (*entity.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

type stubDoctorRepo struct {
	profiles map[uuid.UUID]*entity.DoctorProfile
}

func (s *stubDoctorRepo) Create(db *gorm.DB, profile *entity.DoctorProfile) error { return nil }

func (s *stubDoctorRepo) FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	return s.profiles[userID], nil
}

func (s *stubDoctorRepo) SetVerified(db *gorm.DB, userID uuid.UUID, verified bool) error {
	return nil
}

type stubReplayGuard struct {
	mu       sync.Mutex
	claimed  map[string]bool
	released []string
}

func newStubReplayGuard() *stubReplayGuard {
	return &stubReplayGuard{claimed: map[string]bool{}}
}

func (s *stubReplayGuard) Claim(ctx context.Context, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimed[reference] {
		return service.ErrDuplicateDelivery
	}
	s.claimed[reference] = true
	return nil
}

func (s *stubReplayGuard) Release(ctx context.Context, reference string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claimed, reference)
	s.released = append(s.released, reference)
}

type stubAuditService struct {
	actions []string
	actors  []*uuid.UUID
}

func (s *stubAuditService) Record(db *gorm.DB, userID *uuid.UUID, action string, metadata entity.JSON) {
	s.actions = append(s.actions, action)
	s.actors = append(s.actors, userID)
}

type stubNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (s *stubNotifier) Send(to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to)
	return nil
}

// Fixture wiring

type bookingFixture struct {
	usecase     *bookingUsecase
	bookingRepo *stubBookingRepo
	walletRepo  *stubWalletRepo
	adminRepo   *stubAdminWalletRepo
	userRepo    *stubUserRepo
	doctorRepo  *stubDoctorRepo
	replayGuard *stubReplayGuard
	audit       *stubAuditService
	patientID   uuid.UUID
	doctorID    uuid.UUID
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open dummy db: %v", err)
	}
	return db
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	patientID := uuid.New()
	doctorID := uuid.New()

	f := &bookingFixture{
		bookingRepo: newStubBookingRepo(),
		walletRepo:  newStubWalletRepo(),
		adminRepo:   &stubAdminWalletRepo{},
		userRepo: &stubUserRepo{users: map[uuid.UUID]*entity.User{
			patientID: {ID: patientID, Email: "patient@example.com", FullName: "Pat Example", RoleID: entity.RoleIDPatient},
			doctorID:  {ID: doctorID, Email: "doctor@example.com", FullName: "Dr. House", RoleID: entity.RoleIDDoctor},
		}},
		doctorRepo: &stubDoctorRepo{profiles: map[uuid.UUID]*entity.DoctorProfile{
			doctorID: {UserID: doctorID, Specialization: "cardiology", User: entity.User{ID: doctorID, FullName: "Dr. House"}},
		}},
		replayGuard: newStubReplayGuard(),
		audit:       &stubAuditService{},
		patientID:   patientID,
		doctorID:    doctorID,
	}

	u := NewBookingUsecase(
		testDB(t),
		testLogger(),
		decimal.RequireFromString("0.10"),
		f.bookingRepo,
		f.walletRepo,
		f.adminRepo,
		f.userRepo,
		f.doctorRepo,
		f.replayGuard,
		f.audit,
		&stubNotifier{},
	)
	f.usecase = u.(*bookingUsecase)
	return f
}

func patientContext(f *bookingFixture) context.Context {
	ctx := context.WithValue(context.Background(), middleware.UserIDKey, f.patientID)
	return context.WithValue(ctx, middleware.RoleIDKey, entity.RoleIDPatient)
}

func doctorContext(f *bookingFixture) context.Context {
	ctx := context.WithValue(context.Background(), middleware.UserIDKey, f.doctorID)
	return context.WithValue(ctx, middleware.RoleIDKey, entity.RoleIDDoctor)
}

func paymentNotification(f *bookingFixture) *dto.PaymentNotification {
	return &dto.PaymentNotification{
		ExternalReference: "pay_abc123",
		DoctorID:          f.doctorID.String(),
		UserID:            f.patientID.String(),
		Date:              "2026-09-15",
		SlotStart:         "09:00",
		SlotEnd:           "09:30",
		Fee:               "1000",
	}
}

// CreateBookingFromPayment

func TestCreateBookingFromPayment(t *testing.T) {
	f := newBookingFixture(t)

	resp, err := f.usecase.CreateBookingFromPayment(context.Background(), paymentNotification(f))
	if err != nil {
		t.Fatalf("CreateBookingFromPayment() error = %v", err)
	}

	if !resp.DoctorEarning.Equal(decimal.RequireFromString("900")) {
		t.Errorf("doctor earning = %s, want 900", resp.DoctorEarning)
	}
	if !resp.CommissionAmount.Equal(decimal.RequireFromString("100")) {
		t.Errorf("commission = %s, want 100", resp.CommissionAmount)
	}
	if resp.TransactionID == nil || *resp.TransactionID != "pay_abc123" {
		t.Errorf("transaction id not stored on booking")
	}
	if resp.PaymentStatus != string(entity.PaymentStatusPaid) {
		t.Errorf("payment status = %s, want paid", resp.PaymentStatus)
	}

	// The admin wallet receives the gross fee, before the split.
	if len(f.adminRepo.credits) != 1 || !f.adminRepo.credits[0].amount.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("admin wallet credits = %+v, want one credit of 1000", f.adminRepo.credits)
	}
}

func TestCreateBookingFromPaymentDuplicateDelivery(t *testing.T) {
	f := newBookingFixture(t)

	if _, err := f.usecase.CreateBookingFromPayment(context.Background(), paymentNotification(f)); err != nil {
		t.Fatalf("first delivery error = %v", err)
	}

	f.bookingRepo.overlapping = nil
	_, err := f.usecase.CreateBookingFromPayment(context.Background(), paymentNotification(f))
	if err != ErrDuplicateTransaction {
		t.Fatalf("second delivery error = %v, want ErrDuplicateTransaction", err)
	}

	if len(f.bookingRepo.bookings) != 1 {
		t.Errorf("bookings = %d, want exactly 1 after replayed delivery", len(f.bookingRepo.bookings))
	}
	if len(f.adminRepo.credits) != 1 {
		t.Errorf("admin credits = %d, want exactly 1 after replayed delivery", len(f.adminRepo.credits))
	}
}

func TestCreateBookingFromPaymentUniqueIndexBackstop(t *testing.T) {
	f := newBookingFixture(t)

	// Replay arrives after the Redis key expired; the unique index on
	// transaction_id is what rejects the insert.
	f.bookingRepo.createErr = &pgconn.PgError{Code: "23505", ConstraintName: "idx_bookings_transaction_id"}

	_, err := f.usecase.CreateBookingFromPayment(context.Background(), paymentNotification(f))
	if err != ErrDuplicateTransaction {
		t.Fatalf("error = %v, want ErrDuplicateTransaction", err)
	}
	if len(f.adminRepo.credits) != 0 {
		t.Errorf("admin wallet credited despite rejected insert")
	}
}

func TestCreateBookingFromPaymentInvalidMetadata(t *testing.T) {
	f := newBookingFixture(t)

	cases := []struct {
		name   string
		mutate func(*dto.PaymentNotification)
	}{
		{"missing reference", func(n *dto.PaymentNotification) { n.ExternalReference = "" }},
		{"bad user id", func(n *dto.PaymentNotification) { n.UserID = "not-a-uuid" }},
		{"bad date", func(n *dto.PaymentNotification) { n.Date = "15/09/2026" }},
		{"inverted slot", func(n *dto.PaymentNotification) { n.SlotStart, n.SlotEnd = "10:00", "09:00" }},
		{"zero fee", func(n *dto.PaymentNotification) { n.Fee = "0" }},
		{"negative fee", func(n *dto.PaymentNotification) { n.Fee = "-50" }},
		{"sub-cent fee", func(n *dto.PaymentNotification) { n.Fee = "100.005" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := paymentNotification(f)
			tc.mutate(n)
			if _, err := f.usecase.CreateBookingFromPayment(context.Background(), n); err != ErrInvalidPaymentMetadata {
				t.Errorf("error = %v, want ErrInvalidPaymentMetadata", err)
			}
		})
	}

	if len(f.bookingRepo.bookings) != 0 || len(f.adminRepo.credits) != 0 {
		t.Error("invalid notification must not create bookings or move money")
	}
}

func TestCreateBookingFromPaymentSlotTakenReleasesGuard(t *testing.T) {
	f := newBookingFixture(t)
	f.bookingRepo.overlapping = &entity.Booking{ID: uuid.New()}

	_, err := f.usecase.CreateBookingFromPayment(context.Background(), paymentNotification(f))
	if err != ErrSlotTaken {
		t.Fatalf("error = %v, want ErrSlotTaken", err)
	}
	if len(f.replayGuard.released) != 1 {
		t.Error("replay guard not released after rejected booking")
	}
}

// BookWithWallet

func TestBookWithWallet(t *testing.T) {
	f := newBookingFixture(t)
	f.walletRepo.balances[f.patientID] = decimal.RequireFromString("1500")

	req := &dto.BookWithWalletRequest{
		DoctorID:  f.doctorID,
		Date:      "2026-09-20",
		SlotStart: "14:00",
		SlotEnd:   "14:30",
		Amount:    "1000",
	}

	resp, err := f.usecase.BookWithWallet(patientContext(f), req)
	if err != nil {
		t.Fatalf("BookWithWallet() error = %v", err)
	}

	if !f.walletRepo.balances[f.patientID].Equal(decimal.RequireFromString("500")) {
		t.Errorf("patient balance = %s, want 500", f.walletRepo.balances[f.patientID])
	}
	if !f.adminRepo.balance.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("admin balance = %s, want 1000", f.adminRepo.balance)
	}
	if !resp.DoctorEarning.Add(resp.CommissionAmount).Equal(decimal.RequireFromString("1000")) {
		t.Errorf("earning + commission = %s, want the full amount",
			resp.DoctorEarning.Add(resp.CommissionAmount))
	}
}

func TestBookWithWalletInsufficientBalance(t *testing.T) {
	f := newBookingFixture(t)
	f.walletRepo.balances[f.patientID] = decimal.RequireFromString("999.99")

	req := &dto.BookWithWalletRequest{
		DoctorID:  f.doctorID,
		Date:      "2026-09-20",
		SlotStart: "14:00",
		SlotEnd:   "14:30",
		Amount:    "1000",
	}

	_, err := f.usecase.BookWithWallet(patientContext(f), req)
	if err != ErrInsufficientBalance {
		t.Fatalf("error = %v, want ErrInsufficientBalance", err)
	}

	if !f.walletRepo.balances[f.patientID].Equal(decimal.RequireFromString("999.99")) {
		t.Errorf("balance mutated on failed debit: %s", f.walletRepo.balances[f.patientID])
	}
	if len(f.bookingRepo.bookings) != 0 {
		t.Error("booking created despite insufficient balance")
	}
	if len(f.adminRepo.credits) != 0 {
		t.Error("admin wallet credited despite insufficient balance")
	}
}

func TestBookWithWalletValidation(t *testing.T) {
	f := newBookingFixture(t)
	f.walletRepo.balances[f.patientID] = decimal.RequireFromString("5000")

	cases := []struct {
		name string
		req  dto.BookWithWalletRequest
		want error
	}{
		{"bad amount", dto.BookWithWalletRequest{DoctorID: f.doctorID, Date: "2026-09-20", SlotStart: "14:00", SlotEnd: "14:30", Amount: "abc"}, ErrInvalidAmount},
		{"zero amount", dto.BookWithWalletRequest{DoctorID: f.doctorID, Date: "2026-09-20", SlotStart: "14:00", SlotEnd: "14:30", Amount: "0"}, ErrInvalidAmount},
		{"sub-cent amount", dto.BookWithWalletRequest{DoctorID: f.doctorID, Date: "2026-09-20", SlotStart: "14:00", SlotEnd: "14:30", Amount: "100.005"}, ErrInvalidAmount},
		{"bad date", dto.BookWithWalletRequest{DoctorID: f.doctorID, Date: "20-09-2026", SlotStart: "14:00", SlotEnd: "14:30", Amount: "100"}, ErrInvalidDateFormat},
		{"bad slot", dto.BookWithWalletRequest{DoctorID: f.doctorID, Date: "2026-09-20", SlotStart: "14:30", SlotEnd: "14:00", Amount: "100"}, ErrInvalidSlot},
		{"unknown doctor", dto.BookWithWalletRequest{DoctorID: uuid.New(), Date: "2026-09-20", SlotStart: "14:00", SlotEnd: "14:30", Amount: "100"}, ErrDoctorNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.usecase.BookWithWallet(patientContext(f), &tc.req); err != tc.want {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
		})
	}

	if len(f.walletRepo.debits) != 0 {
		t.Error("wallet debited by a rejected request")
	}
}

func TestBookWithWalletSlotTaken(t *testing.T) {
	f := newBookingFixture(t)
	f.walletRepo.balances[f.patientID] = decimal.RequireFromString("5000")
	f.bookingRepo.overlapping = &entity.Booking{ID: uuid.New()}

	req := &dto.BookWithWalletRequest{
		DoctorID:  f.doctorID,
		Date:      "2026-09-20",
		SlotStart: "14:00",
		SlotEnd:   "14:30",
		Amount:    "1000",
	}

	if _, err := f.usecase.BookWithWallet(patientContext(f), req); err != ErrSlotTaken {
		t.Fatalf("error = %v, want ErrSlotTaken", err)
	}
	if len(f.walletRepo.debits) != 0 {
		t.Error("wallet debited for a taken slot")
	}
}

// CancelBooking

func upcomingBooking(f *bookingFixture) *entity.Booking {
	booking := &entity.Booking{
		ID:               uuid.New(),
		PatientID:        f.patientID,
		DoctorID:         f.doctorID,
		AppointmentDate:  time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC),
		SlotStart:        "14:00",
		SlotEnd:          "14:30",
		PaymentStatus:    entity.PaymentStatusPaid,
		Status:           entity.BookingStatusUpcoming,
		DoctorEarning:    decimal.RequireFromString("900"),
		CommissionAmount: decimal.RequireFromString("100"),
		PayoutStatus:     entity.PayoutStatusPending,
		RefundStatus:     entity.RefundStatusNotRequired,
	}
	f.bookingRepo.bookings[booking.ID] = booking
	return booking
}

func TestCancelBookingRefundsGrossFee(t *testing.T) {
	f := newBookingFixture(t)
	f.usecase.now = func() time.Time { return time.Date(2026, 9, 20, 10, 0, 0, 0, time.UTC) }
	booking := upcomingBooking(f)

	if err := f.usecase.CancelBooking(patientContext(f), booking.ID, "feeling better"); err != nil {
		t.Fatalf("CancelBooking() error = %v", err)
	}

	// The patient gets back earning + commission, the admin wallet absorbs it.
	if !f.walletRepo.balances[f.patientID].Equal(decimal.RequireFromString("1000")) {
		t.Errorf("patient balance = %s, want 1000", f.walletRepo.balances[f.patientID])
	}
	if !f.adminRepo.balance.Equal(decimal.RequireFromString("-1000")) {
		t.Errorf("admin balance = %s, want -1000", f.adminRepo.balance)
	}

	stored := f.bookingRepo.bookings[booking.ID]
	if stored.Status != entity.BookingStatusCancelled {
		t.Errorf("status = %s, want cancelled", stored.Status)
	}
	if stored.RefundStatus != entity.RefundStatusRefunded {
		t.Errorf("refund status = %s, want refunded", stored.RefundStatus)
	}
	if stored.CancellationReason == nil || *stored.CancellationReason != "feeling better" {
		t.Error("cancellation reason not recorded")
	}
}

func TestCancelBookingByDoctor(t *testing.T) {
	f := newBookingFixture(t)
	f.usecase.now = func() time.Time { return time.Date(2026, 9, 20, 10, 0, 0, 0, time.UTC) }
	booking := upcomingBooking(f)

	if err := f.usecase.CancelBooking(doctorContext(f), booking.ID, "emergency surgery"); err != nil {
		t.Fatalf("CancelBooking() by doctor error = %v", err)
	}

	// Refund still goes to the patient, whoever cancelled.
	if !f.walletRepo.balances[f.patientID].Equal(decimal.RequireFromString("1000")) {
		t.Errorf("patient balance = %s, want 1000", f.walletRepo.balances[f.patientID])
	}
}

func TestCancelBookingNotOwned(t *testing.T) {
	f := newBookingFixture(t)
	f.usecase.now = func() time.Time { return time.Date(2026, 9, 20, 10, 0, 0, 0, time.UTC) }
	booking := upcomingBooking(f)

	stranger := uuid.New()
	ctx := context.WithValue(context.Background(), middleware.UserIDKey, stranger)
	ctx = context.WithValue(ctx, middleware.RoleIDKey, entity.RoleIDPatient)

	if err := f.usecase.CancelBooking(ctx, booking.ID, "not mine"); err != ErrBookingNotOwned {
		t.Fatalf("error = %v, want ErrBookingNotOwned", err)
	}
}

func TestCancelBookingAfterStart(t *testing.T) {
	f := newBookingFixture(t)
	f.usecase.now = func() time.Time { return time.Date(2026, 9, 20, 14, 0, 0, 0, time.UTC) }
	booking := upcomingBooking(f)

	if err := f.usecase.CancelBooking(patientContext(f), booking.ID, "too late"); err != ErrAppointmentStarted {
		t.Fatalf("error = %v, want ErrAppointmentStarted", err)
	}
	if len(f.walletRepo.credits) != 0 {
		t.Error("refund issued for a started appointment")
	}
}

func TestCancelBookingTwiceRefundsOnce(t *testing.T) {
	f := newBookingFixture(t)
	f.usecase.now = func() time.Time { return time.Date(2026, 9, 20, 10, 0, 0, 0, time.UTC) }
	booking := upcomingBooking(f)

	if err := f.usecase.CancelBooking(patientContext(f), booking.ID, "first"); err != nil {
		t.Fatalf("first cancel error = %v", err)
	}
	if err := f.usecase.CancelBooking(patientContext(f), booking.ID, "second"); err != ErrBookingNotUpcoming {
		t.Fatalf("second cancel error = %v, want ErrBookingNotUpcoming", err)
	}

	if len(f.walletRepo.credits) != 1 {
		t.Errorf("refund credits = %d, want exactly 1", len(f.walletRepo.credits))
	}
	if !f.walletRepo.balances[f.patientID].Equal(decimal.RequireFromString("1000")) {
		t.Errorf("patient balance = %s, want 1000 after double cancel", f.walletRepo.balances[f.patientID])
	}
}

func TestCancelBookingLosingRace(t *testing.T) {
	f := newBookingFixture(t)
	f.usecase.now = func() time.Time { return time.Date(2026, 9, 20, 10, 0, 0, 0, time.UTC) }
	booking := upcomingBooking(f)

	// Simulate another request flipping the row between the read and the
	// conditional update.
	f.bookingRepo.cancelRows = 0

	if err := f.usecase.CancelBooking(patientContext(f), booking.ID, "race"); err != ErrBookingNotUpcoming {
		t.Fatalf("error = %v, want ErrBookingNotUpcoming", err)
	}
	if len(f.walletRepo.credits) != 0 {
		t.Error("refund issued by the losing side of a cancel race")
	}
}

func TestCancelBookingEmailLookupFailureIsNonFatal(t *testing.T) {
	f := newBookingFixture(t)
	logger, hook := logrustest.NewNullLogger()
	f.usecase.log = logger
	f.usecase.now = func() time.Time { return time.Date(2026, 9, 20, 10, 0, 0, 0, time.UTC) }
	booking := upcomingBooking(f)

	f.userRepo.err = errors.New("users table offline")

	if err := f.usecase.CancelBooking(patientContext(f), booking.ID, "moving abroad"); err != nil {
		t.Fatalf("CancelBooking() error = %v, email lookup failure must not abort the refund", err)
	}
	if !f.walletRepo.balances[f.patientID].Equal(decimal.RequireFromString("1000")) {
		t.Errorf("patient balance = %s, want 1000", f.walletRepo.balances[f.patientID])
	}

	warned := false
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = true
		}
	}
	if !warned {
		t.Error("failed email lookup left no warning in the log")
	}
}

// CompleteBooking

func TestCompleteBooking(t *testing.T) {
	f := newBookingFixture(t)
	f.usecase.now = func() time.Time { return time.Date(2026, 9, 20, 15, 0, 0, 0, time.UTC) }
	booking := upcomingBooking(f)

	if err := f.usecase.CompleteBooking(doctorContext(f), booking.ID); err != nil {
		t.Fatalf("CompleteBooking() error = %v", err)
	}

	stored := f.bookingRepo.bookings[booking.ID]
	if stored.Status != entity.BookingStatusCompleted {
		t.Errorf("status = %s, want completed", stored.Status)
	}
	if stored.PayoutStatus != entity.PayoutStatusPending {
		t.Errorf("payout status = %s, completion must leave the payout pending", stored.PayoutStatus)
	}
}

func TestCompleteBookingBeforeSlotEnds(t *testing.T) {
	f := newBookingFixture(t)
	f.usecase.now = func() time.Time { return time.Date(2026, 9, 20, 14, 15, 0, 0, time.UTC) }
	booking := upcomingBooking(f)

	if err := f.usecase.CompleteBooking(doctorContext(f), booking.ID); err != ErrAppointmentNotFinished {
		t.Fatalf("error = %v, want ErrAppointmentNotFinished", err)
	}
}

func TestCompleteBookingWrongDoctor(t *testing.T) {
	f := newBookingFixture(t)
	f.usecase.now = func() time.Time { return time.Date(2026, 9, 20, 15, 0, 0, 0, time.UTC) }
	booking := upcomingBooking(f)

	other := uuid.New()
	ctx := context.WithValue(context.Background(), middleware.UserIDKey, other)
	ctx = context.WithValue(ctx, middleware.RoleIDKey, entity.RoleIDDoctor)

	if err := f.usecase.CompleteBooking(ctx, booking.ID); err != ErrBookingNotOwned {
		t.Fatalf("error = %v, want ErrBookingNotOwned", err)
	}
}
