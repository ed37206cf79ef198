package http

import (
	"net/http"

	"docpoint/internal/delivery/http/handler"
	"docpoint/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router         *mux.Router
	authHandler    *handler.AuthHandler
	bookingHandler *handler.BookingHandler
	paymentHandler *handler.PaymentWebhookHandler
	walletHandler  *handler.WalletHandler
	adminHandler   *handler.AdminHandler
	authMiddleware *middleware.AuthMiddleware
	corsMiddleware *middleware.CORSMiddleware
}

func NewRouter(
	authHandler *handler.AuthHandler,
	bookingHandler *handler.BookingHandler,
	paymentHandler *handler.PaymentWebhookHandler,
	walletHandler *handler.WalletHandler,
	adminHandler *handler.AdminHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:         mux.NewRouter(),
		authHandler:    authHandler,
		bookingHandler: bookingHandler,
		paymentHandler: paymentHandler,
		walletHandler:  walletHandler,
		adminHandler:   adminHandler,
		authMiddleware: authMiddleware,
		corsMiddleware: corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Payment gateway webhook (public, HMAC-verified in the handler)
	api.HandleFunc("/payments/webhook", r.paymentHandler.HandleNotification).Methods(http.MethodPost)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register/patient", r.authHandler.RegisterPatient).Methods(http.MethodPost)
	auth.HandleFunc("/register/doctor", r.authHandler.RegisterDoctor).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)

	// Wallet routes (any authenticated user)
	wallet := api.PathPrefix("/wallet").Subrouter()
	wallet.Use(r.authMiddleware.Authenticate)
	wallet.HandleFunc("", r.walletHandler.GetMyWallet).Methods(http.MethodGet)
	wallet.HandleFunc("/top-up", r.walletHandler.TopUp).Methods(http.MethodPost)
	wallet.HandleFunc("/transactions", r.walletHandler.GetMyWalletTransactions).Methods(http.MethodGet)

	// Booking routes (patient)
	bookings := api.PathPrefix("/bookings").Subrouter()
	bookings.Use(r.authMiddleware.Authenticate)
	bookings.HandleFunc("", r.bookingHandler.GetMyBookings).Methods(http.MethodGet)
	bookings.HandleFunc("/wallet", r.bookingHandler.BookWithWallet).Methods(http.MethodPost)
	bookings.HandleFunc("/{id}/cancel", r.bookingHandler.CancelBooking).Methods(http.MethodPost)

	// Booking routes (doctor)
	doctor := api.PathPrefix("/doctor").Subrouter()
	doctor.Use(r.authMiddleware.Authenticate)
	doctor.Use(middleware.RequireDoctor)
	doctor.HandleFunc("/bookings", r.bookingHandler.GetDoctorBookings).Methods(http.MethodGet)
	doctor.HandleFunc("/bookings/{id}/complete", r.bookingHandler.CompleteBooking).Methods(http.MethodPost)
	doctor.HandleFunc("/bookings/{id}/cancel", r.bookingHandler.CancelBooking).Methods(http.MethodPost)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/doctors/{id}/payout", r.adminHandler.PayoutDoctor).Methods(http.MethodPost)
	admin.HandleFunc("/doctors/{id}/verify", r.adminHandler.VerifyDoctor).Methods(http.MethodPatch)
	admin.HandleFunc("/wallet", r.adminHandler.GetAdminWallet).Methods(http.MethodGet)
	admin.HandleFunc("/wallet/transactions", r.adminHandler.GetAdminWalletTransactions).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs", r.adminHandler.GetAuditLogs).Methods(http.MethodGet)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
