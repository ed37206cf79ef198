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

type AdminHandler struct {
	adminUsecase  usecase.AdminUsecase
	walletUsecase usecase.WalletUsecase
	payoutUsecase usecase.PayoutUsecase
	validator     *validator.CustomValidator
}

func NewAdminHandler(
	adminUsecase usecase.AdminUsecase,
	walletUsecase usecase.WalletUsecase,
	payoutUsecase usecase.PayoutUsecase,
	validator *validator.CustomValidator,
) *AdminHandler {
	return &AdminHandler{
		adminUsecase:  adminUsecase,
		walletUsecase: walletUsecase,
		payoutUsecase: payoutUsecase,
		validator:     validator,
	}
}

// PayoutDoctor handles settling all pending earnings for a doctor
// @Summary Pay out a doctor's pending earnings
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param id path string true "Doctor User ID"
// @Success 200 {object} response.Response
// @Router /admin/doctors/{id}/payout [post]
func (h *AdminHandler) PayoutDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	payout, err := h.payoutUsecase.PayoutDoctor(r.Context(), doctorID)
	if err != nil {
		switch err {
		case usecase.ErrDoctorNotFound:
			response.NotFound(w, "Doctor not found")
		case usecase.ErrNoPendingPayouts:
			response.Error(w, http.StatusConflict, err.Error(), nil)
		default:
			response.InternalServerError(w, "Failed to pay out doctor")
		}
		return
	}

	response.Success(w, http.StatusOK, "Doctor paid out successfully", payout)
}

// VerifyDoctor handles toggling a doctor's verified flag
// @Summary Verify or unverify a doctor profile
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Doctor User ID"
// @Param request body dto.VerifyDoctorRequest true "Verify Request"
// @Success 200 {object} response.Response
// @Router /admin/doctors/{id}/verify [patch]
func (h *AdminHandler) VerifyDoctor(w http.ResponseWriter, r *http.Request) {
	doctorID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid doctor ID", nil)
		return
	}

	var req dto.VerifyDoctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.adminUsecase.VerifyDoctor(r.Context(), doctorID, req.Verified); err != nil {
		switch err {
		case usecase.ErrDoctorNotFound:
			response.NotFound(w, "Doctor not found")
		default:
			response.InternalServerError(w, "Failed to update doctor verification")
		}
		return
	}

	response.Success(w, http.StatusOK, "Doctor verification updated", nil)
}

// GetAdminWallet handles getting the platform wallet summary
// @Summary Get admin wallet balance and transaction count
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /admin/wallet [get]
func (h *AdminHandler) GetAdminWallet(w http.ResponseWriter, r *http.Request) {
	summary, err := h.walletUsecase.GetAdminWalletSummary(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to get admin wallet summary")
		return
	}

	response.Success(w, http.StatusOK, "Admin wallet retrieved successfully", summary)
}

// GetAdminWalletTransactions handles listing the platform wallet transactions
// @Summary List admin wallet transactions
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /admin/wallet/transactions [get]
func (h *AdminHandler) GetAdminWalletTransactions(w http.ResponseWriter, r *http.Request) {
	page, limit := paginationParams(r)

	transactions, err := h.walletUsecase.GetAdminWalletTransactions(r.Context(), page, limit)
	if err != nil {
		response.InternalServerError(w, "Failed to get admin wallet transactions")
		return
	}

	response.Success(w, http.StatusOK, "Admin wallet transactions retrieved successfully", transactions)
}

// GetAuditLogs handles listing audit log entries
// @Summary List audit logs
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /admin/audit-logs [get]
func (h *AdminHandler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	page, limit := paginationParams(r)

	logs, err := h.adminUsecase.GetAuditLogs(r.Context(), page, limit)
	if err != nil {
		response.InternalServerError(w, "Failed to get audit logs")
		return
	}

	response.Success(w, http.StatusOK, "Audit logs retrieved successfully", logs)
}
