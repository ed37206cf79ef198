package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"docpoint/internal/delivery/dto"
	"docpoint/internal/usecase"
	"docpoint/pkg/response"
	"docpoint/pkg/validator"
)

type WalletHandler struct {
	walletUsecase usecase.WalletUsecase
	validator     *validator.CustomValidator
}

func NewWalletHandler(walletUsecase usecase.WalletUsecase, validator *validator.CustomValidator) *WalletHandler {
	return &WalletHandler{
		walletUsecase: walletUsecase,
		validator:     validator,
	}
}

// TopUp handles crediting the authenticated user's wallet
// @Summary Top up my wallet
// @Tags Wallet
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.TopUpWalletRequest true "Top Up Request"
// @Success 200 {object} response.Response
// @Router /wallet/top-up [post]
func (h *WalletHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	var req dto.TopUpWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	summary, err := h.walletUsecase.TopUpWallet(r.Context(), &req)
	if err != nil {
		switch err {
		case usecase.ErrInvalidAmount:
			response.Error(w, http.StatusBadRequest, err.Error(), nil)
		default:
			response.InternalServerError(w, "Failed to top up wallet")
		}
		return
	}

	response.Success(w, http.StatusOK, "Wallet topped up successfully", summary)
}

// GetMyWallet handles getting the authenticated user's wallet summary
// @Summary Get my wallet balance and transaction count
// @Tags Wallet
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Response
// @Router /wallet [get]
func (h *WalletHandler) GetMyWallet(w http.ResponseWriter, r *http.Request) {
	summary, err := h.walletUsecase.GetMyWalletSummary(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to get wallet summary")
		return
	}

	response.Success(w, http.StatusOK, "Wallet retrieved successfully", summary)
}

// GetMyWalletTransactions handles listing the authenticated user's wallet transactions
// @Summary List my wallet transactions
// @Tags Wallet
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /wallet/transactions [get]
func (h *WalletHandler) GetMyWalletTransactions(w http.ResponseWriter, r *http.Request) {
	page, limit := paginationParams(r)

	transactions, err := h.walletUsecase.GetMyWalletTransactions(r.Context(), page, limit)
	if err != nil {
		response.InternalServerError(w, "Failed to get wallet transactions")
		return
	}

	response.Success(w, http.StatusOK, "Wallet transactions retrieved successfully", transactions)
}

func paginationParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}
