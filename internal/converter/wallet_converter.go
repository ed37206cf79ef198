package converter

import (
	"docpoint/internal/delivery/dto"
	"docpoint/internal/domain/entity"
)

// WalletTransactionToResponse converts a ledger entry to its DTO
func WalletTransactionToResponse(tx *entity.WalletTransaction) *dto.WalletTransactionResponse {
	if tx == nil {
		return nil
	}

	return &dto.WalletTransactionResponse{
		ID:          tx.ID,
		Type:        string(tx.Type),
		Amount:      tx.Amount,
		UserID:      tx.UserID,
		DoctorID:    tx.DoctorID,
		BookingID:   tx.BookingID,
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt,
	}
}

// WalletTransactionsToResponses converts a slice of ledger entries
func WalletTransactionsToResponses(transactions []entity.WalletTransaction) []dto.WalletTransactionResponse {
	responses := make([]dto.WalletTransactionResponse, len(transactions))
	for i, tx := range transactions {
		resp := WalletTransactionToResponse(&tx)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
