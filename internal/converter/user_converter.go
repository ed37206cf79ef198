package converter

import (
	"docpoint/internal/delivery/dto"
	"docpoint/internal/domain/entity"
)

// UserToResponse converts a User entity to UserResponse DTO
func UserToResponse(user *entity.User, roleName string) *dto.UserResponse {
	if user == nil {
		return nil
	}

	response := &dto.UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		FullName:      user.FullName,
		Role:          roleName,
		WalletBalance: user.WalletBalance,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}

	if user.DoctorProfile != nil {
		response.DoctorProfile = &dto.DoctorProfileResponse{
			Specialization:  user.DoctorProfile.Specialization,
			ConsultationFee: user.DoctorProfile.ConsultationFee,
			IsVerified:      user.DoctorProfile.IsVerified,
			Biography:       user.DoctorProfile.Biography,
		}
	}

	return response
}
