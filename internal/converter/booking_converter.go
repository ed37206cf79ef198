package converter

import (
	"docpoint/internal/delivery/dto"
	"docpoint/internal/domain/entity"
)

// BookingToResponse converts a Booking entity to BookingResponse DTO
func BookingToResponse(booking *entity.Booking) *dto.BookingResponse {
	if booking == nil {
		return nil
	}

	response := &dto.BookingResponse{
		ID:                 booking.ID,
		PatientID:          booking.PatientID,
		DoctorID:           booking.DoctorID,
		AppointmentDate:    booking.AppointmentDate.Format("2006-01-02"),
		SlotStart:          booking.SlotStart,
		SlotEnd:            booking.SlotEnd,
		PaymentStatus:      string(booking.PaymentStatus),
		Status:             string(booking.Status),
		TransactionID:      booking.TransactionID,
		DoctorEarning:      booking.DoctorEarning,
		CommissionAmount:   booking.CommissionAmount,
		PayoutStatus:       string(booking.PayoutStatus),
		RefundStatus:       string(booking.RefundStatus),
		CancellationReason: booking.CancellationReason,
		CreatedAt:          booking.CreatedAt,
		UpdatedAt:          booking.UpdatedAt,
	}

	if booking.Doctor.User.FullName != "" {
		response.DoctorName = booking.Doctor.User.FullName
	}

	return response
}

// BookingsToResponses converts a slice of Booking entities to slice of BookingResponse DTOs
func BookingsToResponses(bookings []entity.Booking) []dto.BookingResponse {
	responses := make([]dto.BookingResponse, len(bookings))
	for i, booking := range bookings {
		resp := BookingToResponse(&booking)
		if resp != nil {
			responses[i] = *resp
		}
	}
	return responses
}
