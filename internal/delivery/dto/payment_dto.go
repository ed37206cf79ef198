package dto

// PaymentNotification is the payload the payment gateway delivers once per
// completed checkout. The HTTP layer verifies the webhook signature before
// this reaches the orchestrator; all fields are opaque gateway metadata and
// are validated there.
type PaymentNotification struct {
	ExternalReference string `json:"external_reference"`
	DoctorID          string `json:"doctor_id"`
	UserID            string `json:"user_id"`
	Date              string `json:"date"` // Format: YYYY-MM-DD
	SlotStart         string `json:"slot_from"`
	SlotEnd           string `json:"slot_to"`
	Fee               string `json:"fee"`
}
