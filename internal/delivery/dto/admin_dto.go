package dto

type VerifyDoctorRequest struct {
	Verified bool `json:"verified"`
}
