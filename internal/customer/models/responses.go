package models

import "time"

// CustomerResponse is the outward shape of a customer record. Message is a
// transient, response-only field for success messages; it is never persisted.
type CustomerResponse struct {
	CustomerID   int64     `json:"customerId"`
	UserID       int64     `json:"userId"`
	FullName     string    `json:"fullName"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	DOB          Date      `json:"dob"`
	Address      string    `json:"address"`
	PAN          string    `json:"pan"`
	Aadhaar      string    `json:"aadhaar"`
	KycStatus    KycStatus `json:"kycStatus"`
	RegisteredAt time.Time `json:"registeredAt"`
	Message      string    `json:"message,omitempty"`
}

// ToResponse converts a record to its response shape with an optional
// transient message.
func ToResponse(c Customer, message string) CustomerResponse {
	return CustomerResponse{
		CustomerID:   c.CustomerID,
		UserID:       c.UserID,
		FullName:     c.FullName,
		Phone:        c.Phone,
		Email:        c.Email,
		DOB:          c.DOB,
		Address:      c.Address,
		PAN:          c.PAN,
		Aadhaar:      c.Aadhaar,
		KycStatus:    c.KycStatus,
		RegisteredAt: c.RegisteredAt,
		Message:      message,
	}
}

// CustomerIDResponse resolves an external user identity to the internal
// customer id.
type CustomerIDResponse struct {
	CustomerID int64 `json:"customerId"`
}

// OwnershipResponse answers a verify-ownership query.
type OwnershipResponse struct {
	IsOwner bool `json:"isOwner"`
}
