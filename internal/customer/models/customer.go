package models

import (
	"time"
)

// KycStatus is the verification state of a customer record.
//
// Transitions are unrestricted within the enum: an authorized KYC update may
// set any status, including reverting VERIFIED back to PENDING. No revision
// of the upstream workflow ever constrained this, so no transition table is
// enforced here.
type KycStatus string

const (
	KycPending  KycStatus = "PENDING"
	KycVerified KycStatus = "VERIFIED"
	KycRejected KycStatus = "REJECTED"
)

func (s KycStatus) IsValid() bool {
	switch s {
	case KycPending, KycVerified, KycRejected:
		return true
	}
	return false
}

// Customer is the identity record for one banking customer.
//
// Invariants:
//   - Exactly one Customer exists per UserID
//   - Phone, Email, PAN and Aadhaar are each globally unique
//   - CustomerID and RegisteredAt are assigned once, at creation
//   - KycStatus changes only through an explicit KYC update, never through
//     the general profile update
//
// Customer is treated as an immutable value: every transition returns a new
// value instead of mutating in place.
type Customer struct {
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
}

// NewCustomer builds the initial record for a registration. The owning userId
// always comes from the verified principal, never from the request payload.
// CustomerID is zero until the directory assigns it.
func NewCustomer(req RegistrationRequest, userID int64, now time.Time) Customer {
	return Customer{
		UserID:       userID,
		FullName:     req.FullName,
		Phone:        req.Phone,
		Email:        req.Email,
		DOB:          req.DOB,
		Address:      req.Address,
		PAN:          req.PAN,
		Aadhaar:      req.Aadhaar,
		KycStatus:    KycPending,
		RegisteredAt: now,
	}
}

// WithProfile returns a copy with the updatable profile fields replaced.
// Only fullName, email and address are caller-mutable.
func (c Customer) WithProfile(fullName, email, address string) Customer {
	c.FullName = fullName
	c.Email = email
	c.Address = address
	return c
}

// WithKycStatus returns a copy with the new verification status.
func (c Customer) WithKycStatus(status KycStatus) Customer {
	c.KycStatus = status
	return c
}
