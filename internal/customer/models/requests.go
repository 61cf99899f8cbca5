package models

import (
	"regexp"
	"strings"

	"github.com/asaskevich/govalidator"

	dErrors "customerd/pkg/domain-errors"
)

var (
	phonePattern   = regexp.MustCompile(`^\+91\d{10}$`)
	panPattern     = regexp.MustCompile(`^[A-Z0-9]{10}$`)
	aadhaarPattern = regexp.MustCompile(`^\d{12}$`)
)

// RegistrationRequest is the payload for creating a customer record. The
// owning userId is deliberately absent: it comes from the verified principal.
type RegistrationRequest struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	DOB      Date   `json:"dob"`
	Address  string `json:"address"`
	PAN      string `json:"pan"`
	Aadhaar  string `json:"aadhaar"`
}

func (r *RegistrationRequest) Normalize() {
	if r == nil {
		return
	}
	r.FullName = strings.TrimSpace(r.FullName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	r.Address = strings.TrimSpace(r.Address)
	r.PAN = strings.ToUpper(strings.TrimSpace(r.PAN))
	r.Aadhaar = strings.TrimSpace(r.Aadhaar)
}

// Follows validation order: Size -> Required -> Syntax.
func (r *RegistrationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	if !govalidator.StringLength(r.FullName, "1", "255") {
		return dErrors.New(dErrors.CodeValidation, "fullName is required and must be 255 characters or less")
	}
	if !govalidator.StringLength(r.Address, "1", "500") {
		return dErrors.New(dErrors.CodeValidation, "address is required and must be 500 characters or less")
	}

	if !phonePattern.MatchString(r.Phone) {
		return dErrors.New(dErrors.CodeValidation, "phone must be a valid Indian number (+91 followed by 10 digits)")
	}
	if !govalidator.IsEmail(r.Email) || !govalidator.StringLength(r.Email, "3", "255") {
		return dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	}
	if r.DOB.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "dob is required")
	}
	if !panPattern.MatchString(r.PAN) {
		return dErrors.New(dErrors.CodeValidation, "pan must be 10 alphanumeric characters")
	}
	if !aadhaarPattern.MatchString(r.Aadhaar) {
		return dErrors.New(dErrors.CodeValidation, "aadhaar must be 12 digits")
	}

	return nil
}

// UpdateRequest carries the caller-mutable profile fields. KYC status is
// intentionally not part of this payload.
type UpdateRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Address  string `json:"address"`
}

func (r *UpdateRequest) Normalize() {
	if r == nil {
		return
	}
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	r.Address = strings.TrimSpace(r.Address)
}

func (r *UpdateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	if !govalidator.StringLength(r.FullName, "1", "255") {
		return dErrors.New(dErrors.CodeValidation, "fullName is required and must be 255 characters or less")
	}
	if !govalidator.IsEmail(r.Email) || !govalidator.StringLength(r.Email, "3", "255") {
		return dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	}
	if !govalidator.StringLength(r.Address, "1", "500") {
		return dErrors.New(dErrors.CodeValidation, "address is required and must be 500 characters or less")
	}

	return nil
}

// KycStatusUpdateRequest sets a new verification status. Message is echoed
// back in the response and never stored.
type KycStatusUpdateRequest struct {
	KycStatus KycStatus `json:"kycStatus"`
	Message   string    `json:"message"`
}

func (r *KycStatusUpdateRequest) Normalize() {
	if r == nil {
		return
	}
	r.KycStatus = KycStatus(strings.ToUpper(strings.TrimSpace(string(r.KycStatus))))
	r.Message = strings.TrimSpace(r.Message)
}

func (r *KycStatusUpdateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if !r.KycStatus.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "kycStatus must be one of PENDING, VERIFIED, REJECTED")
	}
	if len(r.Message) > 500 {
		return dErrors.New(dErrors.CodeValidation, "message must be 500 characters or less")
	}
	return nil
}
