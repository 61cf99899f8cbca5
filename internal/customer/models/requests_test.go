package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "customerd/pkg/domain-errors"
)

func validRegistration() RegistrationRequest {
	return RegistrationRequest{
		FullName: "Asha Rao",
		Phone:    "+919876543210",
		Email:    "asha@example.com",
		DOB:      NewDate(1992, time.March, 14),
		Address:  "12 MG Road, Bengaluru",
		PAN:      "ABCDE1234F",
		Aadhaar:  "123456789012",
	}
}

func TestRegistrationRequest_Valid(t *testing.T) {
	req := validRegistration()
	req.Normalize()
	require.NoError(t, req.Validate())
}

func TestRegistrationRequest_NormalizeCanonicalizesIdentifiers(t *testing.T) {
	req := validRegistration()
	req.Email = "  Asha@Example.COM "
	req.PAN = " abcde1234f"
	req.Normalize()

	assert.Equal(t, "asha@example.com", req.Email)
	assert.Equal(t, "ABCDE1234F", req.PAN)
	require.NoError(t, req.Validate())
}

func TestRegistrationRequest_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RegistrationRequest)
	}{
		{"missing full name", func(r *RegistrationRequest) { r.FullName = "" }},
		{"phone without country code", func(r *RegistrationRequest) { r.Phone = "9876543210" }},
		{"phone too short", func(r *RegistrationRequest) { r.Phone = "+91987654" }},
		{"bad email", func(r *RegistrationRequest) { r.Email = "not-an-email" }},
		{"missing dob", func(r *RegistrationRequest) { r.DOB = Date{} }},
		{"missing address", func(r *RegistrationRequest) { r.Address = "" }},
		{"pan too short", func(r *RegistrationRequest) { r.PAN = "ABC123" }},
		{"pan with symbols", func(r *RegistrationRequest) { r.PAN = "ABCDE-234F" }},
		{"aadhaar too short", func(r *RegistrationRequest) { r.Aadhaar = "12345" }},
		{"aadhaar with letters", func(r *RegistrationRequest) { r.Aadhaar = "12345678901X" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRegistration()
			tc.mutate(&req)
			req.Normalize()
			err := req.Validate()
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestUpdateRequest_Validate(t *testing.T) {
	req := UpdateRequest{FullName: "Asha Rao", Email: "asha@example.com", Address: "12 MG Road"}
	req.Normalize()
	require.NoError(t, req.Validate())

	bad := UpdateRequest{FullName: "", Email: "asha@example.com", Address: "12 MG Road"}
	bad.Normalize()
	assert.True(t, dErrors.HasCode(bad.Validate(), dErrors.CodeValidation))
}

func TestKycStatusUpdateRequest_Validate(t *testing.T) {
	req := KycStatusUpdateRequest{KycStatus: "verified", Message: "docs checked"}
	req.Normalize()
	require.NoError(t, req.Validate())
	assert.Equal(t, KycVerified, req.KycStatus)

	bad := KycStatusUpdateRequest{KycStatus: "APPROVED"}
	bad.Normalize()
	assert.True(t, dErrors.HasCode(bad.Validate(), dErrors.CodeValidation))
}

func TestCustomerTransitionsReturnNewValues(t *testing.T) {
	original := NewCustomer(validRegistration(), 7, time.Now())
	original.CustomerID = 1

	updated := original.WithProfile("New Name", "new@example.com", "New Address")
	assert.Equal(t, "Asha Rao", original.FullName, "original must not be mutated")
	assert.Equal(t, "New Name", updated.FullName)
	assert.Equal(t, original.CustomerID, updated.CustomerID)
	assert.Equal(t, original.UserID, updated.UserID)

	verified := original.WithKycStatus(KycVerified)
	assert.Equal(t, KycPending, original.KycStatus)
	assert.Equal(t, KycVerified, verified.KycStatus)
}
