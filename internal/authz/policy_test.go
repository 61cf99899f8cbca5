package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "customerd/pkg/domain-errors"
	"customerd/pkg/sentinel"
)

// fakeOwners resolves ownership from a fixed map, standing in for the
// customer directory.
type fakeOwners struct {
	owners map[int64]int64
}

func (f *fakeOwners) OwnerUserID(_ context.Context, customerID int64) (int64, error) {
	owner, ok := f.owners[customerID]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	return owner, nil
}

func newTestPolicy() *Policy {
	return New(&fakeOwners{owners: map[int64]int64{
		1: 7,
		2: 5,
	}})
}

func TestAuthorizeCustomer_AdminBypassesOwnership(t *testing.T) {
	policy := newTestPolicy()
	admin := Principal{UserID: 99, Role: RoleAdmin, Username: "ops"}

	decision, err := policy.AuthorizeCustomer(context.Background(), admin, OpGetCustomer, 1)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestAuthorizeCustomer_OwnerAllowed(t *testing.T) {
	policy := newTestPolicy()
	owner := Principal{UserID: 7, Role: RoleCustomer, Username: "asha"}

	decision, err := policy.AuthorizeCustomer(context.Background(), owner, OpGetCustomer, 1)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestAuthorizeCustomer_NonOwnerDenied(t *testing.T) {
	policy := newTestPolicy()
	stranger := Principal{UserID: 5, Role: RoleCustomer, Username: "ravi"}

	decision, err := policy.AuthorizeCustomer(context.Background(), stranger, OpGetCustomer, 1)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonNotOwner, decision.Reason)
	assert.True(t, dErrors.HasCode(decision.Err(), dErrors.CodeForbidden))
}

func TestAuthorizeCustomer_UnknownRecordSurfacesStoreError(t *testing.T) {
	policy := newTestPolicy()
	caller := Principal{UserID: 7, Role: RoleCustomer, Username: "asha"}

	_, err := policy.AuthorizeCustomer(context.Background(), caller, OpGetCustomer, 404)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestAuthorizeCustomer_AdminOpDeniedForCustomerRole(t *testing.T) {
	policy := newTestPolicy()
	// Even the record owner cannot reach an admin-scoped operation.
	owner := Principal{UserID: 7, Role: RoleCustomer, Username: "asha"}

	decision, err := policy.AuthorizeCustomer(context.Background(), owner, OpAdminGetCustomer, 1)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonInsufficientRole, decision.Reason)
}

func TestAuthorizeUser(t *testing.T) {
	policy := newTestPolicy()

	self := Principal{UserID: 5, Role: RoleCustomer, Username: "ravi"}
	assert.True(t, policy.AuthorizeUser(self, 5).Allowed)
	assert.False(t, policy.AuthorizeUser(self, 7).Allowed)

	admin := Principal{UserID: 99, Role: RoleAdmin, Username: "ops"}
	assert.True(t, policy.AuthorizeUser(admin, 7).Allowed)
}

func TestAuthorizeAdmin(t *testing.T) {
	policy := newTestPolicy()

	assert.True(t, policy.AuthorizeAdmin(Principal{UserID: 1, Role: RoleAdmin}).Allowed)

	decision := policy.AuthorizeAdmin(Principal{UserID: 1, Role: RoleCustomer})
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonInsufficientRole, decision.Reason)
}

func TestAuthorizeRegistration_AnyValidRole(t *testing.T) {
	policy := newTestPolicy()

	assert.True(t, policy.AuthorizeRegistration(Principal{UserID: 1, Role: RoleCustomer}).Allowed)
	assert.True(t, policy.AuthorizeRegistration(Principal{UserID: 1, Role: RoleAdmin}).Allowed)
	assert.False(t, policy.AuthorizeRegistration(Principal{UserID: 1, Role: Role("GUEST")}).Allowed)
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("admin")
	require.True(t, ok)
	assert.Equal(t, RoleAdmin, role)

	role, ok = ParseRole(" Customer ")
	require.True(t, ok)
	assert.Equal(t, RoleCustomer, role)

	_, ok = ParseRole("superuser")
	assert.False(t, ok)
}
