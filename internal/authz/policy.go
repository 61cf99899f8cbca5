// Package authz decides whether a verified Principal may perform an operation
// on a target customer record. Decisions are made per operation inside the
// lifecycle service rather than by path-matched middleware, so routes and
// security rules cannot drift apart.
package authz

import (
	"context"

	dErrors "customerd/pkg/domain-errors"
)

// Operation names an action subject to policy.
type Operation string

const (
	OpRegister          Operation = "register"
	OpGetCustomer       Operation = "get_customer"
	OpUpdateCustomer    Operation = "update_customer"
	OpGetStatus         Operation = "get_status"
	OpResolveCustomerID Operation = "resolve_customer_id"
	OpVerifyOwnership   Operation = "verify_ownership"
	OpListCustomers     Operation = "list_customers"
	OpAdminGetCustomer  Operation = "admin_get_customer"
	OpAdminUpdateKYC    Operation = "admin_update_kyc"
)

// DenyReason distinguishes role failures from ownership failures so the
// caller-facing error mapping can report which rule rejected the request.
type DenyReason string

const (
	ReasonInsufficientRole DenyReason = "insufficient role"
	ReasonNotOwner         DenyReason = "not the owner of this customer record"
)

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Err converts a deny into a coded domain error; allows return nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	msg := string(d.Reason)
	if msg == "" {
		msg = "access denied"
	}
	return dErrors.New(dErrors.CodeForbidden, msg)
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason DenyReason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// OwnerResolver resolves the owning user of a customer record. It is
// satisfied by the customer directory; the policy never pattern-matches
// usernames to infer ownership.
type OwnerResolver interface {
	OwnerUserID(ctx context.Context, customerID int64) (int64, error)
}

// Policy evaluates access rules in a fixed precedence: admin first, then
// record ownership for customer-scoped operations, then self-identity for
// user-scoped operations.
type Policy struct {
	owners OwnerResolver
}

func New(owners OwnerResolver) *Policy {
	return &Policy{owners: owners}
}

// AuthorizeCustomer checks a customer-id-scoped operation. Admins pass
// without a store round trip; everyone else must own the record. The store
// error (including not-found) is returned untranslated for the service to map.
func (p *Policy) AuthorizeCustomer(ctx context.Context, principal Principal, op Operation, customerID int64) (Decision, error) {
	if principal.IsAdmin() {
		return allow(), nil
	}
	switch op {
	case OpGetCustomer, OpUpdateCustomer, OpGetStatus:
	default:
		return deny(ReasonInsufficientRole), nil
	}
	ownerID, err := p.owners.OwnerUserID(ctx, customerID)
	if err != nil {
		return Decision{}, err
	}
	return OwnerDecision(principal, ownerID), nil
}

// AuthorizeUser checks a userId-scoped resolution operation: admins or the
// user acting on their own identity.
func (p *Policy) AuthorizeUser(principal Principal, targetUserID int64) Decision {
	if principal.IsAdmin() {
		return allow()
	}
	if principal.UserID == targetUserID {
		return allow()
	}
	return deny(ReasonNotOwner)
}

// AuthorizeAdmin gates admin-only operations on role alone.
func (p *Policy) AuthorizeAdmin(principal Principal) Decision {
	if principal.IsAdmin() {
		return allow()
	}
	return deny(ReasonInsufficientRole)
}

// AuthorizeRegistration requires only a valid Principal; any role may
// register, and no ownership applies because the record does not exist yet.
func (p *Policy) AuthorizeRegistration(principal Principal) Decision {
	if !principal.Role.IsValid() {
		return deny(ReasonInsufficientRole)
	}
	return allow()
}

// OwnerDecision compares a principal against a known owning userId. Exposed
// so read-check-write sequences can re-check ownership inside the same
// transaction that loads the row.
func OwnerDecision(principal Principal, ownerUserID int64) Decision {
	if principal.IsAdmin() {
		return allow()
	}
	if principal.UserID == ownerUserID {
		return allow()
	}
	return deny(ReasonNotOwner)
}
