// Package service orchestrates the customer lifecycle: registration, profile
// updates, KYC transitions and identity resolution. Every operation consults
// the access policy before touching the directory, and uniqueness failures
// surface as conflicts, never as silent overwrites.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"customerd/internal/authz"
	"customerd/internal/customer/metrics"
	"customerd/internal/customer/models"
	dErrors "customerd/pkg/domain-errors"
	"customerd/pkg/sentinel"
)

// Directory is the uniqueness-aware persistence facade over customer records.
type Directory interface {
	Create(ctx context.Context, c models.Customer) (models.Customer, error)
	FindByID(ctx context.Context, customerID int64) (models.Customer, error)
	FindByUserID(ctx context.Context, userID int64) (models.Customer, error)
	ExistsByUserID(ctx context.Context, userID int64) (bool, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByPAN(ctx context.Context, pan string) (bool, error)
	ExistsByAadhaar(ctx context.Context, aadhaar string) (bool, error)
	FindAll(ctx context.Context) ([]models.Customer, error)
	Update(ctx context.Context, customerID int64, apply func(models.Customer) (models.Customer, error)) (models.Customer, error)
}

// Notifier receives domain events after successful state transitions.
// Delivery is best effort; the service never depends on it for correctness.
type Notifier interface {
	CustomerRegistered(ctx context.Context, customerID int64, email string) error
}

// ResolutionCache caches the userId → customerId mapping.
type ResolutionCache interface {
	Get(ctx context.Context, userID int64) (int64, bool, error)
	Set(ctx context.Context, userID, customerID int64) error
}

// Service exposes the customer lifecycle operations.
type Service struct {
	directory Directory
	policy    *authz.Policy
	notifier  Notifier
	cache     ResolutionCache
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	clock     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithResolutionCache(c ResolutionCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock sets the time source for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs a Service.
func New(directory Directory, policy *authz.Policy, opts ...Option) *Service {
	s := &Service{
		directory: directory,
		policy:    policy,
		logger:    slog.Default(),
		tracer:    otel.Tracer("customerd/customer"),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates the customer record for the calling principal. The owning
// userId always comes from the verified token. Fails with a conflict when the
// caller already has a record or when any unique identifier is taken.
func (s *Service) Register(ctx context.Context, req *models.RegistrationRequest, principal authz.Principal) (models.CustomerResponse, error) {
	ctx, span := s.tracer.Start(ctx, "customer.register")
	defer span.End()

	if err := s.policy.AuthorizeRegistration(principal).Err(); err != nil {
		return models.CustomerResponse{}, err
	}

	if req == nil {
		return models.CustomerResponse{}, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return models.CustomerResponse{}, err
	}

	exists, err := s.directory.ExistsByUserID(ctx, principal.UserID)
	if err != nil {
		return models.CustomerResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing registration")
	}
	if exists {
		s.metrics.IncRegistrationConflict()
		return models.CustomerResponse{}, dErrors.New(dErrors.CodeConflict, "customer already exists for this user")
	}

	if err := s.checkUniqueIdentifiers(ctx, req); err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			s.metrics.IncRegistrationConflict()
		}
		return models.CustomerResponse{}, err
	}

	created, err := s.directory.Create(ctx, models.NewCustomer(*req, principal.UserID, s.clock()))
	if err != nil {
		// A concurrent registration may win the race between the existence
		// probes and the insert; the storage constraint is the arbiter.
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncRegistrationConflict()
			return models.CustomerResponse{}, dErrors.New(dErrors.CodeConflict, "a customer with one of these identifiers already exists")
		}
		return models.CustomerResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create customer")
	}

	s.metrics.IncRegistered()
	s.logger.InfoContext(ctx, "customer registered",
		"customer_id", created.CustomerID,
		"user_id", created.UserID,
	)
	s.notifyRegistered(ctx, created)

	return models.ToResponse(created, "Customer registered successfully"), nil
}

// checkUniqueIdentifiers probes the four unique fields concurrently and
// reports the first collision.
func (s *Service) checkUniqueIdentifiers(ctx context.Context, req *models.RegistrationRequest) error {
	g, ctx := errgroup.WithContext(ctx)

	probe := func(name, value string, exists func(context.Context, string) (bool, error)) {
		g.Go(func() error {
			taken, err := exists(ctx, value)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check "+name+" uniqueness")
			}
			if taken {
				return dErrors.New(dErrors.CodeConflict, name+" is already registered")
			}
			return nil
		})
	}

	probe("phone", req.Phone, s.directory.ExistsByPhone)
	probe("email", req.Email, s.directory.ExistsByEmail)
	probe("pan", req.PAN, s.directory.ExistsByPAN)
	probe("aadhaar", req.Aadhaar, s.directory.ExistsByAadhaar)

	return g.Wait()
}

func (s *Service) notifyRegistered(ctx context.Context, c models.Customer) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.CustomerRegistered(ctx, c.CustomerID, c.Email); err != nil {
		s.metrics.IncNotifierFailure()
		s.logger.ErrorContext(ctx, "failed to publish customer registered event",
			"customer_id", c.CustomerID,
			"error", err,
		)
	}
}

// GetByID returns a customer record to its owner or an admin.
func (s *Service) GetByID(ctx context.Context, customerID int64, principal authz.Principal) (models.CustomerResponse, error) {
	return s.getCustomer(ctx, customerID, principal, authz.OpGetCustomer)
}

// GetStatus returns the status-bearing record. Read-only and idempotent;
// identical access rules to GetByID.
func (s *Service) GetStatus(ctx context.Context, customerID int64, principal authz.Principal) (models.CustomerResponse, error) {
	return s.getCustomer(ctx, customerID, principal, authz.OpGetStatus)
}

func (s *Service) getCustomer(ctx context.Context, customerID int64, principal authz.Principal, op authz.Operation) (models.CustomerResponse, error) {
	decision, err := s.policy.AuthorizeCustomer(ctx, principal, op, customerID)
	if err != nil {
		return models.CustomerResponse{}, s.mapLookupErr(err, customerID)
	}
	if err := decision.Err(); err != nil {
		s.logDenied(ctx, principal, op, customerID)
		return models.CustomerResponse{}, err
	}

	c, err := s.directory.FindByID(ctx, customerID)
	if err != nil {
		return models.CustomerResponse{}, s.mapLookupErr(err, customerID)
	}
	return models.ToResponse(c, ""), nil
}

// Update mutates the caller-editable profile fields. The ownership check and
// the write run inside one directory transaction so a concurrent writer
// cannot slip between the read and the mutation.
func (s *Service) Update(ctx context.Context, customerID int64, req *models.UpdateRequest, principal authz.Principal) (models.CustomerResponse, error) {
	ctx, span := s.tracer.Start(ctx, "customer.update")
	defer span.End()

	if req == nil {
		return models.CustomerResponse{}, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return models.CustomerResponse{}, err
	}

	updated, err := s.directory.Update(ctx, customerID, func(current models.Customer) (models.Customer, error) {
		if err := authz.OwnerDecision(principal, current.UserID).Err(); err != nil {
			s.logDenied(ctx, principal, authz.OpUpdateCustomer, customerID)
			return models.Customer{}, err
		}
		return current.WithProfile(req.FullName, req.Email, req.Address), nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return models.CustomerResponse{}, dErrors.New(dErrors.CodeConflict, "email is already registered to another customer")
		}
		return models.CustomerResponse{}, s.mapLookupErr(err, customerID)
	}

	return models.ToResponse(updated, "Customer updated successfully"), nil
}

// UpdateKycStatus sets a new verification status. It is not gated by
// ownership: the route is either internal (trusted caller) or admin-only.
// Any valid status may be set, including re-entrant transitions.
func (s *Service) UpdateKycStatus(ctx context.Context, customerID int64, req *models.KycStatusUpdateRequest) (models.CustomerResponse, error) {
	ctx, span := s.tracer.Start(ctx, "customer.update_kyc_status")
	defer span.End()

	if req == nil {
		return models.CustomerResponse{}, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return models.CustomerResponse{}, err
	}

	updated, err := s.directory.Update(ctx, customerID, func(current models.Customer) (models.Customer, error) {
		return current.WithKycStatus(req.KycStatus), nil
	})
	if err != nil {
		return models.CustomerResponse{}, s.mapLookupErr(err, customerID)
	}

	s.metrics.IncKycTransition(string(req.KycStatus))
	s.logger.InfoContext(ctx, "kyc status updated",
		"customer_id", customerID,
		"kyc_status", req.KycStatus,
	)

	message := req.Message
	if message == "" {
		message = "KYC status updated"
	}
	return models.ToResponse(updated, message), nil
}

// GetCustomerIDByUserID resolves an external user identity to the internal
// customer id. Allowed for admins and for users resolving themselves.
func (s *Service) GetCustomerIDByUserID(ctx context.Context, userID int64, principal authz.Principal) (models.CustomerIDResponse, error) {
	if err := s.policy.AuthorizeUser(principal, userID).Err(); err != nil {
		s.logDenied(ctx, principal, authz.OpResolveCustomerID, userID)
		return models.CustomerIDResponse{}, err
	}

	if s.cache != nil {
		if customerID, ok, err := s.cache.Get(ctx, userID); err != nil {
			s.logger.WarnContext(ctx, "resolution cache read failed", "user_id", userID, "error", err)
		} else if ok {
			return models.CustomerIDResponse{CustomerID: customerID}, nil
		}
	}

	c, err := s.directory.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.CustomerIDResponse{}, dErrors.New(dErrors.CodeNotFound, "no customer found for this user")
		}
		return models.CustomerIDResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve customer")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, c.CustomerID); err != nil {
			s.logger.WarnContext(ctx, "resolution cache write failed", "user_id", userID, "error", err)
		}
	}
	return models.CustomerIDResponse{CustomerID: c.CustomerID}, nil
}

// VerifyOwnership reports whether the given user owns the given customer
// record. A missing record answers false rather than not-found.
func (s *Service) VerifyOwnership(ctx context.Context, customerID, userID int64, principal authz.Principal) (models.OwnershipResponse, error) {
	if err := s.policy.AuthorizeUser(principal, userID).Err(); err != nil {
		s.logDenied(ctx, principal, authz.OpVerifyOwnership, customerID)
		return models.OwnershipResponse{}, err
	}

	c, err := s.directory.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.OwnershipResponse{IsOwner: false}, nil
		}
		return models.OwnershipResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
	}
	return models.OwnershipResponse{IsOwner: c.UserID == userID}, nil
}

// GetAllCustomers returns every record, ordered by customer id ascending.
// Admin only.
func (s *Service) GetAllCustomers(ctx context.Context, principal authz.Principal) ([]models.CustomerResponse, error) {
	if err := s.policy.AuthorizeAdmin(principal).Err(); err != nil {
		s.logDenied(ctx, principal, authz.OpListCustomers, 0)
		return nil, err
	}

	all, err := s.directory.FindAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list customers")
	}
	responses := make([]models.CustomerResponse, 0, len(all))
	for _, c := range all {
		responses = append(responses, models.ToResponse(c, ""))
	}
	return responses, nil
}

// AdminGetByID serves the admin surface: role is the only gate, ownership
// never applies.
func (s *Service) AdminGetByID(ctx context.Context, customerID int64, principal authz.Principal) (models.CustomerResponse, error) {
	if err := s.policy.AuthorizeAdmin(principal).Err(); err != nil {
		s.logDenied(ctx, principal, authz.OpAdminGetCustomer, customerID)
		return models.CustomerResponse{}, err
	}
	c, err := s.directory.FindByID(ctx, customerID)
	if err != nil {
		return models.CustomerResponse{}, s.mapLookupErr(err, customerID)
	}
	return models.ToResponse(c, ""), nil
}

// AdminUpdateKycStatus is the admin-gated variant of UpdateKycStatus.
func (s *Service) AdminUpdateKycStatus(ctx context.Context, customerID int64, req *models.KycStatusUpdateRequest, principal authz.Principal) (models.CustomerResponse, error) {
	if err := s.policy.AuthorizeAdmin(principal).Err(); err != nil {
		s.logDenied(ctx, principal, authz.OpAdminUpdateKYC, customerID)
		return models.CustomerResponse{}, err
	}
	return s.UpdateKycStatus(ctx, customerID, req)
}

func (s *Service) mapLookupErr(err error, customerID int64) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "customer not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
}

func (s *Service) logDenied(ctx context.Context, principal authz.Principal, op authz.Operation, targetID int64) {
	s.logger.WarnContext(ctx, "access denied",
		"operation", string(op),
		"user_id", principal.UserID,
		"role", string(principal.Role),
		"target_id", targetID,
	)
}
