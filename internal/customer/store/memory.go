// Package store holds the customer directory implementations. Lookups signal
// absence with sentinel.ErrNotFound and writes signal uniqueness violations
// with sentinel.ErrConflict; services translate both into domain errors.
package store

import (
	"context"
	"sort"
	"sync"

	"customerd/internal/customer/models"
	"customerd/pkg/sentinel"
)

// InMemory is a map-backed directory for unit tests and local runs. It
// enforces the same uniqueness rules as the Postgres implementation.
type InMemory struct {
	mu        sync.RWMutex
	customers map[int64]models.Customer
	nextID    int64
}

func NewInMemory() *InMemory {
	return &InMemory{customers: make(map[int64]models.Customer), nextID: 1}
}

// Create inserts a new record and assigns its customer id. The uniqueness
// scan and the insert happen under one lock so two concurrent registrations
// with the same identifier resolve to one success and one conflict.
func (s *InMemory) Create(_ context.Context, c models.Customer) (models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.customers {
		if existing.UserID == c.UserID ||
			existing.Phone == c.Phone ||
			existing.Email == c.Email ||
			existing.PAN == c.PAN ||
			existing.Aadhaar == c.Aadhaar {
			return models.Customer{}, sentinel.ErrConflict
		}
	}

	c.CustomerID = s.nextID
	s.nextID++
	s.customers[c.CustomerID] = c
	return c, nil
}

func (s *InMemory) FindByID(_ context.Context, customerID int64) (models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.customers[customerID]; ok {
		return c, nil
	}
	return models.Customer{}, sentinel.ErrNotFound
}

func (s *InMemory) FindByUserID(_ context.Context, userID int64) (models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.customers {
		if c.UserID == userID {
			return c, nil
		}
	}
	return models.Customer{}, sentinel.ErrNotFound
}

func (s *InMemory) ExistsByUserID(_ context.Context, userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.customers {
		if c.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemory) ExistsByPhone(_ context.Context, phone string) (bool, error) {
	return s.existsBy(func(c models.Customer) bool { return c.Phone == phone })
}

func (s *InMemory) ExistsByEmail(_ context.Context, email string) (bool, error) {
	return s.existsBy(func(c models.Customer) bool { return c.Email == email })
}

func (s *InMemory) ExistsByPAN(_ context.Context, pan string) (bool, error) {
	return s.existsBy(func(c models.Customer) bool { return c.PAN == pan })
}

func (s *InMemory) ExistsByAadhaar(_ context.Context, aadhaar string) (bool, error) {
	return s.existsBy(func(c models.Customer) bool { return c.Aadhaar == aadhaar })
}

func (s *InMemory) existsBy(match func(models.Customer) bool) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.customers {
		if match(c) {
			return true, nil
		}
	}
	return false, nil
}

// FindAll returns every record ordered by customer id ascending.
func (s *InMemory) FindAll(_ context.Context) ([]models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]models.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CustomerID < all[j].CustomerID })
	return all, nil
}

// Update runs a read-check-write sequence atomically: the apply callback sees
// the current record and returns its replacement. Email uniqueness against
// other records is re-checked under the same lock.
func (s *InMemory) Update(_ context.Context, customerID int64, apply func(models.Customer) (models.Customer, error)) (models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.customers[customerID]
	if !ok {
		return models.Customer{}, sentinel.ErrNotFound
	}

	updated, err := apply(current)
	if err != nil {
		return models.Customer{}, err
	}

	// Identity fields never change through Update.
	updated.CustomerID = current.CustomerID
	updated.UserID = current.UserID
	updated.RegisteredAt = current.RegisteredAt

	for id, other := range s.customers {
		if id == customerID {
			continue
		}
		if other.Email == updated.Email || other.Phone == updated.Phone ||
			other.PAN == updated.PAN || other.Aadhaar == updated.Aadhaar {
			return models.Customer{}, sentinel.ErrConflict
		}
	}

	s.customers[customerID] = updated
	return updated, nil
}

// OwnerUserID resolves the owning user of a record for policy checks.
func (s *InMemory) OwnerUserID(ctx context.Context, customerID int64) (int64, error) {
	c, err := s.FindByID(ctx, customerID)
	if err != nil {
		return 0, err
	}
	return c.UserID, nil
}
