package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"customerd/internal/customer/models"
	"customerd/pkg/sentinel"
)

type InMemorySuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *InMemorySuite) newCustomer(userID int64) models.Customer {
	return models.Customer{
		UserID:       userID,
		FullName:     fmt.Sprintf("Customer %d", userID),
		Phone:        fmt.Sprintf("+9198765432%02d", userID),
		Email:        fmt.Sprintf("user%d@example.com", userID),
		DOB:          models.NewDate(1990, time.January, 1),
		Address:      "12 MG Road",
		PAN:          fmt.Sprintf("ABCDE12%03d", userID),
		Aadhaar:      fmt.Sprintf("1234567890%02d", userID),
		KycStatus:    models.KycPending,
		RegisteredAt: time.Now(),
	}
}

func (s *InMemorySuite) TestCreateAssignsSequentialIDs() {
	first, err := s.store.Create(s.ctx, s.newCustomer(1))
	s.Require().NoError(err)
	second, err := s.store.Create(s.ctx, s.newCustomer(2))
	s.Require().NoError(err)

	s.Equal(int64(1), first.CustomerID)
	s.Equal(int64(2), second.CustomerID)
}

func (s *InMemorySuite) TestLookups() {
	created, err := s.store.Create(s.ctx, s.newCustomer(7))
	s.Require().NoError(err)

	s.Run("finds by id", func() {
		found, err := s.store.FindByID(s.ctx, created.CustomerID)
		s.Require().NoError(err)
		s.Equal(created.Email, found.Email)
	})

	s.Run("finds by user id", func() {
		found, err := s.store.FindByUserID(s.ctx, 7)
		s.Require().NoError(err)
		s.Equal(created.CustomerID, found.CustomerID)
	})

	s.Run("returns ErrNotFound for unknown ids", func() {
		_, err := s.store.FindByID(s.ctx, 404)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.FindByUserID(s.ctx, 404)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("resolves owner", func() {
		owner, err := s.store.OwnerUserID(s.ctx, created.CustomerID)
		s.Require().NoError(err)
		s.Equal(int64(7), owner)
	})
}

func (s *InMemorySuite) TestUniquenessRejectsEachDuplicateField() {
	_, err := s.store.Create(s.ctx, s.newCustomer(1))
	s.Require().NoError(err)

	fields := map[string]func(*models.Customer){
		"user id": func(c *models.Customer) { c.UserID = 1 },
		"phone":   func(c *models.Customer) { c.Phone = s.newCustomer(1).Phone },
		"email":   func(c *models.Customer) { c.Email = s.newCustomer(1).Email },
		"pan":     func(c *models.Customer) { c.PAN = s.newCustomer(1).PAN },
		"aadhaar": func(c *models.Customer) { c.Aadhaar = s.newCustomer(1).Aadhaar },
	}

	for name, overwrite := range fields {
		s.Run("duplicate "+name, func() {
			dup := s.newCustomer(50)
			overwrite(&dup)
			_, err := s.store.Create(s.ctx, dup)
			s.Require().ErrorIs(err, sentinel.ErrConflict)
		})
	}
}

func (s *InMemorySuite) TestExistenceProbes() {
	c := s.newCustomer(3)
	_, err := s.store.Create(s.ctx, c)
	s.Require().NoError(err)

	exists, err := s.store.ExistsByUserID(s.ctx, 3)
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.store.ExistsByPhone(s.ctx, c.Phone)
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.store.ExistsByEmail(s.ctx, "nobody@example.com")
	s.Require().NoError(err)
	s.False(exists)

	exists, err = s.store.ExistsByPAN(s.ctx, c.PAN)
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.store.ExistsByAadhaar(s.ctx, c.Aadhaar)
	s.Require().NoError(err)
	s.True(exists)
}

func (s *InMemorySuite) TestFindAllOrderedByID() {
	for userID := int64(5); userID >= 1; userID-- {
		_, err := s.store.Create(s.ctx, s.newCustomer(userID))
		s.Require().NoError(err)
	}

	all, err := s.store.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 5)
	for i := 1; i < len(all); i++ {
		s.Less(all[i-1].CustomerID, all[i].CustomerID)
	}
}

func (s *InMemorySuite) TestUpdateAppliesCallbackAtomically() {
	created, err := s.store.Create(s.ctx, s.newCustomer(1))
	s.Require().NoError(err)

	updated, err := s.store.Update(s.ctx, created.CustomerID, func(current models.Customer) (models.Customer, error) {
		return current.WithProfile("Renamed", "renamed@example.com", "New Address"), nil
	})
	s.Require().NoError(err)
	s.Equal("Renamed", updated.FullName)
	s.Equal(created.UserID, updated.UserID)
	s.Equal(created.RegisteredAt, updated.RegisteredAt)

	found, err := s.store.FindByID(s.ctx, created.CustomerID)
	s.Require().NoError(err)
	s.Equal("renamed@example.com", found.Email)
}

func (s *InMemorySuite) TestUpdateRejectsEmailCollision() {
	_, err := s.store.Create(s.ctx, s.newCustomer(1))
	s.Require().NoError(err)
	second, err := s.store.Create(s.ctx, s.newCustomer(2))
	s.Require().NoError(err)

	_, err = s.store.Update(s.ctx, second.CustomerID, func(current models.Customer) (models.Customer, error) {
		return current.WithProfile(current.FullName, s.newCustomer(1).Email, current.Address), nil
	})
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *InMemorySuite) TestUpdateUnknownCustomer() {
	_, err := s.store.Update(s.ctx, 404, func(current models.Customer) (models.Customer, error) {
		return current, nil
	})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentDuplicateCreate verifies that two racing registrations with
// the same aadhaar resolve to exactly one success and one conflict.
func (s *InMemorySuite) TestConcurrentDuplicateCreate() {
	const attempts = 8

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c := s.newCustomer(int64(n + 10))
			c.Aadhaar = "999988887777" // shared across all attempts
			_, err := s.store.Create(s.ctx, c)
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			s.Require().ErrorIs(err, sentinel.ErrConflict)
			conflicts++
		}
	}
	s.Equal(1, successes)
	s.Equal(attempts-1, conflicts)
}
