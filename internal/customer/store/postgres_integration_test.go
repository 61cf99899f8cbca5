//go:build integration

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"customerd/internal/customer/models"
	"customerd/pkg/sentinel"
	"customerd/pkg/testutil/containers"
)

type PostgresSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Postgres
	ctx   context.Context
}

func TestPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.Require().NoError(s.store.EnsureSchema(s.ctx))
}

func (s *PostgresSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "customers"))
}

func (s *PostgresSuite) seed(userID int64) models.Customer {
	c, err := s.store.Create(s.ctx, models.Customer{
		UserID:       userID,
		FullName:     "Asha Verma",
		Phone:        "+919876543210",
		Email:        "asha.verma@example.com",
		DOB:          models.NewDate(1991, time.June, 20),
		Address:      "12 MG Road, Bengaluru",
		PAN:          "ABCDE1234F",
		Aadhaar:      "123456789012",
		KycStatus:    models.KycPending,
		RegisteredAt: time.Now().UTC(),
	})
	s.Require().NoError(err)
	return c
}

func (s *PostgresSuite) TestCreateAndFind() {
	created := s.seed(42)
	s.NotZero(created.CustomerID)

	byID, err := s.store.FindByID(s.ctx, created.CustomerID)
	s.Require().NoError(err)
	s.Equal(created.Email, byID.Email)
	s.Equal(models.KycPending, byID.KycStatus)

	byUser, err := s.store.FindByUserID(s.ctx, 42)
	s.Require().NoError(err)
	s.Equal(created.CustomerID, byUser.CustomerID)

	_, err = s.store.FindByID(s.ctx, created.CustomerID+1)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresSuite) TestUniqueConstraintsSurfaceAsConflicts() {
	first := s.seed(42)

	dup := models.Customer{
		UserID:       43,
		FullName:     "Rohan Mehta",
		Phone:        "+919000000001",
		Email:        "rohan@example.com",
		DOB:          models.NewDate(1988, time.February, 2),
		Address:      "4 Park Street, Kolkata",
		PAN:          "FGHIJ5678K",
		Aadhaar:      first.Aadhaar, // collides
		KycStatus:    models.KycPending,
		RegisteredAt: time.Now().UTC(),
	}
	_, err := s.store.Create(s.ctx, dup)
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresSuite) TestExistenceProbes() {
	created := s.seed(42)

	exists, err := s.store.ExistsByUserID(s.ctx, 42)
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.store.ExistsByPAN(s.ctx, created.PAN)
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.store.ExistsByEmail(s.ctx, "nobody@example.com")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *PostgresSuite) TestUpdateRunsInsideOneTransaction() {
	created := s.seed(42)

	updated, err := s.store.Update(s.ctx, created.CustomerID, func(current models.Customer) (models.Customer, error) {
		return current.WithKycStatus(models.KycVerified), nil
	})
	s.Require().NoError(err)
	s.Equal(models.KycVerified, updated.KycStatus)

	persisted, err := s.store.FindByID(s.ctx, created.CustomerID)
	s.Require().NoError(err)
	s.Equal(models.KycVerified, persisted.KycStatus)
	s.Equal(created.UserID, persisted.UserID)
}

func (s *PostgresSuite) TestUpdateUnknownCustomer() {
	_, err := s.store.Update(s.ctx, 404, func(current models.Customer) (models.Customer, error) {
		return current, nil
	})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresSuite) TestOwnerUserID() {
	created := s.seed(42)

	owner, err := s.store.OwnerUserID(s.ctx, created.CustomerID)
	s.Require().NoError(err)
	s.Equal(int64(42), owner)

	_, err = s.store.OwnerUserID(s.ctx, created.CustomerID+1)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresSuite) TestFindAllOrderedByID() {
	for i := int64(1); i <= 3; i++ {
		_, err := s.store.Create(s.ctx, models.Customer{
			UserID:       i,
			FullName:     "Customer",
			Phone:        "+9190000000" + string(rune('0'+i)) + "0",
			Email:        string(rune('a'+i)) + "@example.com",
			DOB:          models.NewDate(1990, time.January, 1),
			Address:      "Somewhere",
			PAN:          "ABCDE123" + string(rune('0'+i)) + "F",
			Aadhaar:      "12345678901" + string(rune('0'+i)),
			KycStatus:    models.KycPending,
			RegisteredAt: time.Now().UTC(),
		})
		s.Require().NoError(err)
	}

	all, err := s.store.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	for i := 1; i < len(all); i++ {
		s.Less(all[i-1].CustomerID, all[i].CustomerID)
	}
}

// TestConcurrentDuplicateAadhaar races two inserts with the same aadhaar.
// The unique index is the arbiter: exactly one insert wins.
func (s *PostgresSuite) TestConcurrentDuplicateAadhaar() {
	base := models.Customer{
		FullName:     "Racing Customer",
		DOB:          models.NewDate(1990, time.January, 1),
		Address:      "Somewhere",
		Aadhaar:      "999988887777",
		KycStatus:    models.KycPending,
		RegisteredAt: time.Now().UTC(),
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c := base
			c.UserID = int64(100 + n)
			c.Phone = "+91900000000" + string(rune('0'+n))
			c.Email = string(rune('x'+n)) + "@example.com"
			c.PAN = "RACED123" + string(rune('0'+n)) + "Z"
			_, errs[n] = s.store.Create(s.ctx, c)
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		default:
			s.Require().ErrorIs(err, sentinel.ErrConflict)
			conflicts++
		}
	}
	s.Equal(1, successes)
	s.Equal(1, conflicts)
}
