package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"customerd/internal/customer/models"
	"customerd/pkg/sentinel"
)

// Schema creates the customers table. The unique indexes are the system-wide
// arbiter for duplicate identifiers: two concurrent inserts with the same
// value resolve to exactly one success and one conflict.
const Schema = `
CREATE TABLE IF NOT EXISTS customers (
    customer_id   BIGSERIAL PRIMARY KEY,
    user_id       BIGINT       NOT NULL UNIQUE,
    full_name     TEXT         NOT NULL,
    phone         TEXT         NOT NULL UNIQUE,
    email         TEXT         NOT NULL UNIQUE,
    dob           DATE         NOT NULL,
    address       TEXT         NOT NULL,
    pan           TEXT         NOT NULL UNIQUE,
    aadhaar       TEXT         NOT NULL UNIQUE,
    kyc_status    TEXT         NOT NULL DEFAULT 'PENDING',
    registered_at TIMESTAMPTZ  NOT NULL
)`

// uniqueViolation is the Postgres error code for unique constraint failures.
const uniqueViolation = "23505"

// Postgres persists customer records in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the customers table if it does not exist yet.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure customers schema: %w", err)
	}
	return nil
}

const customerColumns = `customer_id, user_id, full_name, phone, email, dob, address, pan, aadhaar, kyc_status, registered_at`

func (s *Postgres) Create(ctx context.Context, c models.Customer) (models.Customer, error) {
	query := `
		INSERT INTO customers (user_id, full_name, phone, email, dob, address, pan, aadhaar, kyc_status, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING customer_id
	`
	err := s.db.QueryRowContext(ctx, query,
		c.UserID, c.FullName, c.Phone, c.Email, c.DOB.Time, c.Address, c.PAN, c.Aadhaar, string(c.KycStatus), c.RegisteredAt,
	).Scan(&c.CustomerID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Customer{}, sentinel.ErrConflict
		}
		return models.Customer{}, fmt.Errorf("insert customer: %w", err)
	}
	return c, nil
}

func (s *Postgres) FindByID(ctx context.Context, customerID int64) (models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE customer_id = $1`
	return scanCustomer(s.db.QueryRowContext(ctx, query, customerID))
}

func (s *Postgres) FindByUserID(ctx context.Context, userID int64) (models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE user_id = $1`
	return scanCustomer(s.db.QueryRowContext(ctx, query, userID))
}

func (s *Postgres) ExistsByUserID(ctx context.Context, userID int64) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE user_id = $1)`, userID)
}

func (s *Postgres) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE phone = $1)`, phone)
}

func (s *Postgres) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE email = $1)`, email)
}

func (s *Postgres) ExistsByPAN(ctx context.Context, pan string) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE pan = $1)`, pan)
}

func (s *Postgres) ExistsByAadhaar(ctx context.Context, aadhaar string) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE aadhaar = $1)`, aadhaar)
}

func (s *Postgres) exists(ctx context.Context, query string, arg any) (bool, error) {
	var found bool
	if err := s.db.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	return found, nil
}

func (s *Postgres) FindAll(ctx context.Context) ([]models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY customer_id ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var all []models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return all, nil
}

// Update executes a read-check-write sequence inside one transaction. The row
// is locked with FOR UPDATE before apply runs, so the ownership check and the
// mutation cannot race a concurrent writer.
func (s *Postgres) Update(ctx context.Context, customerID int64, apply func(models.Customer) (models.Customer, error)) (models.Customer, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Customer{}, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + customerColumns + ` FROM customers WHERE customer_id = $1 FOR UPDATE`
	current, err := scanCustomer(tx.QueryRowContext(ctx, query, customerID))
	if err != nil {
		return models.Customer{}, err
	}

	updated, err := apply(current)
	if err != nil {
		return models.Customer{}, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE customers
		SET full_name = $1, email = $2, address = $3, kyc_status = $4
		WHERE customer_id = $5`,
		updated.FullName, updated.Email, updated.Address, string(updated.KycStatus), customerID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Customer{}, sentinel.ErrConflict
		}
		return models.Customer{}, fmt.Errorf("update customer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Customer{}, fmt.Errorf("commit update: %w", err)
	}

	// Identity fields are never touched by the UPDATE statement.
	updated.CustomerID = current.CustomerID
	updated.UserID = current.UserID
	updated.RegisteredAt = current.RegisteredAt
	return updated, nil
}

// OwnerUserID resolves the owning user of a record for policy checks.
func (s *Postgres) OwnerUserID(ctx context.Context, customerID int64) (int64, error) {
	var userID int64
	err := s.db.QueryRowContext(ctx, `SELECT user_id FROM customers WHERE customer_id = $1`, customerID).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("resolve owner: %w", err)
	}
	return userID, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (models.Customer, error) {
	var c models.Customer
	var status string
	err := row.Scan(
		&c.CustomerID, &c.UserID, &c.FullName, &c.Phone, &c.Email,
		&c.DOB.Time, &c.Address, &c.PAN, &c.Aadhaar, &status, &c.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Customer{}, sentinel.ErrNotFound
		}
		return models.Customer{}, fmt.Errorf("scan customer: %w", err)
	}
	c.KycStatus = models.KycStatus(status)
	return c, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
