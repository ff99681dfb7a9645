package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/zolani/khusela/internal/models"
)

type UserRepository interface {
	CheckIfPhoneNumberExist(phoneNumber string) (bool, error)
	Insert(user *models.User, tx *sqlx.Tx) (string, error)
	GetOne(id string) (*models.User, bool, error)
	GetByPhone(phoneNumber string) (*models.User, bool, error)
	Verify(id string) error
	SetIdentity(id string, identity *models.ExtractedIdentity) error
}

type UserRepositoryImpl struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (repo *UserRepositoryImpl) Insert(user *models.User, tx *sqlx.Tx) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO users (first_name, last_name, phone_number, email, referred_by, hashed_password)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	args := []any{
		user.FirstName,
		user.LastName,
		user.PhoneNumber,
		user.Email,
		user.ReferredBy,
		user.HashedPassword,
	}

	if tx != nil {
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return "", err
		}
	} else {
		if err := repo.db.GetContext(ctx, &id, query, args...); err != nil {
			return "", err
		}
	}

	return id, nil
}

func (repo *UserRepositoryImpl) CheckIfPhoneNumberExist(phoneNumber string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE phone_number = $1 AND deleted_at IS NULL)`

	err := repo.db.GetContext(ctx, &exists, query, phoneNumber)
	return exists, err
}

func (repo *UserRepositoryImpl) GetOne(id string) (*models.User, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var user models.User
	query := `SELECT * FROM users WHERE id = $1 AND deleted_at IS NULL`

	err := repo.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return &user, true, nil
}

func (repo *UserRepositoryImpl) GetByPhone(phoneNumber string) (*models.User, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var user models.User
	query := `SELECT * FROM users WHERE phone_number = $1 AND deleted_at IS NULL`

	err := repo.db.GetContext(ctx, &user, query, phoneNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return &user, true, nil
}

func (repo *UserRepositoryImpl) Verify(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE users SET status = $1, verified_at = $2 WHERE id = $3`

	_, err := repo.db.ExecContext(ctx, query, models.UserAccountActiveStatus, time.Now(), id)
	return err
}

// SetIdentity copies the verified identity fields onto the user row once
// the KYC flow completes.
func (repo *UserRepositoryImpl) SetIdentity(id string, identity *models.ExtractedIdentity) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, id_number = $3, date_of_birth = $4
		WHERE id = $5`

	_, err := repo.db.ExecContext(ctx, query,
		identity.FirstName,
		identity.LastName,
		identity.IDNumber,
		identity.DateOfBirth,
		id,
	)
	return err
}
