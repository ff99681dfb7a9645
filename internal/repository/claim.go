package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/zolani/khusela/internal/models"
)

type ClaimRepository interface {
	Insert(claim *models.Claim) (string, error)
	GetOne(id string) (*models.Claim, bool, error)
	ListForUser(userID string) ([]models.Claim, error)
	Cancel(id, reason string) error
}

type ClaimRepositoryImpl struct {
	db *sqlx.DB
}

func NewClaimRepository(db *sqlx.DB) ClaimRepository {
	return &ClaimRepositoryImpl{db: db}
}

func (repo *ClaimRepositoryImpl) Insert(claim *models.Claim) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO claims (policy_id, user_id, beneficiary_name, details, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := repo.db.GetContext(ctx, &id, query,
		claim.PolicyID,
		claim.UserID,
		claim.BeneficiaryName,
		claim.Details,
		claim.Status,
	)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *ClaimRepositoryImpl) GetOne(id string) (*models.Claim, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var claim models.Claim
	query := `SELECT * FROM claims WHERE id = $1`

	err := repo.db.GetContext(ctx, &claim, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return &claim, true, nil
}

func (repo *ClaimRepositoryImpl) ListForUser(userID string) ([]models.Claim, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var claims []models.Claim
	query := `SELECT * FROM claims WHERE user_id = $1 ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &claims, query, userID)
	return claims, err
}

func (repo *ClaimRepositoryImpl) Cancel(id, reason string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE claims SET status = $1, cancel_reason = $2, updated_at = NOW() WHERE id = $3`

	_, err := repo.db.ExecContext(ctx, query,
		models.ClaimStatusCancelled,
		sql.NullString{String: reason, Valid: reason != ""},
		id,
	)
	return err
}
