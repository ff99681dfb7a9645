package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/zolani/khusela/internal/models"
)

type PolicyRepository interface {
	Insert(policy *models.Policy) (string, error)
	GetOne(id string) (*models.Policy, bool, error)
	ListForUser(userID string) ([]models.Policy, error)
	SetStatus(id, status, reason string) error
	Activate(id string, coverStart time.Time) error
}

type PolicyRepositoryImpl struct {
	db *sqlx.DB
}

func NewPolicyRepository(db *sqlx.DB) PolicyRepository {
	return &PolicyRepositoryImpl{db: db}
}

func (repo *PolicyRepositoryImpl) Insert(policy *models.Policy) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var id string
	query := `
		INSERT INTO policies (user_id, product_id, premium_amount, status, decision_reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := repo.db.GetContext(ctx, &id, query,
		policy.UserID,
		policy.ProductID,
		policy.PremiumAmount,
		policy.Status,
		policy.DecisionReason,
	)
	if err != nil {
		return "", err
	}

	return id, nil
}

func (repo *PolicyRepositoryImpl) GetOne(id string) (*models.Policy, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var policy models.Policy
	query := `SELECT * FROM policies WHERE id = $1`

	err := repo.db.GetContext(ctx, &policy, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return &policy, true, nil
}

func (repo *PolicyRepositoryImpl) ListForUser(userID string) ([]models.Policy, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var policies []models.Policy
	query := `SELECT * FROM policies WHERE user_id = $1 ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &policies, query, userID)
	return policies, err
}

func (repo *PolicyRepositoryImpl) SetStatus(id, status, reason string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE policies SET status = $1, decision_reason = $2 WHERE id = $3`

	_, err := repo.db.ExecContext(ctx, query, status, sql.NullString{String: reason, Valid: reason != ""}, id)
	return err
}

func (repo *PolicyRepositoryImpl) Activate(id string, coverStart time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE policies SET status = $1, cover_start_date = $2 WHERE id = $3`

	_, err := repo.db.ExecContext(ctx, query, models.PolicyStatusActive, coverStart, id)
	return err
}
