package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/zolani/khusela/internal/models"
)

type ReferralRepository interface {
	FindByCode(code string) (*models.ReferralCode, bool, error)
}

type ReferralRepositoryImpl struct {
	db *sqlx.DB
}

func NewReferralRepository(db *sqlx.DB) ReferralRepository {
	return &ReferralRepositoryImpl{db: db}
}

func (repo *ReferralRepositoryImpl) FindByCode(code string) (*models.ReferralCode, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var referral models.ReferralCode
	query := `SELECT * FROM referral_codes WHERE code = $1 AND active = TRUE`

	err := repo.db.GetContext(ctx, &referral, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return &referral, true, nil
}
