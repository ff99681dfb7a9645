// Every notable account action, synchronous or asynchronous, gets a row in
// activity_logs. The entity/entity_id pair lets one table serve the whole
// application, and the trail doubles as an audit log.
package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/zolani/khusela/internal/models"
)

type ActivityRepository interface {
	Insert(log *models.ActivityLog) (*models.ActivityLog, error)
	ListForUser(userID string, limit int) ([]models.ActivityLog, error)
}

type ActivityRepositoryImpl struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) ActivityRepository {
	return &ActivityRepositoryImpl{db: db}
}

func (repo *ActivityRepositoryImpl) Insert(log *models.ActivityLog) (*models.ActivityLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO activity_logs (user_id, entity, entity_id, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := repo.db.QueryRowContext(ctx, query,
		log.UserID,
		log.Entity,
		log.EntityId,
		log.Description,
	).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		return nil, err
	}

	return log, nil
}

func (repo *ActivityRepositoryImpl) ListForUser(userID string, limit int) ([]models.ActivityLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	var logs []models.ActivityLog
	query := `
		SELECT * FROM activity_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	err := repo.db.SelectContext(ctx, &logs, query, userID, limit)
	return logs, err
}
