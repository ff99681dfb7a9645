package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/zolani/khusela/internal/models"
)

type MockActivityRepo struct {
	mock.Mock
}

func (m *MockActivityRepo) Insert(log *models.ActivityLog) (*models.ActivityLog, error) {
	args := m.Called(log)
	return args.Get(0).(*models.ActivityLog), args.Error(1)
}

func (m *MockActivityRepo) ListForUser(userID string, limit int) ([]models.ActivityLog, error) {
	return nil, nil
}
