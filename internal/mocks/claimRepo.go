package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/zolani/khusela/internal/models"
)

type MockClaimRepo struct {
	mock.Mock
}

func (m *MockClaimRepo) Insert(claim *models.Claim) (string, error) {
	args := m.Called(claim)
	return args.String(0), args.Error(1)
}

func (m *MockClaimRepo) GetOne(id string) (*models.Claim, bool, error) {
	args := m.Called(id)
	claim, _ := args.Get(0).(*models.Claim)
	return claim, args.Bool(1), args.Error(2)
}

func (m *MockClaimRepo) ListForUser(userID string) ([]models.Claim, error) {
	args := m.Called(userID)
	claims, _ := args.Get(0).([]models.Claim)
	return claims, args.Error(1)
}

func (m *MockClaimRepo) Cancel(id, reason string) error {
	args := m.Called(id, reason)
	return args.Error(0)
}
