package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/zolani/khusela/internal/models"
)

type MockPolicyRepo struct {
	mock.Mock
}

func (m *MockPolicyRepo) Insert(policy *models.Policy) (string, error) {
	args := m.Called(policy)
	return args.String(0), args.Error(1)
}

func (m *MockPolicyRepo) GetOne(id string) (*models.Policy, bool, error) {
	args := m.Called(id)
	policy, _ := args.Get(0).(*models.Policy)
	return policy, args.Bool(1), args.Error(2)
}

func (m *MockPolicyRepo) ListForUser(userID string) ([]models.Policy, error) {
	args := m.Called(userID)
	policies, _ := args.Get(0).([]models.Policy)
	return policies, args.Error(1)
}

func (m *MockPolicyRepo) SetStatus(id, status, reason string) error {
	args := m.Called(id, status, reason)
	return args.Error(0)
}

func (m *MockPolicyRepo) Activate(id string, coverStart time.Time) error {
	args := m.Called(id, coverStart)
	return args.Error(0)
}
