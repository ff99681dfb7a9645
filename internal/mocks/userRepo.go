package mocks

import (
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/zolani/khusela/internal/models"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) CheckIfPhoneNumberExist(phoneNumber string) (bool, error) {
	return false, nil
}

func (m *MockUserRepo) Insert(user *models.User, tx *sqlx.Tx) (string, error) {
	args := m.Called(user, tx)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepo) GetOne(id string) (*models.User, bool, error) {
	args := m.Called(id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Bool(1), args.Error(2)
}

func (m *MockUserRepo) GetByPhone(phoneNumber string) (*models.User, bool, error) {
	args := m.Called(phoneNumber)
	user, _ := args.Get(0).(*models.User)
	return user, args.Bool(1), args.Error(2)
}

func (m *MockUserRepo) Verify(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockUserRepo) SetIdentity(id string, identity *models.ExtractedIdentity) error {
	args := m.Called(id, identity)
	return args.Error(0)
}
