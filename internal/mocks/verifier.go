package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zolani/khusela/internal/models"
	"github.com/zolani/khusela/internal/verify"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) SendOTP(ctx context.Context, phone string) (*verify.OTPResult, error) {
	args := m.Called(ctx, phone)
	result, _ := args.Get(0).(*verify.OTPResult)
	return result, args.Error(1)
}

func (m *MockVerifier) VerifyOTP(ctx context.Context, phone, code string) (*verify.OTPCheckResult, error) {
	args := m.Called(ctx, phone, code)
	result, _ := args.Get(0).(*verify.OTPCheckResult)
	return result, args.Error(1)
}

func (m *MockVerifier) ExtractDocument(ctx context.Context, image []byte, documentType string) (*verify.ExtractionResult, error) {
	args := m.Called(ctx, image, documentType)
	result, _ := args.Get(0).(*verify.ExtractionResult)
	return result, args.Error(1)
}

func (m *MockVerifier) VerifyWithAuthority(ctx context.Context, idNumber string) (*verify.AuthorityResult, error) {
	args := m.Called(ctx, idNumber)
	result, _ := args.Get(0).(*verify.AuthorityResult)
	return result, args.Error(1)
}

func (m *MockVerifier) MatchBiometric(ctx context.Context, selfie []byte, documentReference string) (*verify.BiometricResult, error) {
	args := m.Called(ctx, selfie, documentReference)
	result, _ := args.Get(0).(*verify.BiometricResult)
	return result, args.Error(1)
}

func (m *MockVerifier) Persist(ctx context.Context, record *models.IdentityRecord) (*verify.PersistResult, error) {
	args := m.Called(ctx, record)
	result, _ := args.Get(0).(*verify.PersistResult)
	return result, args.Error(1)
}
