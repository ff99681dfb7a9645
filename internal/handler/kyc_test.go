package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zolani/khusela/internal/context"
	"github.com/zolani/khusela/internal/errHandler"
	"github.com/zolani/khusela/internal/flow"
	"github.com/zolani/khusela/internal/helper"
	"github.com/zolani/khusela/internal/kyc"
	"github.com/zolani/khusela/internal/mocks"
	"github.com/zolani/khusela/internal/models"
	"github.com/zolani/khusela/internal/verify"
)

func newTestKycHandler(verifier verify.Verifier) (*KycHandler, *flow.Store) {
	var baseURL = "http://localhost"
	var wg sync.WaitGroup

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	flows := flow.NewStore(mocks.NewMockTokenStore(), logger)

	return &KycHandler{
		Flows:        flows,
		KycStore:     kyc.NewStore(verifier, logger),
		UserRepo:     new(mocks.MockUserRepo),
		ActivityRepo: new(mocks.MockActivityRepo),
		ErrHandler:   errHandler.New("", baseURL, nil, logger),
		Helper:       helper.New(&baseURL, &wg, &mocks.MockErrorHandler{}),
	}, flows
}

func kycRequest(t *testing.T, method, target, step string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, target, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if step != "" {
		req.SetPathValue("step", step)
	}

	return context.ContextSetAuthenticatedUser(req, &models.User{
		ID:          "user-1",
		PhoneNumber: "+27601234567",
		Status:      models.UserAccountActiveStatus,
	})
}

func decodeSession(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var response map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))

	data, ok := response["data"].(map[string]any)
	require.True(t, ok, "Expected response['data'] to be a map")
	return data
}

func TestHandleSubmitStep_SendAndVerifyOTP(t *testing.T) {
	verifier := new(mocks.MockVerifier)
	verifier.On("SendOTP", mock.Anything, "+27601234567").Return(&verify.OTPResult{Sent: true}, nil)
	verifier.On("VerifyOTP", mock.Anything, "+27601234567", "123456").Return(&verify.OTPCheckResult{Verified: true}, nil)

	kycHandler, _ := newTestKycHandler(verifier)

	rr := httptest.NewRecorder()
	req := kycRequest(t, "POST", "/kyc/steps/1", "1", map[string]string{
		"action": "send_otp",
		"phone":  "+27601234567",
	})
	kycHandler.HandleSubmitStep(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeSession(t, rr)
	require.Equal(t, float64(1), data["step"])

	rr = httptest.NewRecorder()
	req = kycRequest(t, "POST", "/kyc/steps/1", "1", map[string]string{
		"action": "verify_otp",
		"otp":    "123456",
	})
	kycHandler.HandleSubmitStep(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	data = decodeSession(t, rr)

	// A verified phone satisfies step one's predicate and the cursor moves on.
	require.Equal(t, float64(2), data["step"])

	record, ok := data["record"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "+27601234567", record["phone_number"])
	require.Equal(t, true, record["phone_verified"])
}

func TestHandleSubmitStep_RejectsMalformedPhoneLocally(t *testing.T) {
	verifier := new(mocks.MockVerifier)
	kycHandler, _ := newTestKycHandler(verifier)

	rr := httptest.NewRecorder()
	req := kycRequest(t, "POST", "/kyc/steps/1", "1", map[string]string{
		"action": "send_otp",
		"phone":  "12345",
	})
	kycHandler.HandleSubmitStep(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	// Nothing reached the facade.
	verifier.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything)
}

func TestHandleSubmitStep_InvalidOTPStaysOnStep(t *testing.T) {
	verifier := new(mocks.MockVerifier)
	verifier.On("SendOTP", mock.Anything, "+27601234567").Return(&verify.OTPResult{Sent: true}, nil)
	verifier.On("VerifyOTP", mock.Anything, "+27601234567", "000000").Return(&verify.OTPCheckResult{Verified: false}, nil)

	kycHandler, _ := newTestKycHandler(verifier)

	rr := httptest.NewRecorder()
	req := kycRequest(t, "POST", "/kyc/steps/1", "1", map[string]string{
		"action": "send_otp",
		"phone":  "+27601234567",
	})
	kycHandler.HandleSubmitStep(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	req = kycRequest(t, "POST", "/kyc/steps/1", "1", map[string]string{
		"action": "verify_otp",
		"otp":    "000000",
	})
	kycHandler.HandleSubmitStep(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeSession(t, rr)
	require.Equal(t, float64(1), data["step"])
	require.Equal(t, "Invalid OTP", data["error"])
}

func TestHandleSubmitStep_FailedCallDoesNotAdvance(t *testing.T) {
	verifier := new(mocks.MockVerifier)
	verifier.On("SendOTP", mock.Anything, "+27601234567").Return(&verify.OTPResult{
		Sent:   false,
		Reason: "Too many OTP requests. Try again later.",
	}, nil)

	kycHandler, _ := newTestKycHandler(verifier)

	rr := httptest.NewRecorder()
	req := kycRequest(t, "POST", "/kyc/steps/1", "1", map[string]string{
		"action": "send_otp",
		"phone":  "+27601234567",
	})
	kycHandler.HandleSubmitStep(rr, req)

	// The step predicate is unmet, so the cursor stays and the provider's
	// reason is surfaced as the step error.
	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeSession(t, rr)
	require.Equal(t, float64(1), data["step"])
	require.Equal(t, "Too many OTP requests. Try again later.", data["error"])

	record, ok := data["record"].(map[string]any)
	require.True(t, ok)
	require.Empty(t, record["phone_number"])
}

func TestHandleSubmitStep_WrongStepConflicts(t *testing.T) {
	verifier := new(mocks.MockVerifier)
	kycHandler, _ := newTestKycHandler(verifier)

	// Selfie submission while the cursor is on step one.
	rr := httptest.NewRecorder()
	req := kycRequest(t, "POST", "/kyc/steps/3", "3", map[string]string{
		"action": "capture_selfie",
		"image":  base64.StdEncoding.EncodeToString([]byte("selfie")),
	})
	kycHandler.HandleSubmitStep(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestHandleSubmitStep_InvalidStepRejected(t *testing.T) {
	kycHandler, _ := newTestKycHandler(new(mocks.MockVerifier))

	rr := httptest.NewRecorder()
	req := kycRequest(t, "POST", "/kyc/steps/9", "9", map[string]string{"action": "send_otp"})
	kycHandler.HandleSubmitStep(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleGoBack_ClampedAtFirstStep(t *testing.T) {
	kycHandler, _ := newTestKycHandler(new(mocks.MockVerifier))

	rr := httptest.NewRecorder()
	req := kycRequest(t, "POST", "/kyc/back", "", nil)
	kycHandler.HandleGoBack(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeSession(t, rr)
	require.Equal(t, float64(1), data["step"])
}

func TestHandleCancel_DiscardsSessionAndAbandonsOnboarding(t *testing.T) {
	verifier := new(mocks.MockVerifier)
	verifier.On("SendOTP", mock.Anything, "+27601234567").Return(&verify.OTPResult{Sent: true}, nil)

	kycHandler, flows := newTestKycHandler(verifier)
	activityRepo := kycHandler.ActivityRepo.(*mocks.MockActivityRepo)
	activityRepo.On("Insert", mock.Anything).Return(&models.ActivityLog{}, nil)

	rr := httptest.NewRecorder()
	req := kycRequest(t, "POST", "/kyc/steps/1", "1", map[string]string{
		"action": "send_otp",
		"phone":  "+27601234567",
	})
	kycHandler.HandleSubmitStep(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	req = kycRequest(t, "POST", "/kyc/cancel", "", nil)
	kycHandler.HandleCancel(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, flow.StageWelcome, flows.For("user-1").Stage())

	_, found := kycHandler.KycStore.Get("user-1")
	require.False(t, found)
}

func TestHandleSession_ReturnsFreshSession(t *testing.T) {
	kycHandler, _ := newTestKycHandler(new(mocks.MockVerifier))

	rr := httptest.NewRecorder()
	req := kycRequest(t, "GET", "/kyc/session", "", nil)
	kycHandler.HandleSession(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeSession(t, rr)
	require.Equal(t, float64(1), data["step"])
	require.Equal(t, false, data["done"])
}
