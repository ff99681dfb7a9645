package kyc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zolani/khusela/internal/mocks"
	"github.com/zolani/khusela/internal/models"
	"github.com/zolani/khusela/internal/verify"
)

// fakeCamera counts acquisitions and releases so tests can assert the
// device is never leaked on any exit path.
type fakeCamera struct {
	denied   bool
	acquired int
	released int
}

func (c *fakeCamera) Acquire() (CaptureLease, error) {
	if c.denied {
		return nil, ErrCaptureDenied
	}
	c.acquired++
	return &fakeLease{camera: c}, nil
}

type fakeLease struct {
	camera *fakeCamera
}

func (l *fakeLease) Release() {
	l.camera.released++
}

func newTestMachine(verifier verify.Verifier, onComplete CompletionFunc) (*Machine, *fakeCamera) {
	camera := &fakeCamera{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMachine(NewSession(), verifier, camera, logger, onComplete), camera
}

func TestMachineHappyPath(t *testing.T) {
	ctx := context.Background()
	verifier := new(mocks.MockVerifier)

	verifier.On("SendOTP", mock.Anything, "+27601234567").Return(&verify.OTPResult{Sent: true}, nil)
	verifier.On("VerifyOTP", mock.Anything, "+27601234567", "123456").Return(&verify.OTPCheckResult{Verified: true}, nil)
	verifier.On("ExtractDocument", mock.Anything, mock.Anything, models.IDTypeNationalID).Return(&verify.ExtractionResult{
		Identity: models.ExtractedIdentity{
			FirstName:   "Naledi",
			LastName:    "Mokoena",
			DateOfBirth: "1990-01-01",
			IDNumber:    "9001015800086",
			IDType:      models.IDTypeNationalID,
		},
		DocumentReference: "doc-ref-1",
	}, nil)
	verifier.On("VerifyWithAuthority", mock.Anything, "9001015800086").Return(&verify.AuthorityResult{Verified: true}, nil)
	verifier.On("MatchBiometric", mock.Anything, mock.Anything, "doc-ref-1").Return(&verify.BiometricResult{Verified: true, Score: 0.92}, nil)
	verifier.On("Persist", mock.Anything, mock.Anything).Return(&verify.PersistResult{RecordID: "rec-99"}, nil)

	var completed *models.IdentityRecord
	machine, camera := newTestMachine(verifier, func(record models.IdentityRecord) {
		completed = &record
	})

	require.NoError(t, machine.SubmitPhone(ctx, "+27601234567"))
	require.NoError(t, machine.SubmitOTP(ctx, "123456"))
	require.NoError(t, machine.Advance())
	require.Equal(t, StepDocumentCapture, machine.Session().Step())

	require.NoError(t, machine.StartStep(StepDocumentCapture))
	require.NoError(t, machine.SubmitDocument(ctx, []byte("image"), models.IDTypeNationalID))
	require.NoError(t, machine.ConfirmDocument(ctx))
	require.NoError(t, machine.Advance())
	require.Equal(t, StepBiometricVerification, machine.Session().Step())

	require.NoError(t, machine.StartStep(StepBiometricVerification))
	require.NoError(t, machine.SubmitSelfie(ctx, []byte("selfie")))
	require.NoError(t, machine.Advance())
	require.Equal(t, StepPersonalDetails, machine.Session().Step())

	require.NoError(t, machine.SubmitDetails(ctx, "Naledi", "Mokoena", "1990-01-01"))
	require.NoError(t, machine.Advance())

	require.True(t, machine.Session().Done())
	require.NotNil(t, completed)
	require.Equal(t, "+27601234567", completed.PhoneNumber)
	require.Equal(t, "rec-99", completed.PersistedID)
	require.True(t, completed.BiometricVerified)

	// Data captured in step 2 survived to the end untouched.
	require.Equal(t, "9001015800086", completed.Extracted.IDNumber)

	require.Equal(t, camera.acquired, camera.released)
}

func TestAdvanceGatedByStepPredicate(t *testing.T) {
	machine, _ := newTestMachine(new(mocks.MockVerifier), nil)

	err := machine.Advance()
	require.ErrorIs(t, err, ErrStepIncomplete)
	require.Equal(t, StepPhoneVerification, machine.Session().Step())
}

func TestCursorClampedAtBounds(t *testing.T) {
	machine, _ := newTestMachine(new(mocks.MockVerifier), nil)

	machine.Retreat()
	machine.Retreat()
	require.Equal(t, StepPhoneVerification, machine.Session().Step())
}

func TestSendOTPFailureSurfacesProviderReason(t *testing.T) {
	ctx := context.Background()
	verifier := new(mocks.MockVerifier)
	verifier.On("SendOTP", mock.Anything, "+27601234567").Return(&verify.OTPResult{
		Sent:   false,
		Reason: "Too many OTP requests. Try again later.",
	}, nil)

	machine, _ := newTestMachine(verifier, nil)

	require.NoError(t, machine.SubmitPhone(ctx, "+27601234567"))
	require.Equal(t, "Too many OTP requests. Try again later.", machine.Session().Err())
	require.Empty(t, machine.Session().Record().PhoneNumber)
}

func TestSendOTPFailureWithoutReasonUsesFallback(t *testing.T) {
	ctx := context.Background()
	verifier := new(mocks.MockVerifier)
	verifier.On("SendOTP", mock.Anything, "+27601234567").Return(&verify.OTPResult{Sent: false}, nil)

	machine, _ := newTestMachine(verifier, nil)

	require.NoError(t, machine.SubmitPhone(ctx, "+27601234567"))
	require.Equal(t, "Failed to send OTP. Please try again.", machine.Session().Err())
}

func TestInvalidOTPKeepsPhoneNumber(t *testing.T) {
	ctx := context.Background()
	verifier := new(mocks.MockVerifier)
	verifier.On("SendOTP", mock.Anything, "+27601234567").Return(&verify.OTPResult{Sent: true}, nil)
	verifier.On("VerifyOTP", mock.Anything, "+27601234567", "000000").Return(&verify.OTPCheckResult{Verified: false}, nil)

	machine, _ := newTestMachine(verifier, nil)

	require.NoError(t, machine.SubmitPhone(ctx, "+27601234567"))
	require.NoError(t, machine.SubmitOTP(ctx, "000000"))

	record := machine.Session().Record()
	require.Equal(t, "+27601234567", record.PhoneNumber)
	require.False(t, record.PhoneVerified)
	require.Equal(t, "Invalid OTP", machine.Session().Err())

	require.ErrorIs(t, machine.Advance(), ErrStepIncomplete)
}

func TestAuthorityRejectionKeepsExtractedIdentity(t *testing.T) {
	ctx := context.Background()
	verifier := new(mocks.MockVerifier)
	verifier.On("ExtractDocument", mock.Anything, mock.Anything, models.IDTypeNationalID).Return(&verify.ExtractionResult{
		Identity:          models.ExtractedIdentity{IDNumber: "9001015800086", FirstName: "Naledi"},
		DocumentReference: "doc-ref-1",
	}, nil)
	verifier.On("VerifyWithAuthority", mock.Anything, "9001015800086").Return(&verify.AuthorityResult{Verified: false}, nil)

	machine, _ := newTestMachine(verifier, nil)
	machine.Session().mu.Lock()
	machine.Session().step = StepDocumentCapture
	machine.Session().mu.Unlock()

	require.NoError(t, machine.SubmitDocument(ctx, []byte("image"), models.IDTypeNationalID))
	require.NoError(t, machine.ConfirmDocument(ctx))

	record := machine.Session().Record()
	require.False(t, record.AuthorityVerified)
	require.NotNil(t, record.Extracted)
	require.Equal(t, "9001015800086", record.Extracted.IDNumber)
	require.NotEmpty(t, machine.Session().Err())

	require.ErrorIs(t, machine.Advance(), ErrStepIncomplete)
}

func TestFailedBiometricLeavesOtherFieldsUntouched(t *testing.T) {
	ctx := context.Background()
	verifier := new(mocks.MockVerifier)
	verifier.On("MatchBiometric", mock.Anything, mock.Anything, "doc-ref-1").Return(&verify.BiometricResult{Verified: false, Score: 0.4}, nil)

	machine, camera := newTestMachine(verifier, nil)
	session := machine.Session()

	phone := "+27601234567"
	phoneVerified := true
	ref := "doc-ref-1"
	session.Update(models.RecordPatch{
		PhoneNumber:       &phone,
		PhoneVerified:     &phoneVerified,
		Extracted:         &models.ExtractedIdentity{IDNumber: "9001015800086"},
		DocumentReference: &ref,
	})
	session.mu.Lock()
	session.step = StepBiometricVerification
	session.mu.Unlock()

	require.NoError(t, machine.StartStep(StepBiometricVerification))
	require.NoError(t, machine.SubmitSelfie(ctx, []byte("selfie")))

	record := session.Record()
	require.False(t, record.BiometricVerified)
	require.Equal(t, "+27601234567", record.PhoneNumber)
	require.Equal(t, "9001015800086", record.Extracted.IDNumber)
	require.Equal(t, "doc-ref-1", record.DocumentReference)

	// The selfie capture is spent whether or not the match succeeded.
	require.Equal(t, camera.acquired, camera.released)
}

func TestPersistFailureRetainsEnteredDetails(t *testing.T) {
	ctx := context.Background()
	verifier := new(mocks.MockVerifier)
	verifier.On("Persist", mock.Anything, mock.Anything).Return(nil, errors.New("provider unavailable")).Once()
	verifier.On("Persist", mock.Anything, mock.Anything).Return(&verify.PersistResult{RecordID: "rec-1"}, nil).Once()

	machine, _ := newTestMachine(verifier, nil)
	session := machine.Session()

	session.Update(models.RecordPatch{Extracted: &models.ExtractedIdentity{IDNumber: "9001015800086"}})
	session.mu.Lock()
	session.step = StepPersonalDetails
	session.mu.Unlock()

	require.NoError(t, machine.SubmitDetails(ctx, "Naledi", "Mokoena", "1990-01-01"))

	record := session.Record()
	require.Empty(t, record.PersistedID)
	require.Equal(t, "Naledi", record.Extracted.FirstName)
	require.NotEmpty(t, session.Err())

	// Nothing needs re-entering; the retry just re-persists.
	require.NoError(t, machine.SubmitDetails(ctx, "Naledi", "Mokoena", "1990-01-01"))
	require.Equal(t, "rec-1", session.Record().PersistedID)
	require.Empty(t, session.Err())
}

func TestCameraDeniedIsStepError(t *testing.T) {
	machine, camera := newTestMachine(new(mocks.MockVerifier), nil)
	camera.denied = true

	session := machine.Session()
	session.mu.Lock()
	session.step = StepDocumentCapture
	session.mu.Unlock()

	err := machine.StartStep(StepDocumentCapture)
	require.ErrorIs(t, err, ErrCaptureDenied)
	require.NotEmpty(t, session.Err())
	require.Equal(t, StepDocumentCapture, session.Step())
}

func TestSupersededResponseIsDropped(t *testing.T) {
	ctx := context.Background()
	verifier := new(mocks.MockVerifier)

	machine, _ := newTestMachine(verifier, nil)

	// The user re-enters the step while the OTP request is in flight; the
	// generation bump means the late response must not be applied.
	verifier.On("SendOTP", mock.Anything, "+27601234567").
		Run(func(args mock.Arguments) {
			require.NoError(t, machine.StartStep(StepPhoneVerification))
		}).
		Return(&verify.OTPResult{Sent: true}, nil)

	require.NoError(t, machine.SubmitPhone(ctx, "+27601234567"))
	require.Empty(t, machine.Session().Record().PhoneNumber)
}

func TestCancelResetsEverythingAndReleasesCamera(t *testing.T) {
	machine, camera := newTestMachine(new(mocks.MockVerifier), nil)
	session := machine.Session()

	phone := "+27601234567"
	session.Update(models.RecordPatch{PhoneNumber: &phone})
	session.mu.Lock()
	session.step = StepDocumentCapture
	session.mu.Unlock()

	require.NoError(t, machine.StartStep(StepDocumentCapture))
	machine.Cancel()

	require.Equal(t, StepPhoneVerification, session.Step())
	require.Equal(t, models.IdentityRecord{}, session.Record())
	require.Equal(t, camera.acquired, camera.released)
}

func TestDoneSessionRejectsFurtherSubmissions(t *testing.T) {
	machine, _ := newTestMachine(new(mocks.MockVerifier), nil)
	session := machine.Session()

	session.mu.Lock()
	session.done = true
	session.mu.Unlock()

	require.ErrorIs(t, machine.StartStep(StepPhoneVerification), ErrSessionDone)
	require.ErrorIs(t, machine.SubmitPhone(context.Background(), "+27601234567"), ErrSessionDone)
	require.ErrorIs(t, machine.Advance(), ErrSessionDone)
}
