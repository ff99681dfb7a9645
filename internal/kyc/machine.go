package kyc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zolani/khusela/internal/models"
	"github.com/zolani/khusela/internal/verify"
)

var (
	ErrWrongStep      = errors.New("submission does not belong to the current step")
	ErrCallInFlight   = errors.New("a verification call is already in flight")
	ErrStepIncomplete = errors.New("current step is not complete")
	ErrSessionDone    = errors.New("onboarding already completed")
)

// CompletionFunc receives the finished identity record exactly once, when
// the personal-details step's predicate is satisfied and the flow advances
// past it.
type CompletionFunc func(record models.IdentityRecord)

// Machine drives one session through the four verification steps. It owns
// the only code path that mutates the session record, translates facade
// results into field updates, and guarantees that a failed call never
// touches fields captured by a different step.
type Machine struct {
	session    *Session
	verifier   verify.Verifier
	camera     CaptureDevice
	logger     *slog.Logger
	onComplete CompletionFunc

	leaseMu sync.Mutex
	lease   CaptureLease
}

func NewMachine(session *Session, verifier verify.Verifier, camera CaptureDevice, logger *slog.Logger, onComplete CompletionFunc) *Machine {
	return &Machine{
		session:    session,
		verifier:   verifier,
		camera:     camera,
		logger:     logger,
		onComplete: onComplete,
	}
}

func (m *Machine) Session() *Session {
	return m.session
}

// StartStep is the entry intent for a step the cursor is already on. It
// clears the previous error, supersedes any in-flight call for the step,
// and acquires the capture device for the steps that need a camera.
func (m *Machine) StartStep(step int) error {
	s := m.session

	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return ErrSessionDone
	}
	if s.step != step {
		s.mu.Unlock()
		return ErrWrongStep
	}
	s.errMsg = ""
	s.generation++
	s.mu.Unlock()

	m.releaseLease()

	if step == StepDocumentCapture || step == StepBiometricVerification {
		lease, err := m.camera.Acquire()
		if err != nil {
			m.setStepError("Camera access denied. Please allow camera permissions.")
			return ErrCaptureDenied
		}
		m.storeLease(lease)
	}

	return nil
}

// SubmitPhone asks the provider to send an OTP. The phone number is only
// recorded once the provider accepted it.
func (m *Machine) SubmitPhone(ctx context.Context, phone string) error {
	gen, err := m.begin(StepPhoneVerification)
	if err != nil {
		return err
	}

	result, err := m.verifier.SendOTP(ctx, phone)

	return m.finish(gen, func(s *Session) {
		if err != nil {
			s.errMsg = "Failed to send OTP. Please try again."
			m.logger.Error("send otp failed", "error", err)
			return
		}
		if !result.Sent {
			s.errMsg = reasonOr(result.Reason, "Failed to send OTP. Please try again.")
			return
		}
		s.apply(models.RecordPatch{PhoneNumber: &phone})
	})
}

// SubmitOTP checks the code against the phone number captured by
// SubmitPhone. A rejected code only resets the phone-verified flag.
func (m *Machine) SubmitOTP(ctx context.Context, code string) error {
	phone := m.session.Record().PhoneNumber
	if phone == "" {
		return fmt.Errorf("%w: no phone number on record", ErrWrongStep)
	}

	gen, err := m.begin(StepPhoneVerification)
	if err != nil {
		return err
	}

	result, err := m.verifier.VerifyOTP(ctx, phone, code)

	return m.finish(gen, func(s *Session) {
		verified := err == nil && result.Verified
		s.apply(models.RecordPatch{PhoneVerified: &verified})
		if !verified {
			s.errMsg = "Invalid OTP"
		}
	})
}

// SubmitDocument runs OCR over a captured document image. On success the
// extracted identity and the document reference replace any previous
// capture; on failure the previous capture is left untouched so the user
// can still see it.
func (m *Machine) SubmitDocument(ctx context.Context, image []byte, documentType string) error {
	gen, err := m.begin(StepDocumentCapture)
	if err != nil {
		return err
	}

	result, err := m.verifier.ExtractDocument(ctx, image, documentType)

	return m.finish(gen, func(s *Session) {
		if err != nil {
			s.errMsg = "Failed to extract ID data. Please try again."
			m.logger.Error("document extraction failed", "error", err)
			return
		}
		s.apply(models.RecordPatch{
			Extracted:         &result.Identity,
			DocumentReference: &result.DocumentReference,
		})
		m.releaseLease()
	})
}

// ConfirmDocument checks the extracted ID number against the authority
// registry. A rejection keeps the extracted fields so the user can review
// and re-capture; only the authority flag is cleared.
func (m *Machine) ConfirmDocument(ctx context.Context) error {
	record := m.session.Record()
	if record.Extracted == nil || record.Extracted.IDNumber == "" {
		return fmt.Errorf("%w: no extracted ID number on record", ErrWrongStep)
	}

	gen, err := m.begin(StepDocumentCapture)
	if err != nil {
		return err
	}

	result, err := m.verifier.VerifyWithAuthority(ctx, record.Extracted.IDNumber)

	return m.finish(gen, func(s *Session) {
		verified := err == nil && result.Verified
		s.apply(models.RecordPatch{AuthorityVerified: &verified})
		if !verified {
			s.errMsg = "ID verification failed. Please ensure your document is valid."
		}
	})
}

// SubmitSelfie runs the biometric match. The step is unreachable without a
// stored document reference, which is what the selfie is matched against.
// A failed match resets only the biometric flag; document and phone data
// survive for the retry.
func (m *Machine) SubmitSelfie(ctx context.Context, selfie []byte) error {
	record := m.session.Record()
	if record.DocumentReference == "" || record.Extracted == nil || record.Extracted.IDNumber == "" {
		return fmt.Errorf("%w: document capture must complete before the biometric step", ErrWrongStep)
	}

	gen, err := m.begin(StepBiometricVerification)
	if err != nil {
		return err
	}

	result, err := m.verifier.MatchBiometric(ctx, selfie, record.DocumentReference)

	return m.finish(gen, func(s *Session) {
		verified := err == nil && result.Verified
		s.apply(models.RecordPatch{BiometricVerified: &verified})
		if !verified {
			s.errMsg = "Biometric verification failed. Please ensure your face is clearly visible and matches your ID."
		}
		// The selfie capture is spent either way.
		m.releaseLease()
	})
}

// SubmitDetails records the user-confirmed personal fields and persists the
// finished record with the provider. The field updates stick even when the
// persist call fails, so nothing has to be re-entered on retry.
func (m *Machine) SubmitDetails(ctx context.Context, firstName, lastName, dateOfBirth string) error {
	record := m.session.Record()
	if record.Extracted == nil {
		return fmt.Errorf("%w: document capture must complete before personal details", ErrWrongStep)
	}

	gen, err := m.begin(StepPersonalDetails)
	if err != nil {
		return err
	}

	extracted := *record.Extracted
	extracted.FirstName = firstName
	extracted.LastName = lastName
	extracted.DateOfBirth = dateOfBirth
	m.session.Update(models.RecordPatch{Extracted: &extracted})

	updated := m.session.Record()
	result, err := m.verifier.Persist(ctx, &updated)

	return m.finish(gen, func(s *Session) {
		if err != nil {
			s.errMsg = "Failed to save personal details. Please try again."
			m.logger.Error("persisting identity record failed", "error", err)
			return
		}
		s.apply(models.RecordPatch{PersistedID: &result.RecordID})
	})
}

// Advance moves the cursor forward if and only if the current step's
// completion predicate holds. Advancing past the final step marks the
// session done and fires the completion callback.
func (m *Machine) Advance() error {
	s := m.session

	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return ErrSessionDone
	}
	if !stepComplete(s.step, &s.record) {
		s.mu.Unlock()
		return ErrStepIncomplete
	}

	if s.step < lastStep {
		s.step++
		s.errMsg = ""
		s.generation++
		s.mu.Unlock()
		m.releaseLease()
		return nil
	}

	s.done = true
	s.generation++
	record := s.record
	if s.record.Extracted != nil {
		extracted := *s.record.Extracted
		record.Extracted = &extracted
	}
	s.mu.Unlock()

	m.releaseLease()
	if m.onComplete != nil {
		m.onComplete(record)
	}
	return nil
}

// Retreat moves the cursor back one step, clamped at step one. Captured
// data is kept so the user can review without losing anything.
func (m *Machine) Retreat() {
	s := m.session

	s.mu.Lock()
	if s.step > firstStep {
		s.step--
		s.errMsg = ""
		s.generation++
	}
	s.mu.Unlock()

	m.releaseLease()
}

// Cancel abandons the attempt: the record is wiped and the cursor returns
// to step one. Confirmation is the caller's job.
func (m *Machine) Cancel() {
	m.session.Reset()
	m.releaseLease()
}

func (m *Machine) begin(step int) (uint64, error) {
	s := m.session

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return 0, ErrSessionDone
	}
	if s.step != step {
		return 0, ErrWrongStep
	}
	if s.busy {
		return 0, ErrCallInFlight
	}

	s.busy = true
	s.errMsg = ""
	return s.generation, nil
}

// finish applies the outcome of a facade call unless the user navigated
// away while it was in flight, in which case the stale result is dropped.
func (m *Machine) finish(gen uint64, apply func(s *Session)) error {
	s := m.session

	s.mu.Lock()
	defer s.mu.Unlock()

	s.busy = false

	if s.generation != gen {
		m.logger.Debug("dropping superseded verification result", "step", s.step)
		return nil
	}

	apply(s)
	return nil
}

func (m *Machine) setStepError(msg string) {
	s := m.session
	s.mu.Lock()
	s.errMsg = msg
	s.mu.Unlock()
}

func (m *Machine) releaseLease() {
	m.leaseMu.Lock()
	defer m.leaseMu.Unlock()

	if m.lease != nil {
		m.lease.Release()
		m.lease = nil
	}
}

func (m *Machine) storeLease(lease CaptureLease) {
	m.leaseMu.Lock()
	m.lease = lease
	m.leaseMu.Unlock()
}

// reasonOr prefers the provider's reason for a tagged failure, falling
// back to a generic message when the provider gave none.
func reasonOr(reason, fallback string) string {
	if reason != "" {
		return reason
	}
	return fallback
}

// stepComplete is the per-step completion predicate: the only gate on
// Advance succeeding.
func stepComplete(step int, record *models.IdentityRecord) bool {
	switch step {
	case StepPhoneVerification:
		return record.PhoneNumber != "" && record.PhoneVerified
	case StepDocumentCapture:
		return record.Extracted != nil && record.Extracted.IDNumber != "" && record.AuthorityVerified
	case StepBiometricVerification:
		return record.BiometricVerified
	case StepPersonalDetails:
		return record.Extracted != nil &&
			record.Extracted.FirstName != "" &&
			record.Extracted.LastName != "" &&
			record.Extracted.DateOfBirth != "" &&
			record.PersistedID != ""
	default:
		return false
	}
}
