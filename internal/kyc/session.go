// Package kyc holds the onboarding verification core: the per-user session
// record that accumulates identity data, and the four-step state machine
// that sequences phone, document, biometric and personal-details checks.
package kyc

import (
	"sync"

	"github.com/zolani/khusela/internal/models"
)

const (
	StepPhoneVerification     = 1
	StepDocumentCapture       = 2
	StepBiometricVerification = 3
	StepPersonalDetails       = 4

	firstStep = StepPhoneVerification
	lastStep  = StepPersonalDetails
)

// Session is the state for one onboarding attempt. All access goes through
// its methods; Record and Step hand out snapshots, never internal pointers.
// One session belongs to exactly one user, but the HTTP layer may touch it
// from concurrent requests, hence the mutex.
type Session struct {
	mu     sync.Mutex
	record models.IdentityRecord
	step   int
	errMsg string
	busy   bool
	done   bool

	// generation increments every time the user navigates away from the
	// current step. Verification calls capture it before going remote and
	// drop their result if it changed in the meantime, so a stale response
	// can never land on the wrong step.
	generation uint64
}

func NewSession() *Session {
	return &Session{step: firstStep}
}

// Update merges the patch into the identity record, last write wins per
// field. Fields not present in the patch are never touched.
func (s *Session) Update(patch models.RecordPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(patch)
}

func (s *Session) apply(patch models.RecordPatch) {
	if patch.PhoneNumber != nil {
		s.record.PhoneNumber = *patch.PhoneNumber
	}
	if patch.PhoneVerified != nil {
		s.record.PhoneVerified = *patch.PhoneVerified
	}
	if patch.Extracted != nil {
		extracted := *patch.Extracted
		s.record.Extracted = &extracted
	}
	if patch.AuthorityVerified != nil {
		s.record.AuthorityVerified = *patch.AuthorityVerified
	}
	if patch.BiometricVerified != nil {
		s.record.BiometricVerified = *patch.BiometricVerified
	}
	if patch.DocumentReference != nil {
		s.record.DocumentReference = *patch.DocumentReference
	}
	if patch.PersistedID != nil {
		s.record.PersistedID = *patch.PersistedID
	}
}

// Reset clears the whole record and puts the cursor back on step one. Used
// only on explicit cancellation.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record = models.IdentityRecord{}
	s.step = firstStep
	s.errMsg = ""
	s.done = false
	s.generation++
}

// Record returns a snapshot of the accumulated identity data.
func (s *Session) Record() models.IdentityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.record
	if s.record.Extracted != nil {
		extracted := *s.record.Extracted
		snapshot.Extracted = &extracted
	}
	return snapshot
}

func (s *Session) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Session) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Err returns the error message attached to the current step, if any. It is
// transient feedback: the next submission attempt clears it.
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}
