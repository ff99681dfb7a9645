// Package verify wraps the remote identity-verification provider behind a
// narrow facade. Every operation is a single request/response call with no
// shared state between calls; failures come back as tagged results and are
// interpreted by the KYC step machine, never as panics across the boundary.
package verify

import (
	"context"

	"github.com/zolani/khusela/internal/models"
)

// MaxDocumentBytes is the size ceiling for uploaded document and selfie
// images. Larger payloads are rejected before any remote call is made.
const MaxDocumentBytes = 5 << 20

type OTPResult struct {
	Sent   bool
	Reason string
}

type OTPCheckResult struct {
	// Verified is false for a wrong code and for an expired one alike; the
	// provider deliberately does not tell callers which it was.
	Verified bool
}

type ExtractionResult struct {
	Identity models.ExtractedIdentity
	// DocumentReference is an opaque handle to the stored document image.
	// The biometric match needs it as the comparison target.
	DocumentReference string
}

type AuthorityResult struct {
	Verified bool
	Reason   string
}

type BiometricResult struct {
	Verified bool
	Score    float64
}

type PersistResult struct {
	RecordID string
}

// Verifier is the boundary contract with the remote verification provider.
type Verifier interface {
	// SendOTP triggers an out-of-band SMS to the given phone number.
	// Safe to retry; throttling is the provider's concern.
	SendOTP(ctx context.Context, phone string) (*OTPResult, error)

	// VerifyOTP checks a 6 digit code previously sent to the phone number.
	VerifyOTP(ctx context.Context, phone, code string) (*OTPCheckResult, error)

	// ExtractDocument runs OCR over a captured identity document image.
	ExtractDocument(ctx context.Context, image []byte, documentType string) (*ExtractionResult, error)

	// VerifyWithAuthority checks an extracted ID number against the
	// government registry.
	VerifyWithAuthority(ctx context.Context, idNumber string) (*AuthorityResult, error)

	// MatchBiometric compares a live selfie against the stored document
	// image. Any Verified:false result requires a fresh selfie capture.
	MatchBiometric(ctx context.Context, selfie []byte, documentReference string) (*BiometricResult, error)

	// Persist hands the completed identity record to the provider for
	// durable storage and returns the record handle.
	Persist(ctx context.Context, record *models.IdentityRecord) (*PersistResult, error)
}
