package models

// ExtractedIdentity holds the fields read off a captured identity document
// by the remote OCR service. The personal-details step may overwrite the
// name and date-of-birth fields before the record is persisted.
type ExtractedIdentity struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"`
	IDNumber    string `json:"id_number"`
	IDType      string `json:"id_type"`
}

// IdentityRecord is the accumulating truth for one onboarding attempt.
// Each verification step only ever adds fields it owns; a failed call
// clears nothing but the field it was trying to set.
type IdentityRecord struct {
	PhoneNumber       string             `json:"phone_number"`
	PhoneVerified     bool               `json:"phone_verified"`
	Extracted         *ExtractedIdentity `json:"extracted_identity,omitempty"`
	AuthorityVerified bool               `json:"authority_verified"`
	BiometricVerified bool               `json:"biometric_verified"`
	DocumentReference string             `json:"document_reference,omitempty"`
	PersistedID       string             `json:"persisted_id,omitempty"`
}

// RecordPatch is a partial IdentityRecord. Nil fields are left untouched
// when the patch is applied, so callers can never accidentally erase data
// captured by another step.
type RecordPatch struct {
	PhoneNumber       *string
	PhoneVerified     *bool
	Extracted         *ExtractedIdentity
	AuthorityVerified *bool
	BiometricVerified *bool
	DocumentReference *string
	PersistedID       *string
}

const (
	IDTypeNationalID = "national_id"
	IDTypePassport   = "passport"
)
