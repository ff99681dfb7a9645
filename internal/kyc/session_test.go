package kyc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zolani/khusela/internal/models"
)

func TestSessionUpdateIsIdempotent(t *testing.T) {
	session := NewSession()

	phone := "+27601234567"
	session.Update(models.RecordPatch{PhoneNumber: &phone})
	first := session.Record()

	session.Update(models.RecordPatch{PhoneNumber: &phone})
	second := session.Record()

	require.Equal(t, first, second)
}

func TestSessionUpdateNeverClearsAbsentFields(t *testing.T) {
	session := NewSession()

	phone := "+27601234567"
	verified := true
	session.Update(models.RecordPatch{PhoneNumber: &phone, PhoneVerified: &verified})

	extracted := models.ExtractedIdentity{
		FirstName: "Naledi",
		LastName:  "Mokoena",
		IDNumber:  "9001015800086",
		IDType:    models.IDTypeNationalID,
	}
	session.Update(models.RecordPatch{Extracted: &extracted})

	record := session.Record()
	require.Equal(t, "+27601234567", record.PhoneNumber)
	require.True(t, record.PhoneVerified)
	require.NotNil(t, record.Extracted)
	require.Equal(t, "9001015800086", record.Extracted.IDNumber)
}

func TestSessionRecordReturnsSnapshot(t *testing.T) {
	session := NewSession()

	extracted := models.ExtractedIdentity{FirstName: "Naledi"}
	session.Update(models.RecordPatch{Extracted: &extracted})

	snapshot := session.Record()
	snapshot.Extracted.FirstName = "changed"

	require.Equal(t, "Naledi", session.Record().Extracted.FirstName)
}

func TestSessionResetClearsEverything(t *testing.T) {
	session := NewSession()

	phone := "+27601234567"
	verified := true
	ref := "doc-ref"
	session.Update(models.RecordPatch{
		PhoneNumber:       &phone,
		PhoneVerified:     &verified,
		DocumentReference: &ref,
	})
	session.mu.Lock()
	session.step = StepBiometricVerification
	session.mu.Unlock()

	session.Reset()

	require.Equal(t, StepPhoneVerification, session.Step())
	require.Equal(t, models.IdentityRecord{}, session.Record())
	require.Empty(t, session.Err())
	require.False(t, session.Done())
}
