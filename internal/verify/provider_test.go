package verify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewProvider(srv.URL, "test-key", nil)
}

func TestSendOTPSuccess(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/kyc/verify-phone", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{"success": true, "data": {"otp_sent": true}}`))
	})

	result, err := provider.SendOTP(context.Background(), "+27601234567")
	require.NoError(t, err)
	require.True(t, result.Sent)
}

func TestSendOTPFailureIsTaggedNotFatal(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error": "rate limited"}`))
	})

	result, err := provider.SendOTP(context.Background(), "+27601234567")
	require.NoError(t, err)
	require.False(t, result.Sent)
	require.Equal(t, "rate limited", result.Reason)
}

func TestVerifyOTPRejectionIsIndistinct(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error": "expired"}`))
	})

	result, err := provider.VerifyOTP(context.Background(), "+27601234567", "123456")
	require.NoError(t, err)
	require.False(t, result.Verified)
}

func TestVerifyWithAuthority(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/kyc/verify-id", r.URL.Path)
		w.Write([]byte(`{"success": true, "data": {"verified": true}}`))
	})

	result, err := provider.VerifyWithAuthority(context.Background(), "9001015800086")
	require.NoError(t, err)
	require.True(t, result.Verified)
}

func TestImagePayloadChecks(t *testing.T) {
	// Not an image at all.
	err := checkImagePayload([]byte("just text, definitely not pixels"))
	require.ErrorIs(t, err, ErrNotAnImage)

	// Over the ceiling.
	huge := make([]byte, MaxDocumentBytes+1)
	err = checkImagePayload(huge)
	require.ErrorIs(t, err, ErrPayloadTooLarge)

	// A minimal PNG header passes the sniff.
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 100)...)
	require.NoError(t, checkImagePayload(png))
}

func TestMatchBiometricScore(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/kyc/verify-biometric", r.URL.Path)
		w.Write([]byte(`{"success": true, "data": {"verified": true, "score": 0.92}}`))
	})

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 100)...)
	result, err := provider.MatchBiometric(context.Background(), png, "doc-ref-1")
	require.NoError(t, err)
	require.True(t, result.Verified)
	require.InDelta(t, 0.92, result.Score, 0.001)
}
